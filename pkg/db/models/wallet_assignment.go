package models

import (
	"time"

	"github.com/google/uuid"
)

// WalletAssignment binds a wallet to a user. Assignments are sticky: created
// on first checkout and removed only by an explicit admin release.
type WalletAssignment struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex"`
	WalletID  uuid.UUID `gorm:"column:wallet_id;type:uuid;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
