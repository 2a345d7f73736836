package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is a payment receive-address pool entry. InUse is true exactly when
// a WalletAssignment references the row.
type Wallet struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Address   string    `gorm:"column:address;not null;uniqueIndex"`
	InUse     bool      `gorm:"column:in_use;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
