package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a storefront customer keyed by their Telegram chat id.
// FailedPayments resets to 0 on any completed request; IsBanned flips once
// the counter reaches the configured threshold and stays set until an admin
// clears it.
type User struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TelegramID     int64     `gorm:"column:telegram_id;not null;uniqueIndex"`
	FailedPayments int       `gorm:"column:failed_payments;not null;default:0"`
	IsBanned       bool      `gorm:"column:is_banned;not null;default:false"`
	IsAuthorized   bool      `gorm:"column:is_authorized;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
