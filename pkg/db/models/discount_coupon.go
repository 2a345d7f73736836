package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscountCoupon is a single-use, expiring discount token owned by one user.
type DiscountCoupon struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID          int64     `gorm:"column:user_id;not null;index"`
	Code            string    `gorm:"column:code;not null;uniqueIndex"`
	DiscountPercent int       `gorm:"column:discount_percent;not null"`
	Source          string    `gorm:"column:source;not null"`
	IsUsed          bool      `gorm:"column:is_used;not null;default:false"`
	ExpiresAt       time.Time `gorm:"column:expires_at;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
