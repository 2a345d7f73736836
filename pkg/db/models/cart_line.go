package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is a transient per-user cart row. Duplicate product lines are kept
// separate, not merged. The whole set is deleted when a purchase request is
// created from the cart.
type CartLine struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
