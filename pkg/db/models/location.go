package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a single-use delivery resource tied to a product. Allocation is
// destructive: the row is deleted the moment it is handed to a buyer, so every
// surviving row is available by construction.
type Location struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	ImagePath string    `gorm:"column:image_path;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
