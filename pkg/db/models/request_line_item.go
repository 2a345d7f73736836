package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestLineItem snapshots one cart line at checkout. UnitPrice is the
// product price at purchase time, immune to later catalog changes.
type RequestLineItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	RequestID uuid.UUID       `gorm:"column:request_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
}
