package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestStatus is the one-way purchase request lifecycle:
// pending -> completed | rejected, never reversed.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusRejected  RequestStatus = "rejected"
)

// Terminal reports whether the status admits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusRejected
}

// PurchaseRequest is the durable record of a checkout attempt. TotalAmount
// and the line items are price snapshots fixed at creation time.
type PurchaseRequest struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID          int64             `gorm:"column:user_id;not null;index"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	WalletAddress   string            `gorm:"column:wallet_address;not null"`
	Status          RequestStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	DiscountPercent int               `gorm:"column:discount_percent;not null;default:0"`
	Items           []RequestLineItem `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
