package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendora-dev/vendora-backend/pkg/db/models"
)

// Line is a cart row joined with its product snapshot for display and
// pricing.
type Line struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// Subtotal is the line's quantity-weighted price.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Repository exposes cart persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	AddLine(ctx context.Context, userID int64, productID uuid.UUID, quantity int) (*models.CartLine, error)
	Lines(ctx context.Context, userID int64) ([]Line, error)
	RemoveLine(ctx context.Context, userID int64, lineID uuid.UUID) (bool, error)
	Clear(ctx context.Context, userID int64) error
	Count(ctx context.Context, userID int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// AddLine appends a new row. Lines for the same product are kept separate,
// never merged.
func (r *repository) AddLine(ctx context.Context, userID int64, productID uuid.UUID, quantity int) (*models.CartLine, error) {
	line := &models.CartLine{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

func (r *repository) Lines(ctx context.Context, userID int64) ([]Line, error) {
	var lines []Line
	err := r.db.WithContext(ctx).
		Table("cart_lines").
		Select("cart_lines.id, cart_lines.product_id, products.name AS product_name, products.price AS unit_price, cart_lines.quantity").
		Joins("JOIN products ON products.id = cart_lines.product_id").
		Where("cart_lines.user_id = ?", userID).
		Order("cart_lines.created_at ASC, cart_lines.id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// RemoveLine deletes one row, scoped to the owner so users cannot remove
// each other's lines.
func (r *repository) RemoveLine(ctx context.Context, userID int64, lineID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, userID).
		Delete(&models.CartLine{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Clear(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartLine{}).Error
}

func (r *repository) Count(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
