package coupons

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-dev/vendora-backend/pkg/db/models"
	pkgerrors "github.com/vendora-dev/vendora-backend/pkg/errors"
)

// Repository exposes discount coupon persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, coupon *models.DiscountCoupon) error
	FindByCode(ctx context.Context, code string) (*models.DiscountCoupon, error)
	MarkUsed(ctx context.Context, couponID uuid.UUID) (bool, error)
	ListAvailable(ctx context.Context, userID int64, now time.Time) ([]models.DiscountCoupon, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a coupon repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, coupon *models.DiscountCoupon) error {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.DiscountCoupon, error) {
	var coupon models.DiscountCoupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, err
	}
	return &coupon, nil
}

// MarkUsed consumes the coupon only if it is still unused. A false return
// means a concurrent checkout got there first.
func (r *repository) MarkUsed(ctx context.Context, couponID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DiscountCoupon{}).
		Where("id = ? AND is_used = ?", couponID, false).
		UpdateColumn("is_used", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListAvailable(ctx context.Context, userID int64, now time.Time) ([]models.DiscountCoupon, error) {
	var coupons []models.DiscountCoupon
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_used = ? AND expires_at > ?", userID, false, now).
		Order("expires_at ASC").
		Find(&coupons).Error
	if err != nil {
		return nil, err
	}
	return coupons, nil
}

// DeleteExpired drops coupons past their expiry, used or not.
func (r *repository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", before).
		Delete(&models.DiscountCoupon{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
