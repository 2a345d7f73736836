package cron

import (
	"context"
	"fmt"
)

type couponSweeper interface {
	ExpireSweep(ctx context.Context) (int64, error)
}

// CouponExpiryJob removes coupons past their expiry date.
type CouponExpiryJob struct {
	coupons couponSweeper
}

// NewCouponExpiryJob builds the coupon expiry job.
func NewCouponExpiryJob(coupons couponSweeper) *CouponExpiryJob {
	return &CouponExpiryJob{coupons: coupons}
}

func (j *CouponExpiryJob) Name() string { return "coupon_expiry" }

func (j *CouponExpiryJob) Run(ctx context.Context) error {
	if _, err := j.coupons.ExpireSweep(ctx); err != nil {
		return fmt.Errorf("sweep expired coupons: %w", err)
	}
	return nil
}
