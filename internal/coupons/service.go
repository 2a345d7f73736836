package coupons

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/vendora-dev/vendora-backend/pkg/config"
	"github.com/vendora-dev/vendora-backend/pkg/db"
	"github.com/vendora-dev/vendora-backend/pkg/db/models"
	pkgerrors "github.com/vendora-dev/vendora-backend/pkg/errors"
	"github.com/vendora-dev/vendora-backend/pkg/logger"
)

const (
	codeLength    = 10
	codeCharset   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	createRetries = 3
)

// Service manages per-user discount coupons.
type Service interface {
	Create(ctx context.Context, userID int64, percent int, source string) (*models.DiscountCoupon, error)
	Validate(ctx context.Context, code string, userID int64) (*models.DiscountCoupon, error)
	ListAvailable(ctx context.Context, userID int64) ([]models.DiscountCoupon, error)
	ExpireSweep(ctx context.Context) (int64, error)
}

type service struct {
	repo Repository
	cfg  config.ShopConfig
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the coupon service.
func NewService(repo Repository, cfg config.ShopConfig, logg *logger.Logger) Service {
	return &service{repo: repo, cfg: cfg, logg: logg, now: time.Now}
}

// Create issues a fresh coupon for the user. Code collisions are retried a
// few times before giving up.
func (s *service) Create(ctx context.Context, userID int64, percent int, source string) (*models.DiscountCoupon, error) {
	if percent < 1 || percent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 1 and 100")
	}

	var lastErr error
	for attempt := 0; attempt < createRetries; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		coupon := &models.DiscountCoupon{
			ID:              uuid.New(),
			UserID:          userID,
			Code:            code,
			DiscountPercent: percent,
			Source:          source,
			ExpiresAt:       s.now().Add(s.cfg.CouponTTL()),
		}
		if err := s.repo.Create(ctx, coupon); err != nil {
			if db.IsUniqueViolation(err, "") {
				lastErr = err
				continue
			}
			return nil, err
		}
		s.logg.Info(s.logg.WithUserID(ctx, userID), "coupon issued")
		return coupon, nil
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, lastErr, "could not generate a unique coupon code")
}

// Validate checks a code for the given user. Unknown, foreign, used and
// expired coupons are all invalid, each with its own reason.
func (s *service) Validate(ctx context.Context, code string, userID int64) (*models.DiscountCoupon, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon belongs to another user")
	}
	if coupon.IsUsed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon already used")
	}
	if !coupon.ExpiresAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon expired")
	}
	return coupon, nil
}

func (s *service) ListAvailable(ctx context.Context, userID int64) ([]models.DiscountCoupon, error) {
	return s.repo.ListAvailable(ctx, userID, s.now())
}

// ExpireSweep deletes coupons past their expiry date.
func (s *service) ExpireSweep(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logg.Info(s.logg.WithField(ctx, "removed", removed), "expired coupons swept")
	}
	return removed, nil
}

func generateCode() (string, error) {
	max := big.NewInt(int64(len(codeCharset)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeCharset[n.Int64()]
	}
	return string(buf), nil
}
