package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vendora-dev/vendora-backend/pkg/config"
	"github.com/vendora-dev/vendora-backend/pkg/db/models"
	pkgerrors "github.com/vendora-dev/vendora-backend/pkg/errors"
	"github.com/vendora-dev/vendora-backend/pkg/logger"
	"github.com/vendora-dev/vendora-backend/pkg/redis"
)

// couponSessionTTL bounds how long a selected coupon survives in the session
// before the user has to pick it again.
const couponSessionTTL = 24 * time.Hour

type sessionStore interface {
	SessionKey(userID int64, field string) string
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// CouponValidator revalidates a stored coupon code before it is applied.
type CouponValidator interface {
	Validate(ctx context.Context, code string, userID int64) (*models.DiscountCoupon, error)
}

// ProductChecker verifies a product exists before it enters the cart.
type ProductChecker interface {
	Exists(ctx context.Context, productID uuid.UUID) (bool, error)
}

// Service manages per-user carts and the coupon selection overlay.
type Service interface {
	AddLine(ctx context.Context, userID int64, productID uuid.UUID, quantity int) error
	Lines(ctx context.Context, userID int64) ([]Line, error)
	RemoveLine(ctx context.Context, userID int64, lineID uuid.UUID) error
	Clear(ctx context.Context, userID int64) error
	Count(ctx context.Context, userID int64) (int64, error)
	SelectCoupon(ctx context.Context, userID int64, code string) (*models.DiscountCoupon, error)
	SelectedCoupon(ctx context.Context, userID int64) (*models.DiscountCoupon, error)
	ClearCoupon(ctx context.Context, userID int64) error
	Summary(ctx context.Context, userID int64) (PriceBreakdown, []Line, error)
}

type service struct {
	repo     Repository
	session  sessionStore
	coupons  CouponValidator
	products ProductChecker
	cfg      config.ShopConfig
	logg     *logger.Logger
}

// NewService wires the cart service.
func NewService(repo Repository, session *redis.Client, coupons CouponValidator, products ProductChecker, cfg config.ShopConfig, logg *logger.Logger) Service {
	return &service{
		repo:     repo,
		session:  session,
		coupons:  coupons,
		products: products,
		cfg:      cfg,
		logg:     logg,
	}
}

func (s *service) AddLine(ctx context.Context, userID int64, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return err
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	_, err = s.repo.AddLine(ctx, userID, productID, quantity)
	return err
}

func (s *service) Lines(ctx context.Context, userID int64) ([]Line, error) {
	return s.repo.Lines(ctx, userID)
}

func (s *service) RemoveLine(ctx context.Context, userID int64, lineID uuid.UUID) error {
	removed, err := s.repo.RemoveLine(ctx, userID, lineID)
	if err != nil {
		return err
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return nil
}

// Clear empties the cart and drops any selected coupon with it.
func (s *service) Clear(ctx context.Context, userID int64) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return err
	}
	return s.ClearCoupon(ctx, userID)
}

func (s *service) Count(ctx context.Context, userID int64) (int64, error) {
	return s.repo.Count(ctx, userID)
}

// SelectCoupon validates the code and stores it in the session. Selecting a
// second coupon replaces the first.
func (s *service) SelectCoupon(ctx context.Context, userID int64, code string) (*models.DiscountCoupon, error) {
	coupon, err := s.coupons.Validate(ctx, code, userID)
	if err != nil {
		return nil, err
	}
	key := s.session.SessionKey(userID, "coupon")
	if err := s.session.Set(ctx, key, coupon.Code, couponSessionTTL); err != nil {
		return nil, err
	}
	return coupon, nil
}

// SelectedCoupon returns the coupon currently applied to the cart, or nil
// when none is selected. A stored code that no longer validates is evicted.
func (s *service) SelectedCoupon(ctx context.Context, userID int64) (*models.DiscountCoupon, error) {
	key := s.session.SessionKey(userID, "coupon")
	code, err := s.session.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	coupon, err := s.coupons.Validate(ctx, code, userID)
	if err != nil {
		if pkgerrors.As(err) != nil {
			if delErr := s.session.Del(ctx, key); delErr != nil {
				s.logg.Warn(s.logg.WithUserID(ctx, userID), "failed to evict stale coupon from session")
			}
			return nil, nil
		}
		return nil, err
	}
	return coupon, nil
}

func (s *service) ClearCoupon(ctx context.Context, userID int64) error {
	return s.session.Del(ctx, s.session.SessionKey(userID, "coupon"))
}

// Summary prices the cart with the selected coupon applied.
func (s *service) Summary(ctx context.Context, userID int64) (PriceBreakdown, []Line, error) {
	lines, err := s.repo.Lines(ctx, userID)
	if err != nil {
		return PriceBreakdown{}, nil, err
	}

	percent := 0
	coupon, err := s.SelectedCoupon(ctx, userID)
	if err != nil {
		return PriceBreakdown{}, nil, err
	}
	if coupon != nil {
		percent = coupon.DiscountPercent
	}

	return ComputeTotal(lines, percent), lines, nil
}
