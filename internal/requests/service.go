package requests

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-dev/vendora-backend/internal/cart"
	"github.com/vendora-dev/vendora-backend/internal/coupons"
	"github.com/vendora-dev/vendora-backend/internal/locations"
	"github.com/vendora-dev/vendora-backend/internal/notify"
	"github.com/vendora-dev/vendora-backend/internal/users"
	"github.com/vendora-dev/vendora-backend/pkg/config"
	"github.com/vendora-dev/vendora-backend/pkg/db"
	"github.com/vendora-dev/vendora-backend/pkg/db/models"
	pkgerrors "github.com/vendora-dev/vendora-backend/pkg/errors"
	"github.com/vendora-dev/vendora-backend/pkg/logger"
)

// locationPlaceholder is delivered when an approval finds the product's
// location pool empty. The admin restocks and resends manually.
const locationPlaceholder = "Your order is confirmed. Delivery details will follow shortly."

// locationAttempts bounds how many pool candidates a completion tries before
// falling back to the placeholder.
const locationAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type walletAssigner interface {
	Assign(ctx context.Context, userID int64) (string, error)
}

type couponValidator interface {
	Validate(ctx context.Context, code string, userID int64) (*models.DiscountCoupon, error)
}

type imageDiscarder interface {
	Discard(ctx context.Context, imagePath string)
}

// Service drives the purchase request lifecycle from checkout to the admin
// decision.
type Service interface {
	Create(ctx context.Context, userID int64, couponCode string) (*models.PurchaseRequest, error)
	Transition(ctx context.Context, requestID uuid.UUID, decision Decision) (*TransitionResult, error)
	Get(ctx context.Context, requestID uuid.UUID) (*models.PurchaseRequest, error)
	HasPending(ctx context.Context, userID int64) (bool, error)
	PendingRequests(ctx context.Context) ([]models.PurchaseRequest, error)
	UserRequestsByStatus(ctx context.Context, userID int64, status models.RequestStatus) ([]models.PurchaseRequest, error)
	PurgeTerminal(ctx context.Context) (int64, error)
}

type service struct {
	client   txRunner
	repo     Repository
	cartRepo cart.Repository
	coupons  couponValidator
	couponTx coupons.Repository
	wallets  walletAssigner
	users    *users.Repository
	locRepo  locations.Repository
	images   imageDiscarder
	notifier notify.Notifier
	cfg      config.ShopConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the purchase request service.
func NewService(
	client *db.Client,
	repo Repository,
	cartRepo cart.Repository,
	couponSvc couponValidator,
	couponRepo coupons.Repository,
	wallets walletAssigner,
	usersRepo *users.Repository,
	locRepo locations.Repository,
	images imageDiscarder,
	notifier notify.Notifier,
	cfg config.ShopConfig,
	logg *logger.Logger,
) Service {
	return &service{
		client:   client,
		repo:     repo,
		cartRepo: cartRepo,
		coupons:  couponSvc,
		couponTx: couponRepo,
		wallets:  wallets,
		users:    usersRepo,
		locRepo:  locRepo,
		images:   images,
		notifier: notifier,
		cfg:      cfg,
		logg:     logg,
		now:      time.Now,
	}
}

// Create turns the user's cart into a pending purchase request. The cart is
// snapshotted into line items and cleared, and the coupon (if any) consumed,
// all in one transaction. Any failure leaves the cart exactly as it was.
func (s *service) Create(ctx context.Context, userID int64, couponCode string) (*models.PurchaseRequest, error) {
	ctx = s.logg.WithUserID(ctx, userID)

	lines, err := s.cartRepo.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	open, err := s.repo.HasPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already has a pending request")
	}

	var coupon *models.DiscountCoupon
	if couponCode != "" {
		coupon, err = s.coupons.Validate(ctx, couponCode, userID)
		if err != nil {
			return nil, err
		}
	}

	percent := 0
	if coupon != nil {
		percent = coupon.DiscountPercent
	}
	breakdown := cart.ComputeTotal(lines, percent)
	if err := cart.CheckBounds(breakdown, s.cfg); err != nil {
		return nil, err
	}

	// The wallet assignment is sticky, so acquiring it outside the request
	// transaction is safe: a later failure leaves the user with the same
	// address they would get next time.
	address, err := s.wallets.Assign(ctx, userID)
	if err != nil {
		return nil, err
	}

	request := &models.PurchaseRequest{
		ID:              uuid.New(),
		UserID:          userID,
		TotalAmount:     breakdown.Total,
		WalletAddress:   address,
		Status:          models.RequestStatusPending,
		DiscountPercent: percent,
	}
	for _, line := range lines {
		request.Items = append(request.Items, models.RequestLineItem{
			ID:        uuid.New(),
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Re-checked under the transaction to close the race between two
		// simultaneous checkouts.
		open, err := repo.HasPending(ctx, userID)
		if err != nil {
			return err
		}
		if open {
			return pkgerrors.New(pkgerrors.CodeConflict, "user already has a pending request")
		}

		if err := repo.Create(ctx, request); err != nil {
			return err
		}

		if coupon != nil {
			consumed, err := s.couponTx.WithTx(tx).MarkUsed(ctx, coupon.ID)
			if err != nil {
				return err
			}
			if !consumed {
				return pkgerrors.New(pkgerrors.CodeConflict, "coupon already used")
			}
		}

		return s.cartRepo.WithTx(tx).Clear(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "request_id", request.ID.String()), "purchase request created")
	return request, nil
}

// Transition applies the admin decision. Status, strike counters and the
// location allocation all commit atomically; the user notification goes out
// only after the commit and never fails the call.
func (s *service) Transition(ctx context.Context, requestID uuid.UUID, decision Decision) (*TransitionResult, error) {
	status, ok := decision.Status()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown decision %q", decision))
	}

	var result *TransitionResult
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.FindByID(ctx, requestID)
		if err != nil {
			return err
		}

		decided, err := repo.MarkDecided(ctx, requestID, status)
		if err != nil {
			return err
		}
		if !decided {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request is already decided")
		}

		result = &TransitionResult{
			RequestID: requestID,
			UserID:    request.UserID,
			Status:    status,
		}

		switch status {
		case models.RequestStatusRejected:
			return s.applyRejection(ctx, tx, result)
		case models.RequestStatusCompleted:
			return s.applyCompletion(ctx, tx, request, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, result)
	return result, nil
}

// applyRejection advances the strike counter and derives the warning tier.
func (s *service) applyRejection(ctx context.Context, tx *gorm.DB, result *TransitionResult) error {
	usersRepo := s.users.WithTx(tx)

	count, err := usersRepo.IncrementFailedPayments(ctx, result.UserID)
	if err != nil {
		return err
	}
	result.FailureCount = count

	threshold := s.cfg.BanThreshold
	switch {
	case count >= threshold:
		if err := usersRepo.SetBanned(ctx, result.UserID, true); err != nil {
			return err
		}
		result.Banned = true
		result.UserMessage = "Your payment was not confirmed. You have been banned from the store."
	case count == threshold-1:
		result.UserMessage = "Your payment was not confirmed. Final warning: the next failed payment leads to a ban."
	default:
		result.UserMessage = fmt.Sprintf(
			"Your payment was not confirmed. You have %d attempts remaining.",
			threshold-count,
		)
	}
	return nil
}

// applyCompletion clears the strike counter and consumes a location for the
// first line item's product, falling back to a placeholder when the pool
// for that product is empty.
func (s *service) applyCompletion(ctx context.Context, tx *gorm.DB, request *models.PurchaseRequest, result *TransitionResult) error {
	if err := s.users.WithTx(tx).ResetFailedPayments(ctx, result.UserID); err != nil {
		return err
	}
	result.UserMessage = "Payment confirmed. Thank you for your purchase!"

	if len(request.Items) == 0 {
		return nil
	}

	// A candidate can vanish between lookup and delete when an allocation
	// races this approval, so losing one moves on to the next in line.
	locRepo := s.locRepo.WithTx(tx)
	for attempt := 0; attempt < locationAttempts; attempt++ {
		candidate, err := locRepo.Oldest(ctx, request.Items[0].ProductID)
		if err != nil {
			return err
		}
		if candidate == nil {
			break
		}
		consumed, err := locRepo.DeleteIfPresent(ctx, candidate.ID)
		if err != nil {
			return err
		}
		if consumed {
			result.ImagePath = candidate.ImagePath
			return nil
		}
	}
	result.UserMessage = locationPlaceholder
	return nil
}

// dispatch sends the post-commit notification. Delivery failure is logged,
// never surfaced: the decision already took effect. A delivered location
// image is removed from disk; on failure it stays so the admin can resend.
func (s *service) dispatch(ctx context.Context, result *TransitionResult) {
	if result == nil || result.UserMessage == "" {
		return
	}
	if err := s.notifier.Notify(ctx, result.UserID, result.UserMessage, result.ImagePath); err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, result.UserID), "failed to notify user of decision", err)
		return
	}
	if result.ImagePath != "" {
		s.images.Discard(ctx, result.ImagePath)
	}
}

func (s *service) Get(ctx context.Context, requestID uuid.UUID) (*models.PurchaseRequest, error) {
	return s.repo.FindByID(ctx, requestID)
}

// HasPending reports whether the user has an undecided request.
func (s *service) HasPending(ctx context.Context, userID int64) (bool, error) {
	return s.repo.HasPending(ctx, userID)
}

func (s *service) PendingRequests(ctx context.Context) ([]models.PurchaseRequest, error) {
	return s.repo.Pending(ctx)
}

func (s *service) UserRequestsByStatus(ctx context.Context, userID int64, status models.RequestStatus) ([]models.PurchaseRequest, error) {
	return s.repo.ByUserAndStatus(ctx, userID, status)
}

// PurgeTerminal removes decided requests older than the retention window.
func (s *service) PurgeTerminal(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.RequestRetention())
	var removed int64
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		removed, err = s.repo.WithTx(tx).DeleteTerminalBefore(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logg.Info(s.logg.WithField(ctx, "removed", removed), "stale purchase requests purged")
	}
	return removed, nil
}
