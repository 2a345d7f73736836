package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-dev/vendora-backend/pkg/db/models"
	pkgerrors "github.com/vendora-dev/vendora-backend/pkg/errors"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Ensure creates the user row on first interaction; subsequent calls return
// the existing row unchanged.
func (r *Repository) Ensure(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := r.FindByTelegramID(ctx, telegramID)
	if err == nil {
		return user, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}

	created := &models.User{ID: uuid.New(), TelegramID: telegramID}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, err
	}
	return created, nil
}

// FindByTelegramID loads a user by their external chat identity.
func (r *Repository) FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

// IncrementFailedPayments bumps the strike counter and returns the new value.
func (r *Repository) IncrementFailedPayments(ctx context.Context, telegramID int64) (int, error) {
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("telegram_id = ?", telegramID).
		UpdateColumn("failed_payments", gorm.Expr("failed_payments + 1")).Error
	if err != nil {
		return 0, err
	}
	user, err := r.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	return user.FailedPayments, nil
}

// ResetFailedPayments zeroes the strike counter.
func (r *Repository) ResetFailedPayments(ctx context.Context, telegramID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("telegram_id = ?", telegramID).
		UpdateColumn("failed_payments", 0).Error
}

// SetBanned flips the ban flag.
func (r *Repository) SetBanned(ctx context.Context, telegramID int64, banned bool) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("telegram_id = ?", telegramID).
		UpdateColumn("is_banned", banned).Error
}

// ToggleBan flips the ban flag as an admin action. Lifting a ban also resets
// the strike counter so the user starts clean.
func (r *Repository) ToggleBan(ctx context.Context, telegramID int64) (bool, error) {
	user, err := r.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return false, err
	}

	updates := map[string]any{"is_banned": !user.IsBanned}
	if user.IsBanned {
		updates["failed_payments"] = 0
	}
	err = r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("telegram_id = ?", telegramID).
		UpdateColumns(updates).Error
	if err != nil {
		return false, err
	}
	return !user.IsBanned, nil
}

// BanStatusFor reports the user's standing under the strike policy.
func (r *Repository) BanStatusFor(ctx context.Context, telegramID int64) (BanStatus, error) {
	user, err := r.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return BanStatus{}, err
	}
	return BanStatus{
		Banned:       user.IsBanned,
		FailureCount: user.FailedPayments,
		TelegramID:   user.TelegramID,
	}, nil
}

// SetAuthorized marks the user as cleared by the admin.
func (r *Repository) SetAuthorized(ctx context.Context, telegramID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("telegram_id = ?", telegramID).
		UpdateColumn("is_authorized", true).Error
}

// IsAuthorized reports the authorization flag; unknown users are unauthorized.
func (r *Repository) IsAuthorized(ctx context.Context, telegramID int64) (bool, error) {
	user, err := r.FindByTelegramID(ctx, telegramID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAuthorized, nil
}

// ListActive returns the telegram ids of all non-banned users, the broadcast
// audience.
func (r *Repository) ListActive(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("is_banned = ?", false).
		Pluck("telegram_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
