package wallets

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendora-dev/vendora-backend/pkg/db/models"
)

// Repository exposes wallet pool persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAssigned(ctx context.Context, userID int64) (*models.Wallet, error)
	FreeCandidates(ctx context.Context, limit int) ([]models.Wallet, error)
	Claim(ctx context.Context, walletID uuid.UUID) (bool, error)
	CreateAssignment(ctx context.Context, userID int64, walletID uuid.UUID) error
	DeleteAssignment(ctx context.Context, userID int64) (uuid.UUID, bool, error)
	Unclaim(ctx context.Context, walletID uuid.UUID) error
	Counts(ctx context.Context) (Counts, error)
	Create(ctx context.Context, address string) (*models.Wallet, error)
	Delete(ctx context.Context, walletID uuid.UUID) (bool, error)
	List(ctx context.Context) ([]WalletInfo, error)
}

// Counts reports pool health numbers.
type Counts struct {
	Available int64 `json:"available"`
	InUse     int64 `json:"in_use"`
	Total     int64 `json:"total"`
}

// WalletInfo is the admin listing row: the pool entry plus its completed
// transaction volume.
type WalletInfo struct {
	Wallet          models.Wallet
	AssignedUserID  *int64
	CompletedVolume decimal.Decimal
	LastUsedAt      *time.Time
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wallet repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindAssigned(ctx context.Context, userID int64) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Joins("JOIN wallet_assignments ON wallet_assignments.wallet_id = wallets.id").
		Where("wallet_assignments.user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &wallet, nil
}

// FreeCandidates returns free wallets oldest-first so selection stays
// deterministic under test.
func (r *repository) FreeCandidates(ctx context.Context, limit int) ([]models.Wallet, error) {
	if limit <= 0 {
		limit = 5
	}
	var wallets []models.Wallet
	err := r.db.WithContext(ctx).
		Where("in_use = ?", false).
		Order("created_at ASC, address ASC").
		Limit(limit).
		Find(&wallets).Error
	if err != nil {
		return nil, err
	}
	return wallets, nil
}

// Claim marks a wallet in-use only if it is still free. The conditional
// WHERE keeps two racing claims from winning the same row; the loser
// observes zero affected rows.
func (r *repository) Claim(ctx context.Context, walletID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND in_use = ?", walletID, false).
		UpdateColumn("in_use", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CreateAssignment(ctx context.Context, userID int64, walletID uuid.UUID) error {
	assignment := &models.WalletAssignment{
		ID:       uuid.New(),
		UserID:   userID,
		WalletID: walletID,
	}
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repository) DeleteAssignment(ctx context.Context, userID int64) (uuid.UUID, bool, error) {
	var assignment models.WalletAssignment
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	if err := r.db.WithContext(ctx).Delete(&models.WalletAssignment{}, "id = ?", assignment.ID).Error; err != nil {
		return uuid.Nil, false, err
	}
	return assignment.WalletID, true, nil
}

func (r *repository) Unclaim(ctx context.Context, walletID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		UpdateColumn("in_use", false).Error
}

func (r *repository) Counts(ctx context.Context) (Counts, error) {
	var counts Counts
	db := r.db.WithContext(ctx).Model(&models.Wallet{})
	if err := db.Count(&counts.Total).Error; err != nil {
		return Counts{}, err
	}
	err := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("in_use = ?", true).
		Count(&counts.InUse).Error
	if err != nil {
		return Counts{}, err
	}
	counts.Available = counts.Total - counts.InUse
	return counts, nil
}

func (r *repository) Create(ctx context.Context, address string) (*models.Wallet, error) {
	wallet := &models.Wallet{ID: uuid.New(), Address: address}
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		return nil, err
	}
	return wallet, nil
}

// Delete removes a wallet only while it is unassigned.
func (r *repository) Delete(ctx context.Context, walletID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND in_use = ?", walletID, false).
		Delete(&models.Wallet{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) List(ctx context.Context) ([]WalletInfo, error) {
	var wallets []models.Wallet
	err := r.db.WithContext(ctx).
		Order("in_use ASC, created_at ASC").
		Find(&wallets).Error
	if err != nil {
		return nil, err
	}

	infos := make([]WalletInfo, 0, len(wallets))
	for _, wallet := range wallets {
		info := WalletInfo{Wallet: wallet, CompletedVolume: decimal.Zero}

		var assignment models.WalletAssignment
		err := r.db.WithContext(ctx).Where("wallet_id = ?", wallet.ID).First(&assignment).Error
		if err == nil {
			userID := assignment.UserID
			info.AssignedUserID = &userID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		var requests []models.PurchaseRequest
		err = r.db.WithContext(ctx).
			Where("wallet_address = ? AND status = ?", wallet.Address, models.RequestStatusCompleted).
			Find(&requests).Error
		if err != nil {
			return nil, err
		}
		for _, req := range requests {
			info.CompletedVolume = info.CompletedVolume.Add(req.TotalAmount)
			created := req.CreatedAt
			if info.LastUsedAt == nil || created.After(*info.LastUsedAt) {
				info.LastUsedAt = &created
			}
		}

		infos = append(infos, info)
	}
	return infos, nil
}
