package requests

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-dev/vendora-backend/pkg/db/models"
	pkgerrors "github.com/vendora-dev/vendora-backend/pkg/errors"
)

// Repository exposes purchase request persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.PurchaseRequest) error
	FindByID(ctx context.Context, requestID uuid.UUID) (*models.PurchaseRequest, error)
	HasPending(ctx context.Context, userID int64) (bool, error)
	HasPendingTx(ctx context.Context, tx *gorm.DB, userID int64) (bool, error)
	MarkDecided(ctx context.Context, requestID uuid.UUID, status models.RequestStatus) (bool, error)
	Pending(ctx context.Context) ([]models.PurchaseRequest, error)
	ByUserAndStatus(ctx context.Context, userID int64, status models.RequestStatus) ([]models.PurchaseRequest, error)
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchase request repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.PurchaseRequest) error {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	for i := range request.Items {
		if request.Items[i].ID == uuid.Nil {
			request.Items[i].ID = uuid.New()
		}
		request.Items[i].RequestID = request.ID
	}
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, requestID uuid.UUID) (*models.PurchaseRequest, error) {
	var request models.PurchaseRequest
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", requestID).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase request not found")
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) HasPending(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseRequest{}).
		Where("user_id = ? AND status = ?", userID, models.RequestStatusPending).
		Count(&count).Error
	return count > 0, err
}

// HasPendingTx runs the pending check on the caller's transaction, so other
// packages can gate their own transactional work on the user's open request.
func (r *repository) HasPendingTx(ctx context.Context, tx *gorm.DB, userID int64) (bool, error) {
	return r.WithTx(tx).HasPending(ctx, userID)
}

// MarkDecided moves a pending request into a terminal status. The
// conditional WHERE makes deciding idempotence-safe: a request already
// decided yields zero affected rows.
func (r *repository) MarkDecided(ctx context.Context, requestID uuid.UUID, status models.RequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PurchaseRequest{}).
		Where("id = ? AND status = ?", requestID, models.RequestStatusPending).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Pending(ctx context.Context) ([]models.PurchaseRequest, error) {
	var requests []models.PurchaseRequest
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", models.RequestStatusPending).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) ByUserAndStatus(ctx context.Context, userID int64, status models.RequestStatus) ([]models.PurchaseRequest, error) {
	var requests []models.PurchaseRequest
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND status = ?", userID, status).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// DeleteTerminalBefore purges decided requests older than the cutoff along
// with their line items. Pending requests are never touched.
func (r *repository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var stale []models.PurchaseRequest
	err := r.db.WithContext(ctx).
		Select("id").
		Where("status IN ? AND created_at < ?",
			[]models.RequestStatus{models.RequestStatusCompleted, models.RequestStatusRejected},
			cutoff).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(stale))
	for _, request := range stale {
		ids = append(ids, request.ID)
	}
	if err := r.db.WithContext(ctx).Where("request_id IN ?", ids).Delete(&models.RequestLineItem{}).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.PurchaseRequest{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
