package locations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-dev/vendora-backend/pkg/db/models"
)

// Repository exposes location pool persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, productID uuid.UUID, imagePath string) (*models.Location, error)
	FindByID(ctx context.Context, locationID uuid.UUID) (*models.Location, error)
	Oldest(ctx context.Context, productID uuid.UUID) (*models.Location, error)
	DeleteIfPresent(ctx context.Context, locationID uuid.UUID) (bool, error)
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	CountsPerProduct(ctx context.Context) (map[uuid.UUID]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a location repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, productID uuid.UUID, imagePath string) (*models.Location, error) {
	location := &models.Location{
		ID:        uuid.New(),
		ProductID: productID,
		ImagePath: imagePath,
	}
	if err := r.db.WithContext(ctx).Create(location).Error; err != nil {
		return nil, err
	}
	return location, nil
}

// FindByID returns the location, or nil when it does not exist.
func (r *repository) FindByID(ctx context.Context, locationID uuid.UUID) (*models.Location, error) {
	var location models.Location
	err := r.db.WithContext(ctx).Where("id = ?", locationID).First(&location).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &location, nil
}

// Oldest returns the next location in line for a product, or nil when the
// pool for that product is empty.
func (r *repository) Oldest(ctx context.Context, productID uuid.UUID) (*models.Location, error) {
	var location models.Location
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC, id ASC").
		First(&location).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &location, nil
}

// DeleteIfPresent removes the row and reports whether it still existed. A
// false return means another allocation consumed it first.
func (r *repository) DeleteIfPresent(ctx context.Context, locationID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Location{}, "id = ?", locationID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Location{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}

func (r *repository) CountsPerProduct(ctx context.Context) (map[uuid.UUID]int64, error) {
	type row struct {
		ProductID uuid.UUID
		Total     int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Location{}).
		Select("product_id, COUNT(*) AS total").
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.ProductID] = r.Total
	}
	return counts, nil
}
