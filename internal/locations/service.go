package locations

import (
	"context"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-dev/vendora-backend/pkg/db"
	pkgerrors "github.com/vendora-dev/vendora-backend/pkg/errors"
	"github.com/vendora-dev/vendora-backend/pkg/logger"
)

// allocateAttempts bounds how many times Allocate retries after losing a
// candidate row to a concurrent allocation.
const allocateAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Allocation is a consumed location handed to a buyer. Its database row no
// longer exists once this struct is returned.
type Allocation struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	ImagePath string
}

// Service manages the consumable location pool.
type Service interface {
	Add(ctx context.Context, productID uuid.UUID, imagePath string) (*uuid.UUID, error)
	Allocate(ctx context.Context, productID uuid.UUID) (*Allocation, error)
	AvailableCount(ctx context.Context, productID uuid.UUID) (int64, error)
	CountsPerProduct(ctx context.Context) (map[uuid.UUID]int64, error)
	Delete(ctx context.Context, locationID uuid.UUID) (bool, error)
	Discard(ctx context.Context, imagePath string)
}

type service struct {
	client txRunner
	repo   Repository
	logg   *logger.Logger
}

// NewService wires the location pool service.
func NewService(client *db.Client, repo Repository, logg *logger.Logger) Service {
	return &service{client: client, repo: repo, logg: logg}
}

func (s *service) Add(ctx context.Context, productID uuid.UUID, imagePath string) (*uuid.UUID, error) {
	if imagePath == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image path is required")
	}
	location, err := s.repo.Create(ctx, productID, imagePath)
	if err != nil {
		return nil, err
	}
	return &location.ID, nil
}

// Allocate hands out the oldest location for the product and deletes its row
// in the same transaction. Two concurrent allocations can never receive the
// same location: the delete succeeds for exactly one of them and the loser
// retries with the next candidate.
func (s *service) Allocate(ctx context.Context, productID uuid.UUID) (*Allocation, error) {
	for attempt := 0; attempt < allocateAttempts; attempt++ {
		var allocation *Allocation
		err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			candidate, err := repo.Oldest(ctx, productID)
			if err != nil {
				return err
			}
			if candidate == nil {
				return pkgerrors.New(pkgerrors.CodeExhausted, "no locations available for product")
			}

			consumed, err := repo.DeleteIfPresent(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if !consumed {
				return nil
			}
			allocation = &Allocation{
				ID:        candidate.ID,
				ProductID: candidate.ProductID,
				ImagePath: candidate.ImagePath,
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if allocation != nil {
			return allocation, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeExhausted, "no locations available for product")
}

func (s *service) AvailableCount(ctx context.Context, productID uuid.UUID) (int64, error) {
	return s.repo.CountByProduct(ctx, productID)
}

func (s *service) CountsPerProduct(ctx context.Context) (map[uuid.UUID]int64, error) {
	return s.repo.CountsPerProduct(ctx)
}

// Delete removes a location from the pool as an admin action, along with its
// image on disk. It reports false when the row was already gone.
func (s *service) Delete(ctx context.Context, locationID uuid.UUID) (bool, error) {
	location, err := s.repo.FindByID(ctx, locationID)
	if err != nil {
		return false, err
	}
	if location == nil {
		return false, nil
	}
	deleted, err := s.repo.DeleteIfPresent(ctx, locationID)
	if err != nil || !deleted {
		return deleted, err
	}
	s.Discard(ctx, location.ImagePath)
	return true, nil
}

// Discard removes the location image from disk once it has been delivered.
// Failure is logged and swallowed: the allocation itself already happened.
func (s *service) Discard(ctx context.Context, imagePath string) {
	if imagePath == "" {
		return
	}
	if err := os.Remove(imagePath); err != nil && !os.IsNotExist(err) {
		s.logg.Warn(s.logg.WithField(ctx, "image_path", imagePath), "failed to remove location image")
	}
}
