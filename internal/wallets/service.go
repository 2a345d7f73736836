package wallets

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-dev/vendora-backend/pkg/db"
	pkgerrors "github.com/vendora-dev/vendora-backend/pkg/errors"
	"github.com/vendora-dev/vendora-backend/pkg/logger"
)

// claimAttempts bounds the number of candidate wallets tried per Assign call
// before reporting the pool exhausted.
const claimAttempts = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PendingChecker reports whether a user currently has an open purchase
// request. Wallet release and reassignment are refused while one exists.
// The check runs on the caller's transaction so a checkout committing
// concurrently cannot slip past it.
type PendingChecker interface {
	HasPendingTx(ctx context.Context, tx *gorm.DB, userID int64) (bool, error)
}

// Service manages the deposit wallet pool: sticky assignment, release and
// admin maintenance.
type Service interface {
	Assign(ctx context.Context, userID int64) (string, error)
	Release(ctx context.Context, userID int64) (bool, error)
	Reassign(ctx context.Context, userID int64) (string, error)
	Counts(ctx context.Context) (Counts, error)
	AddWallet(ctx context.Context, address string) (*uuid.UUID, error)
	DeleteWallet(ctx context.Context, walletID uuid.UUID) error
	ListWallets(ctx context.Context) ([]WalletInfo, error)
}

type service struct {
	client   txRunner
	repo     Repository
	pending  PendingChecker
	validate *validator.Validate
	logg     *logger.Logger
}

// NewService wires the wallet pool service.
func NewService(client *db.Client, repo Repository, pending PendingChecker, logg *logger.Logger) Service {
	return &service{
		client:   client,
		repo:     repo,
		pending:  pending,
		validate: validator.New(),
		logg:     logg,
	}
}

// Assign returns the user's wallet address, claiming a free wallet from the
// pool on first call. Repeated calls for the same user return the same
// address without touching the pool.
func (s *service) Assign(ctx context.Context, userID int64) (string, error) {
	var address string
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindAssigned(ctx, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			address = existing.Address
			return nil
		}

		candidates, err := repo.FreeCandidates(ctx, claimAttempts)
		if err != nil {
			return err
		}
		for _, candidate := range candidates {
			claimed, err := repo.Claim(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if !claimed {
				continue
			}
			if err := repo.CreateAssignment(ctx, userID, candidate.ID); err != nil {
				return err
			}
			address = candidate.Address
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeExhausted, "no free wallets available")
	})
	if err != nil {
		return "", err
	}
	return address, nil
}

// Release frees the user's wallet back into the pool. It reports false when
// the user had no wallet, and refuses while a purchase request is pending so
// the deposit address stays valid until the request settles.
func (s *service) Release(ctx context.Context, userID int64) (bool, error) {
	var released bool
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		open, err := s.pending.HasPendingTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if open {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "user has a pending purchase request")
		}

		repo := s.repo.WithTx(tx)
		walletID, found, err := repo.DeleteAssignment(ctx, userID)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		if err := repo.Unclaim(ctx, walletID); err != nil {
			return err
		}
		released = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return released, nil
}

// Reassign releases the current wallet (if any) and claims a fresh one.
func (s *service) Reassign(ctx context.Context, userID int64) (string, error) {
	var address string
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		open, err := s.pending.HasPendingTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if open {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "user has a pending purchase request")
		}

		repo := s.repo.WithTx(tx)
		previousID, hadWallet, err := repo.DeleteAssignment(ctx, userID)
		if err != nil {
			return err
		}

		candidates, err := repo.FreeCandidates(ctx, claimAttempts)
		if err != nil {
			return err
		}
		for _, candidate := range candidates {
			if candidate.ID == previousID {
				continue
			}
			claimed, err := repo.Claim(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if !claimed {
				continue
			}
			if err := repo.CreateAssignment(ctx, userID, candidate.ID); err != nil {
				return err
			}
			if hadWallet {
				if err := repo.Unclaim(ctx, previousID); err != nil {
					return err
				}
			}
			address = candidate.Address
			return nil
		}
		// Rolling back keeps the previous assignment when no replacement
		// could be claimed.
		return pkgerrors.New(pkgerrors.CodeExhausted, "no free wallets available")
	})
	if err != nil {
		return "", err
	}
	s.logg.Info(s.logg.WithUserID(ctx, userID), "wallet reassigned")
	return address, nil
}

func (s *service) Counts(ctx context.Context) (Counts, error) {
	return s.repo.Counts(ctx)
}

type addressInput struct {
	Address string `validate:"required,len=34,startswith=T,alphanum"`
}

// AddWallet registers a new deposit address in the pool.
func (s *service) AddWallet(ctx context.Context, address string) (*uuid.UUID, error) {
	if err := s.validate.Struct(addressInput{Address: address}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid wallet address")
	}

	wallet, err := s.repo.Create(ctx, address)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "wallet address already registered")
		}
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "wallet_id", wallet.ID.String()), "wallet added to pool")
	return &wallet.ID, nil
}

// DeleteWallet removes a wallet that is not assigned to anyone.
func (s *service) DeleteWallet(ctx context.Context, walletID uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, walletID)
	if err != nil {
		return err
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "wallet is assigned or does not exist")
	}
	return nil
}

func (s *service) ListWallets(ctx context.Context) ([]WalletInfo, error) {
	return s.repo.List(ctx)
}
