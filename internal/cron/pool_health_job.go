package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vendora-dev/vendora-backend/internal/notify"
	"github.com/vendora-dev/vendora-backend/internal/wallets"
	"github.com/vendora-dev/vendora-backend/pkg/metrics"
)

type walletCounter interface {
	Counts(ctx context.Context) (wallets.Counts, error)
}

type locationCounter interface {
	CountsPerProduct(ctx context.Context) (map[uuid.UUID]int64, error)
}

// PoolHealthJob publishes wallet and location pool gauges and alerts the
// admin chat when the free wallet share drops below the configured ratio.
type PoolHealthJob struct {
	wallets     walletCounter
	locations   locationCounter
	notifier    notify.Notifier
	metrics     *metrics.PoolMetrics
	adminChatID int64
	alertRatio  float64
}

// PoolHealthJobParams configure the pool health job.
type PoolHealthJobParams struct {
	Wallets     walletCounter
	Locations   locationCounter
	Notifier    notify.Notifier
	Metrics     *metrics.PoolMetrics
	AdminChatID int64
	AlertRatio  float64
}

// NewPoolHealthJob builds the pool health job.
func NewPoolHealthJob(params PoolHealthJobParams) *PoolHealthJob {
	return &PoolHealthJob{
		wallets:     params.Wallets,
		locations:   params.Locations,
		notifier:    params.Notifier,
		metrics:     params.Metrics,
		adminChatID: params.AdminChatID,
		alertRatio:  params.AlertRatio,
	}
}

func (j *PoolHealthJob) Name() string { return "pool_health" }

func (j *PoolHealthJob) Run(ctx context.Context) error {
	counts, err := j.wallets.Counts(ctx)
	if err != nil {
		return fmt.Errorf("wallet counts: %w", err)
	}
	if j.metrics != nil {
		j.metrics.SetWalletCounts(counts.Available, counts.InUse, counts.Total)
	}

	if j.locations != nil {
		perProduct, err := j.locations.CountsPerProduct(ctx)
		if err != nil {
			return fmt.Errorf("location counts: %w", err)
		}
		if j.metrics != nil {
			for productID, available := range perProduct {
				j.metrics.SetLocationCount(productID.String(), available)
			}
		}
	}

	if j.notifier == nil || counts.Total == 0 {
		return nil
	}
	ratio := float64(counts.Available) / float64(counts.Total)
	if ratio >= j.alertRatio {
		return nil
	}
	message := fmt.Sprintf(
		"Wallet pool running low: %d of %d wallets free (%.0f%%). Add more wallets.",
		counts.Available, counts.Total, ratio*100,
	)
	if err := j.notifier.Notify(ctx, j.adminChatID, message, ""); err != nil {
		return fmt.Errorf("notify admin: %w", err)
	}
	return nil
}
