package cron

import (
	"context"
	"fmt"
)

type requestPurger interface {
	PurgeTerminal(ctx context.Context) (int64, error)
}

// RequestCleanupJob purges decided purchase requests past the retention
// window.
type RequestCleanupJob struct {
	requests requestPurger
}

// NewRequestCleanupJob builds the request retention job.
func NewRequestCleanupJob(requests requestPurger) *RequestCleanupJob {
	return &RequestCleanupJob{requests: requests}
}

func (j *RequestCleanupJob) Name() string { return "request_cleanup" }

func (j *RequestCleanupJob) Run(ctx context.Context) error {
	if _, err := j.requests.PurgeTerminal(ctx); err != nil {
		return fmt.Errorf("purge terminal requests: %w", err)
	}
	return nil
}
