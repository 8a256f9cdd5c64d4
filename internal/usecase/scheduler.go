package usecase

import (
	"context"
	"log/slog"
	"time"

	"WineScout/internal/ports"
)

// Scheduler wires the interval driver to the full-catalog sweep.
type Scheduler struct {
	driver ports.Scheduler
	sync   *SyncService
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring sync job.
func NewScheduler(driver ports.Scheduler, sync *SyncService, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, sync: sync, logger: logger}
}

// Start registers the sweep with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.sync == nil {
		return nil
	}

	job := func(trigger time.Time) {
		outcomes := s.sync.SyncAll(ctx)
		for _, outcome := range outcomes {
			if outcome.Err != nil && s.logger != nil {
				s.logger.Warn("scheduled sync failed",
					"source", outcome.Source, "trigger", trigger, "error", outcome.Err)
			}
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
