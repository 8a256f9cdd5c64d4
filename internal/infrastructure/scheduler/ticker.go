package scheduler

import (
	"context"
	"sync"
	"time"

	"WineScout/internal/ports"
)

// TickerScheduler fires the job on a fixed interval in a configured
// timezone. Feed mirrors publish on no particular schedule, so a plain
// interval is enough; cron expressions would buy nothing here.
type TickerScheduler struct {
	interval time.Duration
	location *time.Location

	mu   sync.Mutex
	stop chan struct{}
}

var _ ports.Scheduler = (*TickerScheduler)(nil)

// NewTickerScheduler builds a scheduler; a non-positive interval
// defaults to daily.
func NewTickerScheduler(interval time.Duration, location *time.Location) *TickerScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if location == nil {
		location = time.UTC
	}
	return &TickerScheduler{interval: interval, location: location}
}

// Start launches the ticking goroutine. The job also runs once
// immediately so a fresh deployment has data before the first tick.
func (s *TickerScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	// The goroutine selects on its own copy so Stop never races the
	// field it resets.
	stop := make(chan struct{})
	s.stop = stop
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		job(time.Now().In(s.location))
		for {
			select {
			case t := <-ticker.C:
				job(t.In(s.location))
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine. Safe to call twice.
func (s *TickerScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
