package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerSchedulerRunsJob(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(5*time.Millisecond, time.UTC)
	ctx := context.Background()

	var calls atomic.Int64
	fired := make(chan struct{}, 1)
	if err := s.Start(ctx, func(time.Time) {
		if calls.Add(1) >= 2 {
			select {
			case fired <- struct{}{}:
			default:
			}
		}
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("job never reached a second run")
	}

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestTickerSchedulerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(time.Hour, time.UTC)
	ctx := context.Background()

	if err := s.Start(ctx, func(time.Time) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	// A stopped scheduler may be started again.
	if err := s.Start(ctx, func(time.Time) {}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop after restart: %v", err)
	}
}

func TestTickerSchedulerConcurrentStop(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(time.Millisecond, time.UTC)
	ctx := context.Background()

	if err := s.Start(ctx, func(time.Time) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Stop(ctx)
	}()
	_ = s.Stop(ctx)
	<-done
}
