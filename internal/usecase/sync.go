package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"WineScout/internal/domain"
	"WineScout/internal/feed"
	"WineScout/internal/metrics"
	"WineScout/internal/ports"
	"WineScout/internal/scoring"
)

// SyncDeps wires all driven adapters into the ingestion pipeline.
type SyncDeps struct {
	Registry   *feed.Registry
	Repository ports.WineRepository
	Tracker    ports.SyncTracker
	Logger     *slog.Logger

	// ChunkSizes maps source name to its upsert chunk size.
	ChunkSizes map[string]int
	// Seed pins the scoring PRNG; 0 gives fresh estimates per run.
	Seed int64
	// PaceInterval spaces chunk writes to avoid hammering the store.
	PaceInterval time.Duration
}

// SyncService implements the fetch -> normalize -> score -> upsert
// workflow with one sync_status row per invocation.
type SyncService struct {
	registry   *feed.Registry
	repository ports.WineRepository
	tracker    ports.SyncTracker
	logger     *slog.Logger
	chunkSizes map[string]int
	seed       int64
	limiter    *rate.Limiter
}

// BatchOutcome is returned by the synchronous batch operation.
type BatchOutcome struct {
	RunID         string
	WinesInserted int
	WinesUpdated  int
	TotalProducts int
	HasMore       bool
	NextBatch     int
}

const defaultChunkSize = 50

// NewSyncService constructs the pipeline orchestration component.
func NewSyncService(deps SyncDeps) *SyncService {
	pace := deps.PaceInterval
	if pace <= 0 {
		pace = 300 * time.Millisecond
	}
	return &SyncService{
		registry:   deps.Registry,
		repository: deps.Repository,
		tracker:    deps.Tracker,
		logger:     deps.Logger,
		chunkSizes: deps.ChunkSizes,
		seed:       deps.Seed,
		limiter:    rate.NewLimiter(rate.Every(pace), 1),
	}
}

// Trigger accepts a full-feed sync request. The status row is created
// before returning; the ingestion itself runs detached so the HTTP call
// can answer immediately. A caller that stops waiting does not stop the
// job.
func (s *SyncService) Trigger(ctx context.Context, source string) (string, error) {
	if _, err := s.registry.Resolve(source); err != nil {
		return "", err
	}

	run := newRun(source)
	if err := s.tracker.CreateRun(ctx, run); err != nil {
		return "", fmt.Errorf("create sync run: %w", err)
	}

	go func() {
		// Deliberately detached from the request context.
		s.execute(context.Background(), run, feed.Request{SourceName: source})
	}()

	return run.ID, nil
}

// RunBatch executes one client-driven batch synchronously and reports
// the cursor for the next invocation.
func (s *SyncService) RunBatch(ctx context.Context, source string, batchNumber, batchSize int) (BatchOutcome, error) {
	if _, err := s.registry.Resolve(source); err != nil {
		return BatchOutcome{}, err
	}

	run := newRun(source)
	if err := s.tracker.CreateRun(ctx, run); err != nil {
		return BatchOutcome{}, fmt.Errorf("create sync run: %w", err)
	}

	req := feed.Request{SourceName: source, BatchNumber: batchNumber, BatchSize: batchSize}
	final, result := s.execute(ctx, run, req)

	if final.Status == domain.SyncStatusFailed {
		return BatchOutcome{RunID: run.ID}, fmt.Errorf("sync %s: %s", source, final.ErrorMessage)
	}

	return BatchOutcome{
		RunID:         run.ID,
		WinesInserted: final.WinesInserted,
		WinesUpdated:  final.WinesUpdated,
		TotalProducts: final.TotalProducts,
		HasMore:       result.HasMore,
		NextBatch:     result.NextBatch,
	}, nil
}

// SourceOutcome is the per-source result of a SyncAll sweep.
type SourceOutcome struct {
	Source string
	RunID  string
	Err    error
}

// SyncAll dispatches every registered source and waits for all of them
// to settle. Sources succeed and fail independently; there is no
// cross-job coordination.
func (s *SyncService) SyncAll(ctx context.Context) []SourceOutcome {
	sources := s.registry.Names()
	outcomes := make([]SourceOutcome, len(sources))
	done := make(chan struct{}, len(sources))

	for i, source := range sources {
		go func(i int, source string) {
			defer func() { done <- struct{}{} }()

			run := newRun(source)
			if err := s.tracker.CreateRun(ctx, run); err != nil {
				outcomes[i] = SourceOutcome{Source: source, Err: err}
				return
			}
			final, _ := s.execute(ctx, run, feed.Request{SourceName: source})
			outcome := SourceOutcome{Source: source, RunID: run.ID}
			if final.Status == domain.SyncStatusFailed {
				outcome.Err = fmt.Errorf("sync %s: %s", source, final.ErrorMessage)
			}
			outcomes[i] = outcome
		}(i, source)
	}

	for range sources {
		<-done
	}
	return outcomes
}

// execute runs one sync job to completion and returns the final run
// snapshot plus the fetch result (for batch cursors).
func (s *SyncService) execute(ctx context.Context, run domain.SyncRun, req feed.Request) (domain.SyncRun, feed.Result) {
	adapter, err := s.registry.Resolve(req.SourceName)
	if err != nil {
		return s.fail(ctx, run, err), feed.Result{}
	}

	result, err := adapter.Fetch(ctx, req)
	if err != nil {
		// Upstream failures abort the whole job; the message is stored
		// verbatim for the status UI.
		return s.fail(ctx, run, err), feed.Result{}
	}

	engine := scoring.NewEngine(scoring.ParamsForSource(req.SourceName), s.seed)
	now := time.Now()
	for i := range result.Wines {
		result.Wines[i].Metrics = engine.Score(result.Wines[i], now)
	}

	run.TotalProducts = result.TotalProducts
	if err := s.tracker.UpdateRun(ctx, run); err != nil {
		s.warn("update sync run", "run", run.ID, "error", err)
	}

	chunkSize := s.chunkSizes[req.SourceName]
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	for start := 0; start < len(result.Wines); start += chunkSize {
		end := start + chunkSize
		if end > len(result.Wines) {
			end = len(result.Wines)
		}
		chunk := result.Wines[start:end]

		if err := s.limiter.Wait(ctx); err != nil {
			return s.fail(ctx, run, err), result
		}

		written, err := s.repository.UpsertWines(ctx, chunk)
		if err != nil {
			// Chunk failures degrade the inserted count but do not
			// abort the job.
			s.warn("chunk upsert failed", "run", run.ID, "source", req.SourceName,
				"chunk_start", start, "size", len(chunk), "error", err)
			continue
		}

		run.ProcessedProducts += len(chunk)
		run.WinesInserted += written.Inserted
		run.WinesUpdated += written.Updated
		if err := s.tracker.UpdateRun(ctx, run); err != nil {
			s.warn("update sync run", "run", run.ID, "error", err)
		}
	}

	run.Status = domain.SyncStatusCompleted
	completed := time.Now()
	run.CompletedAt = &completed
	if err := s.tracker.UpdateRun(ctx, run); err != nil {
		s.warn("finalize sync run", "run", run.ID, "error", err)
	}

	metrics.RecordSyncRun(req.SourceName, string(domain.SyncStatusCompleted))
	metrics.RecordWinesWritten(req.SourceName, run.WinesInserted, run.WinesUpdated)

	s.info("sync completed", "run", run.ID, "source", req.SourceName,
		"total", run.TotalProducts, "inserted", run.WinesInserted, "updated", run.WinesUpdated)

	return run, result
}

func (s *SyncService) fail(ctx context.Context, run domain.SyncRun, cause error) domain.SyncRun {
	run.Status = domain.SyncStatusFailed
	run.ErrorMessage = cause.Error()
	completed := time.Now()
	run.CompletedAt = &completed
	if err := s.tracker.UpdateRun(ctx, run); err != nil {
		s.warn("mark sync run failed", "run", run.ID, "error", err)
	}

	metrics.RecordSyncRun(run.SyncType, string(domain.SyncStatusFailed))
	s.warn("sync failed", "run", run.ID, "source", run.SyncType, "error", cause)
	return run
}

func newRun(source string) domain.SyncRun {
	return domain.SyncRun{
		ID:        uuid.NewString(),
		SyncType:  source,
		Status:    domain.SyncStatusRunning,
		StartedAt: time.Now(),
	}
}

func (s *SyncService) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *SyncService) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
