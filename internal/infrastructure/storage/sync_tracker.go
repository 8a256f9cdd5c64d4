package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"WineScout/internal/domain"
	"WineScout/internal/ports"
)

// SyncStatusTracker persists sync_status rows for progress polling.
type SyncStatusTracker struct {
	db *sql.DB
}

var _ ports.SyncTracker = (*SyncStatusTracker)(nil)

// NewSyncStatusTracker wires a sql.DB implementation.
func NewSyncStatusTracker(db *sql.DB) *SyncStatusTracker {
	return &SyncStatusTracker{db: db}
}

// CreateRun inserts the row before any long-running work begins.
func (t *SyncStatusTracker) CreateRun(ctx context.Context, run domain.SyncRun) error {
	if t.db == nil {
		return nil
	}

	query, args, err := psql.Insert("sync_status").
		Columns("id", "sync_type", "status", "total_products",
			"processed_products", "wines_inserted", "wines_updated",
			"error_message", "started_at").
		Values(run.ID, run.SyncType, run.Status, run.TotalProducts,
			run.ProcessedProducts, run.WinesInserted, run.WinesUpdated,
			run.ErrorMessage, run.StartedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := t.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create sync run: %w", err)
	}
	return nil
}

// UpdateRun mutates the run row in place as chunks are written.
func (t *SyncStatusTracker) UpdateRun(ctx context.Context, run domain.SyncRun) error {
	if t.db == nil {
		return nil
	}

	query, args, err := psql.Update("sync_status").
		Set("status", run.Status).
		Set("total_products", run.TotalProducts).
		Set("processed_products", run.ProcessedProducts).
		Set("wines_inserted", run.WinesInserted).
		Set("wines_updated", run.WinesUpdated).
		Set("error_message", run.ErrorMessage).
		Set("completed_at", run.CompletedAt).
		Where(sq.Eq{"id": run.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := t.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update sync run: %w", err)
	}
	return nil
}

// LatestRun returns the most recently started run; the UI always shows
// this one.
func (t *SyncStatusTracker) LatestRun(ctx context.Context) (domain.SyncRun, error) {
	if t.db == nil {
		return domain.SyncRun{}, errors.New("sync tracker has no database")
	}

	query, args, err := runSelect().
		OrderBy("started_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.SyncRun{}, fmt.Errorf("build select: %w", err)
	}

	run, err := scanRun(t.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		// No sync has run yet; callers check for the zero run.
		return domain.SyncRun{}, nil
	}
	if err != nil {
		return domain.SyncRun{}, fmt.Errorf("latest sync run: %w", err)
	}
	return run, nil
}

// RunsBySource returns recent run history for one source.
func (t *SyncStatusTracker) RunsBySource(ctx context.Context, syncType string, limit int) ([]domain.SyncRun, error) {
	if t.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	query, args, err := runSelect().
		Where(sq.Eq{"sync_type": syncType}).
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return runs, nil
}

func runSelect() sq.SelectBuilder {
	return psql.Select("id", "sync_type", "status", "total_products",
		"processed_products", "wines_inserted", "wines_updated",
		"error_message", "started_at", "completed_at").
		From("sync_status")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (domain.SyncRun, error) {
	var run domain.SyncRun
	err := row.Scan(&run.ID, &run.SyncType, &run.Status, &run.TotalProducts,
		&run.ProcessedProducts, &run.WinesInserted, &run.WinesUpdated,
		&run.ErrorMessage, &run.StartedAt, &run.CompletedAt)
	return run, err
}
