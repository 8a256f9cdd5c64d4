package ports

import (
	"context"
	"time"

	"WineScout/internal/domain"
)

// UpsertResult reports what a single chunk write actually did.
type UpsertResult struct {
	Inserted int
	Updated  int
}

// WineRepository persists scored wines and serves the catalog.
type WineRepository interface {
	// UpsertWines writes one chunk keyed by product_id, overwriting all
	// fields on conflict.
	UpsertWines(ctx context.Context, wines []domain.Wine) (UpsertResult, error)
	ListWines(ctx context.Context) ([]domain.Wine, error)
	// Reset destroys all wine rows. Test/admin use only.
	Reset(ctx context.Context) error
}

// SyncTracker owns the sync_status rows a client polls for progress.
type SyncTracker interface {
	CreateRun(ctx context.Context, run domain.SyncRun) error
	UpdateRun(ctx context.Context, run domain.SyncRun) error
	LatestRun(ctx context.Context) (domain.SyncRun, error)
	RunsBySource(ctx context.Context, syncType string, limit int) ([]domain.SyncRun, error)
}

// LaunchPlanRepository serves release bulletins for display.
type LaunchPlanRepository interface {
	ListLaunchPlans(ctx context.Context, year int) ([]domain.LaunchPlan, error)
	SaveLaunchPlan(ctx context.Context, plan domain.LaunchPlan) error
}

// FavoritesStore keeps user-curated lists. Two implementations exist:
// Postgres for authenticated users and a local file for guests; the
// caller picks one at construction time based on session state.
type FavoritesStore interface {
	Lists(ctx context.Context, ownerID string) ([]domain.WineList, error)
	GetList(ctx context.Context, ownerID, listID string) (domain.WineList, error)
	SaveList(ctx context.Context, list domain.WineList) error
	DeleteList(ctx context.Context, ownerID, listID string) error
	AddWine(ctx context.Context, ownerID, listID, productID string) error
	RemoveWine(ctx context.Context, ownerID, listID, productID string) error
}

// Scheduler controls when periodic full syncs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
