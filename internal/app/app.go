package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"WineScout/internal/config"
	"WineScout/internal/feed"
	"WineScout/internal/infrastructure/favorites"
	"WineScout/internal/infrastructure/feeds"
	"WineScout/internal/infrastructure/httpapi"
	"WineScout/internal/infrastructure/scheduler"
	"WineScout/internal/infrastructure/storage"
	"WineScout/internal/logging"
	"WineScout/internal/normalize"
	"WineScout/internal/ports"
	"WineScout/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	server    *http.Server
	scheduler *usecase.Scheduler
}

// New builds the full application: database, feed adapters, sync
// pipeline, catalog and HTTP surface.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := storage.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	registry := buildRegistry(cfg, baseLogger)

	repo := storage.NewPostgresRepository(db)
	tracker := storage.NewSyncStatusTracker(db)
	plans := storage.NewLaunchPlanStore(db)

	chunkSizes := make(map[string]int, len(cfg.Sources))
	for _, src := range cfg.Sources {
		chunkSizes[src.Name] = src.BatchSize
	}

	syncService := usecase.NewSyncService(usecase.SyncDeps{
		Registry:   registry,
		Repository: repo,
		Tracker:    tracker,
		Logger:     baseLogger.With("component", "sync"),
		ChunkSizes: chunkSizes,
		Seed:       cfg.Scoring.Seed,
	})

	favoritesStore, err := buildFavoritesStore(cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	catalog := usecase.NewCatalog(repo, usecase.DefaultLimits)

	api := httpapi.NewServer(httpapi.Deps{
		Sync:        syncService,
		Catalog:     catalog,
		Tracker:     tracker,
		LaunchPlans: plans,
		Favorites:   favoritesStore,
		Repository:  repo,
		Logger:      baseLogger.With("component", "http"),
	})

	app := &Application{
		cfg:    cfg,
		logger: baseLogger,
		db:     db,
		server: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	if cfg.Scheduler.Enabled {
		driver := scheduler.NewTickerScheduler(cfg.Scheduler.Interval, cfg.Scheduler.Location())
		app.scheduler = usecase.NewScheduler(driver, syncService,
			baseLogger.With("component", "scheduler"))
	}

	return app, nil
}

// buildRegistry constructs one adapter per configured source. Unknown
// adapter names are logged and skipped rather than failing startup.
func buildRegistry(cfg config.Config, logger *slog.Logger) *feed.Registry {
	registry := feed.NewRegistry()
	client := &http.Client{Timeout: 2 * time.Minute}
	keywordsBySource := normalize.DefaultKeywords()

	for _, src := range cfg.Sources {
		keywords := keywordsBySource[src.Adapter]
		adapterLogger := logger.With("component", "feed."+src.Name)

		switch src.Adapter {
		case "systembolaget":
			registry.Register(feeds.NewSystembolagetAdapter(client, src, keywords, adapterLogger))
		case "vinmonopolet":
			registry.Register(feeds.NewVinmonopoletAdapter(client, src, keywords, adapterLogger))
		case "alko":
			registry.Register(feeds.NewAlkoAdapter(client, src, keywords, adapterLogger))
		case "scraper":
			registry.Register(feeds.NewScraperAdapter(client, src, keywords, adapterLogger))
		default:
			logger.Warn("unknown feed adapter", "source", src.Name, "adapter", src.Adapter)
		}
	}
	return registry
}

// buildFavoritesStore selects the list store from config: guest-mode
// deployments keep lists in local JSON files, everything else uses the
// user_favorites table.
func buildFavoritesStore(cfg config.Config, db *sql.DB) (ports.FavoritesStore, error) {
	if cfg.Favorites.Mode == config.FavoritesModeLocal {
		store, err := favorites.NewLocalFileStore(cfg.Favorites.Dir)
		if err != nil {
			return nil, fmt.Errorf("favorites store: %w", err)
		}
		return store, nil
	}
	return favorites.NewPostgresStore(db), nil
}

// Run starts the scheduler (if enabled) and serves HTTP until the
// context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.Server.Addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return a.Shutdown()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops the scheduler, drains the HTTP server and closes the
// database.
func (a *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if a.scheduler != nil {
		if err := a.scheduler.Stop(ctx); err != nil {
			a.logger.Warn("scheduler stop", "error", err)
		}
	}

	err := a.server.Shutdown(ctx)
	if closeErr := a.db.Close(); err == nil {
		err = closeErr
	}
	return err
}
