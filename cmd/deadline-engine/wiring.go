package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/username/legal-deadline-engine/internal/config"
	"github.com/username/legal-deadline-engine/internal/deadline"
	"github.com/username/legal-deadline-engine/internal/holiday"
	"github.com/username/legal-deadline-engine/internal/manager"
	"github.com/username/legal-deadline-engine/internal/metrics"
	"github.com/username/legal-deadline-engine/internal/store"
)

// app bundles what the commands need; close releases the store
type app struct {
	cfg     *config.Config
	mgr     *manager.Manager
	repo    store.Repository
	metrics *metrics.Metrics
}

func (a *app) close() {
	if err := a.repo.Close(); err != nil {
		logger.Warn("Failed to close store", zap.Error(err))
	}
}

// loadApp loads the config and wires the manager. Pure calculations pass
// withStore=false; they skip file stores but still open postgres for its holidays table.
func loadApp(ctx context.Context, withStore bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return initializeApp(ctx, cfg, withStore, false)
}

func initializeApp(ctx context.Context, cfg *config.Config, withStore, withRuntimeMetrics bool) (*app, error) {
	loc, err := cfg.Engine.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	engine, err := deadline.NewEngine(loc, nil)
	if err != nil {
		return nil, err
	}

	m := metrics.New(withRuntimeMetrics)

	repo, err := openRepository(ctx, cfg, withStore)
	if err != nil {
		return nil, err
	}

	holidays, err := initializeHolidays(cfg, repo, m)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		mgr:     manager.NewManager(engine, repo, holidays, m, logger),
		repo:    repo,
		metrics: m,
	}, nil
}

// openRepository opens the configured store. Calculations (withStore=false)
// keep no records and get a memory store, except on postgres, whose holidays
// table is one of the holiday sources.
func openRepository(ctx context.Context, cfg *config.Config, withStore bool) (store.Repository, error) {
	if !withStore && cfg.Store.Type != store.KindPostgres {
		return store.NewMemory(), nil
	}
	repo, err := store.Open(ctx, cfg.Store.StoreOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Type, err)
	}
	return repo, nil
}

// initializeHolidays unions the configured sources
func initializeHolidays(cfg *config.Config, repo store.Repository, m *metrics.Metrics) (holiday.Source, error) {
	sources, err := holidaySources(cfg, repo, m)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		logger.Warn("No holiday sources configured; only weekends are non-working days")
	}
	return holiday.NewMultiSource(sources...), nil
}

// holidaySources lists the configured sources in order. The remote feed falls
// back to the built-in national list when both are enabled.
func holidaySources(cfg *config.Config, repo store.Repository, m *metrics.Metrics) ([]holiday.Source, error) {
	var sources []holiday.Source

	var national holiday.Source
	if cfg.Holidays.BuiltinNational {
		national = holiday.NationalBR{}
	}

	if cfg.Holidays.Remote.Enabled {
		logger.Info("Using BrasilAPI holiday feed", zap.String("url", cfg.Holidays.Remote.URL))
		remote := holiday.NewBrasilAPISource(cfg.Holidays.Remote.URL, cfg.Holidays.Remote.GetCacheTTL(), logger)
		if national != nil {
			fallback := holiday.NewFallbackSource(remote, national, logger)
			fallback.OnError(func(source string, err error) {
				m.HolidaySourceError(source)
			})
			sources = append(sources, fallback)
		} else {
			sources = append(sources, remote)
		}
	} else if national != nil {
		sources = append(sources, national)
	}

	if cfg.Holidays.File != "" {
		fileSource := holiday.NewFileSource(cfg.Holidays.File, logger)
		if err := fileSource.Load(); err != nil {
			return nil, fmt.Errorf("failed to load holiday file: %w", err)
		}
		sources = append(sources, fileSource)
	}

	if pg, ok := repo.(*store.Postgres); ok {
		sources = append(sources, store.NewPostgresHolidaySource(pg.DB(), logger))
	}
	return sources, nil
}
