package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiont/spendsense/internal/catalog"
	"github.com/ppiont/spendsense/internal/config"
	"github.com/ppiont/spendsense/internal/engine"
	"github.com/ppiont/spendsense/internal/guardrail"
	"github.com/ppiont/spendsense/internal/metrics"
	"github.com/ppiont/spendsense/internal/rationale"
	"github.com/ppiont/spendsense/internal/scoring"
	"github.com/ppiont/spendsense/internal/signal"
	"github.com/ppiont/spendsense/internal/storage"
	"github.com/ppiont/spendsense/internal/strategy"
)

// app is the wired pipeline shared by the commands.
type app struct {
	cfg      *config.Config
	store    *storage.SQLiteStorage
	catalogs *catalog.Store
	engine   *engine.Engine
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// openApp loads configuration, opens the profile store, and wires the engine.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	a, err := newApp(cfg, store, slog.Default())
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

// initStorage opens the database and brings the schema up to date.
func initStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newApp wires the engine over an open store.
func newApp(cfg *config.Config, store *storage.SQLiteStorage, logger *slog.Logger) (*app, error) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	catalogs, err := catalog.NewStore(cfg.CatalogPath, logger)
	if err != nil {
		return nil, err
	}

	deriver := signal.NewDeriver(cfg.Tier())
	generator, err := rationale.NewGenerator(deriver)
	if err != nil {
		return nil, fmt.Errorf("failed to load rationale templates: %w", err)
	}
	template := strategy.NewTemplate(scoring.NewScorer(deriver), generator)

	resilience := cfg.Resilience()
	resilience.Logger = logger
	resilience.OnFallback = m.RecordFallback

	strat, err := strategy.New(strategy.Config{Name: cfg.StrategyName, Resilience: resilience}, template)
	if err != nil {
		return nil, err
	}

	tone, err := guardrail.NewToneScreen(cfg.TonePatterns)
	if err != nil {
		return nil, err
	}

	eng := engine.New(store, catalogs, strat, tone, engine.Config{
		Eligibility: cfg.Eligibility(),
		TierMode:    cfg.Tier(),
		Limit:       cfg.Limit,
		OfferLimit:  cfg.OfferLimit,
	}, engine.WithLogger(logger), engine.WithRecorder(m))

	return &app{
		cfg:      cfg,
		store:    store,
		catalogs: catalogs,
		engine:   eng,
		registry: registry,
		metrics:  m,
		logger:   logger,
	}, nil
}

// reloadCatalog swaps in a freshly loaded catalog, keeping the old one on failure.
func (a *app) reloadCatalog() error {
	err := a.catalogs.Reload()
	a.metrics.RecordCatalogReload(err)
	return err
}

func (a *app) Close() error {
	return a.store.Close()
}
