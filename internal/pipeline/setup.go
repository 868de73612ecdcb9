package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rustyeddy/ratecheck/calendar"
	"github.com/rustyeddy/ratecheck/config"
	"github.com/rustyeddy/ratecheck/journal"
	"github.com/rustyeddy/ratecheck/marketdata"
	"github.com/rustyeddy/ratecheck/marketdata/b3"
	"github.com/rustyeddy/ratecheck/marketdata/rediscache"
	"github.com/rustyeddy/ratecheck/reconcile"
	"github.com/rustyeddy/ratecheck/snapshot"
)

// NewSource builds the configured market-data source, wrapped in the Redis
// cache when enabled. The returned func releases whatever was opened.
func NewSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (marketdata.Source, func() error, error) {
	var src marketdata.Source

	switch cfg.MarketData.Source {
	case "b3":
		timeout, err := cfg.MarketData.TimeoutDuration()
		if err != nil {
			return nil, nil, err
		}
		src = b3.NewClient(cfg.MarketData.BaseURL, timeout, logger)
	case "dir":
		src = marketdata.NewDirSource(cfg.MarketData.SnapshotDir)
	default:
		return nil, nil, fmt.Errorf("unknown market data source %q", cfg.MarketData.Source)
	}

	if !cfg.Cache.Enabled {
		return src, func() error { return nil }, nil
	}

	ttl, err := cfg.Cache.TTLDuration()
	if err != nil {
		return nil, nil, err
	}
	rdb, err := rediscache.Dial(ctx, rediscache.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	return rediscache.New(rdb, src, ttl, logger), rdb.Close, nil
}

// NewRunner wires a Runner over src from cfg.
func NewRunner(src marketdata.Source, cfg *config.Config, logger *slog.Logger) *Runner {
	fetcher := snapshot.New(src, calendar.New(calendar.Brazil()),
		snapshot.WithMaxAttempts(cfg.MarketData.MaxAttempts),
		snapshot.WithLogger(logger),
	)
	return &Runner{
		Fetcher:    fetcher,
		Reconciler: reconcile.New(cfg.Reconcile.Options()),
		Options: RunnerOptions{
			Parallelism: cfg.MarketData.Parallelism,
			OrgPath:     cfg.Report.OrgPath,
		},
		Logger: logger,
	}
}

// OpenJournal opens the report sink named by cfg.
func OpenJournal(cfg config.ReportConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		return journal.NewCSV(cfg.CSVPath, cfg.RunsPath)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	}
	return nil, fmt.Errorf("unknown report type %q", cfg.Type)
}
