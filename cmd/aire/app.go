package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.uber.org/zap"

	"github.com/davidleathers/aire-backend/internal/infrastructure/cache"
	"github.com/davidleathers/aire-backend/internal/infrastructure/config"
	"github.com/davidleathers/aire-backend/internal/infrastructure/database"
	"github.com/davidleathers/aire-backend/internal/infrastructure/repository"
	"github.com/davidleathers/aire-backend/internal/infrastructure/telemetry"
	"github.com/davidleathers/aire-backend/internal/metrics"
	"github.com/davidleathers/aire-backend/internal/service/accessor"
)

const instrumentationName = "github.com/davidleathers/aire-backend"

// app carries the process-wide dependencies of one command invocation.
// Backends are connected on first use so offline commands never need them.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	slog      *slog.Logger
	telemetry *telemetry.Provider
	metrics   *metrics.Registry
	out       io.Writer

	pool          *database.ConnectionPool
	cache         cache.Cache
	summaries     *cache.SummaryCache
	metricsServer *http.Server
}

func newApp(ctx context.Context, configPath string, out io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slogger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	logger, err := telemetry.NewZapLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	provider, err := telemetry.InitializeOpenTelemetry(ctx, cfg.Telemetry, cfg.Version, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	reg, err := metrics.NewRegistry(instrumentationName)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create metrics registry: %w", err)
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		slog:      slogger,
		telemetry: provider,
		metrics:   reg,
		out:       out,
	}
	if cfg.Metrics.ListenAddr != "" {
		a.metricsServer = startMetricsServer(cfg.Metrics.ListenAddr, logger)
	}

	slogger.Info("aire starting",
		"version", cfg.Version,
		"environment", cfg.Environment,
		"telemetry", cfg.Telemetry.Enabled)
	return a, nil
}

// store connects to Postgres. Missing or unreachable credentials are fatal.
func (a *app) store(ctx context.Context) (*repository.Store, error) {
	if a.pool == nil {
		pool, err := database.NewConnectionPool(ctx, a.cfg.Database, a.logger)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		a.metrics.SetDBPoolAcquired(int64(pool.Stats().AcquiredConns()))
	}
	return repository.NewStore(a.pool.DB(), a.cfg.Database, a.logger), nil
}

// summaryCache returns nil when Redis is disabled or cannot be reached.
func (a *app) summaryCache(ctx context.Context) *cache.SummaryCache {
	if !a.cfg.Redis.Enabled {
		return nil
	}
	if a.summaries == nil {
		c, err := cache.NewRedisCache(ctx, a.cfg.Redis, a.logger)
		if err != nil {
			a.logger.Warn("summary cache disabled", zap.Error(err))
			a.cfg.Redis.Enabled = false
			return nil
		}
		a.cache = c
		a.summaries = cache.NewSummaryCache(c, a.cfg.Redis.SummaryTTL, a.logger)
	}
	return a.summaries
}

func (a *app) dataAccessor(ctx context.Context) (*accessor.DataAccessor, error) {
	store, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	opts := []accessor.Option{accessor.WithLogger(a.logger)}
	if sc := a.summaryCache(ctx); sc != nil {
		opts = append(opts, accessor.WithSummaryCache(sc))
	}
	return accessor.NewDataAccessor(store, opts...), nil
}


func (a *app) writeJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) Close(ctx context.Context) {
	if a.metricsServer != nil {
		_ = a.metricsServer.Shutdown(ctx)
	}
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.slog.Error("failed to shutdown telemetry", "error", err)
	}
	_ = a.logger.Sync()
}
