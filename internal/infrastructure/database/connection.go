package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	apperrors "github.com/davidleathers/aire-backend/internal/domain/errors"
	"github.com/davidleathers/aire-backend/internal/infrastructure/config"
)

const applicationName = "aire"

// ConnectionPool owns the pgx pool backing the store.
type ConnectionPool struct {
	pool   *pgxpool.Pool
	config config.DatabaseConfig
	logger *zap.Logger
}

// NewConnectionPool parses the configured URL, opens the pool and pings it.
// A missing URL yields a MISSING_CREDENTIALS configuration error and a
// failed ping yields BACKEND_UNAVAILABLE; both are fatal to the caller.
func NewConnectionPool(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*ConnectionPool, error) {
	if cfg.URL == "" {
		return nil, apperrors.ErrMissingCredentials
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, apperrors.NewConfigurationError(apperrors.CodeInvalidConfig, "failed to parse database URL").WithCause(err)
	}

	p := &ConnectionPool{config: cfg, logger: logger}
	p.configurePgxPool(poolConfig)

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, apperrors.NewConfigurationError(apperrors.CodeBackendUnavailable, "failed to create connection pool").WithCause(err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, apperrors.NewConfigurationError(apperrors.CodeBackendUnavailable, "failed to ping database").WithCause(err)
	}

	p.pool = pool
	logger.Info("database connection pool initialized",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.Int32("max_connections", poolConfig.MaxConns))

	return p, nil
}

func (p *ConnectionPool) configurePgxPool(poolConfig *pgxpool.Config) {
	poolConfig.MaxConns = p.config.MaxConns
	poolConfig.MinConns = p.config.MinConns
	poolConfig.MaxConnLifetime = p.config.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	poolConfig.ConnConfig.ConnectTimeout = p.config.ConnectTimeout
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"

	poolConfig.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
		p.logger.Debug("establishing database connection",
			zap.String("host", cc.Host),
			zap.Uint16("port", cc.Port))
		return nil
	}
}

// DB returns the pool as the store's query interface.
func (p *ConnectionPool) DB() DB {
	return p.pool
}

// Transaction executes fn within a database transaction.
func (p *ConnectionPool) Transaction(ctx context.Context, fn TransactionFunc) error {
	return InTransaction(ctx, p.pool, fn)
}

// Ping checks connectivity within the configured query timeout.
func (p *ConnectionPool) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.config.QueryTimeout)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Stats reports pool utilisation.
func (p *ConnectionPool) Stats() *pgxpool.Stat {
	return p.pool.Stat()
}

// Close releases every pooled connection.
func (p *ConnectionPool) Close() {
	p.pool.Close()
	p.logger.Info("database connection pool closed")
}
