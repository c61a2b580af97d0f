package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/isdmx/querybox/config"
)

// NewPool creates the shared connection pool. Each in-flight invocation
// checks a connection out for exactly its own duration; pgxpool handles the
// checkin on rows.Close, including cancelled contexts.
func NewPool(cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}

	pc.MinConns = int32(cfg.Database.MinConns)
	pc.MaxConns = int32(cfg.Database.MaxConns)
	pc.MaxConnLifetime = 30 * time.Minute
	pc.MaxConnIdleTime = 5 * time.Minute
	pc.HealthCheckPeriod = 30 * time.Second
	// Arbitrary caller-supplied SQL cannot use the extended protocol's
	// statement cache safely.
	pc.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(context.Background(), pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	logger.Info("database pool created",
		zap.Int("min_conns", cfg.Database.MinConns),
		zap.Int("max_conns", cfg.Database.MaxConns))
	return pool, nil
}
