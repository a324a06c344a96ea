// Package infrastructure owns the PostgreSQL pool and the River client.
//
// A single pgxpool backs the repositories, River and migrations so that a
// repository write and a job insert can share one transaction.
package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.uber.org/zap"

	"eventfin.io/eventfin/internal/config"
	"eventfin.io/eventfin/internal/pkg/logger"
)

// DatabaseClients holds the shared pool and the clients built on it.
type DatabaseClients struct {
	Pool *pgxpool.Pool

	// DB is a database/sql view of Pool for health probes.
	DB *sql.DB

	// RiverClient is nil until InitRiverClient runs.
	RiverClient *river.Client[pgx.Tx]
}

// NewDatabaseClients connects the shared pool and verifies it with a ping.
func NewDatabaseClients(ctx context.Context, cfg config.DatabaseConfig) (*DatabaseClients, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = time.Minute

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET timezone = 'UTC'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection pool created",
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Int32("min_conns", cfg.MinConns),
	)

	return &DatabaseClients{
		Pool: pool,
		DB:   stdlib.OpenDBFromPool(pool),
	}, nil
}

// AutoMigrate applies the schema and River migrations.
func (c *DatabaseClients) AutoMigrate(ctx context.Context) error {
	if err := MigrateSchema(c.Pool); err != nil {
		return err
	}
	return MigrateRiver(ctx, c.Pool)
}

// InitRiverClient creates the River client with the registered workers and
// periodic jobs. Each extra queue gets a quarter of the default queue's
// workers.
func (c *DatabaseClients) InitRiverClient(workers *river.Workers, periodic []*river.PeriodicJob, cfg config.RiverConfig, extraQueues ...string) error {
	queues := map[string]river.QueueConfig{
		river.QueueDefault: {MaxWorkers: cfg.MaxWorkers},
	}
	for _, name := range extraQueues {
		queues[name] = river.QueueConfig{MaxWorkers: secondaryQueueWorkers(cfg.MaxWorkers)}
	}
	riverClient, err := river.NewClient(riverpgxv5.New(c.Pool), &river.Config{
		Queues:                      queues,
		Workers:                     workers,
		PeriodicJobs:                periodic,
		CompletedJobRetentionPeriod: cfg.CompletedJobRetentionPeriod,
	})
	if err != nil {
		return fmt.Errorf("create river client: %w", err)
	}
	c.RiverClient = riverClient
	logger.Info("river client initialized",
		zap.Int("max_workers", cfg.MaxWorkers),
		zap.Int("periodic_jobs", len(periodic)),
	)
	return nil
}

func secondaryQueueWorkers(maxWorkers int) int {
	if n := maxWorkers / 4; n > 0 {
		return n
	}
	return 1
}

// Ping checks database reachability.
func (c *DatabaseClients) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close releases the sql.DB view and the pool.
func (c *DatabaseClients) Close() {
	if c.DB != nil {
		_ = c.DB.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
