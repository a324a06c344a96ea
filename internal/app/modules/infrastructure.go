package modules

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"eventfin.io/eventfin/internal/config"
	"eventfin.io/eventfin/internal/governance/audit"
	"eventfin.io/eventfin/internal/infrastructure"
	"eventfin.io/eventfin/internal/notification"
	"eventfin.io/eventfin/internal/pkg/worker"
	"eventfin.io/eventfin/internal/repository"
)

// Infrastructure holds shared cross-cutting dependencies for all modules.
// It is a provider, not a Module.
type Infrastructure struct {
	Config      *config.Config
	DB          *infrastructure.DatabaseClients
	Pools       *worker.Pools
	Store       repository.Store
	RiverClient *river.Client[pgx.Tx]
	AuditLogger *audit.Logger
	Notifier    *notification.Triggers
}

// NewInfrastructure connects the database, applies migrations when enabled
// and builds the shared services.
func NewInfrastructure(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize: cfg.Worker.GeneralPoolSize,
		NotifyPoolSize:  cfg.Worker.NotifyPoolSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	store := repository.NewPGStore(db.Pool)
	return &Infrastructure{
		Config:      cfg,
		DB:          db,
		Pools:       pools,
		Store:       store,
		AuditLogger: audit.NewLogger(store),
		Notifier:    notification.NewTriggers(notification.NewInboxSender(store), pools),
	}, nil
}

// InitRiver creates the River client on top of a prepared worker registry.
func (i *Infrastructure) InitRiver(workers *river.Workers, periodic []*river.PeriodicJob, extraQueues ...string) error {
	if i == nil || i.DB == nil || i.Config == nil {
		return fmt.Errorf("infrastructure is not initialized")
	}
	if err := i.DB.InitRiverClient(workers, periodic, i.Config.River, extraQueues...); err != nil {
		return fmt.Errorf("init river: %w", err)
	}
	i.RiverClient = i.DB.RiverClient
	return nil
}

// Close releases infra resources in reverse dependency order.
func (i *Infrastructure) Close() {
	if i == nil {
		return
	}
	if i.Pools != nil {
		i.Pools.Shutdown()
	}
	if i.DB != nil {
		i.DB.Close()
	}
}
