// Package app is the composition root. Bootstrap only orchestrates; each
// module owns its own wiring.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/riverqueue/river"

	"eventfin.io/eventfin/internal/api/handlers"
	"eventfin.io/eventfin/internal/api/middleware"
	"eventfin.io/eventfin/internal/app/modules"
	"eventfin.io/eventfin/internal/config"
	"eventfin.io/eventfin/internal/infrastructure"
	"eventfin.io/eventfin/internal/jobs"
	"eventfin.io/eventfin/internal/pkg/worker"
)

// Application holds composed application dependencies.
type Application struct {
	Config  *config.Config
	Router  *gin.Engine
	DB      *infrastructure.DatabaseClients
	Pools   *worker.Pools
	Modules []modules.Module
}

// Bootstrap initializes all dependencies using module-oriented manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	infra, err := modules.NewInfrastructure(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	insightModule := modules.NewInsightModule(infra)
	baseModules := []modules.Module{
		modules.NewBudgetModule(infra),
		insightModule,
	}

	workers := river.NewWorkers()
	for _, mod := range baseModules {
		mod.RegisterWorkers(workers)
	}
	if err := infra.InitRiver(workers, insightModule.PeriodicJobs(), jobs.QueueInsights); err != nil {
		infra.Close()
		return nil, fmt.Errorf("init river workers: %w", err)
	}

	expenseModule, err := modules.NewExpenseModule(infra)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("init expense module: %w", err)
	}

	allModules := append(baseModules, expenseModule)
	server := handlers.NewServer(modules.NewServerDeps(infra, allModules))

	router, err := newRouter(ctx, cfg, server, infra.DB)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("init router: %w", err)
	}

	return &Application{
		Config:  cfg,
		Router:  router,
		DB:      infra.DB,
		Pools:   infra.Pools,
		Modules: allModules,
	}, nil
}

// jwtConfig maps security settings onto the token validator. The signing
// secret is always accepted; older secrets stay valid during rotation.
func jwtConfig(cfg *config.Config) middleware.JWTConfig {
	keys := [][]byte{[]byte(cfg.Security.JWTSecret)}
	for _, k := range cfg.Security.JWTVerificationKeys {
		if k != "" && k != cfg.Security.JWTSecret {
			keys = append(keys, []byte(k))
		}
	}
	return middleware.JWTConfig{
		SigningKey:       []byte(cfg.Security.JWTSecret),
		VerificationKeys: keys,
		Issuer:           cfg.Security.JWTIssuer,
		ExpiresIn:        cfg.Security.TokenLifetime,
	}
}
