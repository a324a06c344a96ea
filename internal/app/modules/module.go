// Package modules groups the composition root by domain: each module builds
// its use cases, contributes them to the HTTP server and registers its River
// workers.
package modules

import (
	"context"

	"github.com/riverqueue/river"

	"eventfin.io/eventfin/internal/api/handlers"
)

// Module represents a domain-specific dependency unit in the composition root.
type Module interface {
	// Name returns a stable module identifier for logging/debugging.
	Name() string

	// ContributeServerDeps injects module-owned dependencies into the HTTP server deps.
	ContributeServerDeps(*handlers.ServerDeps)

	// RegisterWorkers registers module workers into a shared River worker registry.
	RegisterWorkers(*river.Workers)

	// Shutdown performs module-local graceful cleanup.
	Shutdown(context.Context) error
}

// NewServerDeps builds base server deps then lets each module contribute.
func NewServerDeps(infra *Infrastructure, mods []Module) handlers.ServerDeps {
	deps := handlers.ServerDeps{}
	if infra != nil && infra.DB != nil {
		deps.DB = infra.DB
	}
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		mod.ContributeServerDeps(&deps)
	}
	return deps
}
