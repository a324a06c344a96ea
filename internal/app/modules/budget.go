package modules

import (
	"context"

	"github.com/riverqueue/river"

	"eventfin.io/eventfin/internal/api/handlers"
	"eventfin.io/eventfin/internal/usecase"
)

// BudgetModule wires budget versioning.
type BudgetModule struct {
	budgets *usecase.BudgetUseCase
}

// NewBudgetModule creates the budget module.
func NewBudgetModule(infra *Infrastructure) *BudgetModule {
	return &BudgetModule{
		budgets: usecase.NewBudgetUseCase(infra.Store).WithAuditLogger(infra.AuditLogger),
	}
}

func (m *BudgetModule) Name() string { return "budget" }

func (m *BudgetModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Budgets = m.budgets
}

func (m *BudgetModule) RegisterWorkers(_ *river.Workers) {}

func (m *BudgetModule) Shutdown(context.Context) error { return nil }
