package modules

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"

	"eventfin.io/eventfin/internal/api/handlers"
	"eventfin.io/eventfin/internal/governance/approval"
	"eventfin.io/eventfin/internal/jobs"
	"eventfin.io/eventfin/internal/usecase"
)

// ExpenseModule wires the approval gateway, its atomic writer and the
// expense use case. It needs the River client, so it is built after
// InitRiver.
type ExpenseModule struct {
	gateway  *approval.Gateway
	expenses *usecase.ExpenseUseCase
}

// NewExpenseModule creates the expense module.
func NewExpenseModule(infra *Infrastructure) (*ExpenseModule, error) {
	if infra == nil || infra.Store == nil || infra.RiverClient == nil || infra.Config == nil {
		return nil, fmt.Errorf("expense module requires store, river client and config")
	}

	wf := infra.Config.Workflow
	router := approval.NewRouter(infra.Store, approval.NewPolicy(wf.AdminOnlyThreshold, wf.AutoSubmitThreshold))
	atomicWriter := usecase.NewApprovalAtomicWriter(infra.Store, jobs.NewEnqueuer(infra.RiverClient))
	gateway := approval.NewGateway(infra.Store, router, infra.AuditLogger, atomicWriter)
	gateway.SetNotifier(infra.Notifier)

	return &ExpenseModule{
		gateway:  gateway,
		expenses: usecase.NewExpenseUseCase(infra.Store, gateway).WithAuditLogger(infra.AuditLogger),
	}, nil
}

func (m *ExpenseModule) Name() string { return "expense" }

func (m *ExpenseModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Expenses = m.expenses
}

func (m *ExpenseModule) RegisterWorkers(_ *river.Workers) {}

func (m *ExpenseModule) Shutdown(context.Context) error { return nil }
