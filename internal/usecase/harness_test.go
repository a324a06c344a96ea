package usecase

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/governance/approval"
	"eventfin.io/eventfin/internal/governance/audit"
	"eventfin.io/eventfin/internal/notification"
	apperrors "eventfin.io/eventfin/internal/pkg/errors"
	"eventfin.io/eventfin/internal/pkg/logger"
	"eventfin.io/eventfin/internal/repository"
	"eventfin.io/eventfin/internal/testutil"
)

func init() {
	_ = logger.Init("error", "json")
}

type harness struct {
	store    *testutil.MemStore
	org      uuid.UUID
	event    domain.Event
	caller   domain.Principal
	outsider domain.Principal
	budgets  *BudgetUseCase
	expenses *ExpenseUseCase
}

// newHarness builds the use cases over an in-memory store. The caller is
// a finance user of the event's organization.
func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithStore(t, testutil.NewMemStore(), nil)
}

func newHarnessWithStore(t *testing.T, mem *testutil.MemStore, store repository.Store) *harness {
	t.Helper()
	if store == nil {
		store = mem
	}
	org := uuid.New()
	event := mem.AddEvent(org)
	caller := mem.AddUser(org, domain.RoleFinance, true)

	auditLogger := audit.NewLogger(store)
	gateway := approval.NewGateway(store, approval.NewRouter(store, approval.DefaultPolicy()), auditLogger,
		NewApprovalAtomicWriter(store, nil))
	gateway.SetNotifier(notification.NewTriggers(notification.NewInboxSender(store), notification.InlineDispatcher{}))

	return &harness{
		store:    mem,
		org:      org,
		event:    event,
		caller:   domain.Principal{UserID: caller.ID, OrganizationID: org, Role: domain.RoleFinance},
		outsider: domain.Principal{UserID: uuid.New(), OrganizationID: uuid.New(), Role: domain.RoleAdmin},
		budgets:  NewBudgetUseCase(store).WithAuditLogger(auditLogger),
		expenses: NewExpenseUseCase(store, gateway).WithAuditLogger(auditLogger),
	}
}

func requireAppError(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.HTTPStatus)
}

func actionsOf(logs []domain.ActivityLog) []string {
	out := make([]string, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Action)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
