// Package repository persists the event-finance entities in PostgreSQL.
//
// Queries follows the shape of generated sqlc code: a thin struct over a
// DBTX that can be rebound to a transaction with WithTx. Store adds the
// unit of work every multi-write operation runs in.
//
// Errors: a missing row is apperrors.ErrNotFound, a unique violation is
// apperrors.ErrConflict, and a conditional update that matched nothing is
// apperrors.ErrStaleState.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"eventfin.io/eventfin/internal/domain"
)

// EventReader reads collaborator-owned rows: events, users, CRM payloads.
type EventReader interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	// LockEvent takes a row lock on the event for the rest of the transaction.
	LockEvent(ctx context.Context, id uuid.UUID) error
	ListActiveEventIDs(ctx context.Context) ([]uuid.UUID, error)
	ListActiveUsersByRole(ctx context.Context, organizationID uuid.UUID, roles []domain.Role) ([]domain.User, error)
	GetCrmSync(ctx context.Context, eventID uuid.UUID) (*domain.CrmSync, error)
}

// BudgetRepository stores budget versions and their line items.
type BudgetRepository interface {
	CreateBudgetVersion(ctx context.Context, v *domain.BudgetVersion) error
	GetBudgetVersion(ctx context.Context, id uuid.UUID) (*domain.BudgetVersion, error)
	ListBudgetVersions(ctx context.Context, eventID uuid.UUID) ([]domain.BudgetVersion, error)
	GetFinalBudgetVersion(ctx context.Context, eventID uuid.UUID) (*domain.BudgetVersion, error)
	MaxBudgetVersionNumber(ctx context.Context, eventID uuid.UUID) (int, error)
	UpdateBudgetVersion(ctx context.Context, v *domain.BudgetVersion) error
	// ClearFinalBudgetVersions unsets is_final on every version of the event except keepID.
	ClearFinalBudgetVersions(ctx context.Context, eventID, keepID uuid.UUID) error

	CreateLineItem(ctx context.Context, item *domain.BudgetLineItem) error
	GetLineItem(ctx context.Context, id uuid.UUID) (*domain.BudgetLineItem, error)
	ListLineItems(ctx context.Context, versionID uuid.UUID) ([]domain.BudgetLineItem, error)
	UpdateLineItem(ctx context.Context, item *domain.BudgetLineItem) error
	DeleteLineItem(ctx context.Context, id uuid.UUID) error
}

// ExpenseRepository stores expenses and their approval decisions.
type ExpenseRepository interface {
	CreateExpense(ctx context.Context, e *domain.Expense) error
	GetExpense(ctx context.Context, id uuid.UUID) (*domain.Expense, error)
	// LockExpense reads the expense with a row lock (SELECT ... FOR UPDATE).
	LockExpense(ctx context.Context, id uuid.UUID) (*domain.Expense, error)
	ListExpenses(ctx context.Context, eventID uuid.UUID, filter domain.ExpenseFilter) ([]domain.Expense, error)
	UpdateExpense(ctx context.Context, e *domain.Expense) error
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	// TransitionExpenseStatus moves the expense from one status to another
	// only if it is still in from. Zero matched rows is ErrStaleState.
	TransitionExpenseStatus(ctx context.Context, id uuid.UUID, from, to domain.ExpenseStatus) error
	SumApprovedExpenses(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error)

	CreateApprovalWorkflow(ctx context.Context, w *domain.ApprovalWorkflow) error
	ListApprovalWorkflows(ctx context.Context, expenseID uuid.UUID) ([]domain.ApprovalWorkflow, error)
}

// InsightRepository stores derived ROI metrics and insights.
type InsightRepository interface {
	UpsertROIMetrics(ctx context.Context, m *domain.ROIMetrics) error
	GetROIMetrics(ctx context.Context, eventID uuid.UUID) (*domain.ROIMetrics, error)
	CreateInsight(ctx context.Context, in *domain.Insight) error
	ListInsights(ctx context.Context, eventID uuid.UUID) ([]domain.Insight, error)
}

// ActivityRepository appends activity log entries.
type ActivityRepository interface {
	CreateActivityLog(ctx context.Context, entry *domain.ActivityLog) error
}

// NotificationRepository stores the in-app inbox.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Notification, error)
	DeleteNotificationsBefore(ctx context.Context, before time.Time) (int64, error)
}

// Querier is every query the service runs.
type Querier interface {
	EventReader
	BudgetRepository
	ExpenseRepository
	InsightRepository
	ActivityRepository
	NotificationRepository
}

// Store is a Querier that can also open a unit of work. fn runs against a
// Querier bound to one transaction; a nil return commits, an error rolls
// everything back.
type Store interface {
	Querier
	WithinTx(ctx context.Context, fn func(q Querier) error) error
}

// TxProvider is implemented by a Querier bound to a pgx transaction, so
// callers can enlist other pgx-aware writers (River InsertTx) in it.
type TxProvider interface {
	PgxTx() (pgx.Tx, bool)
}
