package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/governance/approval"
	"eventfin.io/eventfin/internal/governance/audit"
	"eventfin.io/eventfin/internal/metrics"
	apperrors "eventfin.io/eventfin/internal/pkg/errors"
	"eventfin.io/eventfin/internal/pkg/logger"
	"eventfin.io/eventfin/internal/repository"
	"eventfin.io/eventfin/internal/service"
)

// ApprovalInput is an approver's decision on an expense.
type ApprovalInput struct {
	ApproverID uuid.UUID             `json:"approverId"`
	Action     domain.ApprovalAction `json:"action"`
	Comments   *string               `json:"comments"`
}

// ExpenseUseCase runs the expense workflow.
type ExpenseUseCase struct {
	store       repository.Store
	gateway     *approval.Gateway
	auditLogger *audit.Logger
}

// NewExpenseUseCase creates a new ExpenseUseCase.
func NewExpenseUseCase(store repository.Store, gateway *approval.Gateway) *ExpenseUseCase {
	return &ExpenseUseCase{store: store, gateway: gateway}
}

// WithAuditLogger sets the activity logger (optional dependency).
func (uc *ExpenseUseCase) WithAuditLogger(al *audit.Logger) *ExpenseUseCase {
	uc.auditLogger = al
	return uc
}

// loadExpense resolves an expense and authorizes its event.
func (uc *ExpenseUseCase) loadExpense(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Expense, *domain.Event, error) {
	e, err := uc.store.GetExpense(ctx, id)
	if err != nil {
		return nil, nil, lookupErr(err, apperrors.ErrExpenseNotFound(), "get expense")
	}
	ev, err := authorizeEvent(ctx, uc.store, p, e.EventID)
	if err != nil {
		return nil, nil, err
	}
	return e, ev, nil
}

// CreateExpense records a pending expense. At or above the auto-submit
// threshold it is submitted for approval right away; if that fails (for
// instance no approver is available) the expense is still created and
// stays pending.
func (uc *ExpenseUseCase) CreateExpense(ctx context.Context, p domain.Principal, eventID uuid.UUID, in domain.ExpenseInput) (*domain.Expense, error) {
	ev, err := authorizeEvent(ctx, uc.store, p, eventID)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, validationErr(err)
	}

	e := &domain.Expense{
		EventID:          eventID,
		Title:            in.Title,
		Amount:           in.Amount,
		VendorID:         in.VendorID,
		Description:      in.Description,
		BudgetLineItemID: in.BudgetLineItemID,
		CreatedBy:        p.UserID,
		Status:           domain.ExpenseStatusPending,
	}
	if err := uc.store.CreateExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	metrics.RecordExpenseTransition(string(domain.ExpenseStatusPending))
	uc.auditLogger.LogActivity(ctx, eventID, audit.Actor(p), domain.ActionExpenseCreated, map[string]interface{}{
		"expenseId": e.ID.String(),
		"title":     e.Title,
		"amount":    e.Amount.String(),
	})

	if !uc.gateway.Router().Policy().RequiresAutoSubmit(e.Amount) {
		return e, nil
	}
	submitted, err := uc.gateway.Submit(ctx, *e, ev.OrganizationID, audit.Actor(p))
	if err != nil {
		logger.FromContext(ctx).Warn("auto-submission failed; expense stays pending",
			zap.String("expense_id", e.ID.String()),
			zap.String("amount", e.Amount.String()),
			zap.Error(err),
		)
		return e, nil
	}
	return submitted, nil
}

// GetExpense returns an expense with its approval history.
func (uc *ExpenseUseCase) GetExpense(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Expense, error) {
	e, _, err := uc.loadExpense(ctx, p, id)
	if err != nil {
		return nil, err
	}
	approvals, err := uc.store.ListApprovalWorkflows(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	e.Approvals = approvals
	return e, nil
}

// ListExpenses returns the event's expenses, newest first.
func (uc *ExpenseUseCase) ListExpenses(ctx context.Context, p domain.Principal, eventID uuid.UUID, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	if _, err := authorizeEvent(ctx, uc.store, p, eventID); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.Validation("status", "unknown expense status "+string(*filter.Status))
	}
	out, err := uc.store.ListExpenses(ctx, eventID, filter)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

// UpdateExpense edits a non-terminal expense. The status check and the
// write happen under the expense row lock.
func (uc *ExpenseUseCase) UpdateExpense(ctx context.Context, p domain.Principal, id uuid.UUID, patch domain.ExpensePatch) (*domain.Expense, error) {
	if _, _, err := uc.loadExpense(ctx, p, id); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, validationErr(err)
	}

	var updated domain.Expense
	err := uc.store.WithinTx(ctx, func(q repository.Querier) error {
		current, err := q.LockExpense(ctx, id)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return apperrors.ErrExpenseFinalized()
		}
		updated = patch.Apply(*current)
		return q.UpdateExpense(ctx, &updated)
	})
	if err != nil {
		if _, ok := apperrors.IsAppError(err); ok {
			return nil, err
		}
		return nil, lookupErr(err, apperrors.ErrExpenseNotFound(), "update expense")
	}

	uc.auditLogger.LogActivity(ctx, updated.EventID, audit.Actor(p), domain.ActionExpenseUpdated, map[string]interface{}{
		"expenseId": updated.ID.String(),
		"amount":    updated.Amount.String(),
	})
	return &updated, nil
}

// DeleteExpense removes a non-terminal expense.
func (uc *ExpenseUseCase) DeleteExpense(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	e, _, err := uc.loadExpense(ctx, p, id)
	if err != nil {
		return err
	}

	err = uc.store.WithinTx(ctx, func(q repository.Querier) error {
		current, err := q.LockExpense(ctx, id)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return apperrors.ErrExpenseFinalized()
		}
		return q.DeleteExpense(ctx, id)
	})
	if err != nil {
		if _, ok := apperrors.IsAppError(err); ok {
			return err
		}
		return lookupErr(err, apperrors.ErrExpenseNotFound(), "delete expense")
	}

	uc.auditLogger.LogActivity(ctx, e.EventID, audit.Actor(p), domain.ActionExpenseDeleted, map[string]interface{}{
		"expenseId": e.ID.String(),
		"title":     e.Title,
	})
	return nil
}

// SubmitForApproval moves a pending expense to under_review.
func (uc *ExpenseUseCase) SubmitForApproval(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Expense, error) {
	e, ev, err := uc.loadExpense(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return uc.gateway.Submit(ctx, *e, ev.OrganizationID, audit.Actor(p))
}

// HandleApproval records the caller's decision. The approver named in the
// request must be the caller.
func (uc *ExpenseUseCase) HandleApproval(ctx context.Context, p domain.Principal, id uuid.UUID, in ApprovalInput) (*domain.Expense, error) {
	if in.ApproverID != p.UserID {
		return nil, apperrors.BadRequest(apperrors.CodeApproverMismatch, "approverId must be the authenticated user")
	}
	if !in.Action.Valid() {
		return nil, apperrors.Validation("action", "must be approved or rejected")
	}
	e, _, err := uc.loadExpense(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return uc.gateway.Decide(ctx, *e, p.UserID, in.Action, in.Comments)
}

// CalculateEventActualSpend sums the event's approved expenses.
func (uc *ExpenseUseCase) CalculateEventActualSpend(ctx context.Context, p domain.Principal, eventID uuid.UUID) (decimal.Decimal, error) {
	if _, err := authorizeEvent(ctx, uc.store, p, eventID); err != nil {
		return decimal.Zero, err
	}
	return service.ActualSpend(ctx, uc.store, eventID)
}
