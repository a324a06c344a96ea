package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/governance/audit"
	"eventfin.io/eventfin/internal/metrics"
	"eventfin.io/eventfin/internal/notification"
	apperrors "eventfin.io/eventfin/internal/pkg/errors"
	"eventfin.io/eventfin/internal/pkg/logger"
)

// AtomicApprovalWriter records a decision in one transaction: the
// conditional under_review → approved|rejected update, the approval
// workflow row, and any follow-up jobs. If the expense already left
// under_review it returns an error wrapping apperrors.ErrStaleState and
// writes nothing.
type AtomicApprovalWriter interface {
	RecordDecision(ctx context.Context, expense domain.Expense, approverID uuid.UUID, action domain.ApprovalAction, comments *string) (*domain.ApprovalWorkflow, error)
}

// StatusTransitioner moves an expense between statuses conditionally.
type StatusTransitioner interface {
	TransitionExpenseStatus(ctx context.Context, id uuid.UUID, from, to domain.ExpenseStatus) error
}

// Gateway drives expense submissions and decisions.
type Gateway struct {
	expenses     StatusTransitioner
	router       *Router
	auditLogger  *audit.Logger
	atomicWriter AtomicApprovalWriter
	notifier     *notification.Triggers // nil-safe
}

// NewGateway creates a new approval Gateway.
func NewGateway(expenses StatusTransitioner, router *Router, auditLogger *audit.Logger, atomicWriter AtomicApprovalWriter) *Gateway {
	return &Gateway{
		expenses:     expenses,
		router:       router,
		auditLogger:  auditLogger,
		atomicWriter: atomicWriter,
	}
}

// SetNotifier configures the notification trigger service.
func (g *Gateway) SetNotifier(notifier *notification.Triggers) {
	g.notifier = notifier
}

// Router returns the approver router.
func (g *Gateway) Router() *Router {
	return g.router
}

// Submit moves a pending expense to under_review and notifies every
// eligible approver. organizationID is the owning event's organization.
// With no eligible approver the expense stays pending and Submit returns
// NO_APPROVER_AVAILABLE.
func (g *Gateway) Submit(ctx context.Context, expense domain.Expense, organizationID uuid.UUID, actor *uuid.UUID) (*domain.Expense, error) {
	if expense.Status != domain.ExpenseStatusPending {
		return nil, apperrors.ErrInvalidTransition(string(expense.Status), string(domain.ExpenseStatusUnderReview))
	}

	approvers, err := g.router.EligibleApprovers(ctx, organizationID, expense.Amount)
	if err != nil {
		return nil, fmt.Errorf("route expense %s: %w", expense.ID, err)
	}
	if len(approvers) == 0 {
		return nil, apperrors.BadRequest(apperrors.CodeNoApproverAvailable, "no eligible approver is available for this expense").
			WithParams(map[string]interface{}{"amount": expense.Amount.String()})
	}

	err = g.expenses.TransitionExpenseStatus(ctx, expense.ID, domain.ExpenseStatusPending, domain.ExpenseStatusUnderReview)
	if errors.Is(err, apperrors.ErrStaleState) {
		return nil, apperrors.ErrInvalidTransition(string(expense.Status), string(domain.ExpenseStatusUnderReview))
	}
	if err != nil {
		return nil, fmt.Errorf("submit expense %s: %w", expense.ID, err)
	}
	expense.Status = domain.ExpenseStatusUnderReview
	metrics.RecordExpenseTransition(string(domain.ExpenseStatusUnderReview))

	// Audit and notifications are best-effort; the transition has committed.
	g.auditLogger.LogActivity(ctx, expense.EventID, actor, domain.ActionExpenseSubmitted, map[string]interface{}{
		"expenseId":     expense.ID.String(),
		"amount":        expense.Amount.String(),
		"approverCount": len(approvers),
	})
	if g.notifier != nil {
		g.notifier.OnExpenseSubmitted(ctx, expense, approvers)
	}

	logger.FromContext(ctx).Info("expense submitted for approval",
		zap.String("expense_id", expense.ID.String()),
		zap.String("event_id", expense.EventID.String()),
		zap.Int("approver_count", len(approvers)),
	)
	return &expense, nil
}

// Decide records approverID's decision on an under_review expense. Only
// the first decision wins; later ones get INVALID_STATE_TRANSITION (or
// EXPENSE_FINALIZED if the caller's copy is already terminal).
func (g *Gateway) Decide(ctx context.Context, expense domain.Expense, approverID uuid.UUID, action domain.ApprovalAction, comments *string) (*domain.Expense, error) {
	if !action.Valid() {
		return nil, apperrors.Validation("action", "must be approved or rejected")
	}
	target := action.TargetStatus()
	if expense.Status.IsTerminal() {
		return nil, apperrors.ErrExpenseFinalized()
	}
	if !expense.Status.CanTransitionTo(target) {
		return nil, apperrors.ErrInvalidTransition(string(expense.Status), string(target))
	}
	if g.atomicWriter == nil {
		return nil, fmt.Errorf("atomic approval writer is not configured")
	}

	record, err := g.atomicWriter.RecordDecision(ctx, expense, approverID, action, comments)
	if errors.Is(err, apperrors.ErrStaleState) {
		return nil, apperrors.ErrInvalidTransition(string(expense.Status), string(target))
	}
	if err != nil {
		return nil, fmt.Errorf("record decision on expense %s: %w", expense.ID, err)
	}
	expense.Status = target
	expense.Approvals = append(expense.Approvals, *record)
	metrics.RecordExpenseTransition(string(target))
	metrics.RecordApproval(string(action))

	activity := domain.ActionExpenseApproved
	if action == domain.ApprovalActionRejected {
		activity = domain.ActionExpenseRejected
	}
	details := map[string]interface{}{
		"expenseId":  expense.ID.String(),
		"approverId": approverID.String(),
	}
	if comments != nil {
		details["comments"] = *comments
	}
	g.auditLogger.LogActivity(ctx, expense.EventID, &approverID, activity, details)
	if g.notifier != nil {
		g.notifier.OnExpenseDecided(ctx, expense, action, comments)
	}

	logger.FromContext(ctx).Info("expense decided",
		zap.String("expense_id", expense.ID.String()),
		zap.String("approver_id", approverID.String()),
		zap.String("action", string(action)),
	)
	return &expense, nil
}
