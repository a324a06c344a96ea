package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/pkg/logger"
	"eventfin.io/eventfin/internal/pkg/worker"
)

// Dispatcher runs a task off the request path. *worker.Pools implements it.
type Dispatcher interface {
	SubmitDetached(poolName string, task worker.Task) error
}

// InlineDispatcher runs tasks synchronously on the caller's goroutine.
type InlineDispatcher struct{}

// SubmitDetached runs task immediately.
func (InlineDispatcher) SubmitDetached(_ string, task worker.Task) error {
	task(context.Background())
	return nil
}

// Triggers turns workflow transitions into notifications.
type Triggers struct {
	sender     Sender
	dispatcher Dispatcher
}

// NewTriggers creates the trigger service.
func NewTriggers(sender Sender, dispatcher Dispatcher) *Triggers {
	return &Triggers{sender: sender, dispatcher: dispatcher}
}

// OnExpenseSubmitted notifies every eligible approver, one notification each.
func (t *Triggers) OnExpenseSubmitted(ctx context.Context, expense domain.Expense, approverIDs []uuid.UUID) {
	if len(approverIDs) == 0 {
		return
	}
	recipients := append([]uuid.UUID(nil), approverIDs...)
	eventID := expense.EventID
	params := Params{
		EventID: &eventID,
		Title:   "Expense approval required",
		Message: fmt.Sprintf("Expense %q for %s needs your approval", expense.Title, expense.Amount.StringFixed(2)),
	}

	t.dispatch(ctx, "expense_submitted", expense.ID, func(ctx context.Context) error {
		return t.sender.SendToMany(ctx, recipients, params)
	})
}

// OnExpenseDecided notifies the expense's creator of the decision.
func (t *Triggers) OnExpenseDecided(ctx context.Context, expense domain.Expense, action domain.ApprovalAction, comments *string) {
	if expense.CreatedBy == uuid.Nil {
		return
	}
	msg := fmt.Sprintf("Your expense %q was %s", expense.Title, action)
	if comments != nil && *comments != "" {
		msg += ": " + *comments
	}
	eventID := expense.EventID
	params := Params{
		RecipientID: expense.CreatedBy,
		EventID:     &eventID,
		Title:       "Expense " + string(action),
		Message:     msg,
	}

	t.dispatch(ctx, "expense_decided", expense.ID, func(ctx context.Context) error {
		return t.sender.Send(ctx, params)
	})
}

func (t *Triggers) dispatch(ctx context.Context, trigger string, expenseID uuid.UUID, send func(context.Context) error) {
	if t == nil || t.sender == nil {
		return
	}
	log := logger.FromContext(ctx)
	task := func(taskCtx context.Context) {
		if err := send(taskCtx); err != nil {
			log.Error("notification trigger failed",
				zap.String("trigger", trigger),
				zap.String("expense_id", expenseID.String()),
				zap.Error(err),
			)
		}
	}

	if t.dispatcher == nil {
		task(context.WithoutCancel(ctx))
		return
	}
	if err := t.dispatcher.SubmitDetached(worker.PoolNotify, task); err != nil {
		log.Warn("notification dispatch rejected",
			zap.String("trigger", trigger),
			zap.String("expense_id", expenseID.String()),
			zap.Error(err),
		)
	}
}
