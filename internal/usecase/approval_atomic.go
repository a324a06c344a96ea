package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/pkg/logger"
	"eventfin.io/eventfin/internal/repository"
)

// ROIJobEnqueuer inserts an ROI recompute job inside an open transaction.
type ROIJobEnqueuer interface {
	EnqueueROIRecomputeTx(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) error
}

// ApprovalAtomicWriter records approval decisions in one transaction.
type ApprovalAtomicWriter struct {
	store repository.Store
	jobs  ROIJobEnqueuer // optional
}

// NewApprovalAtomicWriter creates the writer. jobs may be nil.
func NewApprovalAtomicWriter(store repository.Store, jobs ROIJobEnqueuer) *ApprovalAtomicWriter {
	return &ApprovalAtomicWriter{store: store, jobs: jobs}
}

// RecordDecision atomically:
// 1) moves the expense from under_review to the decision's status,
// 2) appends the ApprovalWorkflow row,
// 3) on approval, inserts an roi_recompute job via InsertTx.
//
// Step 1 is a conditional update, so of two racing decisions exactly one
// commits; the other gets ErrStaleState and writes nothing.
func (w *ApprovalAtomicWriter) RecordDecision(
	ctx context.Context,
	expense domain.Expense,
	approverID uuid.UUID,
	action domain.ApprovalAction,
	comments *string,
) (*domain.ApprovalWorkflow, error) {
	if w == nil || w.store == nil {
		return nil, fmt.Errorf("approval atomic writer is not initialized")
	}

	var record *domain.ApprovalWorkflow
	err := w.store.WithinTx(ctx, func(q repository.Querier) error {
		if err := q.TransitionExpenseStatus(ctx, expense.ID, domain.ExpenseStatusUnderReview, action.TargetStatus()); err != nil {
			return err
		}

		rec := &domain.ApprovalWorkflow{
			ExpenseID:  expense.ID,
			ApproverID: approverID,
			Action:     action,
			Comments:   comments,
		}
		if err := q.CreateApprovalWorkflow(ctx, rec); err != nil {
			return fmt.Errorf("create approval workflow for expense %s: %w", expense.ID, err)
		}
		record = rec

		if action == domain.ApprovalActionApproved {
			return w.enqueueROIRecompute(ctx, q, expense.EventID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (w *ApprovalAtomicWriter) enqueueROIRecompute(ctx context.Context, q repository.Querier, eventID uuid.UUID) error {
	if w.jobs == nil {
		return nil
	}
	provider, ok := q.(repository.TxProvider)
	if !ok {
		return nil
	}
	tx, ok := provider.PgxTx()
	if !ok {
		logger.FromContext(ctx).Debug("querier is not bound to a pgx transaction; skipping roi job",
			zap.String("event_id", eventID.String()))
		return nil
	}
	return w.jobs.EnqueueROIRecomputeTx(ctx, tx, eventID)
}
