package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventfin.io/eventfin/internal/domain"
	apperrors "eventfin.io/eventfin/internal/pkg/errors"
	"eventfin.io/eventfin/internal/repository"
	"eventfin.io/eventfin/internal/testutil"
)

// pgxBoundStore makes every transaction look bound to pgx so the writer
// takes the job-enqueue path.
type pgxBoundStore struct {
	*testutil.MemStore
}

func (s pgxBoundStore) WithinTx(ctx context.Context, fn func(q repository.Querier) error) error {
	return s.MemStore.WithinTx(ctx, func(q repository.Querier) error {
		return fn(pgxBoundQuerier{Querier: q})
	})
}

type pgxBoundQuerier struct {
	repository.Querier
}

func (pgxBoundQuerier) PgxTx() (pgx.Tx, bool) { return nil, true }

type fakeROIEnqueuer struct {
	events []uuid.UUID
	err    error
}

func (f *fakeROIEnqueuer) EnqueueROIRecomputeTx(_ context.Context, _ pgx.Tx, eventID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, eventID)
	return nil
}

func underReviewExpense(t *testing.T, h *harness) *domain.Expense {
	t.Helper()
	e, err := h.expenses.CreateExpense(context.Background(), h.caller, h.event.ID, expenseInput("1500"))
	require.NoError(t, err)
	require.Equal(t, domain.ExpenseStatusUnderReview, e.Status)
	return e
}

func TestApprovalAtomicWriter_ApproveEnqueuesROIJob(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	e := underReviewExpense(t, h)
	jobs := &fakeROIEnqueuer{}
	w := NewApprovalAtomicWriter(pgxBoundStore{h.store}, jobs)

	rec, err := w.RecordDecision(context.Background(), *e, h.caller.UserID, domain.ApprovalActionApproved, nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, []uuid.UUID{h.event.ID}, jobs.events)

	stored, err := h.store.GetExpense(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseStatusApproved, stored.Status)
}

func TestApprovalAtomicWriter_RejectSkipsROIJob(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	e := underReviewExpense(t, h)
	jobs := &fakeROIEnqueuer{}
	w := NewApprovalAtomicWriter(pgxBoundStore{h.store}, jobs)

	_, err := w.RecordDecision(context.Background(), *e, h.caller.UserID, domain.ApprovalActionRejected, ptr("no receipt"))
	require.NoError(t, err)
	assert.Empty(t, jobs.events)
	assert.Len(t, h.store.AllApprovalWorkflows(), 1)
}

func TestApprovalAtomicWriter_EnqueueFailureRollsBack(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	e := underReviewExpense(t, h)
	w := NewApprovalAtomicWriter(pgxBoundStore{h.store}, &fakeROIEnqueuer{err: errors.New("river unavailable")})

	_, err := w.RecordDecision(context.Background(), *e, h.caller.UserID, domain.ApprovalActionApproved, nil)
	require.Error(t, err)

	stored, err := h.store.GetExpense(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseStatusUnderReview, stored.Status)
	assert.Empty(t, h.store.AllApprovalWorkflows())
}

func TestApprovalAtomicWriter_UnboundQuerierSkipsJob(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	e := underReviewExpense(t, h)
	jobs := &fakeROIEnqueuer{}
	w := NewApprovalAtomicWriter(h.store, jobs)

	_, err := w.RecordDecision(context.Background(), *e, h.caller.UserID, domain.ApprovalActionApproved, nil)
	require.NoError(t, err)
	assert.Empty(t, jobs.events)
}

func TestApprovalAtomicWriter_StaleDecision(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	e := underReviewExpense(t, h)
	w := NewApprovalAtomicWriter(h.store, nil)

	_, err := w.RecordDecision(context.Background(), *e, h.caller.UserID, domain.ApprovalActionApproved, nil)
	require.NoError(t, err)
	_, err = w.RecordDecision(context.Background(), *e, h.caller.UserID, domain.ApprovalActionRejected, nil)
	require.ErrorIs(t, err, apperrors.ErrStaleState)
	assert.Len(t, h.store.AllApprovalWorkflows(), 1)
}
