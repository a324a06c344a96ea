package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"eventfin.io/eventfin/internal/domain"
	apperrors "eventfin.io/eventfin/internal/pkg/errors"
)

const expenseColumns = `id, event_id, title, amount, vendor_id, description, budget_line_item_id, created_by, status, created_at, updated_at`

func scanExpense(row pgx.Row) (domain.Expense, error) {
	var e domain.Expense
	var status string
	err := row.Scan(&e.ID, &e.EventID, &e.Title, &e.Amount, &e.VendorID, &e.Description,
		&e.BudgetLineItemID, &e.CreatedBy, &status, &e.CreatedAt, &e.UpdatedAt)
	e.Status = domain.ExpenseStatus(status)
	return e, err
}

func (q *Queries) CreateExpense(ctx context.Context, e *domain.Expense) error {
	if err := ensureID(&e.ID); err != nil {
		return err
	}
	err := q.db.QueryRow(ctx, `
INSERT INTO expenses (id, event_id, title, amount, vendor_id, description, budget_line_item_id, created_by, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at, updated_at`,
		e.ID, e.EventID, e.Title, e.Amount, e.VendorID, e.Description, e.BudgetLineItemID, e.CreatedBy, string(e.Status),
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	return mapErr(err, "create expense")
}

func (q *Queries) GetExpense(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	e, err := scanExpense(q.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get expense")
	}
	return &e, nil
}

func (q *Queries) LockExpense(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	e, err := scanExpense(q.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapErr(err, "lock expense")
	}
	return &e, nil
}

func (q *Queries) ListExpenses(ctx context.Context, eventID uuid.UUID, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}
	rows, err := q.db.Query(ctx, `
SELECT `+expenseColumns+`
FROM expenses
WHERE event_id = $1 AND ($2::text IS NULL OR status = $2)
ORDER BY created_at DESC, id`, eventID, status)
	if err != nil {
		return nil, mapErr(err, "list expenses")
	}
	expenses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Expense, error) {
		return scanExpense(row)
	})
	if err != nil {
		return nil, mapErr(err, "list expenses")
	}
	if expenses == nil {
		expenses = []domain.Expense{}
	}
	return expenses, nil
}

// UpdateExpense writes the editable fields. Status changes go through
// TransitionExpenseStatus.
func (q *Queries) UpdateExpense(ctx context.Context, e *domain.Expense) error {
	err := q.db.QueryRow(ctx, `
UPDATE expenses
SET title = $2, amount = $3, vendor_id = $4, description = $5, budget_line_item_id = $6, updated_at = now()
WHERE id = $1
RETURNING updated_at`,
		e.ID, e.Title, e.Amount, e.VendorID, e.Description, e.BudgetLineItemID,
	).Scan(&e.UpdatedAt)
	return mapErr(err, "update expense")
}

func (q *Queries) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	return expectOne(tag, err, "delete expense")
}

func (q *Queries) TransitionExpenseStatus(ctx context.Context, id uuid.UUID, from, to domain.ExpenseStatus) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE expenses SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return mapErr(err, "transition expense status")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transition expense %s %s->%s: %w", id, from, to, apperrors.ErrStaleState)
	}
	return nil
}

func (q *Queries) SumApprovedExpenses(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE event_id = $1 AND status = $2`,
		eventID, string(domain.ExpenseStatusApproved),
	).Scan(&total)
	return total, mapErr(err, "sum approved expenses")
}

func (q *Queries) CreateApprovalWorkflow(ctx context.Context, w *domain.ApprovalWorkflow) error {
	if err := ensureID(&w.ID); err != nil {
		return err
	}
	err := q.db.QueryRow(ctx, `
INSERT INTO approval_workflows (id, expense_id, approver_id, action, comments)
VALUES ($1, $2, $3, $4, $5)
RETURNING action_at`,
		w.ID, w.ExpenseID, w.ApproverID, string(w.Action), w.Comments,
	).Scan(&w.ActionAt)
	return mapErr(err, "create approval workflow")
}

func (q *Queries) ListApprovalWorkflows(ctx context.Context, expenseID uuid.UUID) ([]domain.ApprovalWorkflow, error) {
	rows, err := q.db.Query(ctx, `
SELECT id, expense_id, approver_id, action, comments, action_at
FROM approval_workflows
WHERE expense_id = $1
ORDER BY action_at, id`, expenseID)
	if err != nil {
		return nil, mapErr(err, "list approval workflows")
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ApprovalWorkflow, error) {
		var w domain.ApprovalWorkflow
		var action string
		err := row.Scan(&w.ID, &w.ExpenseID, &w.ApproverID, &action, &w.Comments, &w.ActionAt)
		w.Action = domain.ApprovalAction(action)
		return w, err
	})
	return records, mapErr(err, "list approval workflows")
}
