package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"eventfin.io/eventfin/internal/domain"
)

const budgetVersionColumns = `id, event_id, version_number, notes, is_final, created_by, created_at`

func scanBudgetVersion(row pgx.Row) (domain.BudgetVersion, error) {
	var v domain.BudgetVersion
	err := row.Scan(&v.ID, &v.EventID, &v.VersionNumber, &v.Notes, &v.IsFinal, &v.CreatedBy, &v.CreatedAt)
	return v, err
}

func (q *Queries) CreateBudgetVersion(ctx context.Context, v *domain.BudgetVersion) error {
	if err := ensureID(&v.ID); err != nil {
		return err
	}
	err := q.db.QueryRow(ctx, `
INSERT INTO budget_versions (id, event_id, version_number, notes, is_final, created_by)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`,
		v.ID, v.EventID, v.VersionNumber, v.Notes, v.IsFinal, v.CreatedBy,
	).Scan(&v.CreatedAt)
	return mapErr(err, "create budget version")
}

// GetBudgetVersion loads the version with its line items.
func (q *Queries) GetBudgetVersion(ctx context.Context, id uuid.UUID) (*domain.BudgetVersion, error) {
	v, err := scanBudgetVersion(q.db.QueryRow(ctx,
		`SELECT `+budgetVersionColumns+` FROM budget_versions WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get budget version")
	}
	if v.LineItems, err = q.ListLineItems(ctx, v.ID); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListBudgetVersions returns the event's versions, newest first, with line items.
func (q *Queries) ListBudgetVersions(ctx context.Context, eventID uuid.UUID) ([]domain.BudgetVersion, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+budgetVersionColumns+` FROM budget_versions WHERE event_id = $1 ORDER BY version_number DESC`, eventID)
	if err != nil {
		return nil, mapErr(err, "list budget versions")
	}
	versions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BudgetVersion, error) {
		return scanBudgetVersion(row)
	})
	if err != nil {
		return nil, mapErr(err, "list budget versions")
	}
	for i := range versions {
		if versions[i].LineItems, err = q.ListLineItems(ctx, versions[i].ID); err != nil {
			return nil, err
		}
	}
	return versions, nil
}

func (q *Queries) GetFinalBudgetVersion(ctx context.Context, eventID uuid.UUID) (*domain.BudgetVersion, error) {
	v, err := scanBudgetVersion(q.db.QueryRow(ctx,
		`SELECT `+budgetVersionColumns+` FROM budget_versions WHERE event_id = $1 AND is_final`, eventID))
	if err != nil {
		return nil, mapErr(err, "get final budget version")
	}
	if v.LineItems, err = q.ListLineItems(ctx, v.ID); err != nil {
		return nil, err
	}
	return &v, nil
}

func (q *Queries) MaxBudgetVersionNumber(ctx context.Context, eventID uuid.UUID) (int, error) {
	var max int
	err := q.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(version_number), 0) FROM budget_versions WHERE event_id = $1`, eventID,
	).Scan(&max)
	return max, mapErr(err, "max budget version number")
}

func (q *Queries) UpdateBudgetVersion(ctx context.Context, v *domain.BudgetVersion) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE budget_versions SET notes = $2, is_final = $3 WHERE id = $1`,
		v.ID, v.Notes, v.IsFinal)
	return expectOne(tag, err, "update budget version")
}

func (q *Queries) ClearFinalBudgetVersions(ctx context.Context, eventID, keepID uuid.UUID) error {
	_, err := q.db.Exec(ctx,
		`UPDATE budget_versions SET is_final = FALSE WHERE event_id = $1 AND id <> $2 AND is_final`,
		eventID, keepID)
	return mapErr(err, "clear final budget versions")
}

const lineItemColumns = `id, budget_version_id, category, item_name, vendor_id, quantity, unit_cost, estimated_cost, actual_cost, notes`

func scanLineItem(row pgx.Row) (domain.BudgetLineItem, error) {
	var li domain.BudgetLineItem
	err := row.Scan(&li.ID, &li.BudgetVersionID, &li.Category, &li.ItemName, &li.VendorID,
		&li.Quantity, &li.UnitCost, &li.EstimatedCost, &li.ActualCost, &li.Notes)
	return li, err
}

func (q *Queries) CreateLineItem(ctx context.Context, item *domain.BudgetLineItem) error {
	if err := ensureID(&item.ID); err != nil {
		return err
	}
	_, err := q.db.Exec(ctx, `
INSERT INTO budget_line_items (`+lineItemColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.BudgetVersionID, item.Category, item.ItemName, item.VendorID,
		item.Quantity, item.UnitCost, item.EstimatedCost, item.ActualCost, item.Notes)
	return mapErr(err, "create line item")
}

func (q *Queries) GetLineItem(ctx context.Context, id uuid.UUID) (*domain.BudgetLineItem, error) {
	li, err := scanLineItem(q.db.QueryRow(ctx,
		`SELECT `+lineItemColumns+` FROM budget_line_items WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get line item")
	}
	return &li, nil
}

func (q *Queries) ListLineItems(ctx context.Context, versionID uuid.UUID) ([]domain.BudgetLineItem, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+lineItemColumns+` FROM budget_line_items WHERE budget_version_id = $1 ORDER BY created_at, id`, versionID)
	if err != nil {
		return nil, mapErr(err, "list line items")
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BudgetLineItem, error) {
		return scanLineItem(row)
	})
	if err != nil {
		return nil, mapErr(err, "list line items")
	}
	if items == nil {
		items = []domain.BudgetLineItem{}
	}
	return items, nil
}

func (q *Queries) UpdateLineItem(ctx context.Context, item *domain.BudgetLineItem) error {
	tag, err := q.db.Exec(ctx, `
UPDATE budget_line_items
SET category = $2, item_name = $3, vendor_id = $4, quantity = $5, unit_cost = $6,
    estimated_cost = $7, actual_cost = $8, notes = $9
WHERE id = $1`,
		item.ID, item.Category, item.ItemName, item.VendorID, item.Quantity, item.UnitCost,
		item.EstimatedCost, item.ActualCost, item.Notes)
	return expectOne(tag, err, "update line item")
}

func (q *Queries) DeleteLineItem(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM budget_line_items WHERE id = $1`, id)
	return expectOne(tag, err, "delete line item")
}
