package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"eventfin.io/eventfin/internal/domain"
)

const upsertROIMetrics = `
INSERT INTO roi_metrics (event_id, total_budget, actual_spend, leads_generated, conversions, revenue_generated, roi_percent, calculated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (event_id) DO UPDATE SET
    total_budget      = EXCLUDED.total_budget,
    actual_spend      = EXCLUDED.actual_spend,
    leads_generated   = EXCLUDED.leads_generated,
    conversions       = EXCLUDED.conversions,
    revenue_generated = EXCLUDED.revenue_generated,
    roi_percent       = EXCLUDED.roi_percent,
    calculated_at     = EXCLUDED.calculated_at
RETURNING calculated_at`

func (q *Queries) UpsertROIMetrics(ctx context.Context, m *domain.ROIMetrics) error {
	err := q.db.QueryRow(ctx, upsertROIMetrics,
		m.EventID, m.TotalBudget, m.ActualSpend, m.LeadsGenerated, m.Conversions, m.RevenueGenerated, m.ROIPercent,
	).Scan(&m.CalculatedAt)
	return mapErr(err, "upsert roi metrics")
}

func (q *Queries) GetROIMetrics(ctx context.Context, eventID uuid.UUID) (*domain.ROIMetrics, error) {
	var m domain.ROIMetrics
	err := q.db.QueryRow(ctx, `
SELECT event_id, total_budget, actual_spend, leads_generated, conversions, revenue_generated, roi_percent, calculated_at
FROM roi_metrics WHERE event_id = $1`, eventID,
	).Scan(&m.EventID, &m.TotalBudget, &m.ActualSpend, &m.LeadsGenerated, &m.Conversions,
		&m.RevenueGenerated, &m.ROIPercent, &m.CalculatedAt)
	if err != nil {
		return nil, mapErr(err, "get roi metrics")
	}
	return &m, nil
}

func (q *Queries) CreateInsight(ctx context.Context, in *domain.Insight) error {
	if err := ensureID(&in.ID); err != nil {
		return err
	}
	data := in.Data
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	err := q.db.QueryRow(ctx, `
INSERT INTO insights (id, event_id, type, severity, title, description, data)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at`,
		in.ID, in.EventID, string(in.Type), string(in.Severity), in.Title, in.Description, []byte(data),
	).Scan(&in.CreatedAt)
	return mapErr(err, "create insight")
}

func (q *Queries) ListInsights(ctx context.Context, eventID uuid.UUID) ([]domain.Insight, error) {
	rows, err := q.db.Query(ctx, `
SELECT id, event_id, type, severity, title, description, data, created_at
FROM insights WHERE event_id = $1
ORDER BY created_at DESC, id`, eventID)
	if err != nil {
		return nil, mapErr(err, "list insights")
	}
	insights, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Insight, error) {
		var in domain.Insight
		var typ, severity string
		var data []byte
		err := row.Scan(&in.ID, &in.EventID, &typ, &severity, &in.Title, &in.Description, &data, &in.CreatedAt)
		in.Type = domain.InsightType(typ)
		in.Severity = domain.InsightSeverity(severity)
		in.Data = data
		return in, err
	})
	if err != nil {
		return nil, mapErr(err, "list insights")
	}
	if insights == nil {
		insights = []domain.Insight{}
	}
	return insights, nil
}

func (q *Queries) CreateActivityLog(ctx context.Context, entry *domain.ActivityLog) error {
	if err := ensureID(&entry.ID); err != nil {
		return err
	}
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("encode activity details: %w", err)
	}
	err = q.db.QueryRow(ctx, `
INSERT INTO activity_logs (id, event_id, user_id, action, details)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`,
		entry.ID, entry.EventID, entry.UserID, entry.Action, details,
	).Scan(&entry.CreatedAt)
	return mapErr(err, "create activity log")
}

func (q *Queries) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if err := ensureID(&n.ID); err != nil {
		return err
	}
	err := q.db.QueryRow(ctx, `
INSERT INTO notifications (id, user_id, event_id, title, message)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`,
		n.ID, n.UserID, n.EventID, n.Title, n.Message,
	).Scan(&n.CreatedAt)
	return mapErr(err, "create notification")
}

func (q *Queries) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Notification, error) {
	rows, err := q.db.Query(ctx, `
SELECT id, user_id, event_id, title, message, read_at, created_at
FROM notifications WHERE user_id = $1
ORDER BY created_at DESC, id
LIMIT $2`, userID, limit)
	if err != nil {
		return nil, mapErr(err, "list notifications")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Notification, error) {
		var n domain.Notification
		err := row.Scan(&n.ID, &n.UserID, &n.EventID, &n.Title, &n.Message, &n.ReadAt, &n.CreatedAt)
		return n, err
	})
	return out, mapErr(err, "list notifications")
}

func (q *Queries) DeleteNotificationsBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM notifications WHERE created_at < $1`, before)
	if err != nil {
		return 0, mapErr(err, "delete notifications")
	}
	return tag.RowsAffected(), nil
}
