package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"eventfin.io/eventfin/internal/domain"
)

const getEvent = `
SELECT id, organization_id, name, status, created_at
FROM events
WHERE id = $1`

func (q *Queries) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	var e domain.Event
	err := q.db.QueryRow(ctx, getEvent, id).Scan(&e.ID, &e.OrganizationID, &e.Name, &e.Status, &e.CreatedAt)
	if err != nil {
		return nil, mapErr(err, "get event")
	}
	return &e, nil
}

func (q *Queries) LockEvent(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := q.db.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	return mapErr(err, "lock event")
}

// ListActiveEventIDs returns events the periodic jobs should recompute.
func (q *Queries) ListActiveEventIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, `SELECT id FROM events WHERE status NOT IN ('cancelled', 'archived') ORDER BY id`)
	if err != nil {
		return nil, mapErr(err, "list active events")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	return ids, mapErr(err, "list active events")
}

const listActiveUsersByRole = `
SELECT id, organization_id, email, name, role, is_active
FROM users
WHERE organization_id = $1 AND is_active AND role = ANY($2)
ORDER BY created_at, id`

func (q *Queries) ListActiveUsersByRole(ctx context.Context, organizationID uuid.UUID, roles []domain.Role) ([]domain.User, error) {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	rows, err := q.db.Query(ctx, listActiveUsersByRole, organizationID, names)
	if err != nil {
		return nil, mapErr(err, "list users by role")
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.User, error) {
		var u domain.User
		var role string
		err := row.Scan(&u.ID, &u.OrganizationID, &u.Email, &u.Name, &role, &u.IsActive)
		u.Role = domain.Role(role)
		return u, err
	})
	return users, mapErr(err, "list users by role")
}

func (q *Queries) GetCrmSync(ctx context.Context, eventID uuid.UUID) (*domain.CrmSync, error) {
	var s domain.CrmSync
	var data []byte
	err := q.db.QueryRow(ctx,
		`SELECT event_id, provider, data, synced_at FROM crm_syncs WHERE event_id = $1`, eventID,
	).Scan(&s.EventID, &s.Provider, &data, &s.SyncedAt)
	if err != nil {
		return nil, mapErr(err, "get crm sync")
	}
	s.Data = data
	return &s, nil
}
