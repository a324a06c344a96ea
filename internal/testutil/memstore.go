package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"eventfin.io/eventfin/internal/domain"
	apperrors "eventfin.io/eventfin/internal/pkg/errors"
	"eventfin.io/eventfin/internal/repository"
)

// MemStore is an in-memory repository.Store. A transaction works on a
// clone of the state and swaps it in on success, so a failed unit of work
// leaves nothing behind. Unique constraints of the SQL schema are enforced.
type MemStore struct {
	*memQuerier
	mu sync.Mutex
}

var _ repository.Store = (*MemStore)(nil)

type memState struct {
	events        []domain.Event
	users         []domain.User
	crm           []domain.CrmSync
	versions      []domain.BudgetVersion
	lineItems     []domain.BudgetLineItem
	expenses      []domain.Expense
	approvals     []domain.ApprovalWorkflow
	roi           []domain.ROIMetrics
	insights      []domain.Insight
	activity      []domain.ActivityLog
	notifications []domain.Notification
	lastTick      time.Time
}

func (s *memState) clone() *memState {
	return &memState{
		events:        append([]domain.Event(nil), s.events...),
		users:         append([]domain.User(nil), s.users...),
		crm:           append([]domain.CrmSync(nil), s.crm...),
		versions:      append([]domain.BudgetVersion(nil), s.versions...),
		lineItems:     append([]domain.BudgetLineItem(nil), s.lineItems...),
		expenses:      append([]domain.Expense(nil), s.expenses...),
		approvals:     append([]domain.ApprovalWorkflow(nil), s.approvals...),
		roi:           append([]domain.ROIMetrics(nil), s.roi...),
		insights:      append([]domain.Insight(nil), s.insights...),
		activity:      append([]domain.ActivityLog(nil), s.activity...),
		notifications: append([]domain.Notification(nil), s.notifications...),
		lastTick:      s.lastTick,
	}
}

// now returns a strictly increasing timestamp so ordering by time is stable.
func (s *memState) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.lastTick) {
		t = s.lastTick.Add(time.Microsecond)
	}
	s.lastTick = t
	return t
}

type memHooks struct {
	failures map[string]error
}

type memQuerier struct {
	st    *memState
	mu    *sync.Mutex // nil inside a transaction; the store lock is already held
	hooks *memHooks
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	s := &MemStore{}
	s.memQuerier = &memQuerier{st: &memState{}, mu: &s.mu, hooks: &memHooks{failures: map[string]error{}}}
	return s
}

// WithinTx runs fn against a private copy of the state.
func (s *MemStore) WithinTx(ctx context.Context, fn func(q repository.Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.st.clone()
	if err := fn(&memQuerier{st: draft, hooks: s.hooks}); err != nil {
		return err
	}
	*s.st = *draft
	return nil
}

// FailOn makes every call to the named Querier method return err.
// Pass a nil err to clear it.
func (s *MemStore) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.hooks.failures, method)
		return
	}
	s.hooks.failures[method] = err
}

// AddEvent seeds an event owned by organizationID.
func (s *MemStore) AddEvent(organizationID uuid.UUID) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := domain.Event{ID: uuid.New(), OrganizationID: organizationID, Name: "event", Status: "planning", CreatedAt: s.st.now()}
	s.st.events = append(s.st.events, e)
	return e
}

// AddUser seeds a user.
func (s *MemStore) AddUser(organizationID uuid.UUID, role domain.Role, active bool) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	u := domain.User{ID: id, OrganizationID: organizationID, Email: id.String() + "@example.test", Role: role, IsActive: active}
	s.st.users = append(s.st.users, u)
	return u
}

// SetCrmSync stores the CRM payload for an event.
func (s *MemStore) SetCrmSync(eventID uuid.UUID, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.st.crm {
		if s.st.crm[i].EventID == eventID {
			s.st.crm[i].Data = []byte(data)
			return
		}
	}
	s.st.crm = append(s.st.crm, domain.CrmSync{EventID: eventID, Provider: "hubspot", Data: []byte(data), SyncedAt: s.st.now()})
}

// ActivityLogs returns a copy of every appended activity entry.
func (s *MemStore) ActivityLogs() []domain.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ActivityLog(nil), s.st.activity...)
}

// AllNotifications returns a copy of every stored notification.
func (s *MemStore) AllNotifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.st.notifications...)
}

// AllApprovalWorkflows returns every decision record.
func (s *MemStore) AllApprovalWorkflows() []domain.ApprovalWorkflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ApprovalWorkflow(nil), s.st.approvals...)
}

// CountBudgetVersions returns the number of stored versions for an event.
func (s *MemStore) CountBudgetVersions(eventID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.st.versions {
		if v.EventID == eventID {
			n++
		}
	}
	return n
}

func (q *memQuerier) lock() func() {
	if q.mu == nil {
		return func() {}
	}
	q.mu.Lock()
	return q.mu.Unlock
}

func (q *memQuerier) fail(method string) error {
	if err, ok := q.hooks.failures[method]; ok {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func notFound(op string) error { return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound) }

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.Must(uuid.NewV7())
	}
}

// PgxTx reports that the in-memory querier has no pgx transaction.
func (q *memQuerier) PgxTx() (pgx.Tx, bool) { return nil, false }

// --- events ---

func (q *memQuerier) GetEvent(_ context.Context, id uuid.UUID) (*domain.Event, error) {
	defer q.lock()()
	for _, e := range q.st.events {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, notFound("get event")
}

func (q *memQuerier) LockEvent(ctx context.Context, id uuid.UUID) error {
	_, err := q.GetEvent(ctx, id)
	return err
}

func (q *memQuerier) ListActiveEventIDs(context.Context) ([]uuid.UUID, error) {
	defer q.lock()()
	var ids []uuid.UUID
	for _, e := range q.st.events {
		if e.Status != "cancelled" && e.Status != "archived" {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

func (q *memQuerier) ListActiveUsersByRole(_ context.Context, organizationID uuid.UUID, roles []domain.Role) ([]domain.User, error) {
	defer q.lock()()
	if err := q.fail("ListActiveUsersByRole"); err != nil {
		return nil, err
	}
	var out []domain.User
	for _, u := range q.st.users {
		if u.OrganizationID != organizationID || !u.IsActive {
			continue
		}
		for _, r := range roles {
			if u.Role == r {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

func (q *memQuerier) GetCrmSync(_ context.Context, eventID uuid.UUID) (*domain.CrmSync, error) {
	defer q.lock()()
	for _, s := range q.st.crm {
		if s.EventID == eventID {
			return &s, nil
		}
	}
	return nil, notFound("get crm sync")
}

// --- budgets ---

func (q *memQuerier) checkFinalUnique(v domain.BudgetVersion) error {
	if !v.IsFinal {
		return nil
	}
	for _, other := range q.st.versions {
		if other.EventID == v.EventID && other.ID != v.ID && other.IsFinal {
			return fmt.Errorf("uq_budget_versions_event_final: %w", apperrors.ErrConflict)
		}
	}
	return nil
}

func (q *memQuerier) CreateBudgetVersion(_ context.Context, v *domain.BudgetVersion) error {
	defer q.lock()()
	if err := q.fail("CreateBudgetVersion"); err != nil {
		return err
	}
	for _, other := range q.st.versions {
		if other.EventID == v.EventID && other.VersionNumber == v.VersionNumber {
			return fmt.Errorf("uq_budget_versions_event_version: %w", apperrors.ErrConflict)
		}
	}
	if err := q.checkFinalUnique(*v); err != nil {
		return err
	}
	assignID(&v.ID)
	v.CreatedAt = q.st.now()
	stored := *v
	stored.LineItems = nil
	q.st.versions = append(q.st.versions, stored)
	return nil
}

func (q *memQuerier) withItems(v domain.BudgetVersion) domain.BudgetVersion {
	v.LineItems = q.itemsOf(v.ID)
	return v
}

func (q *memQuerier) itemsOf(versionID uuid.UUID) []domain.BudgetLineItem {
	items := []domain.BudgetLineItem{}
	for _, li := range q.st.lineItems {
		if li.BudgetVersionID == versionID {
			items = append(items, li)
		}
	}
	return items
}

func (q *memQuerier) GetBudgetVersion(_ context.Context, id uuid.UUID) (*domain.BudgetVersion, error) {
	defer q.lock()()
	for _, v := range q.st.versions {
		if v.ID == id {
			out := q.withItems(v)
			return &out, nil
		}
	}
	return nil, notFound("get budget version")
}

func (q *memQuerier) ListBudgetVersions(_ context.Context, eventID uuid.UUID) ([]domain.BudgetVersion, error) {
	defer q.lock()()
	out := []domain.BudgetVersion{}
	for _, v := range q.st.versions {
		if v.EventID == eventID {
			out = append(out, q.withItems(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out, nil
}

func (q *memQuerier) GetFinalBudgetVersion(_ context.Context, eventID uuid.UUID) (*domain.BudgetVersion, error) {
	defer q.lock()()
	for _, v := range q.st.versions {
		if v.EventID == eventID && v.IsFinal {
			out := q.withItems(v)
			return &out, nil
		}
	}
	return nil, notFound("get final budget version")
}

func (q *memQuerier) MaxBudgetVersionNumber(_ context.Context, eventID uuid.UUID) (int, error) {
	defer q.lock()()
	max := 0
	for _, v := range q.st.versions {
		if v.EventID == eventID && v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max, nil
}

func (q *memQuerier) UpdateBudgetVersion(_ context.Context, v *domain.BudgetVersion) error {
	defer q.lock()()
	if err := q.fail("UpdateBudgetVersion"); err != nil {
		return err
	}
	for i := range q.st.versions {
		if q.st.versions[i].ID == v.ID {
			candidate := q.st.versions[i]
			candidate.IsFinal = v.IsFinal
			if err := q.checkFinalUnique(candidate); err != nil {
				return err
			}
			q.st.versions[i].Notes = v.Notes
			q.st.versions[i].IsFinal = v.IsFinal
			return nil
		}
	}
	return notFound("update budget version")
}

func (q *memQuerier) ClearFinalBudgetVersions(_ context.Context, eventID, keepID uuid.UUID) error {
	defer q.lock()()
	if err := q.fail("ClearFinalBudgetVersions"); err != nil {
		return err
	}
	for i := range q.st.versions {
		if q.st.versions[i].EventID == eventID && q.st.versions[i].ID != keepID {
			q.st.versions[i].IsFinal = false
		}
	}
	return nil
}

func (q *memQuerier) CreateLineItem(_ context.Context, item *domain.BudgetLineItem) error {
	defer q.lock()()
	if err := q.fail("CreateLineItem"); err != nil {
		return err
	}
	found := false
	for _, v := range q.st.versions {
		if v.ID == item.BudgetVersionID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("create line item: budget version %s missing", item.BudgetVersionID)
	}
	assignID(&item.ID)
	q.st.lineItems = append(q.st.lineItems, *item)
	return nil
}

func (q *memQuerier) GetLineItem(_ context.Context, id uuid.UUID) (*domain.BudgetLineItem, error) {
	defer q.lock()()
	for _, li := range q.st.lineItems {
		if li.ID == id {
			return &li, nil
		}
	}
	return nil, notFound("get line item")
}

func (q *memQuerier) ListLineItems(_ context.Context, versionID uuid.UUID) ([]domain.BudgetLineItem, error) {
	defer q.lock()()
	return q.itemsOf(versionID), nil
}

func (q *memQuerier) UpdateLineItem(_ context.Context, item *domain.BudgetLineItem) error {
	defer q.lock()()
	for i := range q.st.lineItems {
		if q.st.lineItems[i].ID == item.ID {
			q.st.lineItems[i] = *item
			return nil
		}
	}
	return notFound("update line item")
}

func (q *memQuerier) DeleteLineItem(_ context.Context, id uuid.UUID) error {
	defer q.lock()()
	for i := range q.st.lineItems {
		if q.st.lineItems[i].ID == id {
			q.st.lineItems = append(q.st.lineItems[:i:i], q.st.lineItems[i+1:]...)
			return nil
		}
	}
	return notFound("delete line item")
}

// --- expenses ---

func (q *memQuerier) CreateExpense(_ context.Context, e *domain.Expense) error {
	defer q.lock()()
	if err := q.fail("CreateExpense"); err != nil {
		return err
	}
	assignID(&e.ID)
	e.CreatedAt = q.st.now()
	e.UpdatedAt = e.CreatedAt
	stored := *e
	stored.Approvals = nil
	q.st.expenses = append(q.st.expenses, stored)
	return nil
}

func (q *memQuerier) GetExpense(_ context.Context, id uuid.UUID) (*domain.Expense, error) {
	defer q.lock()()
	for _, e := range q.st.expenses {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, notFound("get expense")
}

func (q *memQuerier) LockExpense(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	return q.GetExpense(ctx, id)
}

func (q *memQuerier) ListExpenses(_ context.Context, eventID uuid.UUID, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	defer q.lock()()
	out := []domain.Expense{}
	for i := len(q.st.expenses) - 1; i >= 0; i-- {
		e := q.st.expenses[i]
		if e.EventID != eventID {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (q *memQuerier) UpdateExpense(_ context.Context, e *domain.Expense) error {
	defer q.lock()()
	if err := q.fail("UpdateExpense"); err != nil {
		return err
	}
	for i := range q.st.expenses {
		if q.st.expenses[i].ID == e.ID {
			cur := &q.st.expenses[i]
			cur.Title, cur.Amount, cur.VendorID = e.Title, e.Amount, e.VendorID
			cur.Description, cur.BudgetLineItemID = e.Description, e.BudgetLineItemID
			cur.UpdatedAt = q.st.now()
			e.UpdatedAt = cur.UpdatedAt
			return nil
		}
	}
	return notFound("update expense")
}

func (q *memQuerier) DeleteExpense(_ context.Context, id uuid.UUID) error {
	defer q.lock()()
	for i := range q.st.expenses {
		if q.st.expenses[i].ID == id {
			q.st.expenses = append(q.st.expenses[:i:i], q.st.expenses[i+1:]...)
			return nil
		}
	}
	return notFound("delete expense")
}

func (q *memQuerier) TransitionExpenseStatus(_ context.Context, id uuid.UUID, from, to domain.ExpenseStatus) error {
	defer q.lock()()
	if err := q.fail("TransitionExpenseStatus"); err != nil {
		return err
	}
	for i := range q.st.expenses {
		if q.st.expenses[i].ID == id && q.st.expenses[i].Status == from {
			q.st.expenses[i].Status = to
			q.st.expenses[i].UpdatedAt = q.st.now()
			return nil
		}
	}
	return fmt.Errorf("transition expense %s %s->%s: %w", id, from, to, apperrors.ErrStaleState)
}

func (q *memQuerier) SumApprovedExpenses(_ context.Context, eventID uuid.UUID) (decimal.Decimal, error) {
	defer q.lock()()
	total := decimal.Zero
	for _, e := range q.st.expenses {
		if e.EventID == eventID && e.Status == domain.ExpenseStatusApproved {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (q *memQuerier) CreateApprovalWorkflow(_ context.Context, w *domain.ApprovalWorkflow) error {
	defer q.lock()()
	if err := q.fail("CreateApprovalWorkflow"); err != nil {
		return err
	}
	assignID(&w.ID)
	w.ActionAt = q.st.now()
	q.st.approvals = append(q.st.approvals, *w)
	return nil
}

func (q *memQuerier) ListApprovalWorkflows(_ context.Context, expenseID uuid.UUID) ([]domain.ApprovalWorkflow, error) {
	defer q.lock()()
	var out []domain.ApprovalWorkflow
	for _, w := range q.st.approvals {
		if w.ExpenseID == expenseID {
			out = append(out, w)
		}
	}
	return out, nil
}

// --- insights ---

func (q *memQuerier) UpsertROIMetrics(_ context.Context, m *domain.ROIMetrics) error {
	defer q.lock()()
	if err := q.fail("UpsertROIMetrics"); err != nil {
		return err
	}
	m.CalculatedAt = q.st.now()
	for i := range q.st.roi {
		if q.st.roi[i].EventID == m.EventID {
			q.st.roi[i] = *m
			return nil
		}
	}
	q.st.roi = append(q.st.roi, *m)
	return nil
}

func (q *memQuerier) GetROIMetrics(_ context.Context, eventID uuid.UUID) (*domain.ROIMetrics, error) {
	defer q.lock()()
	for _, m := range q.st.roi {
		if m.EventID == eventID {
			return &m, nil
		}
	}
	return nil, notFound("get roi metrics")
}

func (q *memQuerier) CreateInsight(_ context.Context, in *domain.Insight) error {
	defer q.lock()()
	assignID(&in.ID)
	in.CreatedAt = q.st.now()
	q.st.insights = append(q.st.insights, *in)
	return nil
}

func (q *memQuerier) ListInsights(_ context.Context, eventID uuid.UUID) ([]domain.Insight, error) {
	defer q.lock()()
	out := []domain.Insight{}
	for i := len(q.st.insights) - 1; i >= 0; i-- {
		if q.st.insights[i].EventID == eventID {
			out = append(out, q.st.insights[i])
		}
	}
	return out, nil
}

// --- sinks ---

func (q *memQuerier) CreateActivityLog(_ context.Context, entry *domain.ActivityLog) error {
	defer q.lock()()
	if err := q.fail("CreateActivityLog"); err != nil {
		return err
	}
	assignID(&entry.ID)
	entry.CreatedAt = q.st.now()
	q.st.activity = append(q.st.activity, *entry)
	return nil
}

func (q *memQuerier) CreateNotification(_ context.Context, n *domain.Notification) error {
	defer q.lock()()
	if err := q.fail("CreateNotification"); err != nil {
		return err
	}
	assignID(&n.ID)
	n.CreatedAt = q.st.now()
	q.st.notifications = append(q.st.notifications, *n)
	return nil
}

func (q *memQuerier) ListNotifications(_ context.Context, userID uuid.UUID, limit int) ([]domain.Notification, error) {
	defer q.lock()()
	var out []domain.Notification
	for i := len(q.st.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if q.st.notifications[i].UserID == userID {
			out = append(out, q.st.notifications[i])
		}
	}
	return out, nil
}

func (q *memQuerier) DeleteNotificationsBefore(_ context.Context, before time.Time) (int64, error) {
	defer q.lock()()
	kept := q.st.notifications[:0:0]
	var n int64
	for _, item := range q.st.notifications {
		if item.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, item)
	}
	q.st.notifications = kept
	return n, nil
}
