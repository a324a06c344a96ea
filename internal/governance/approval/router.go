// Package approval routes expenses to approvers and drives the expense
// approval state machine.
//
//	pending ──Submit──▶ under_review ──Decide──▶ approved | rejected
//
// Routing is amount based: above AdminOnlyThreshold only admins may
// approve, otherwise finance and manager users may.
package approval

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eventfin.io/eventfin/internal/domain"
)

// Default thresholds, in whole currency units.
const (
	DefaultAdminOnlyThreshold  int64 = 10_000
	DefaultAutoSubmitThreshold int64 = 1_000
)

var (
	// AdminApproverRoles approve expenses above the admin-only threshold.
	AdminApproverRoles = []domain.Role{domain.RoleAdmin}
	// StandardApproverRoles approve everything else.
	StandardApproverRoles = []domain.Role{domain.RoleFinance, domain.RoleManager}
	// approverRoster is every role the router ever selects from.
	approverRoster = []domain.Role{domain.RoleAdmin, domain.RoleFinance, domain.RoleManager}
)

// Policy holds the routing thresholds.
type Policy struct {
	// AdminOnlyThreshold: amounts strictly above it route to admins only.
	AdminOnlyThreshold decimal.Decimal
	// AutoSubmitThreshold: expenses created at or above it are submitted immediately.
	AutoSubmitThreshold decimal.Decimal
}

// DefaultPolicy returns the policy with the default thresholds.
func DefaultPolicy() Policy {
	return NewPolicy(DefaultAdminOnlyThreshold, DefaultAutoSubmitThreshold)
}

// NewPolicy builds a policy from whole-unit thresholds.
func NewPolicy(adminOnly, autoSubmit int64) Policy {
	return Policy{
		AdminOnlyThreshold:  decimal.NewFromInt(adminOnly),
		AutoSubmitThreshold: decimal.NewFromInt(autoSubmit),
	}
}

// ApproverRoles returns the roles allowed to approve amount.
func (p Policy) ApproverRoles(amount decimal.Decimal) []domain.Role {
	if amount.GreaterThan(p.AdminOnlyThreshold) {
		return AdminApproverRoles
	}
	return StandardApproverRoles
}

// RequiresAutoSubmit reports whether an expense of amount is submitted at creation.
func (p Policy) RequiresAutoSubmit(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(p.AutoSubmitThreshold)
}

// SelectApprovers filters roster down to active users whose role may approve
// amount. An empty result means no approver is available.
func (p Policy) SelectApprovers(amount decimal.Decimal, roster []domain.User) []uuid.UUID {
	roles := p.ApproverRoles(amount)
	var ids []uuid.UUID
	for _, u := range roster {
		if !u.IsActive {
			continue
		}
		for _, r := range roles {
			if u.Role == r {
				ids = append(ids, u.ID)
				break
			}
		}
	}
	return ids
}

// RosterReader lists an organization's active users by role.
type RosterReader interface {
	ListActiveUsersByRole(ctx context.Context, organizationID uuid.UUID, roles []domain.Role) ([]domain.User, error)
}

// Router resolves eligible approvers against the live roster.
type Router struct {
	roster RosterReader
	policy Policy
}

// NewRouter creates a Router.
func NewRouter(roster RosterReader, policy Policy) *Router {
	return &Router{roster: roster, policy: policy}
}

// Policy returns the router's thresholds.
func (r *Router) Policy() Policy {
	return r.policy
}

// EligibleApprovers returns the user ids that may approve an expense of
// amount in organizationID. Order is not significant.
func (r *Router) EligibleApprovers(ctx context.Context, organizationID uuid.UUID, amount decimal.Decimal) ([]uuid.UUID, error) {
	roster, err := r.roster.ListActiveUsersByRole(ctx, organizationID, approverRoster)
	if err != nil {
		return nil, fmt.Errorf("load approver roster: %w", err)
	}
	return r.policy.SelectApprovers(amount, roster), nil
}
