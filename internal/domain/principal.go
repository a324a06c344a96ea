// Package domain holds the entities and value types of event finance:
// budget versions, expenses and their approval decisions, and derived ROI.
//
// Types here carry no persistence or transport concerns.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is a user's role within an organization.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleFinance Role = "finance"
	RoleMember  Role = "member"
)

// FinanceRoles may create budgets and expenses and act on approvals.
var FinanceRoles = []Role{RoleAdmin, RoleManager, RoleFinance}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleFinance, RoleMember:
		return true
	}
	return false
}

// ParseRole converts a claim or column value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Principal is the authenticated caller, resolved once per request.
type Principal struct {
	UserID         uuid.UUID `json:"userId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Role           Role      `json:"role"`
}

// HasAnyRole reports whether the principal holds one of roles.
func (p Principal) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// CanAccess reports whether the principal belongs to organizationID.
func (p Principal) CanAccess(organizationID uuid.UUID) bool {
	return p.OrganizationID != uuid.Nil && p.OrganizationID == organizationID
}
