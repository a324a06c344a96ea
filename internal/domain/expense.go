package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseStatus is the approval state of an expense.
//
//	pending ──submit──▶ under_review ──decide──▶ approved | rejected
type ExpenseStatus string

const (
	ExpenseStatusPending     ExpenseStatus = "pending"
	ExpenseStatusUnderReview ExpenseStatus = "under_review"
	ExpenseStatusApproved    ExpenseStatus = "approved"
	ExpenseStatusRejected    ExpenseStatus = "rejected"
)

var expenseTransitions = map[ExpenseStatus][]ExpenseStatus{
	ExpenseStatusPending:     {ExpenseStatusUnderReview},
	ExpenseStatusUnderReview: {ExpenseStatusApproved, ExpenseStatusRejected},
}

// Valid reports whether s is a known status.
func (s ExpenseStatus) Valid() bool {
	switch s {
	case ExpenseStatusPending, ExpenseStatusUnderReview, ExpenseStatusApproved, ExpenseStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s. Terminal expenses are
// also closed to edits and deletion.
func (s ExpenseStatus) IsTerminal() bool {
	return s == ExpenseStatusApproved || s == ExpenseStatusRejected
}

// CanTransitionTo reports whether s → next is an allowed transition.
func (s ExpenseStatus) CanTransitionTo(next ExpenseStatus) bool {
	for _, allowed := range expenseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Expense is an actual spend request against an event.
type Expense struct {
	ID               uuid.UUID          `json:"id"`
	EventID          uuid.UUID          `json:"eventId"`
	Title            string             `json:"title"`
	Amount           decimal.Decimal    `json:"amount"`
	VendorID         *uuid.UUID         `json:"vendorId"`
	Description      *string            `json:"description"`
	BudgetLineItemID *uuid.UUID         `json:"budgetLineItemId"`
	CreatedBy        uuid.UUID          `json:"createdBy"`
	Status           ExpenseStatus      `json:"status"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
	Approvals        []ApprovalWorkflow `json:"approvals,omitempty"`
}

// ExpenseInput describes an expense to create.
type ExpenseInput struct {
	Title            string          `json:"title"`
	Amount           decimal.Decimal `json:"amount"`
	VendorID         *uuid.UUID      `json:"vendorId"`
	Description      *string         `json:"description"`
	BudgetLineItemID *uuid.UUID      `json:"budgetLineItemId"`
}

// Validate checks title and amount.
func (in ExpenseInput) Validate() error {
	if in.Title == "" {
		return ValidationError{"title", "must not be empty"}
	}
	return validateAmount("amount", &in.Amount)
}

// ExpensePatch describes a partial expense update. Status is not patchable.
type ExpensePatch struct {
	Title            *string          `json:"title"`
	Amount           *decimal.Decimal `json:"amount"`
	VendorID         *uuid.UUID       `json:"vendorId"`
	Description      *string          `json:"description"`
	BudgetLineItemID *uuid.UUID       `json:"budgetLineItemId"`
}

// Validate checks the patched fields.
func (p ExpensePatch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return ValidationError{"title", "must not be empty"}
	}
	return validateAmount("amount", p.Amount)
}

// Apply merges p into e.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.VendorID != nil {
		e.VendorID = p.VendorID
	}
	if p.Description != nil {
		e.Description = p.Description
	}
	if p.BudgetLineItemID != nil {
		e.BudgetLineItemID = p.BudgetLineItemID
	}
	return e
}

// ApprovalAction is an approver's decision.
type ApprovalAction string

const (
	ApprovalActionApproved ApprovalAction = "approved"
	ApprovalActionRejected ApprovalAction = "rejected"
)

// Valid reports whether a is a known decision.
func (a ApprovalAction) Valid() bool {
	return a == ApprovalActionApproved || a == ApprovalActionRejected
}

// TargetStatus is the expense status a decision produces.
func (a ApprovalAction) TargetStatus() ExpenseStatus {
	if a == ApprovalActionApproved {
		return ExpenseStatusApproved
	}
	return ExpenseStatusRejected
}

// ApprovalWorkflow is the immutable record of one approval decision.
type ApprovalWorkflow struct {
	ID         uuid.UUID      `json:"id"`
	ExpenseID  uuid.UUID      `json:"expenseId"`
	ApproverID uuid.UUID      `json:"approverId"`
	Action     ApprovalAction `json:"action"`
	Comments   *string        `json:"comments"`
	ActionAt   time.Time      `json:"actionAt"`
}

// ExpenseFilter narrows expense listings.
type ExpenseFilter struct {
	Status *ExpenseStatus
}
