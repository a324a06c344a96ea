package domain

import (
	"time"

	"github.com/google/uuid"
)

// Activity actions written to the activity log.
const (
	ActionBudgetCreated     = "budget.created"
	ActionBudgetUpdated     = "budget.updated"
	ActionBudgetCloned      = "budget.cloned"
	ActionLineItemAdded     = "budget.line_item.added"
	ActionLineItemUpdated   = "budget.line_item.updated"
	ActionLineItemDeleted   = "budget.line_item.deleted"
	ActionExpenseCreated    = "expense.created"
	ActionExpenseUpdated    = "expense.updated"
	ActionExpenseDeleted    = "expense.deleted"
	ActionExpenseSubmitted  = "expense.submitted_for_approval"
	ActionExpenseApproved   = "expense.approved"
	ActionExpenseRejected   = "expense.rejected"
	ActionROICalculated     = "roi.calculated"
	ActionInsightsGenerated = "insights.generated"
)

// ActivityLog is an append-only record of something that happened to an event.
type ActivityLog struct {
	ID        uuid.UUID              `json:"id"`
	EventID   *uuid.UUID             `json:"eventId"`
	UserID    *uuid.UUID             `json:"userId"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details"`
	CreatedAt time.Time              `json:"createdAt"`
}

// Notification is an in-app notice addressed to one user.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	EventID   *uuid.UUID `json:"eventId,omitempty"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ValidationError reports an invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
