package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is an organization's event. Events are managed elsewhere; this
// service only reads them for ownership checks and job scheduling.
type Event struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// User is an organization member as seen by the approval router.
type User struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	IsActive       bool      `json:"isActive"`
}

// Vendor is a supplier that line items and expenses may reference by id.
type Vendor struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Name           string    `json:"name"`
}

// CrmSync is the latest CRM payload synced for an event. Data is opaque.
type CrmSync struct {
	EventID  uuid.UUID       `json:"eventId"`
	Provider string          `json:"provider"`
	Data     json.RawMessage `json:"data"`
	SyncedAt time.Time       `json:"syncedAt"`
}
