package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eventfin.io/eventfin/internal/pkg/money"
)

// BudgetVersion is a numbered snapshot of planned spending for an event.
// At most one version per event is final.
type BudgetVersion struct {
	ID            uuid.UUID        `json:"id"`
	EventID       uuid.UUID        `json:"eventId"`
	VersionNumber int              `json:"versionNumber"`
	Notes         *string          `json:"notes"`
	IsFinal       bool             `json:"isFinal"`
	CreatedBy     uuid.UUID        `json:"createdBy"`
	CreatedAt     time.Time        `json:"createdAt"`
	LineItems     []BudgetLineItem `json:"lineItems"`
}

// TotalEstimated sums EstimatedCost over the version's line items.
func (v *BudgetVersion) TotalEstimated() decimal.Decimal {
	costs := make([]decimal.Decimal, len(v.LineItems))
	for i, li := range v.LineItems {
		costs[i] = li.EstimatedCost
	}
	return money.Sum(costs...)
}

// BudgetLineItem is a single planned entry of a budget version.
type BudgetLineItem struct {
	ID              uuid.UUID        `json:"id"`
	BudgetVersionID uuid.UUID        `json:"budgetVersionId"`
	Category        string           `json:"category"`
	ItemName        string           `json:"itemName"`
	VendorID        *uuid.UUID       `json:"vendorId"`
	Quantity        *int             `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unitCost"`
	EstimatedCost   decimal.Decimal  `json:"estimatedCost"`
	ActualCost      decimal.Decimal  `json:"actualCost"`
	Notes           *string          `json:"notes"`
}

// LineItemInput describes a line item to create.
type LineItemInput struct {
	Category      string           `json:"category"`
	ItemName      string           `json:"itemName"`
	VendorID      *uuid.UUID       `json:"vendorId"`
	Quantity      *int             `json:"quantity"`
	UnitCost      *decimal.Decimal `json:"unitCost"`
	EstimatedCost *decimal.Decimal `json:"estimatedCost"`
	ActualCost    *decimal.Decimal `json:"actualCost"`
	Notes         *string          `json:"notes"`
}

// LineItemPatch describes a partial line item update. Nil fields are unchanged.
type LineItemPatch struct {
	Category      *string          `json:"category"`
	ItemName      *string          `json:"itemName"`
	VendorID      *uuid.UUID       `json:"vendorId"`
	Quantity      *int             `json:"quantity"`
	UnitCost      *decimal.Decimal `json:"unitCost"`
	EstimatedCost *decimal.Decimal `json:"estimatedCost"`
	ActualCost    *decimal.Decimal `json:"actualCost"`
	Notes         *string          `json:"notes"`
}

// BudgetVersionPatch describes a partial budget version update.
type BudgetVersionPatch struct {
	Notes   *string `json:"notes"`
	IsFinal *bool   `json:"isFinal"`
}

// ComputeEstimatedCost applies the estimate rule: an explicit estimate wins,
// otherwise quantity × unitCost when both are known, otherwise zero.
func ComputeEstimatedCost(quantity *int, unitCost, explicit *decimal.Decimal) decimal.Decimal {
	if explicit != nil {
		return *explicit
	}
	if quantity != nil && unitCost != nil {
		return unitCost.Mul(decimal.NewFromInt(int64(*quantity)))
	}
	return decimal.Zero
}

// NewLineItem builds a line item owned by versionID from in.
func NewLineItem(versionID uuid.UUID, in LineItemInput) BudgetLineItem {
	item := BudgetLineItem{
		BudgetVersionID: versionID,
		Category:        in.Category,
		ItemName:        in.ItemName,
		VendorID:        in.VendorID,
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		EstimatedCost:   ComputeEstimatedCost(in.Quantity, in.UnitCost, in.EstimatedCost),
		ActualCost:      money.FromPtr(in.ActualCost),
		Notes:           in.Notes,
	}
	return item
}

// Apply merges p into item. The estimate is recomputed when quantity or
// unit cost changes and no explicit estimate is given.
func (p LineItemPatch) Apply(item BudgetLineItem) BudgetLineItem {
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.ItemName != nil {
		item.ItemName = *p.ItemName
	}
	if p.VendorID != nil {
		item.VendorID = p.VendorID
	}
	if p.Notes != nil {
		item.Notes = p.Notes
	}
	if p.ActualCost != nil {
		item.ActualCost = *p.ActualCost
	}
	if p.Quantity != nil {
		item.Quantity = p.Quantity
	}
	if p.UnitCost != nil {
		item.UnitCost = p.UnitCost
	}
	switch {
	case p.EstimatedCost != nil:
		item.EstimatedCost = *p.EstimatedCost
	case p.Quantity != nil || p.UnitCost != nil:
		item.EstimatedCost = ComputeEstimatedCost(item.Quantity, item.UnitCost, nil)
	}
	return item
}

// Validate checks the fields a line item input must carry.
func (in LineItemInput) Validate() error {
	if in.Category == "" {
		return ValidationError{"category", "must not be empty"}
	}
	if in.ItemName == "" {
		return ValidationError{"itemName", "must not be empty"}
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return ValidationError{"quantity", "must not be negative"}
	}
	for _, f := range []struct {
		field string
		value *decimal.Decimal
	}{
		{"unitCost", in.UnitCost},
		{"estimatedCost", in.EstimatedCost},
		{"actualCost", in.ActualCost},
	} {
		if err := validateAmount(f.field, f.value); err != nil {
			return err
		}
	}
	return nil
}

// validateAmount rejects negative amounts and amounts finer than a cent.
// A nil amount is absent and passes.
func validateAmount(field string, d *decimal.Decimal) error {
	switch {
	case d == nil:
		return nil
	case d.IsNegative():
		return ValidationError{field, "must not be negative"}
	case !money.FitsCents(*d):
		return ValidationError{field, "must have at most 2 decimal places"}
	}
	return nil
}

// CloneNotes is the note written on a cloned version.
func CloneNotes(sourceVersion int) string {
	return "Cloned from version " + strconv.Itoa(sourceVersion)
}
