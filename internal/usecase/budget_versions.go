package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/governance/audit"
	"eventfin.io/eventfin/internal/metrics"
	apperrors "eventfin.io/eventfin/internal/pkg/errors"
	"eventfin.io/eventfin/internal/pkg/logger"
	"eventfin.io/eventfin/internal/repository"
)

// CreateBudgetVersionInput describes a new budget version. A zero
// VersionNumber takes the next free number for the event.
type CreateBudgetVersionInput struct {
	VersionNumber int                    `json:"versionNumber"`
	Notes         *string                `json:"notes"`
	LineItems     []domain.LineItemInput `json:"lineItems"`
}

// Validate checks the version number and every line item.
func (in CreateBudgetVersionInput) Validate() error {
	if in.VersionNumber < 0 {
		return domain.ValidationError{Field: "versionNumber", Message: "must be positive"}
	}
	for i, item := range in.LineItems {
		if err := item.Validate(); err != nil {
			var ve domain.ValidationError
			if errors.As(err, &ve) {
				ve.Field = fmt.Sprintf("lineItems[%d].%s", i, ve.Field)
				return ve
			}
			return err
		}
	}
	return nil
}

// BudgetUseCase manages budget versions and their line items.
type BudgetUseCase struct {
	store       repository.Store
	auditLogger *audit.Logger
}

// NewBudgetUseCase creates a new BudgetUseCase.
func NewBudgetUseCase(store repository.Store) *BudgetUseCase {
	return &BudgetUseCase{store: store}
}

// WithAuditLogger sets the activity logger (optional dependency).
func (uc *BudgetUseCase) WithAuditLogger(al *audit.Logger) *BudgetUseCase {
	uc.auditLogger = al
	return uc
}

// loadVersion resolves a version and authorizes its event.
func (uc *BudgetUseCase) loadVersion(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.BudgetVersion, error) {
	v, err := uc.store.GetBudgetVersion(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apperrors.ErrBudgetVersionNotFound(), "get budget version")
	}
	if _, err := authorizeEvent(ctx, uc.store, p, v.EventID); err != nil {
		return nil, err
	}
	return v, nil
}

// loadLineItem resolves item → version → event and authorizes it.
func (uc *BudgetUseCase) loadLineItem(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.BudgetLineItem, *domain.BudgetVersion, error) {
	item, err := uc.store.GetLineItem(ctx, id)
	if err != nil {
		return nil, nil, lookupErr(err, apperrors.ErrLineItemNotFound(), "get line item")
	}
	v, err := uc.loadVersion(ctx, p, item.BudgetVersionID)
	if err != nil {
		return nil, nil, err
	}
	return item, v, nil
}

// CreateVersion creates a version with its line items in one transaction.
// A duplicate (event, version number) is BUDGET_VERSION_EXISTS and leaves
// nothing behind.
func (uc *BudgetUseCase) CreateVersion(ctx context.Context, p domain.Principal, eventID uuid.UUID, in CreateBudgetVersionInput) (*domain.BudgetVersion, error) {
	if _, err := authorizeEvent(ctx, uc.store, p, eventID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, validationErr(err)
	}

	var created *domain.BudgetVersion
	err := uc.store.WithinTx(ctx, func(q repository.Querier) error {
		number := in.VersionNumber
		if number == 0 {
			maxNumber, err := q.MaxBudgetVersionNumber(ctx, eventID)
			if err != nil {
				return fmt.Errorf("next version number: %w", err)
			}
			number = maxNumber + 1
		}

		v := &domain.BudgetVersion{
			EventID:       eventID,
			VersionNumber: number,
			Notes:         in.Notes,
			CreatedBy:     p.UserID,
		}
		if err := q.CreateBudgetVersion(ctx, v); err != nil {
			return err
		}
		v.LineItems = make([]domain.BudgetLineItem, 0, len(in.LineItems))
		for _, input := range in.LineItems {
			item := domain.NewLineItem(v.ID, input)
			if err := q.CreateLineItem(ctx, &item); err != nil {
				return fmt.Errorf("create line item: %w", err)
			}
			v.LineItems = append(v.LineItems, item)
		}
		created = v
		return nil
	})
	if errors.Is(err, apperrors.ErrConflict) {
		return nil, apperrors.Conflict(apperrors.CodeBudgetVersionExists, "budget version number already exists for this event").
			WithParams(map[string]interface{}{"versionNumber": in.VersionNumber})
	}
	if err != nil {
		return nil, fmt.Errorf("create budget version: %w", err)
	}

	metrics.RecordBudgetVersion("new")
	uc.auditLogger.LogActivity(ctx, eventID, audit.Actor(p), domain.ActionBudgetCreated, map[string]interface{}{
		"budgetVersionId": created.ID.String(),
		"versionNumber":   created.VersionNumber,
		"lineItemCount":   len(created.LineItems),
	})
	return created, nil
}

// GetVersion returns a version with its line items.
func (uc *BudgetUseCase) GetVersion(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.BudgetVersion, error) {
	return uc.loadVersion(ctx, p, id)
}

// ListVersions returns the event's versions, newest first.
func (uc *BudgetUseCase) ListVersions(ctx context.Context, p domain.Principal, eventID uuid.UUID) ([]domain.BudgetVersion, error) {
	if _, err := authorizeEvent(ctx, uc.store, p, eventID); err != nil {
		return nil, err
	}
	versions, err := uc.store.ListBudgetVersions(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list budget versions: %w", err)
	}
	return versions, nil
}

// UpdateVersion applies patch. Setting isFinal clears it on every other
// version of the event in the same transaction, under the event row lock.
func (uc *BudgetUseCase) UpdateVersion(ctx context.Context, p domain.Principal, id uuid.UUID, patch domain.BudgetVersionPatch) (*domain.BudgetVersion, error) {
	current, err := uc.loadVersion(ctx, p, id)
	if err != nil {
		return nil, err
	}
	finalizing := patch.IsFinal != nil && *patch.IsFinal

	var updated *domain.BudgetVersion
	err = uc.store.WithinTx(ctx, func(q repository.Querier) error {
		if finalizing {
			if err := q.LockEvent(ctx, current.EventID); err != nil {
				return fmt.Errorf("lock event: %w", err)
			}
			if err := q.ClearFinalBudgetVersions(ctx, current.EventID, id); err != nil {
				return fmt.Errorf("clear final versions: %w", err)
			}
		}

		v, err := q.GetBudgetVersion(ctx, id)
		if err != nil {
			return err
		}
		if patch.Notes != nil {
			v.Notes = patch.Notes
		}
		if patch.IsFinal != nil {
			v.IsFinal = *patch.IsFinal
		}
		if err := q.UpdateBudgetVersion(ctx, v); err != nil {
			return err
		}
		updated = v
		return nil
	})
	if err != nil {
		return nil, lookupErr(err, apperrors.ErrBudgetVersionNotFound(), "update budget version")
	}

	if finalizing && !current.IsFinal {
		metrics.RecordBudgetFinalized()
	}
	details := map[string]interface{}{"budgetVersionId": id.String()}
	if patch.Notes != nil {
		details["notes"] = *patch.Notes
	}
	if patch.IsFinal != nil {
		details["isFinal"] = *patch.IsFinal
	}
	uc.auditLogger.LogActivity(ctx, updated.EventID, audit.Actor(p), domain.ActionBudgetUpdated, details)
	return updated, nil
}

// FinalizeVersion marks the version final.
func (uc *BudgetUseCase) FinalizeVersion(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.BudgetVersion, error) {
	final := true
	return uc.UpdateVersion(ctx, p, id, domain.BudgetVersionPatch{IsFinal: &final})
}

// CloneVersion copies a version and all of its line items, actual costs
// included, into a new non-final version numbered max+1.
func (uc *BudgetUseCase) CloneVersion(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.BudgetVersion, error) {
	source, err := uc.loadVersion(ctx, p, id)
	if err != nil {
		return nil, err
	}

	var clone *domain.BudgetVersion
	err = uc.store.WithinTx(ctx, func(q repository.Querier) error {
		// Serialises concurrent clones so max+1 stays free.
		if err := q.LockEvent(ctx, source.EventID); err != nil {
			return fmt.Errorf("lock event: %w", err)
		}
		maxNumber, err := q.MaxBudgetVersionNumber(ctx, source.EventID)
		if err != nil {
			return fmt.Errorf("max version number: %w", err)
		}
		items, err := q.ListLineItems(ctx, source.ID)
		if err != nil {
			return fmt.Errorf("list source line items: %w", err)
		}

		notes := domain.CloneNotes(source.VersionNumber)
		v := &domain.BudgetVersion{
			EventID:       source.EventID,
			VersionNumber: maxNumber + 1,
			Notes:         &notes,
			CreatedBy:     p.UserID,
		}
		if err := q.CreateBudgetVersion(ctx, v); err != nil {
			return fmt.Errorf("create cloned version: %w", err)
		}
		v.LineItems = make([]domain.BudgetLineItem, 0, len(items))
		for _, src := range items {
			item := src
			item.ID = uuid.Nil
			item.BudgetVersionID = v.ID
			if err := q.CreateLineItem(ctx, &item); err != nil {
				return fmt.Errorf("copy line item %s: %w", src.ID, err)
			}
			v.LineItems = append(v.LineItems, item)
		}
		clone = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("clone budget version %s: %w", id, err)
	}

	metrics.RecordBudgetVersion("clone")
	uc.auditLogger.LogActivity(ctx, clone.EventID, audit.Actor(p), domain.ActionBudgetCloned, map[string]interface{}{
		"sourceVersionId":     source.ID.String(),
		"sourceVersionNumber": source.VersionNumber,
		"budgetVersionId":     clone.ID.String(),
		"versionNumber":       clone.VersionNumber,
	})
	logger.FromContext(ctx).Info("budget version cloned",
		zap.String("event_id", clone.EventID.String()),
		zap.Int("from", source.VersionNumber),
		zap.Int("to", clone.VersionNumber),
	)
	return clone, nil
}

// AddLineItem appends a line item to a version.
func (uc *BudgetUseCase) AddLineItem(ctx context.Context, p domain.Principal, versionID uuid.UUID, in domain.LineItemInput) (*domain.BudgetLineItem, error) {
	v, err := uc.loadVersion(ctx, p, versionID)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, validationErr(err)
	}

	item := domain.NewLineItem(v.ID, in)
	if err := uc.store.CreateLineItem(ctx, &item); err != nil {
		return nil, fmt.Errorf("create line item: %w", err)
	}

	uc.auditLogger.LogActivity(ctx, v.EventID, audit.Actor(p), domain.ActionLineItemAdded, map[string]interface{}{
		"budgetVersionId": v.ID.String(),
		"lineItemId":      item.ID.String(),
		"estimatedCost":   item.EstimatedCost.String(),
	})
	return &item, nil
}

// UpdateLineItem applies patch, recomputing the estimate when quantity or
// unit cost changes without an explicit estimate.
func (uc *BudgetUseCase) UpdateLineItem(ctx context.Context, p domain.Principal, itemID uuid.UUID, patch domain.LineItemPatch) (*domain.BudgetLineItem, error) {
	item, v, err := uc.loadLineItem(ctx, p, itemID)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*item)
	if err := lineItemFromStored(updated).Validate(); err != nil {
		return nil, validationErr(err)
	}
	if err := uc.store.UpdateLineItem(ctx, &updated); err != nil {
		return nil, lookupErr(err, apperrors.ErrLineItemNotFound(), "update line item")
	}

	uc.auditLogger.LogActivity(ctx, v.EventID, audit.Actor(p), domain.ActionLineItemUpdated, map[string]interface{}{
		"budgetVersionId": v.ID.String(),
		"lineItemId":      updated.ID.String(),
		"estimatedCost":   updated.EstimatedCost.String(),
	})
	return &updated, nil
}

// DeleteLineItem removes a line item.
func (uc *BudgetUseCase) DeleteLineItem(ctx context.Context, p domain.Principal, itemID uuid.UUID) error {
	item, v, err := uc.loadLineItem(ctx, p, itemID)
	if err != nil {
		return err
	}
	if err := uc.store.DeleteLineItem(ctx, item.ID); err != nil {
		return lookupErr(err, apperrors.ErrLineItemNotFound(), "delete line item")
	}

	uc.auditLogger.LogActivity(ctx, v.EventID, audit.Actor(p), domain.ActionLineItemDeleted, map[string]interface{}{
		"budgetVersionId": v.ID.String(),
		"lineItemId":      item.ID.String(),
		"itemName":        item.ItemName,
	})
	return nil
}

func lineItemFromStored(item domain.BudgetLineItem) domain.LineItemInput {
	return domain.LineItemInput{
		Category:      item.Category,
		ItemName:      item.ItemName,
		Quantity:      item.Quantity,
		UnitCost:      item.UnitCost,
		EstimatedCost: &item.EstimatedCost,
		ActualCost:    &item.ActualCost,
	}
}
