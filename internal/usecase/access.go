// Package usecase provides the application use cases behind the HTTP API.
//
// Every operation resolves the owning event and checks the caller's
// organization before doing any work. Multi-write operations run inside
// repository.Store.WithinTx; activity logging and notifications happen
// after commit and never fail the operation.
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"eventfin.io/eventfin/internal/domain"
	apperrors "eventfin.io/eventfin/internal/pkg/errors"
)

// EventGetter resolves events for ownership checks.
type EventGetter interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error)
}

// authorizeEvent loads the event and checks it belongs to the caller's organization.
func authorizeEvent(ctx context.Context, events EventGetter, p domain.Principal, eventID uuid.UUID) (*domain.Event, error) {
	ev, err := events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, lookupErr(err, apperrors.ErrEventNotFound(), "get event")
	}
	if !p.CanAccess(ev.OrganizationID) {
		return nil, apperrors.ErrOrganizationForbidden()
	}
	return ev, nil
}

// lookupErr turns a repository not-found into notFound and wraps anything else.
func lookupErr(err error, notFound *apperrors.AppError, op string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func validationErr(err error) error {
	var ve domain.ValidationError
	if errors.As(err, &ve) {
		return apperrors.Validation(ve.Field, ve.Field+" "+ve.Message)
	}
	return err
}
