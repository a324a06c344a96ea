package usecase

import (
	"context"
	"fmt"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/repository"
)

// Inbox page sizes.
const (
	DefaultInboxLimit = 50
	MaxInboxLimit     = 200
)

// InboxUseCase reads the caller's own notifications.
type InboxUseCase struct {
	repo repository.NotificationRepository
}

// NewInboxUseCase creates a new InboxUseCase.
func NewInboxUseCase(repo repository.NotificationRepository) *InboxUseCase {
	return &InboxUseCase{repo: repo}
}

// List returns up to limit notifications for the caller, newest first.
// Non-positive limits use the default; large ones are capped.
func (uc *InboxUseCase) List(ctx context.Context, p domain.Principal, limit int) ([]domain.Notification, error) {
	switch {
	case limit <= 0:
		limit = DefaultInboxLimit
	case limit > MaxInboxLimit:
		limit = MaxInboxLimit
	}
	out, err := uc.repo.ListNotifications(ctx, p.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}
