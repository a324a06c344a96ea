// Package notification implements the in-app notification sink.
//
// Delivery is fire-and-forget: Triggers hand each send to a Dispatcher
// (the notify worker pool in production) and only log failures.
package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/pkg/logger"
	"eventfin.io/eventfin/internal/repository"
)

// Params holds the fields of one notification.
type Params struct {
	RecipientID uuid.UUID
	EventID     *uuid.UUID
	Title       string
	Message     string
}

// Sender delivers notifications.
type Sender interface {
	// Send delivers a notification to a single recipient.
	Send(ctx context.Context, params Params) error

	// SendToMany delivers one notification per recipient. It keeps going
	// past individual failures and reports how many failed.
	SendToMany(ctx context.Context, recipientIDs []uuid.UUID, params Params) error
}

// InboxSender writes notifications to the inbox table.
type InboxSender struct {
	repo repository.NotificationRepository
}

// NewInboxSender creates a new inbox sender.
func NewInboxSender(repo repository.NotificationRepository) *InboxSender {
	return &InboxSender{repo: repo}
}

// Send stores a single notification.
func (s *InboxSender) Send(ctx context.Context, params Params) error {
	if err := validateParams(params); err != nil {
		return fmt.Errorf("notification params invalid: %w", err)
	}

	n := &domain.Notification{
		UserID:  params.RecipientID,
		EventID: params.EventID,
		Title:   params.Title,
		Message: params.Message,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("create notification for user %s: %w", params.RecipientID, err)
	}

	logger.Debug("notification sent",
		zap.String("recipient", params.RecipientID.String()),
		zap.String("title", params.Title),
	)
	return nil
}

// SendToMany stores one notification per recipient.
func (s *InboxSender) SendToMany(ctx context.Context, recipientIDs []uuid.UUID, params Params) error {
	var failCount int
	for _, recipientID := range recipientIDs {
		p := params
		p.RecipientID = recipientID
		if err := s.Send(ctx, p); err != nil {
			failCount++
			logger.Error("notification delivery failed",
				zap.String("recipient", recipientID.String()),
				zap.Error(err),
			)
		}
	}

	if failCount > 0 {
		return fmt.Errorf("notification delivery failed for %d/%d recipients", failCount, len(recipientIDs))
	}
	return nil
}

var _ Sender = (*InboxSender)(nil)

func validateParams(p Params) error {
	if p.RecipientID == uuid.Nil {
		return fmt.Errorf("recipient_id is required")
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}
