// Package audit implements the activity log sink.
//
// Entries are append-only. Writing one never fails the caller: the
// primary operation has already committed when the entry is written.
package audit

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/pkg/logger"
	"eventfin.io/eventfin/internal/repository"
)

// Logger writes activity entries to the store.
type Logger struct {
	repo repository.ActivityRepository
}

// NewLogger creates a new activity Logger.
func NewLogger(repo repository.ActivityRepository) *Logger {
	return &Logger{repo: repo}
}

// LogActivity appends an entry for eventID. userID is nil for system actions.
// Failures are logged and swallowed.
func (l *Logger) LogActivity(ctx context.Context, eventID uuid.UUID, userID *uuid.UUID, action string, details map[string]interface{}) {
	if l == nil || l.repo == nil {
		return
	}
	if details == nil {
		details = map[string]interface{}{}
	}
	entry := &domain.ActivityLog{
		EventID: &eventID,
		UserID:  userID,
		Action:  action,
		Details: details,
	}
	if err := l.repo.CreateActivityLog(ctx, entry); err != nil {
		logger.FromContext(ctx).Warn("failed to write activity log",
			zap.String("action", action),
			zap.String("event_id", eventID.String()),
			zap.Error(err),
		)
	}
}

// Actor returns a pointer to the principal's user id for LogActivity.
func Actor(p domain.Principal) *uuid.UUID {
	id := p.UserID
	return &id
}
