package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/testutil"
)

func TestLogActivity(t *testing.T) {
	t.Parallel()
	store := testutil.NewMemStore()
	l := NewLogger(store)

	eventID := uuid.New()
	user := domain.Principal{UserID: uuid.New()}
	l.LogActivity(context.Background(), eventID, Actor(user), domain.ActionBudgetCreated, map[string]interface{}{"versionNumber": 1})

	logs := store.ActivityLogs()
	require.Len(t, logs, 1)
	require.Equal(t, domain.ActionBudgetCreated, logs[0].Action)
	require.Equal(t, eventID, *logs[0].EventID)
	require.Equal(t, user.UserID, *logs[0].UserID)
	require.Equal(t, 1, logs[0].Details["versionNumber"])
}

func TestLogActivitySwallowsErrors(t *testing.T) {
	t.Parallel()
	store := testutil.NewMemStore()
	store.FailOn("CreateActivityLog", errors.New("disk full"))

	require.NotPanics(t, func() {
		NewLogger(store).LogActivity(context.Background(), uuid.New(), nil, domain.ActionExpenseCreated, nil)
	})
	require.Empty(t, store.ActivityLogs())

	var nilLogger *Logger
	require.NotPanics(t, func() {
		nilLogger.LogActivity(context.Background(), uuid.New(), nil, "x", nil)
	})
}
