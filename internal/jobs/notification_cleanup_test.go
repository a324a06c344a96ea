package jobs

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/testutil"
)

func TestNotificationCleanupArgsKind(t *testing.T) {
	t.Parallel()

	if got := (NotificationCleanupArgs{}).Kind(); got != "notification_cleanup" {
		t.Fatalf("Kind() = %q, want %q", got, "notification_cleanup")
	}
}

func TestNotificationCleanupArgsInsertOpts(t *testing.T) {
	t.Parallel()

	opts := (NotificationCleanupArgs{}).InsertOpts()
	if opts.Queue != river.QueueDefault {
		t.Fatalf("Queue = %q, want %q", opts.Queue, river.QueueDefault)
	}
	if opts.MaxAttempts != 1 {
		t.Fatalf("MaxAttempts = %d, want 1", opts.MaxAttempts)
	}
	if opts.UniqueOpts.ByPeriod != 24*time.Hour {
		t.Fatalf("UniqueOpts.ByPeriod = %s, want %s", opts.UniqueOpts.ByPeriod, 24*time.Hour)
	}
	if !opts.UniqueOpts.ByQueue || !opts.UniqueOpts.ByArgs {
		t.Fatalf("UniqueOpts = %+v, want ByQueue and ByArgs", opts.UniqueOpts)
	}
}

func TestNewNotificationCleanupWorkerRetention(t *testing.T) {
	t.Parallel()

	t.Run("defaults when non-positive", func(t *testing.T) {
		w := NewNotificationCleanupWorker(nil, 0)
		if w.retention != DefaultNotificationRetention {
			t.Fatalf("retention = %s, want %s", w.retention, DefaultNotificationRetention)
		}
	})

	t.Run("uses explicit retention when provided", func(t *testing.T) {
		want := 7 * 24 * time.Hour
		w := NewNotificationCleanupWorker(nil, want)
		if w.retention != want {
			t.Fatalf("retention = %s, want %s", w.retention, want)
		}
	})
}

func TestNotificationCleanupWorkerWork_Uninitialized(t *testing.T) {
	t.Parallel()

	t.Run("nil receiver", func(t *testing.T) {
		var w *NotificationCleanupWorker
		err := w.Work(context.Background(), nil)
		if err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Fatalf("Work() error = %v, want contains %q", err, "not initialized")
		}
	})

	t.Run("nil repository", func(t *testing.T) {
		w := &NotificationCleanupWorker{}
		err := w.Work(context.Background(), nil)
		if err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Fatalf("Work() error = %v, want contains %q", err, "not initialized")
		}
	})
}

func TestNotificationCleanupWorkerWork_KeepsRecent(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemStore()
	user := uuid.New()
	if err := store.CreateNotification(context.Background(), &domain.Notification{UserID: user, Title: "t", Message: "m"}); err != nil {
		t.Fatalf("CreateNotification() error = %v", err)
	}

	w := NewNotificationCleanupWorker(store, time.Hour)
	if err := w.Work(context.Background(), &river.Job[NotificationCleanupArgs]{}); err != nil {
		t.Fatalf("Work() error = %v", err)
	}
	if got := len(store.AllNotifications()); got != 1 {
		t.Fatalf("notifications = %d, want 1", got)
	}

	// A negative retention puts the cutoff in the future.
	w.retention = -time.Hour
	if err := w.Work(context.Background(), &river.Job[NotificationCleanupArgs]{}); err != nil {
		t.Fatalf("Work() error = %v", err)
	}
	if got := len(store.AllNotifications()); got != 0 {
		t.Fatalf("notifications = %d, want 0", got)
	}
}
