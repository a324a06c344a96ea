// Package jobs defines the River jobs that keep derived metrics current.
//
// Jobs carry only an event id; workers re-run the same synchronous
// aggregator operations a client would call.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/metrics"
	"eventfin.io/eventfin/internal/pkg/logger"
)

// QueueInsights runs every ROI and insight job.
const QueueInsights = "insights"

// ROICalculator recomputes an event's ROI metrics.
type ROICalculator interface {
	CalculateROI(ctx context.Context, eventID uuid.UUID, actor *uuid.UUID) (*domain.ROIMetrics, error)
}

// InsightGenerator appends budget insights for an event.
type InsightGenerator interface {
	GenerateInsights(ctx context.Context, eventID uuid.UUID, actor *uuid.UUID) ([]domain.Insight, error)
}

// ActiveEventLister lists the events periodic jobs sweep over.
type ActiveEventLister interface {
	ListActiveEventIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ---------------------------------------------------------------------------
// Single-event recompute
// ---------------------------------------------------------------------------

// ROIRecomputeArgs recomputes one event's ROI, e.g. after an approval.
type ROIRecomputeArgs struct {
	EventID uuid.UUID `json:"event_id"`
}

// Kind returns the job kind identifier for ROI recomputation.
func (ROIRecomputeArgs) Kind() string { return "roi_recompute" }

// InsertOpts coalesces bursts of approvals on one event.
func (ROIRecomputeArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueInsights,
		MaxAttempts: 3,
		UniqueOpts: river.UniqueOpts{
			ByArgs:   true,
			ByQueue:  true,
			ByPeriod: time.Minute,
		},
	}
}

// ROIRecomputeWorker recomputes one event's ROI metrics.
type ROIRecomputeWorker struct {
	river.WorkerDefaults[ROIRecomputeArgs]
	roi ROICalculator
}

// NewROIRecomputeWorker creates the worker.
func NewROIRecomputeWorker(roi ROICalculator) *ROIRecomputeWorker {
	return &ROIRecomputeWorker{roi: roi}
}

// Work recomputes the event named by the job.
func (w *ROIRecomputeWorker) Work(ctx context.Context, job *river.Job[ROIRecomputeArgs]) error {
	if w == nil || w.roi == nil {
		return fmt.Errorf("roi recompute worker is not initialized")
	}
	eventID := job.Args.EventID
	_, err := w.roi.CalculateROI(ctx, eventID, nil)
	metrics.RecordJobRun(ROIRecomputeArgs{}.Kind(), err)
	if err != nil {
		return fmt.Errorf("recompute roi for event %s: %w", eventID, err)
	}
	logger.Debug("roi recomputed", zap.String("event_id", eventID.String()))
	return nil
}

// ---------------------------------------------------------------------------
// Periodic sweep
// ---------------------------------------------------------------------------

// ROISweepArgs recomputes ROI for every active event.
type ROISweepArgs struct{}

// Kind returns the job kind identifier for the periodic ROI sweep.
func (ROISweepArgs) Kind() string { return "roi_sweep" }

// InsertOpts allows one sweep per hour unless the schedule narrows it.
func (ROISweepArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueInsights,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// ROISweepWorker recomputes ROI across events.
type ROISweepWorker struct {
	river.WorkerDefaults[ROISweepArgs]
	events ActiveEventLister
	roi    ROICalculator
}

// NewROISweepWorker creates the worker.
func NewROISweepWorker(events ActiveEventLister, roi ROICalculator) *ROISweepWorker {
	return &ROISweepWorker{events: events, roi: roi}
}

// Work recomputes every active event. A failing event does not stop the
// sweep; all failures are returned together.
func (w *ROISweepWorker) Work(ctx context.Context, _ *river.Job[ROISweepArgs]) error {
	if w == nil || w.events == nil || w.roi == nil {
		return fmt.Errorf("roi sweep worker is not initialized")
	}
	err := sweep(ctx, w.events, "roi", func(ctx context.Context, id uuid.UUID) error {
		_, err := w.roi.CalculateROI(ctx, id, nil)
		return err
	})
	metrics.RecordJobRun(ROISweepArgs{}.Kind(), err)
	return err
}

func sweep(ctx context.Context, events ActiveEventLister, what string, fn func(context.Context, uuid.UUID) error) error {
	ids, err := events.ListActiveEventIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active events: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, id); err != nil {
			logger.Warn("sweep step failed",
				zap.String("sweep", what),
				zap.String("event_id", id.String()),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("event %s: %w", id, err))
		}
	}

	logger.Info("sweep completed",
		zap.String("sweep", what),
		zap.Int("events", len(ids)),
		zap.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}
