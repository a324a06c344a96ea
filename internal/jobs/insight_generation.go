package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"eventfin.io/eventfin/internal/metrics"
)

// InsightGenerationArgs appends budget insights for every active event.
// Generation is not deduplicated, so the job is unique per day.
type InsightGenerationArgs struct{}

// Kind returns the job kind identifier for periodic insight generation.
func (InsightGenerationArgs) Kind() string { return "insight_generation" }

// InsertOpts allows one generation run per day unless the schedule narrows it.
func (InsightGenerationArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueInsights,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: 24 * time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// InsightGenerationWorker generates insights across events.
type InsightGenerationWorker struct {
	river.WorkerDefaults[InsightGenerationArgs]
	events   ActiveEventLister
	insights InsightGenerator
}

// NewInsightGenerationWorker creates the worker.
func NewInsightGenerationWorker(events ActiveEventLister, insights InsightGenerator) *InsightGenerationWorker {
	return &InsightGenerationWorker{events: events, insights: insights}
}

// Work generates insights for every active event.
func (w *InsightGenerationWorker) Work(ctx context.Context, _ *river.Job[InsightGenerationArgs]) error {
	if w == nil || w.events == nil || w.insights == nil {
		return fmt.Errorf("insight generation worker is not initialized")
	}
	err := sweep(ctx, w.events, "insights", func(ctx context.Context, id uuid.UUID) error {
		_, err := w.insights.GenerateInsights(ctx, id, nil)
		return err
	})
	metrics.RecordJobRun(InsightGenerationArgs{}.Kind(), err)
	return err
}
