package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// Deps are the collaborators the workers need.
type Deps struct {
	Events                ActiveEventLister
	Notifications         NotificationPruner
	ROI                   ROICalculator
	Insights              InsightGenerator
	NotificationRetention time.Duration
}

// Schedule holds the periodic job intervals.
type Schedule struct {
	ROIRecompute      time.Duration
	InsightGeneration time.Duration
}

// RegisterWorkers adds every worker to workers.
func RegisterWorkers(workers *river.Workers, deps Deps) {
	river.AddWorker(workers, NewROIRecomputeWorker(deps.ROI))
	river.AddWorker(workers, NewROISweepWorker(deps.Events, deps.ROI))
	river.AddWorker(workers, NewInsightGenerationWorker(deps.Events, deps.Insights))
	river.AddWorker(workers, NewNotificationCleanupWorker(deps.Notifications, deps.NotificationRetention))
}

// PeriodicJobs returns the scheduled sweeps. Non-positive intervals disable
// the corresponding job; notification cleanup always runs daily.
func PeriodicJobs(s Schedule) []*river.PeriodicJob {
	periodic := []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) {
				return NotificationCleanupArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}
	if s.ROIRecompute > 0 {
		periodic = append(periodic, river.NewPeriodicJob(
			river.PeriodicInterval(s.ROIRecompute),
			func() (river.JobArgs, *river.InsertOpts) {
				return ROISweepArgs{}, uniqueEvery(ROISweepArgs{}, s.ROIRecompute)
			},
			nil,
		))
	}
	if s.InsightGeneration > 0 {
		periodic = append(periodic, river.NewPeriodicJob(
			river.PeriodicInterval(s.InsightGeneration),
			func() (river.JobArgs, *river.InsertOpts) {
				return InsightGenerationArgs{}, uniqueEvery(InsightGenerationArgs{}, s.InsightGeneration)
			},
			nil,
		))
	}
	return periodic
}

// uniqueEvery keeps the args' insert options but narrows the uniqueness
// window to the schedule interval, so each tick inserts exactly one job.
func uniqueEvery(args river.JobArgsWithInsertOpts, interval time.Duration) *river.InsertOpts {
	opts := args.InsertOpts()
	opts.UniqueOpts.ByPeriod = interval
	return &opts
}

// TxInserter is the transactional half of *river.Client[pgx.Tx].
type TxInserter interface {
	InsertTx(ctx context.Context, tx pgx.Tx, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// Enqueuer inserts follow-up jobs inside a caller's transaction.
type Enqueuer struct {
	client TxInserter
}

// NewEnqueuer creates an Enqueuer. client is usually *river.Client[pgx.Tx].
func NewEnqueuer(client TxInserter) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueROIRecomputeTx inserts an roi_recompute job for eventID in tx.
func (e *Enqueuer) EnqueueROIRecomputeTx(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) error {
	if e == nil || e.client == nil {
		return fmt.Errorf("job enqueuer is not initialized")
	}
	if _, err := e.client.InsertTx(ctx, tx, ROIRecomputeArgs{EventID: eventID}, nil); err != nil {
		return fmt.Errorf("enqueue roi_recompute for event %s: %w", eventID, err)
	}
	return nil
}
