package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"eventfin.io/eventfin/internal/domain"
)

type fakeEvents struct {
	ids []uuid.UUID
	err error
}

func (f fakeEvents) ListActiveEventIDs(context.Context) ([]uuid.UUID, error) { return f.ids, f.err }

type fakeAggregator struct {
	mu       sync.Mutex
	roi      []uuid.UUID
	insights []uuid.UUID
	failOn   uuid.UUID
}

func (f *fakeAggregator) CalculateROI(_ context.Context, id uuid.UUID, actor *uuid.UUID) (*domain.ROIMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if actor != nil {
		return nil, errors.New("scheduled recompute must not carry an actor")
	}
	if id == f.failOn {
		return nil, errors.New("boom")
	}
	f.roi = append(f.roi, id)
	return &domain.ROIMetrics{EventID: id}, nil
}

func (f *fakeAggregator) GenerateInsights(_ context.Context, id uuid.UUID, _ *uuid.UUID) ([]domain.Insight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failOn {
		return nil, errors.New("boom")
	}
	f.insights = append(f.insights, id)
	return nil, nil
}

func TestROIRecomputeArgsInsertOpts(t *testing.T) {
	t.Parallel()

	opts := (ROIRecomputeArgs{}).InsertOpts()
	if opts.Queue != QueueInsights {
		t.Fatalf("Queue = %q, want %q", opts.Queue, QueueInsights)
	}
	if !opts.UniqueOpts.ByArgs || opts.UniqueOpts.ByPeriod != time.Minute {
		t.Fatalf("UniqueOpts = %+v, want ByArgs with a one-minute period", opts.UniqueOpts)
	}
}

func TestROIRecomputeWorkerWork(t *testing.T) {
	t.Parallel()

	agg := &fakeAggregator{}
	id := uuid.New()
	w := NewROIRecomputeWorker(agg)
	if err := w.Work(context.Background(), &river.Job[ROIRecomputeArgs]{Args: ROIRecomputeArgs{EventID: id}}); err != nil {
		t.Fatalf("Work() error = %v", err)
	}
	if len(agg.roi) != 1 || agg.roi[0] != id {
		t.Fatalf("recomputed = %v, want [%s]", agg.roi, id)
	}

	agg.failOn = id
	err := w.Work(context.Background(), &river.Job[ROIRecomputeArgs]{Args: ROIRecomputeArgs{EventID: id}})
	if err == nil || !strings.Contains(err.Error(), id.String()) {
		t.Fatalf("Work() error = %v, want mention of %s", err, id)
	}
}

func TestROISweepWorker_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	agg := &fakeAggregator{failOn: b}
	w := NewROISweepWorker(fakeEvents{ids: []uuid.UUID{a, b, c}}, agg)

	err := w.Work(context.Background(), &river.Job[ROISweepArgs]{})
	if err == nil || !strings.Contains(err.Error(), b.String()) {
		t.Fatalf("Work() error = %v, want failure for %s", err, b)
	}
	if len(agg.roi) != 2 {
		t.Fatalf("recomputed %d events, want 2", len(agg.roi))
	}
}

func TestROISweepWorker_ListFailure(t *testing.T) {
	t.Parallel()

	w := NewROISweepWorker(fakeEvents{err: errors.New("db down")}, &fakeAggregator{})
	if err := w.Work(context.Background(), &river.Job[ROISweepArgs]{}); err == nil {
		t.Fatal("Work() error = nil, want list failure")
	}
}

func TestInsightGenerationWorker(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	agg := &fakeAggregator{}
	w := NewInsightGenerationWorker(fakeEvents{ids: []uuid.UUID{a, b}}, agg)
	if err := w.Work(context.Background(), &river.Job[InsightGenerationArgs]{}); err != nil {
		t.Fatalf("Work() error = %v", err)
	}
	if len(agg.insights) != 2 {
		t.Fatalf("generated for %d events, want 2", len(agg.insights))
	}
	if got := (InsightGenerationArgs{}).InsertOpts().UniqueOpts.ByPeriod; got != 24*time.Hour {
		t.Fatalf("ByPeriod = %s, want 24h", got)
	}
}

func TestPeriodicJobs(t *testing.T) {
	t.Parallel()

	if got := len(PeriodicJobs(Schedule{})); got != 1 {
		t.Fatalf("PeriodicJobs(disabled) = %d jobs, want 1", got)
	}
	if got := len(PeriodicJobs(Schedule{ROIRecompute: time.Hour, InsightGeneration: 24 * time.Hour})); got != 3 {
		t.Fatalf("PeriodicJobs(all) = %d jobs, want 3", got)
	}
}

func TestUniqueEvery_FollowsSchedule(t *testing.T) {
	t.Parallel()

	sweep := uniqueEvery(ROISweepArgs{}, 15*time.Minute)
	if sweep.UniqueOpts.ByPeriod != 15*time.Minute {
		t.Fatalf("sweep ByPeriod = %s, want 15m", sweep.UniqueOpts.ByPeriod)
	}
	if sweep.Queue != QueueInsights || !sweep.UniqueOpts.ByArgs || !sweep.UniqueOpts.ByQueue {
		t.Fatalf("sweep opts lost defaults: %+v", sweep)
	}

	insights := uniqueEvery(InsightGenerationArgs{}, 6*time.Hour)
	if insights.UniqueOpts.ByPeriod != 6*time.Hour {
		t.Fatalf("insight ByPeriod = %s, want 6h", insights.UniqueOpts.ByPeriod)
	}
	if got := (InsightGenerationArgs{}).InsertOpts().UniqueOpts.ByPeriod; got != 24*time.Hour {
		t.Fatalf("args default ByPeriod = %s, want 24h", got)
	}
}

func TestRegisterWorkers(t *testing.T) {
	t.Parallel()

	workers := river.NewWorkers()
	RegisterWorkers(workers, Deps{Events: fakeEvents{}, ROI: &fakeAggregator{}, Insights: &fakeAggregator{}})
	// Registering a kind twice is an error, so a second AddWorkerSafely proves the first took.
	if err := river.AddWorkerSafely(workers, NewROIRecomputeWorker(&fakeAggregator{})); err == nil {
		t.Fatal("AddWorkerSafely() error = nil, want duplicate kind")
	}
}

type recordingInserter struct {
	args []river.JobArgs
}

func (r *recordingInserter) InsertTx(_ context.Context, _ pgx.Tx, args river.JobArgs, _ *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	r.args = append(r.args, args)
	return &rivertype.JobInsertResult{}, nil
}

func TestEnqueuer(t *testing.T) {
	t.Parallel()

	rec := &recordingInserter{}
	id := uuid.New()
	if err := NewEnqueuer(rec).EnqueueROIRecomputeTx(context.Background(), nil, id); err != nil {
		t.Fatalf("EnqueueROIRecomputeTx() error = %v", err)
	}
	if len(rec.args) != 1 || rec.args[0].(ROIRecomputeArgs).EventID != id {
		t.Fatalf("inserted = %+v, want one roi_recompute for %s", rec.args, id)
	}

	var nilEnqueuer *Enqueuer
	if err := nilEnqueuer.EnqueueROIRecomputeTx(context.Background(), nil, id); err == nil {
		t.Fatal("nil Enqueuer error = nil, want not initialized")
	}
}
