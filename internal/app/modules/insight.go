package modules

import (
	"context"

	"github.com/riverqueue/river"

	"eventfin.io/eventfin/internal/api/handlers"
	"eventfin.io/eventfin/internal/jobs"
	"eventfin.io/eventfin/internal/service"
	"eventfin.io/eventfin/internal/usecase"
)

// InsightModule wires the ROI aggregator, the notification inbox and the
// background jobs that keep both current.
type InsightModule struct {
	infra    *Infrastructure
	roi      *service.ROIService
	insights *usecase.InsightUseCase
	inbox    *usecase.InboxUseCase
}

// NewInsightModule creates the insight module.
func NewInsightModule(infra *Infrastructure) *InsightModule {
	roi := service.NewROIService(infra.Store, infra.AuditLogger, infra.Config.Workflow.VarianceInsightPercent)
	return &InsightModule{
		infra:    infra,
		roi:      roi,
		insights: usecase.NewInsightUseCase(infra.Store, roi),
		inbox:    usecase.NewInboxUseCase(infra.Store),
	}
}

func (m *InsightModule) Name() string { return "insight" }

func (m *InsightModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Insights = m.insights
	deps.Inbox = m.inbox
}

func (m *InsightModule) RegisterWorkers(workers *river.Workers) {
	jobs.RegisterWorkers(workers, jobs.Deps{
		Events:                m.infra.Store,
		Notifications:         m.infra.Store,
		ROI:                   m.roi,
		Insights:              m.roi,
		NotificationRetention: m.infra.Config.Jobs.NotificationRetention,
	})
}

// PeriodicJobs returns the module's schedule.
func (m *InsightModule) PeriodicJobs() []*river.PeriodicJob {
	return jobs.PeriodicJobs(jobs.Schedule{
		ROIRecompute:      m.infra.Config.Jobs.ROIRecomputeInterval,
		InsightGeneration: m.infra.Config.Jobs.InsightGenerationInterval,
	})
}

func (m *InsightModule) Shutdown(context.Context) error { return nil }
