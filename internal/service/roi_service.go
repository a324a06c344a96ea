// Package service holds the ROI and insight aggregator.
//
// Everything it writes is derived: ROI metrics are upserted per event and
// insights are appended. Both can be recomputed at any time from budgets,
// approved expenses and the CRM payload.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/governance/audit"
	apperrors "eventfin.io/eventfin/internal/pkg/errors"
	"eventfin.io/eventfin/internal/pkg/logger"
	"eventfin.io/eventfin/internal/pkg/money"
	"eventfin.io/eventfin/internal/repository"
)

// DefaultVarianceInsightPercent is the absolute budget variance, in
// percent, above which a budget_variance insight is emitted.
const DefaultVarianceInsightPercent int64 = 10

// ROIStore is what the aggregator reads and writes.
type ROIStore interface {
	ApprovedSpendReader
	GetFinalBudgetVersion(ctx context.Context, eventID uuid.UUID) (*domain.BudgetVersion, error)
	GetCrmSync(ctx context.Context, eventID uuid.UUID) (*domain.CrmSync, error)
	repository.InsightRepository
}

// ROIService computes ROI metrics and budget insights.
type ROIService struct {
	store             ROIStore
	auditLogger       *audit.Logger
	varianceThreshold decimal.Decimal
}

// NewROIService creates the aggregator. A non-positive threshold falls back
// to DefaultVarianceInsightPercent.
func NewROIService(store ROIStore, auditLogger *audit.Logger, varianceThresholdPercent int64) *ROIService {
	if varianceThresholdPercent <= 0 {
		varianceThresholdPercent = DefaultVarianceInsightPercent
	}
	return &ROIService{
		store:             store,
		auditLogger:       auditLogger,
		varianceThreshold: decimal.NewFromInt(varianceThresholdPercent),
	}
}

// finalBudgetTotal returns the final version's estimated total, and false
// when the event has no final version.
func (s *ROIService) finalBudgetTotal(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, bool, error) {
	v, err := s.store.GetFinalBudgetVersion(ctx, eventID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("load final budget for event %s: %w", eventID, err)
	}
	return v.TotalEstimated(), true, nil
}

func (s *ROIService) crmFigures(ctx context.Context, eventID uuid.UUID) (CRMFigures, error) {
	sync, err := s.store.GetCrmSync(ctx, eventID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return ParseCRMFigures(nil), nil
	}
	if err != nil {
		return CRMFigures{}, fmt.Errorf("load crm sync for event %s: %w", eventID, err)
	}
	return ParseCRMFigures(sync.Data), nil
}

// CalculateROI recomputes and upserts the event's ROI metrics. actor is nil
// for scheduled recomputes, which are not written to the activity log.
func (s *ROIService) CalculateROI(ctx context.Context, eventID uuid.UUID, actor *uuid.UUID) (*domain.ROIMetrics, error) {
	actual, err := ActualSpend(ctx, s.store, eventID)
	if err != nil {
		return nil, err
	}
	budget, _, err := s.finalBudgetTotal(ctx, eventID)
	if err != nil {
		return nil, err
	}
	crm, err := s.crmFigures(ctx, eventID)
	if err != nil {
		return nil, err
	}

	m := &domain.ROIMetrics{
		EventID:          eventID,
		TotalBudget:      budget,
		ActualSpend:      actual,
		LeadsGenerated:   crm.Leads,
		Conversions:      crm.Conversions,
		RevenueGenerated: crm.Revenue,
		// Null when nothing has been spent.
		ROIPercent: money.ChangePercent(actual, crm.Revenue),
	}
	if err := s.store.UpsertROIMetrics(ctx, m); err != nil {
		return nil, fmt.Errorf("upsert roi metrics for event %s: %w", eventID, err)
	}

	if actor != nil {
		details := map[string]interface{}{
			"totalBudget": budget.String(),
			"actualSpend": actual.String(),
		}
		if m.ROIPercent.Valid {
			details["roiPercent"] = m.ROIPercent.Decimal.String()
		}
		s.auditLogger.LogActivity(ctx, eventID, actor, domain.ActionROICalculated, details)
	}
	return m, nil
}

// GetROI returns the stored metrics, computing them on first read.
func (s *ROIService) GetROI(ctx context.Context, eventID uuid.UUID) (*domain.ROIMetrics, error) {
	m, err := s.store.GetROIMetrics(ctx, eventID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return s.CalculateROI(ctx, eventID, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get roi metrics for event %s: %w", eventID, err)
	}
	return m, nil
}

// GenerateInsights compares actual spend with the final budget and appends
// a budget_variance insight when the absolute variance exceeds the
// threshold. Repeated calls append again; nothing is deduplicated. No
// insight is produced without a final budget or when its total is zero.
func (s *ROIService) GenerateInsights(ctx context.Context, eventID uuid.UUID, actor *uuid.UUID) ([]domain.Insight, error) {
	actual, err := ActualSpend(ctx, s.store, eventID)
	if err != nil {
		return nil, err
	}
	budget, ok, err := s.finalBudgetTotal(ctx, eventID)
	if err != nil {
		return nil, err
	}

	created := []domain.Insight{}
	if ok && !budget.IsZero() {
		in, err := s.varianceInsight(eventID, budget, actual)
		if err != nil {
			return nil, err
		}
		if in != nil {
			if err := s.store.CreateInsight(ctx, in); err != nil {
				return nil, fmt.Errorf("create insight for event %s: %w", eventID, err)
			}
			created = append(created, *in)
		}
	}

	s.auditLogger.LogActivity(ctx, eventID, actor, domain.ActionInsightsGenerated, map[string]interface{}{
		"count": len(created),
	})
	logger.FromContext(ctx).Debug("insights generated",
		zap.String("event_id", eventID.String()),
		zap.Int("count", len(created)),
	)
	return created, nil
}

func (s *ROIService) varianceInsight(eventID uuid.UUID, budget, actual decimal.Decimal) (*domain.Insight, error) {
	variance := actual.Sub(budget)
	pct, err := money.Percentage(variance, budget)
	if err != nil {
		return nil, err
	}
	if pct.Abs().LessThanOrEqual(s.varianceThreshold) {
		return nil, nil
	}

	severity, title, direction := domain.SeverityInfo, "Under budget", "under"
	if variance.IsPositive() {
		severity, title, direction = domain.SeverityWarning, "Over budget", "over"
	}
	data, err := json.Marshal(domain.VarianceData{
		Budget:          budget,
		Actual:          actual,
		Variance:        variance,
		VariancePercent: pct,
	})
	if err != nil {
		return nil, fmt.Errorf("encode variance data: %w", err)
	}
	return &domain.Insight{
		EventID:  eventID,
		Type:     domain.InsightBudgetVariance,
		Severity: severity,
		Title:    title,
		Description: fmt.Sprintf("Actual spend of %s is %s%% %s the final budget of %s",
			actual.StringFixed(2), pct.Abs().StringFixed(money.PercentPlaces), direction, budget.StringFixed(2)),
		Data: data,
	}, nil
}

// ListInsights returns the event's insights, newest first.
func (s *ROIService) ListInsights(ctx context.Context, eventID uuid.UUID) ([]domain.Insight, error) {
	out, err := s.store.ListInsights(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list insights for event %s: %w", eventID, err)
	}
	return out, nil
}
