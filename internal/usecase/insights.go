package usecase

import (
	"context"

	"github.com/google/uuid"

	"eventfin.io/eventfin/internal/domain"
	"eventfin.io/eventfin/internal/governance/audit"
	"eventfin.io/eventfin/internal/service"
)

// InsightUseCase guards the ROI aggregator with ownership checks.
type InsightUseCase struct {
	events EventGetter
	roi    *service.ROIService
}

// NewInsightUseCase creates a new InsightUseCase.
func NewInsightUseCase(events EventGetter, roi *service.ROIService) *InsightUseCase {
	return &InsightUseCase{events: events, roi: roi}
}

// GetROI returns the event's ROI metrics, computing them on first read.
func (uc *InsightUseCase) GetROI(ctx context.Context, p domain.Principal, eventID uuid.UUID) (*domain.ROIMetrics, error) {
	if _, err := authorizeEvent(ctx, uc.events, p, eventID); err != nil {
		return nil, err
	}
	return uc.roi.GetROI(ctx, eventID)
}

// CalculateROI recomputes the event's ROI metrics.
func (uc *InsightUseCase) CalculateROI(ctx context.Context, p domain.Principal, eventID uuid.UUID) (*domain.ROIMetrics, error) {
	if _, err := authorizeEvent(ctx, uc.events, p, eventID); err != nil {
		return nil, err
	}
	return uc.roi.CalculateROI(ctx, eventID, audit.Actor(p))
}

// GenerateInsights appends new insights for the event and returns them.
func (uc *InsightUseCase) GenerateInsights(ctx context.Context, p domain.Principal, eventID uuid.UUID) ([]domain.Insight, error) {
	if _, err := authorizeEvent(ctx, uc.events, p, eventID); err != nil {
		return nil, err
	}
	return uc.roi.GenerateInsights(ctx, eventID, audit.Actor(p))
}

// ListInsights returns the event's insights, newest first.
func (uc *InsightUseCase) ListInsights(ctx context.Context, p domain.Principal, eventID uuid.UUID) ([]domain.Insight, error) {
	if _, err := authorizeEvent(ctx, uc.events, p, eventID); err != nil {
		return nil, err
	}
	return uc.roi.ListInsights(ctx, eventID)
}
