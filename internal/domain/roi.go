package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ROIMetrics is the derived financial summary of an event. It is always
// recomputable from budgets, approved expenses and the CRM payload.
type ROIMetrics struct {
	EventID          uuid.UUID           `json:"eventId"`
	TotalBudget      decimal.Decimal     `json:"totalBudget"`
	ActualSpend      decimal.Decimal     `json:"actualSpend"`
	LeadsGenerated   int64               `json:"leadsGenerated"`
	Conversions      int64               `json:"conversions"`
	RevenueGenerated decimal.Decimal     `json:"revenueGenerated"`
	ROIPercent       decimal.NullDecimal `json:"roiPercent"`
	CalculatedAt     time.Time           `json:"calculatedAt"`
}

// InsightType classifies an insight.
type InsightType string

const (
	InsightBudgetVariance InsightType = "budget_variance"
)

// InsightSeverity grades an insight.
type InsightSeverity string

const (
	SeverityInfo    InsightSeverity = "info"
	SeverityWarning InsightSeverity = "warning"
)

// Insight is an appended observation about an event.
type Insight struct {
	ID          uuid.UUID       `json:"id"`
	EventID     uuid.UUID       `json:"eventId"`
	Type        InsightType     `json:"type"`
	Severity    InsightSeverity `json:"severity"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// VarianceData is the payload of a budget_variance insight.
type VarianceData struct {
	Budget          decimal.Decimal `json:"budget"`
	Actual          decimal.Decimal `json:"actual"`
	Variance        decimal.Decimal `json:"variance"`
	VariancePercent decimal.Decimal `json:"variancePercent"`
}
