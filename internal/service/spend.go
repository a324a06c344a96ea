package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovedSpendReader sums approved expense amounts.
type ApprovedSpendReader interface {
	SumApprovedExpenses(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error)
}

// ActualSpend is an event's actual spend: the sum of its approved
// expenses. ROI calculation, insight generation and the actual-spend
// endpoint all go through here.
func ActualSpend(ctx context.Context, repo ApprovedSpendReader, eventID uuid.UUID) (decimal.Decimal, error) {
	total, err := repo.SumApprovedExpenses(ctx, eventID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum approved expenses for event %s: %w", eventID, err)
	}
	return total, nil
}
