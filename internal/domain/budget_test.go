package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intp(i int) *int { return &i }

func TestComputeEstimatedCost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		quantity *int
		unitCost *decimal.Decimal
		explicit *decimal.Decimal
		want     string
	}{
		{"product", intp(3), dec("10"), nil, "30"},
		{"explicit wins", intp(3), dec("10"), dec("99"), "99"},
		{"missing unit cost", intp(3), nil, nil, "0"},
		{"missing quantity", nil, dec("10"), nil, "0"},
		{"explicit alone", nil, nil, dec("12.50"), "12.5"},
		{"fractional", intp(2), dec("19.99"), nil, "39.98"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ComputeEstimatedCost(tt.quantity, tt.unitCost, tt.explicit)
			require.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestLineItemPatch_Apply(t *testing.T) {
	t.Parallel()

	base := BudgetLineItem{
		ID:            uuid.New(),
		Category:      "venue",
		ItemName:      "hall",
		Quantity:      intp(1),
		UnitCost:      dec("100"),
		EstimatedCost: decimal.RequireFromString("100"),
		ActualCost:    decimal.RequireFromString("80"),
	}

	t.Run("quantity and unit cost recompute", func(t *testing.T) {
		got := LineItemPatch{Quantity: intp(3), UnitCost: dec("10")}.Apply(base)
		require.True(t, decimal.NewFromInt(30).Equal(got.EstimatedCost))
	})

	t.Run("explicit estimate kept", func(t *testing.T) {
		got := LineItemPatch{Quantity: intp(3), UnitCost: dec("10"), EstimatedCost: dec("99")}.Apply(base)
		require.True(t, decimal.NewFromInt(99).Equal(got.EstimatedCost))
	})

	t.Run("quantity alone uses stored unit cost", func(t *testing.T) {
		got := LineItemPatch{Quantity: intp(4)}.Apply(base)
		require.True(t, decimal.NewFromInt(400).Equal(got.EstimatedCost))
	})

	t.Run("unrelated fields leave estimate", func(t *testing.T) {
		name := "main hall"
		got := LineItemPatch{ItemName: &name}.Apply(base)
		require.Equal(t, "main hall", got.ItemName)
		require.True(t, base.EstimatedCost.Equal(got.EstimatedCost))
		require.True(t, base.ActualCost.Equal(got.ActualCost))
	})
}

func TestNewLineItem(t *testing.T) {
	t.Parallel()

	versionID := uuid.New()
	item := NewLineItem(versionID, LineItemInput{
		Category: "catering", ItemName: "lunch", Quantity: intp(2), UnitCost: dec("100"),
	})
	require.Equal(t, versionID, item.BudgetVersionID)
	require.True(t, decimal.NewFromInt(200).Equal(item.EstimatedCost))
	require.True(t, item.ActualCost.IsZero())

	item = NewLineItem(versionID, LineItemInput{Category: "venue", ItemName: "hall", ActualCost: dec("75.25")})
	require.True(t, decimal.RequireFromString("75.25").Equal(item.ActualCost))
}

func TestLineItemInput_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, LineItemInput{Category: "a", ItemName: "b"}.Validate())

	var ve ValidationError
	require.ErrorAs(t, LineItemInput{ItemName: "b"}.Validate(), &ve)
	require.Equal(t, "category", ve.Field)
	require.Error(t, LineItemInput{Category: "a", ItemName: "b", Quantity: intp(-1)}.Validate())
	require.Error(t, LineItemInput{Category: "a", ItemName: "b", UnitCost: dec("-1")}.Validate())
	require.NoError(t, LineItemInput{Category: "a", ItemName: "b", UnitCost: dec("10.50"), EstimatedCost: dec("21.00")}.Validate())

	tests := []struct {
		field string
		in    LineItemInput
	}{
		{"unitCost", LineItemInput{Category: "a", ItemName: "b", UnitCost: dec("10.005")}},
		{"estimatedCost", LineItemInput{Category: "a", ItemName: "b", EstimatedCost: dec("-5")}},
		{"actualCost", LineItemInput{Category: "a", ItemName: "b", ActualCost: dec("1.999")}},
	}
	for _, tt := range tests {
		require.ErrorAs(t, tt.in.Validate(), &ve, tt.field)
		require.Equal(t, tt.field, ve.Field)
	}
}

func TestBudgetVersion_TotalEstimated(t *testing.T) {
	t.Parallel()

	v := BudgetVersion{LineItems: []BudgetLineItem{
		{EstimatedCost: decimal.NewFromInt(200)},
		{EstimatedCost: decimal.RequireFromString("50.5")},
	}}
	require.True(t, decimal.RequireFromString("250.5").Equal(v.TotalEstimated()))
	require.True(t, (&BudgetVersion{}).TotalEstimated().IsZero())
	require.Equal(t, "Cloned from version 3", CloneNotes(3))
}
