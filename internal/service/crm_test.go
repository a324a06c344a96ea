package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseCRMFigures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		data        string
		revenue     string
		leads       int64
		conversions int64
	}{
		{name: "all fields", data: `{"revenueGenerated": 1234.56, "leadsGenerated": 10, "conversions": 3}`, revenue: "1234.56", leads: 10, conversions: 3},
		{name: "numeric strings", data: `{"revenueGenerated": "99.5", "leadsGenerated": "4"}`, revenue: "99.5", leads: 4},
		{name: "missing fields", data: `{"other": true}`, revenue: "0"},
		{name: "malformed values", data: `{"revenueGenerated": "lots", "leadsGenerated": [1], "conversions": null}`, revenue: "0"},
		{name: "invalid json", data: `{"revenueGenerated": `, revenue: "0"},
		{name: "empty", data: ``, revenue: "0"},
		{name: "fractional counts truncate", data: `{"leadsGenerated": 7.9}`, revenue: "0", leads: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseCRMFigures([]byte(tt.data))
			assert.True(t, decimal.RequireFromString(tt.revenue).Equal(got.Revenue), got.Revenue.String())
			assert.Equal(t, tt.leads, got.Leads)
			assert.Equal(t, tt.conversions, got.Conversions)
		})
	}
}
