package service

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// CRM payload paths read by the ROI aggregator.
const (
	crmRevenuePath     = "revenueGenerated"
	crmLeadsPath       = "leadsGenerated"
	crmConversionsPath = "conversions"
)

// CRMFigures are the numbers the ROI aggregator takes from a CRM payload.
type CRMFigures struct {
	Revenue     decimal.Decimal
	Leads       int64
	Conversions int64
}

// ParseCRMFigures reads the optional numeric fields of an opaque CRM
// payload. Absent or malformed fields are zero; an invalid document
// yields all zeros. Numeric strings are accepted.
func ParseCRMFigures(data []byte) CRMFigures {
	var f CRMFigures
	f.Revenue = decimal.Zero
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return f
	}
	res := gjson.GetManyBytes(data, crmRevenuePath, crmLeadsPath, crmConversionsPath)
	f.Revenue = decimalField(res[0])
	f.Leads = decimalField(res[1]).Truncate(0).IntPart()
	f.Conversions = decimalField(res[2]).Truncate(0).IntPart()
	return f
}

func decimalField(r gjson.Result) decimal.Decimal {
	var raw string
	switch r.Type {
	case gjson.Number:
		raw = r.Raw
	case gjson.String:
		raw = r.Str
	default:
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
