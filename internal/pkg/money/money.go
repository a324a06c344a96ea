// Package money holds the decimal arithmetic used for budgets, expenses and ROI.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrDivisionByZero is returned when the denominator is zero.
var ErrDivisionByZero = errors.New("division by zero")

// PercentPlaces is the scale of every persisted percentage.
const PercentPlaces int32 = 2

// CentsPlaces is the scale of every persisted amount.
const CentsPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// FitsCents reports whether d is representable at CentsPlaces without rounding.
func FitsCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(CentsPlaces))
}

// Percentage returns (numerator / denominator) * 100 rounded to PercentPlaces.
func Percentage(numerator, denominator decimal.Decimal) (decimal.Decimal, error) {
	if denominator.IsZero() {
		return decimal.Zero, ErrDivisionByZero
	}
	return numerator.Mul(hundred).DivRound(denominator, PercentPlaces), nil
}

// ChangePercent returns ((to - from) / from) * 100, or an invalid NullDecimal
// when from is zero.
func ChangePercent(from, to decimal.Decimal) decimal.NullDecimal {
	pct, err := Percentage(to.Sub(from), from)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(pct)
}

// Sum adds values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// FromPtr dereferences d, treating nil as zero.
func FromPtr(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
