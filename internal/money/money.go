// Package money converts between decimal currency amounts and integer
// minor units (cents).
//
// Amounts cross the API boundary as float64 with two meaningful decimals.
// Everything that sums or compares amounts works in cents so float noise
// never compounds across many expenses.
package money

import (
	"github.com/shopspring/decimal"
)

// Tolerance is the reconciliation band, in cents, used throughout the ledger.
const Tolerance int64 = 1

var (
	hundred = decimal.NewFromInt(100)
	oneCent = decimal.New(Tolerance, -2)
)

// ToCents rounds amount to two decimals (half away from zero) and returns it
// in minor units.
func ToCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Round(2).Shift(2).IntPart()
}

// FromCents converts minor units back to a decimal amount.
func FromCents(cents int64) float64 {
	f, _ := decimal.New(cents, -2).Float64()
	return f
}

// Round2 rounds amount to two decimals.
func Round2(amount float64) float64 {
	f, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return f
}

// DivideCents returns round(amount/n, 2) in cents. n must be positive.
func DivideCents(amount float64, n int) int64 {
	return decimal.NewFromFloat(amount).
		Div(decimal.NewFromInt(int64(n))).
		Round(2).Shift(2).IntPart()
}

// PercentOfCents returns round(amount*pct/100, 2) in cents.
func PercentOfCents(amount, pct float64) int64 {
	return decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(pct)).
		Div(hundred).
		Round(2).Shift(2).IntPart()
}

// Format renders cents as a plain two-decimal string, e.g. "-0.05".
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// Sum adds amounts exactly, without rounding any of them first.
func Sum(amounts ...float64) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total
}

// Close reports whether total is within one cent (Tolerance) of want.
func Close(total decimal.Decimal, want float64) bool {
	return total.Sub(decimal.NewFromFloat(want)).Abs().LessThanOrEqual(oneCent)
}

// FormatAmount renders amount with two decimals, or with as many as it
// needs when it carries sub-cent precision, e.g. "100.016".
func FormatAmount(amount float64) string {
	d := decimal.NewFromFloat(amount)
	if d.Equal(d.Round(2)) {
		return d.StringFixed(2)
	}
	return d.String()
}
