// Package report shapes ledger results for display: labels, sorting,
// performance colours, profit/loss split and text or Org-mode summaries.
// Sums are computed in float64 by the ledger and rounded to cents here.
package report

import (
	"github.com/shopspring/decimal"
)

// Round returns x rounded half away from zero to cents.
func Round(x float64) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(2)
}

// Cents rounds x to two decimals.
func Cents(x float64) float64 {
	return Round(x).InexactFloat64()
}

// Money formats an amount as "123.45 USD".
func Money(x float64, currency string) string {
	s := Round(x).StringFixed(2)
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// Percent formats a percentage with an explicit sign, e.g. "+1.50%".
func Percent(p float64) string {
	d := Round(p)
	s := d.StringFixed(2) + "%"
	if !d.IsNegative() {
		return "+" + s
	}
	return s
}
