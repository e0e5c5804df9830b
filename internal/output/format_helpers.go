package output

import "github.com/shopspring/decimal"

// FormatCurrency formats a decimal as whole-dollar USD.
// Kept here so it can be reused by multiple formatters and unit tested in isolation.
func FormatCurrency(amount decimal.Decimal) string { return "$" + amount.StringFixed(0) }

// FormatPercent formats a fractional rate as a percentage with 1 decimal.
func FormatPercent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

// FormatRatio formats a portfolio:margin ratio as "N.NN:1".
func FormatRatio(ratio decimal.Decimal) string { return ratio.StringFixed(2) + ":1" }
