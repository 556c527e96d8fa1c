package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places kept for stored monetary values
const MoneyScale = 2

// RoundMoney rounds a monetary value to two decimal places, half up.
// Negative values round half away from zero, which never occurs for stored
// POS totals since they are clamped at zero first.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// ParseMoney parses a decimal string as returned by the commerce platform.
// An empty string is treated as zero; upstream sends "" for unset sale prices.
func ParseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount string %q: %w", s, err)
	}
	return d, nil
}

// FormatMoney renders a value with exactly two decimals, the form upstream expects
func FormatMoney(d decimal.Decimal) string {
	return RoundMoney(d).StringFixed(MoneyScale)
}
