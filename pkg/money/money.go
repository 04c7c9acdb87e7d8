package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var centsPerDollar = decimal.NewFromInt(100)

// ParseDollarsToCents converts a decimal dollar amount ("19.99") into integer
// cents. Amounts with sub-cent precision or a negative sign are rejected;
// prices and totals are stored as non-negative cents everywhere else.
func ParseDollarsToCents(value string) (int, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q cannot be negative", value)
	}
	cents := d.Mul(centsPerDollar)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has sub-cent precision", value)
	}
	return int(cents.IntPart()), nil
}

// FormatCents renders integer cents as a two-decimal dollar string.
func FormatCents(cents int) string {
	return decimal.NewFromInt(int64(cents)).Div(centsPerDollar).StringFixed(2)
}
