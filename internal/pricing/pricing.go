// Package pricing handles course and program price arithmetic and display
// formatting. Prices are decimal throughout; float64 is never used for money.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse converts a catalog price string (e.g. "149.00") into a decimal.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", s, err)
	}
	return d, nil
}

// FormatUSD renders a price for display: "$149", "$1,249.50".
// Whole-dollar amounts drop the cents, matching the storefront.
func FormatUSD(d decimal.Decimal) string {
	cents := d.Sub(d.Floor())
	whole := group(d.Floor().StringFixed(0))
	if cents.IsZero() {
		return "$" + whole
	}
	return "$" + whole + "." + cents.StringFixed(2)[2:]
}

// group inserts thousands separators into a non-negative integer string.
func group(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
