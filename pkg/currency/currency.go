// Package currency formats monetary amounts for display.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// USD formats an amount as en-US US dollars with two fraction digits and
// comma-grouped thousands, e.g. $1,234.50.
func USD(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	fixed := amount.Abs().StringFixed(2)

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')

	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
		if len(intPart) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(intPart); i += 3 {
		b.WriteString(intPart[i : i+3])
		if i+3 < len(intPart) {
			b.WriteByte(',')
		}
	}

	b.WriteByte('.')
	b.WriteString(fracPart)
	return b.String()
}
