package components

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// NotAvailable is shown for undefined values.
const NotAvailable = "n/a"

// FormatFloat formats v with prec decimals. NaN renders as NotAvailable.
func FormatFloat(v float64, prec int) string {
	if math.IsNaN(v) {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// FormatPercent formats a ratio in [0, 1] as a percentage.
func FormatPercent(ratio float64) string {
	if math.IsNaN(ratio) {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatMoney formats an amount with two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatPValue formats a p-value, collapsing tiny values.
func FormatPValue(p float64) string {
	switch {
	case math.IsNaN(p):
		return NotAvailable
	case p < 0.001:
		return "<0.001"
	default:
		return strconv.FormatFloat(p, 'f', 3, 64)
	}
}

// FormatMinutes formats a duration as whole minutes.
func FormatMinutes(d time.Duration) string {
	return strconv.FormatFloat(d.Minutes(), 'f', -1, 64) + "m"
}

// FormatSigned formats an integer with an explicit sign.
func FormatSigned(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
