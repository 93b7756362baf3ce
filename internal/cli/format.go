// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney formats a major-unit amount in the given ISO currency,
// e.g. 28347 INR -> "₹28,347.00". Unknown codes fall back to "28347.00 XYZ".
func FormatMoney(amount float64, currency string) string {
	cur := money.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amount, currency)
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// FormatMoneyCompact drops the minor units for large amounts,
// e.g. 123456.78 USD -> "$123,457".
func FormatMoneyCompact(amount float64, currency string) string {
	if math.Abs(amount) < 1000 {
		return FormatMoney(amount, currency)
	}
	cur := money.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		return fmt.Sprintf("%s %s", FormatNumber(int64(math.Round(amount))), currency)
	}
	whole := *cur
	whole.Fraction = 0
	return whole.Formatter().Format(int64(math.Round(amount)))
}

// FormatMoneyDelta formats a signed change in money, e.g. "+$3,000.00".
func FormatMoneyDelta(delta float64, currency string) string {
	if delta >= 0 {
		return "+" + FormatMoney(delta, currency)
	}
	return "-" + FormatMoney(-delta, currency)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatRate formats a value already expressed in percent, e.g. 66.7 -> "66.7%".
func FormatRate(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatRating renders a 0-5 rating, with 0 meaning unrated.
func FormatRating(r float64) string {
	if r <= 0 {
		return "-"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// FormatAge formats how long ago t was relative to now.
// e.g., 45s -> "45s ago", 3m10s -> "3m ago"
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	secs := int64(now.Sub(t).Seconds())
	if secs < 1 {
		return "just now"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm ago", hours, mins)
	case mins > 0:
		return fmt.Sprintf("%dm ago", mins)
	default:
		return fmt.Sprintf("%ds ago", secs)
	}
}

// Truncate shortens s to n runes, marking the cut with "…".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
