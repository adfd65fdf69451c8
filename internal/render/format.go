// Package render turns a finished report into human-readable artifacts: a
// text summary, SVG charts and an HTML dashboard.
package render

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups thousands the same way regardless of the host locale.
var printer = message.NewPrinter(language.BritishEnglish)

// Int formats n with thousand separators.
func Int(n int) string {
	return printer.Sprintf("%d", n)
}

// Money formats d rounded to two places with thousand separators and the
// given currency symbol.
func Money(d decimal.Decimal, currency string) string {
	rounded := d.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	fixed := rounded.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + currency + groupDigits(whole) + "." + frac
}

// groupDigits inserts separators into a string of digits. It works on the
// text so amounts beyond int64 keep every digit.
func groupDigits(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Compact formats an axis value with a k/M/B suffix.
func Compact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return trimZero(printer.Sprintf("%.1f", v/1e9)) + "B"
	case abs >= 1e6:
		return trimZero(printer.Sprintf("%.1f", v/1e6)) + "M"
	case abs >= 1e3:
		return trimZero(printer.Sprintf("%.1f", v/1e3)) + "k"
	case abs == math.Trunc(abs):
		return printer.Sprintf("%.0f", v)
	default:
		return trimZero(printer.Sprintf("%.2f", v))
	}
}

func trimZero(s string) string {
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
