// Package format renders prices and dates for display.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Price renders an amount as whole US dollars with thousands separators,
// e.g. 1500000 -> "$1,500,000". Fractions are rounded half away from zero.
func Price(amount float64) string {
	rounded := math.Round(amount)
	sign := ""
	if rounded < 0 {
		sign = "-"
		rounded = -rounded
	}
	digits := strconv.FormatFloat(rounded, 'f', 0, 64)

	var b strings.Builder
	b.WriteString(sign)
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Date renders "Jan 2, 2006". Zero times render as an empty string.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// LongDate renders "January 2, 2006".
func LongDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

// DateTime renders "Jan 2, 2006, 03:04 PM".
func DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006, 03:04 PM")
}
