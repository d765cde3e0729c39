// Package format renders money and timestamps the way the console displays them.
package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	NairaSign = "₦"
	NotAvail  = "N/A"

	DateLayout     = "Jan 02, 2006"
	DateTimeLayout = "Jan 02, 2006 15:04"
)

// Naira renders an amount as ₦1,234.50 (two decimals, thousands grouped).
func Naira(d decimal.Decimal) string {
	return money(d, NairaSign)
}

// NGN is Naira for outputs without the naira glyph (PDF core fonts).
func NGN(d decimal.Decimal) string {
	return money(d, "NGN ")
}

func money(d decimal.Decimal, sign string) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(frac)
	return b.String()
}

// Date renders t as "Jan 02, 2006"; zero renders as N/A.
func Date(t time.Time) string {
	if t.IsZero() {
		return NotAvail
	}
	return t.Format(DateLayout)
}

// DateTime renders t as "Jan 02, 2006 15:04"; zero renders as N/A.
func DateTime(t time.Time) string {
	if t.IsZero() {
		return NotAvail
	}
	return t.Format(DateTimeLayout)
}

// DateTimePtr is DateTime for optional timestamps.
func DateTimePtr(t *time.Time) string {
	if t == nil {
		return NotAvail
	}
	return DateTime(*t)
}
