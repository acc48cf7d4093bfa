// Package report aggregates ledger rows by person and category and renders
// the totals against monthly budgets.
package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order; the first that parses wins.
var dateLayouts = []string{"02/01/2006", "02/01/06", "2006-01-02"}

// ParseDate parses a ledger date cell. Unparseable input reports false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseAmount reads an amount cell written by hand or by the ledger.
//
// With both separators present the dot groups thousands and the comma is
// the decimal mark; a lone comma is the decimal mark; a lone dot stays a
// decimal point. So "1.234" reads as 1.234, not 1234. Anything but digits
// and the first dot is dropped, a minus sign included. Blank or unreadable
// cells read as zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.NewReplacer("€", "", "$", "", " ", "", "\u00a0", "").Replace(s)

	hasComma := strings.Contains(s, ",")
	switch {
	case hasComma && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	var b strings.Builder
	dot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !dot:
			dot = true
			b.WriteRune(r)
		}
	}

	cleaned := strings.TrimSuffix(b.String(), ".")
	if cleaned == "" || cleaned == "." {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return amount
}
