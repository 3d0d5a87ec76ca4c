// Package core holds the domain model shared by the repository, the
// services and the HTTP boundary: members, contributions, year summaries
// and the money helpers.
//
// Amounts are exact decimals end to end: parsed from caller strings,
// summed as decimals and persisted as decimal text, never as binary
// floating point, so repeated recompute cycles cannot drift.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a contribution amount from its string form.
//
// The amount must be a plain decimal ("15000" or "15000.50") and must not
// be negative. Zero is accepted: a symbolic zero-amount contribution is a
// legitimate record.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q, expected format like '15000.50'", ErrValidation, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	}
	return d, nil
}

// FormatAriary renders the integer part of an amount with space-separated
// thousands groups and the currency suffix, e.g. "1 234 567 Ariary".
// Used for the auto-generated closing notes.
func FormatAriary(d decimal.Decimal) string {
	intPart := d.Truncate(0).String()
	neg := strings.HasPrefix(intPart, "-")
	digits := strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	n := len(digits)
	for i, c := range digits {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String() + " Ariary"
	}
	return b.String() + " Ariary"
}

// WholeAmount renders an amount as an integer-valued string, truncating
// any fraction. The member-total listing displays sums this way while the
// stored contribution amounts keep full precision.
func WholeAmount(d decimal.Decimal) string {
	return d.Truncate(0).String()
}
