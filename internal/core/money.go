// Package core holds the monetary domain of hogar: the cent-exact money
// representation, the interactive amount entry state machine and the
// aggregation engine. Everything in this package is pure computation.
package core

import (
	"strconv"
	"strings"
)

// Amount is an exact number of cents. Monetary values are never stored or
// compared as floating point fractions of the major unit.
type Amount int64

// Cents returns the raw cent count.
func (a Amount) Cents() int64 { return int64(a) }

// String renders the amount with a decimal comma, e.g. 1250 -> "12,50".
func (a Amount) String() string { return FormatAmount(a) }

// ParseAmount converts human-typed text into cents.
//
// It keeps digits plus comma and period and drops every other character.
// The first separator-delimited group is the integer part; any remaining
// groups are concatenated into the fractional part, so "3.4.5" reads as
// "3.45". The fractional part is capped at two digits with half-up
// rounding on the third. Returns ErrInvalidAmount when no digit survives
// the sanitization; it never panics.
//
// Examples:
//
//	ParseAmount("12,5")  -> 1250, nil
//	ParseAmount("12.34") -> 1234, nil
//	ParseAmount("1.005") -> 101, nil (rounds up)
//	ParseAmount("€ 7")   -> 700, nil
func ParseAmount(s string) (Amount, error) {
	groups := splitAmountGroups(s)
	if len(groups) == 0 {
		return 0, ErrInvalidAmount
	}

	intPart := groups[0]
	fracPart := strings.Join(groups[1:], "")
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Guard the *100 below.
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	// First two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	return Amount(iv*100 + fracCents), nil
}

// FormatAmount renders cents as a decimal-comma string with exactly two
// fractional digits. Zero formats as "0,00"; negative amounts carry a
// leading sign. It is the exact left inverse of ParseAmount for every
// amount ParseAmount can produce.
func FormatAmount(a Amount) string {
	cents := int64(a)
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "," + twoDigits(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// FormatForEditing is the initial text for an editable amount field. It
// emits only characters ParseAmount can consume, so resetting a field to
// it never produces an unparseable display.
func FormatForEditing(a Amount) string {
	return FormatAmount(a)
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// splitAmountGroups strips everything but digits and decimal separators
// and returns the separator-delimited digit groups. A nil result means no
// digit and no separator was present at all.
func splitAmountGroups(s string) []string {
	var groups []string
	var cur strings.Builder
	seen := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			cur.WriteRune(r)
			seen = true
		case r == ',' || r == '.':
			groups = append(groups, cur.String())
			cur.Reset()
			seen = true
		}
	}
	if !seen {
		return nil
	}
	return append(groups, cur.String())
}

// sanitizeEntryText reduces raw keystroke input to the canonical editable
// form: digits with at most one decimal separator (the first one typed is
// kept as-is) and at most two fractional digits. Used by AmountEntry so
// the display text always stays within what ParseAmount accepts.
func sanitizeEntryText(raw string) string {
	var b strings.Builder
	sep := rune(0)
	fracDigits := 0
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			if sep != 0 {
				if fracDigits >= 2 {
					continue
				}
				fracDigits++
			}
			b.WriteRune(r)
		case r == ',' || r == '.':
			if sep == 0 {
				sep = r
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
