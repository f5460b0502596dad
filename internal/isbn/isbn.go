// Package isbn normalizes decoded barcode text and manual keystrokes into ISBN candidates.
package isbn

import "strings"

// ManualLength is the input length at which manual entry triggers a lookup.
const ManualLength = 13

// Normalize strips every character that is not a digit or the letter X.
// A lowercase x is folded to X.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'X' || r == 'x':
			b.WriteByte('X')
		}
	}
	return b.String()
}

// FromScan reports whether decoded scanner text is a complete ISBN.
// A false result is not an error: partial reads are expected and the
// caller simply waits for the next frame.
func FromScan(raw string) (string, bool) {
	candidate := Normalize(raw)
	if !wellFormed(candidate) {
		return "", false
	}
	if len(candidate) == 13 && !hasBooklandPrefix(candidate) {
		return "", false
	}
	return candidate, true
}

// NormalizeManual returns the operator's typed input as the entry field
// would hold it: ISBN characters only, capped at ManualLength.
func NormalizeManual(raw string) string {
	s := Normalize(raw)
	if len(s) > ManualLength {
		s = s[:ManualLength]
	}
	return s
}

// ManualReady reports whether normalized manual input is long enough to
// trigger a lookup. No prefix filter applies to typed input.
func ManualReady(input string) bool {
	return len(input) == ManualLength
}

// wellFormed checks length and the position of X, which may only appear
// as the check character of a 10-character ISBN.
func wellFormed(s string) bool {
	switch len(s) {
	case 10:
		return !strings.Contains(s[:9], "X")
	case 13:
		return !strings.Contains(s, "X")
	default:
		return false
	}
}

func hasBooklandPrefix(s string) bool {
	return strings.HasPrefix(s, "978") || strings.HasPrefix(s, "979")
}
