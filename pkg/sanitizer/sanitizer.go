// Package sanitizer normalizes free-text guest input before validation.
// It trims, collapses internal whitespace and strips characters that have
// no business appearing in names or phone numbers.
package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses runs of whitespace into a
// single space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeGuestName keeps letters, marks, spaces, hyphens and apostrophes.
func NormalizeGuestName(name string) string {
	name = TrimAndNormalize(name)
	if name == "" {
		return ""
	}

	var result strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsMark(r) || r == ' ' || r == '-' || r == '\'' || r == '.' {
			result.WriteRune(r)
		}
	}
	return TrimAndNormalize(result.String())
}
