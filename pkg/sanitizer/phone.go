package sanitizer

import (
	"strings"
	"unicode"
)

// NormalizePhone strips formatting characters so "+1 (555) 010-2030" becomes
// "+15550102030". A leading plus is preserved; everything else non-numeric is
// dropped.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	var result strings.Builder
	for i, r := range phone {
		if r == '+' && i == 0 {
			result.WriteRune(r)
			continue
		}
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}
