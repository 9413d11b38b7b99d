package validators

import (
	"strings"
	"unicode"
)

const maxPatientKeyLen = 255

// NormalizePatientKey canonicalises the identifier a patient books under.
// Emails are lower-cased; phone numbers lose their formatting so
// "+63 917-555 0101" and "+639175550101" are the same patient.
func NormalizePatientKey(raw string) (string, bool) {
	key := strings.TrimSpace(raw)
	if key == "" || len(key) > maxPatientKeyLen {
		return "", false
	}

	if at := strings.LastIndex(key, "@"); at >= 0 {
		if at == 0 || at == len(key)-1 || strings.ContainsAny(key, " \t") {
			return "", false
		}
		return strings.ToLower(key), true
	}

	if looksLikePhone(key) {
		var b strings.Builder
		for i, r := range key {
			if unicode.IsDigit(r) || (r == '+' && i == 0) {
				b.WriteRune(r)
			}
		}
		return b.String(), true
	}

	return key, true
}

func looksLikePhone(s string) bool {
	digits := 0
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= 7
}
