package services

import (
	"regexp"
	"strings"
)

// Indian mobile numbers: optional +91 / 91 prefix with an optional space or
// dash, then ten digits starting 6-9, not embedded in a longer digit run.
var mobilePattern = regexp.MustCompile(`(?:^|\D)(?:\+?91[\s-]?)?([6-9]\d{9})(?:\D|$)`)

// ExtractMobile returns the bare ten digits of the first mobile number in text.
func ExtractMobile(text string) (string, bool) {
	m := mobilePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// RecipientNumber reduces a phone to the digits-only international form the
// messaging APIs expect. Bare ten-digit mobiles get India's country code.
func RecipientNumber(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) == 10 {
		return "91" + digits
	}
	return digits
}
