package utils

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

var CountryCode = "US"

// NormalizePhone reduces a phone number to comparable digits: E.164 without
// the leading "+" when the number parses, bare digits otherwise. The SMS
// mirror stores numbers in whatever shape the SMS provider sent, so lookups
// compare normalized forms on both sides.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if p, err := libphonenumber.Parse(raw, CountryCode); err == nil && libphonenumber.IsValidNumber(p) {
		return strings.TrimPrefix(libphonenumber.Format(p, libphonenumber.E164), "+")
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
