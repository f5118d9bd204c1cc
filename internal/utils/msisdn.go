package utils

import (
	"strings"
)

var msisdnSeparators = strings.NewReplacer("-", "", " ", "", "(", "", ")", "", ".", "")

// SanitizeMSISDN strips the separators users commonly type into phone numbers.
// It does not validate the number; "+15551234567" and "+1 555-123-4567" map to the same key.
func SanitizeMSISDN(msisdn string) string {
	return msisdnSeparators.Replace(strings.TrimSpace(msisdn))
}
