package logger

import "strings"

// RedactPhone masks a phone number for safe logging, keeping the last four
// digits.
// "(555) 123-4567" → "***4567"
// Values with four digits or fewer are fully masked: "1234" → "***"
func RedactPhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) <= 4 {
		return "***"
	}
	return "***" + d[len(d)-4:]
}
