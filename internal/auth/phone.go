package auth

import "strings"

// NormalizePhone canonicalizes a phone number to +<digits>. Korean local
// numbers (leading 0) become +82, a 00 prefix is treated as an
// international escape, and anything else keeps its digits as dialed.
func NormalizePhone(phone string) (string, error) {
	raw := strings.TrimSpace(phone)
	if raw == "" {
		return "", invalidRequest("phoneNumber must not be blank")
	}

	if strings.HasPrefix(raw, "+") {
		return plusDigits(digitsOnly(raw[1:]))
	}

	digits := digitsOnly(raw)
	switch {
	case strings.HasPrefix(digits, "00"):
		return plusDigits(digits[2:])
	case strings.HasPrefix(digits, "82"):
		return plusDigits(digits)
	case strings.HasPrefix(digits, "0"):
		return plusDigits("82" + digits[1:])
	default:
		return plusDigits(digits)
	}
}

func plusDigits(digits string) (string, error) {
	if len(digits) < 8 || len(digits) > 15 {
		return "", invalidRequest("Invalid phoneNumber format")
	}
	return "+" + digits, nil
}

func digitsOnly(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskPhone hides all but the last four digits for display.
func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return "***"
	}
	return "***" + phone[len(phone)-4:]
}
