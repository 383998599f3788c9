package validation

import "strings"

// SanitizePhone strips every non-digit character from the input. The
// sanitized form is what gets validated and stored, so "98765 43210"
// and "9876543210" refer to the same account.
func SanitizePhone(raw string) string {
	return stripNonDigits(raw)
}

// SanitizeAadhaar strips every non-digit character from an Aadhaar input.
func SanitizeAadhaar(raw string) string {
	return stripNonDigits(raw)
}

// IsValidPhoneNumber reports whether the sanitized input is a valid Indian
// mobile number: exactly 10 digits, not starting with 0.
func IsValidPhoneNumber(raw string) bool {
	digits := stripNonDigits(raw)
	if len(digits) != 10 {
		return false
	}
	return digits[0] != '0'
}

// IsValidAadhaarNumber reports whether the sanitized input is exactly 12
// digits. No checksum is applied.
func IsValidAadhaarNumber(raw string) bool {
	return len(stripNonDigits(raw)) == 12
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
