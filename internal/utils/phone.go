package utils

import (
	"regexp"
	"strings"
)

var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

var nonDigit = regexp.MustCompile(`[^\d+]`)

func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(nonDigit.ReplaceAllString(phone, ""))
}

// NormalizePhone strips formatting and forces the +<country><number>
// shape used as the account identity everywhere.
func NormalizePhone(phone string) string {
	normalized := nonDigit.ReplaceAllString(phone, "")
	if !strings.HasPrefix(normalized, "+") {
		// Bare 10-digit numbers are assumed local.
		if len(normalized) == 10 {
			normalized = strings.TrimPrefix(DefaultCountryCode, "+") + normalized
		}
		normalized = "+" + normalized
	}
	return normalized
}

func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

func IsValidOTP(otp string, length int) bool {
	if len(otp) != length {
		return false
	}
	for _, char := range otp {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}
