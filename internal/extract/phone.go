package extract

import (
	"regexp"
	"strings"
)

// phoneRunRE finds phone-looking runs so that other digits in the message
// (a clock time, a year) do not spoil the number.
var phoneRunRE = regexp.MustCompile(`\+?\d[\d\s\-()]{8,}\d`)

// ExtractPhone returns the phone in +7XXXXXXXXXX form.
func ExtractPhone(text string) (string, bool) {
	for _, run := range phoneRunRE.FindAllString(text, -1) {
		if phone, ok := normalizePhone(run); ok {
			return phone, true
		}
	}
	return normalizePhone(text)
}

// normalizePhone keeps digits only: 11 digits with a leading 8 become 7...,
// 10 digits get +7 prepended, anything else is rejected.
func normalizePhone(s string) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	digits := b.String()

	switch len(digits) {
	case 11:
		if digits[0] == '8' {
			digits = "7" + digits[1:]
		}
		if digits[0] == '7' {
			return "+" + digits, true
		}
	case 10:
		return "+7" + digits, true
	}
	return "", false
}

// ValidatePhone checks the +7 prefix followed by exactly ten digits.
func ValidatePhone(phone string) bool {
	rest, ok := strings.CutPrefix(phone, "+7")
	if !ok || len(rest) != 10 {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return false
		}
	}
	return true
}
