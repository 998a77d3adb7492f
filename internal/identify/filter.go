package identify

import (
	"strings"
	"unicode/utf8"
)

// OTPLength is the number of digits of a one-time passcode.
const OTPLength = 6

// FilterOTP drops every non-digit rune and keeps at most OTPLength digits.
func FilterOTP(s string) string {
	var b strings.Builder
	b.Grow(OTPLength)
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		n++
		if n == OTPLength {
			break
		}
	}
	return b.String()
}

// IsCompleteOTP reports whether s is exactly OTPLength ASCII digits.
func IsCompleteOTP(s string) bool {
	return utf8.RuneCountInString(s) == OTPLength && FilterOTP(s) == s
}

// E164 joins a dial code such as "+91" and a formatted local number into
// "+<digits>". Formatting characters in phone are ignored.
func E164(dialCode, phone string) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, part := range []string{dialCode, phone} {
		for _, r := range part {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
	}
	if b.Len() == 1 {
		return ""
	}
	return b.String()
}
