package checkout

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// NormalizeCardNumber strips everything but digits.
func NormalizeCardNumber(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCardNumber groups the digits of a card number in blocks of four.
func FormatCardNumber(s string) string {
	digits := NormalizeCardNumber(s)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MaskCardNumber keeps only the last four digits.
func MaskCardNumber(s string) string {
	digits := NormalizeCardNumber(s)
	if len(digits) < 4 {
		return "••••"
	}
	return "•••• " + digits[len(digits)-4:]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validCardNumber checks length and the Luhn checksum.
func validCardNumber(digits string) bool {
	if len(digits) < 13 || len(digits) > 19 || !isDigits(digits) {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// parseExpiry returns the month and four-digit year of a card expiry.
func parseExpiry(month, year string) (int, int, bool) {
	month = strings.TrimSpace(month)
	year = strings.TrimSpace(year)
	if !isDigits(month) || !isDigits(year) {
		return 0, 0, false
	}

	m, _ := strconv.Atoi(month)
	y, _ := strconv.Atoi(year)
	if m < 1 || m > 12 {
		return 0, 0, false
	}

	switch len(year) {
	case 2:
		y += 2000
	case 4:
	default:
		return 0, 0, false
	}
	return m, y, true
}

// expired reports whether a card is unusable at now. Cards are valid through the end of their month.
func expired(month, year int, now time.Time) bool {
	endOfMonth := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return !now.Before(endOfMonth)
}
