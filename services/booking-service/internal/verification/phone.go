package verification

import (
	"errors"
	"strings"
)

var ErrInvalidPhone = errors.New("phone must be E.164 or a 10 digit US number")

// NormalizePhone returns the E.164 form of raw. Separators are ignored. A
// leading + keeps the number as given; bare 10 digit and 1-prefixed 11 digit
// numbers are treated as North American.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidPhone
	}
	plus := strings.HasPrefix(raw, "+")
	var b strings.Builder
	for _, r := range strings.TrimPrefix(raw, "+") {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", ErrInvalidPhone
		}
	}
	digits := b.String()

	switch {
	case plus:
		if len(digits) < 8 || len(digits) > 15 || digits[0] == '0' {
			return "", ErrInvalidPhone
		}
		return "+" + digits, nil
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, nil
	default:
		return "", ErrInvalidPhone
	}
}
