// Package phone normalizes Kenyan mobile numbers into the 254XXXXXXXXX form
// expected by the mobile-money gateway.
package phone

import (
	"errors"
	"strings"
)

const (
	countryCode     = "254"
	canonicalLength = 12
)

// ErrInvalid is returned for any input that is not a Kenyan mobile number.
var ErrInvalid = errors.New("invalid phone number")

// Normalize accepts 0XXXXXXXXX, 254XXXXXXXXX and +254XXXXXXXXX (spaces and
// hyphens ignored) and returns the 12 character canonical form.
func Normalize(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	value = strings.NewReplacer(" ", "", "-", "").Replace(value)
	if value == "" {
		return "", ErrInvalid
	}

	switch {
	case strings.HasPrefix(value, "+"+countryCode):
		value = value[1:]
	case strings.HasPrefix(value, "0"):
		value = countryCode + value[1:]
	case strings.HasPrefix(value, countryCode):
	default:
		return "", ErrInvalid
	}

	if len(value) != canonicalLength || !allDigits(value) {
		return "", ErrInvalid
	}
	return value, nil
}

// Valid reports whether raw normalizes cleanly.
func Valid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}

// Mask hides all but the last three digits for logging.
func Mask(value string) string {
	if len(value) <= 3 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-3) + value[len(value)-3:]
}

func allDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
