// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion  = "BR"
	countryCode    = "55"
	minGatewayLen  = 12
	localNumberMax = 9
)

// ErrTooShort is returned when a number has fewer digits than the gateway accepts.
var ErrTooShort = errors.New("phone number must have at least 12 digits including country code")

// Digits strips everything but ASCII digits.
func Digits(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeBR builds the gateway number: 55 + area code + local number.
// Numbers that already carry the area code or the country code are not
// prefixed twice.
func NormalizeBR(areaCode, number string) (string, error) {
	area := Digits(areaCode)
	local := Digits(number)

	var full string
	switch {
	case strings.HasPrefix(local, countryCode) && len(local) >= minGatewayLen:
		full = local
	case len(local) > localNumberMax:
		full = countryCode + local
	default:
		full = countryCode + area + local
	}

	if len(full) < minGatewayLen {
		return "", ErrTooShort
	}
	return full, nil
}

// Display formats a normalized number for humans, e.g. +55 11 98765-4321.
// Falls back to the raw digits when the number cannot be parsed.
func Display(normalized string) string {
	digits := Digits(normalized)
	if digits == "" {
		return ""
	}
	number, err := phonenumbers.Parse("+"+digits, defaultRegion)
	if err != nil {
		return digits
	}
	return phonenumbers.Format(number, phonenumbers.INTERNATIONAL)
}
