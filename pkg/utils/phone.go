package utils

import (
	"errors"
	"strings"

	"github.com/ttacon/libphonenumber"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone formats a phone number as E.164, reading numbers without a
// country code in the given region. An empty input stays empty.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	num, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}
