// Package phone normalizes phone numbers to E.164.
package phone

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used to parse numbers written without a country code.
const DefaultRegion = "ID"

// Normalize parses a phone number, assuming Indonesia when no country code is
// given, and returns it in E.164 form.
func Normalize(raw string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), DefaultRegion)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%q is not a valid phone number", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
