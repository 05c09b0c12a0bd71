package service

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

type PhoneValidator interface {
	IsValid(raw string) bool
}

// LibPhoneValidator checks numbers against the libphonenumber metadata.
// Numbers without a leading + are only accepted when a default region is set.
type LibPhoneValidator struct {
	defaultRegion string
}

func NewPhoneValidator(defaultRegion string) *LibPhoneValidator {
	return &LibPhoneValidator{defaultRegion: strings.ToUpper(defaultRegion)}
}

func (v *LibPhoneValidator) IsValid(raw string) bool {
	number, err := phonenumbers.Parse(raw, v.defaultRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(number)
}
