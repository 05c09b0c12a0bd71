package service

import (
	"regexp"
	"strings"

	"github.com/vibast-solutions/ms-go-booking/config"

	validation "github.com/go-ozzo/ozzo-validation"
)

var emailPattern = regexp.MustCompile(`(^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$)`)

// CanonicalizeEmail is the form used for uniqueness checks and lookups.
func CanonicalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// fieldErrors accumulates one code per failing field.
type fieldErrors []string

func (f *fieldErrors) check(value interface{}, rules ...validation.Rule) bool {
	if err := validation.Validate(value, rules...); err != nil {
		*f = append(*f, err.Error())
		return false
	}
	return true
}

func (f *fieldErrors) add(code string) {
	*f = append(*f, code)
}

func (f fieldErrors) empty() bool {
	return len(f) == 0
}

func required(code string) validation.Rule {
	return validation.Required.Error(code)
}

func (f *fieldErrors) email(email string) bool {
	return f.check(strings.TrimSpace(email),
		required(CodeEmailRequired),
		validation.Match(emailPattern).Error(CodeEmailRegex),
	)
}

func (f *fieldErrors) text(value, code string) bool {
	return f.check(strings.TrimSpace(value), required(code))
}

func (f *fieldErrors) phone(phone string, validator PhoneValidator) bool {
	return f.check(strings.TrimSpace(phone),
		required(CodePhoneNumberRequired),
		validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if !validator.IsValid(s) {
				return codeError(CodePhoneNumberNotValid)
			}
			return nil
		}),
	)
}

// passwords applies the shared rules of the password1/password2 pair. Both
// required checks are reported independently; the policy is only checked
// when the two values match.
func (f *fieldErrors) passwords(password1, password2 string, policy config.PasswordPolicy) {
	f.text(password1, CodePassword1Required)
	f.text(password2, CodePassword2Required)

	if password1 != password2 {
		f.add(CodePasswordsNotMatch)
		return
	}
	f.check(password1, validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if policy.Validate(s) != nil {
			return codeError(CodePasswordRegex)
		}
		return nil
	}))
}
