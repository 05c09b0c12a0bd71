package service

import "errors"

const (
	ResultOK = "OK"
	ResultKO = "KO"
)

// Error codes returned to API clients in the errors list of a mutation result.
const (
	CodeAccountDoesNotExist          = "AccountDoesNotExistError"
	CodeUserNotLoggedIn              = "UserNotLoggedInError"
	CodeAccountActive                = "AccountActiveError"
	CodeAccountInactive              = "AccountInactiveError"
	CodeNameRequired                 = "NameRequiredError"
	CodeSurnamesRequired             = "SurnamesRequiredError"
	CodePhoneNumberRequired          = "PhoneNumberRequiredError"
	CodePhoneNumberNotValid          = "PhoneNumberNotValidError"
	CodeEmailRequired                = "EmailRequiredError"
	CodeEmailRegex                   = "EmailRegexError"
	CodeEmailAlreadyRegistered       = "EmailAlreadyRegisteredError"
	CodeEmailNotSent                 = "EmailNotSentError"
	CodePassword1Required            = "Password1RequiredError"
	CodePassword2Required            = "Password2RequiredError"
	CodePasswordRegex                = "PasswordRegexError"
	CodePasswordsNotMatch            = "PasswordsNotMatchError"
	CodeInvalidAction                = "InvalidActionError"
	CodeInvalidCredentials           = "InvalidCredentialsError"
	CodeToken                        = "TokenError"
	CodeTokenRequired                = "TokenRequiredError"
	CodeTokenUsed                    = "TokenUsedError"
	CodeTokenNotMatch                = "TokenNotMatchError"
	CodeExpiredToken                 = "ExpiredTokenError"
	CodeOperationNotAllowed          = "OperationNotAllowedError"
	CodeAppointmentStateDoesNotExist = "AppointmentStateDoesNotExistError"
	CodeAppointmentDateRequired      = "AppointmentDateRequiredError"
	CodeInternal                     = "InternalError"
)

var (
	ErrUserNotLoggedIn = errors.New(CodeUserNotLoggedIn)
	ErrAccountNotFound = errors.New(CodeAccountDoesNotExist)
	ErrInvalidAction   = errors.New(CodeInvalidAction)
	ErrInternal        = errors.New(CodeInternal)
)

// codeError carries a domain error code out of a transaction callback so the
// transaction is rolled back.
type codeError string

func (e codeError) Error() string {
	return string(e)
}
