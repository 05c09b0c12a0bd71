// Package types holds the messages of the accounts.AccountService gRPC
// service. They travel with the JSON codec registered in app/grpc.
package types

import (
	"errors"
	"strings"
)

type Status struct {
	Result string   `json:"result"`
	Errors []string `json:"errors"`
}

func (s *Status) GetResult() string {
	if s == nil {
		return ""
	}
	return s.Result
}

func (s *Status) GetErrors() []string {
	if s == nil {
		return nil
	}
	return s.Errors
}

type CreateAccountRequest struct {
	Email       string `json:"email"`
	Password1   string `json:"password1"`
	Password2   string `json:"password2"`
	Name        string `json:"name"`
	Surnames    string `json:"surnames"`
	PhoneNumber string `json:"phone_number"`
}

func (r *CreateAccountRequest) GetEmail() string {
	if r == nil {
		return ""
	}
	return r.Email
}

type AccountResponse struct {
	Email  string  `json:"email"`
	Status *Status `json:"status"`
}

func (r *AccountResponse) GetEmail() string {
	if r == nil {
		return ""
	}
	return r.Email
}

func (r *AccountResponse) GetStatus() *Status {
	if r == nil {
		return nil
	}
	return r.Status
}

type SendVerificationEmailRequest struct {
	Email  string `json:"email"`
	Action string `json:"action"`
}

func (r *SendVerificationEmailRequest) GetEmail() string {
	if r == nil {
		return ""
	}
	return r.Email
}

func (r *SendVerificationEmailRequest) GetAction() string {
	if r == nil {
		return ""
	}
	return r.Action
}

func (r *SendVerificationEmailRequest) Validate() error {
	if strings.TrimSpace(r.GetAction()) == "" {
		return errors.New("action is required")
	}

	return nil
}

type SendVerificationEmailResponse struct {
	Email  string  `json:"email"`
	Action string  `json:"action"`
	Status *Status `json:"status"`
}

func (r *SendVerificationEmailResponse) GetStatus() *Status {
	if r == nil {
		return nil
	}
	return r.Status
}

// TokenRequest carries the emailed token of ActivateAccount and UpdateEmail.
type TokenRequest struct {
	Token string `json:"token"`
}

func (r *TokenRequest) GetToken() string {
	if r == nil {
		return ""
	}
	return r.Token
}

type UpdateEmailResponse struct {
	OldEmail string  `json:"old_email"`
	NewEmail string  `json:"new_email"`
	Status   *Status `json:"status"`
}

func (r *UpdateEmailResponse) GetNewEmail() string {
	if r == nil {
		return ""
	}
	return r.NewEmail
}

func (r *UpdateEmailResponse) GetStatus() *Status {
	if r == nil {
		return nil
	}
	return r.Status
}

type ResetPasswordRequest struct {
	Token     string `json:"token"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

func (r *ResetPasswordRequest) GetToken() string {
	if r == nil {
		return ""
	}
	return r.Token
}

type Empty struct{}

type MeResponse struct {
	ID          uint64 `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Surnames    string `json:"surnames"`
	PhoneNumber string `json:"phone_number"`
	IsActive    bool   `json:"is_active"`
	IsStaff     bool   `json:"is_staff"`
	IsVip       bool   `json:"is_vip"`
}

func (r *MeResponse) GetEmail() string {
	if r == nil {
		return ""
	}
	return r.Email
}
