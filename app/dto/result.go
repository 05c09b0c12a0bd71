package dto

import "github.com/vibast-solutions/ms-go-booking/app/entity"

// Status is the OK/KO outcome shared by every mutation result.
type Status struct {
	Result string
	Errors []string
}

func (s Status) Succeeded() bool {
	return s.Result == "OK" && len(s.Errors) == 0
}

type AccountResult struct {
	Email string
	Status
}

type VerificationEmailResult struct {
	Email  string
	Action string
	Status
}

type UpdateEmailResult struct {
	OldEmail string
	NewEmail string
	Status
}

type TokenAuthResult struct {
	Token string
	Status
}

type AppointmentStateResult struct {
	AppointmentState *entity.AppointmentState
	Status
}

type AppointmentResult struct {
	Appointment *entity.Appointment
	Status
}

type CreateAccountInput struct {
	Email       string
	Password1   string
	Password2   string
	Name        string
	Surnames    string
	PhoneNumber string
}

// EditAccountInput identifies the edited account by Email. The flag fields
// are only honoured for staff editors; nil leaves the flag unchanged.
type EditAccountInput struct {
	Email       string
	Name        string
	Surnames    string
	PhoneNumber string
	IsVip       *bool
	IsActive    *bool
	IsStaff     *bool
}
