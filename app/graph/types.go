package graph

import (
	"context"

	"github.com/vibast-solutions/ms-go-booking/app/dto"
	"github.com/vibast-solutions/ms-go-booking/app/entity"
	"github.com/vibast-solutions/ms-go-booking/app/service"

	"github.com/graph-gophers/graphql-go"
	"github.com/sirupsen/logrus"
)

type userResolver struct {
	account *entity.Account
}

func (u *userResolver) ID() graphql.ID      { return formatID(u.account.ID) }
func (u *userResolver) Email() string       { return u.account.Email }
func (u *userResolver) Name() string        { return u.account.Name }
func (u *userResolver) Surnames() string    { return u.account.Surnames }
func (u *userResolver) PhoneNumber() string { return u.account.PhoneNumber }
func (u *userResolver) IsActive() bool      { return u.account.IsActive }
func (u *userResolver) IsStaff() bool       { return u.account.IsStaff }
func (u *userResolver) IsVip() bool         { return u.account.IsVip }
func (u *userResolver) DateJoined() graphql.Time {
	return graphql.Time{Time: u.account.CreatedAt}
}

type appointmentStateResolver struct {
	state *entity.AppointmentState
}

func (s *appointmentStateResolver) ID() graphql.ID { return formatID(s.state.ID) }
func (s *appointmentStateResolver) Name() string   { return s.state.Name }

type stateLookup interface {
	State(ctx context.Context, id uint64) (*entity.AppointmentState, error)
}

type appointmentResolver struct {
	appointment *entity.Appointment
	states      stateLookup
}

func (a *appointmentResolver) ID() graphql.ID     { return formatID(a.appointment.ID) }
func (a *appointmentResolver) UserID() graphql.ID { return formatID(a.appointment.AccountID) }
func (a *appointmentResolver) AppointmentDate() graphql.Time {
	return graphql.Time{Time: a.appointment.AppointmentDate}
}

func (a *appointmentResolver) AppointmentState(ctx context.Context) (*appointmentStateResolver, error) {
	state, err := a.states.State(ctx, a.appointment.AppointmentStateID)
	if err != nil {
		logrus.WithError(err).WithField("appointment_id", a.appointment.ID).Error("Failed to load appointment state")
		return nil, service.ErrInternal
	}
	if state == nil {
		return nil, nil
	}
	return &appointmentStateResolver{state: state}, nil
}

// statusResolver provides the result and errors fields shared by every payload.
type statusResolver struct {
	status dto.Status
}

func (s statusResolver) Result() string { return s.status.Result }

func (s statusResolver) Errors() []string {
	if s.status.Errors == nil {
		return []string{}
	}
	return s.status.Errors
}

type accountPayloadResolver struct {
	statusResolver
	email string
}

func newAccountPayload(res dto.AccountResult) *accountPayloadResolver {
	return &accountPayloadResolver{statusResolver: statusResolver{res.Status}, email: res.Email}
}

func (p *accountPayloadResolver) Email() *string { return optional(p.email) }

type sendVerificationEmailPayloadResolver struct {
	statusResolver
	res dto.VerificationEmailResult
}

func (p *sendVerificationEmailPayloadResolver) Email() *string  { return optional(p.res.Email) }
func (p *sendVerificationEmailPayloadResolver) Action() *string { return optional(p.res.Action) }

type updateEmailPayloadResolver struct {
	statusResolver
	res dto.UpdateEmailResult
}

func (p *updateEmailPayloadResolver) OldEmail() *string { return optional(p.res.OldEmail) }
func (p *updateEmailPayloadResolver) NewEmail() *string { return optional(p.res.NewEmail) }

type tokenAuthPayloadResolver struct {
	statusResolver
	token string
}

func (p *tokenAuthPayloadResolver) Token() *string { return optional(p.token) }

type appointmentStatePayloadResolver struct {
	statusResolver
	state *entity.AppointmentState
}

func (p *appointmentStatePayloadResolver) AppointmentStateNode() *appointmentStateResolver {
	if p.state == nil {
		return nil
	}
	return &appointmentStateResolver{state: p.state}
}

type appointmentPayloadResolver struct {
	statusResolver
	appointment *entity.Appointment
	states      stateLookup
}

func (p *appointmentPayloadResolver) Appointment() *appointmentResolver {
	if p.appointment == nil {
		return nil
	}
	return &appointmentResolver{appointment: p.appointment, states: p.states}
}

type appointmentStateEventResolver struct {
	event service.AppointmentStateAction
}

func (e *appointmentStateEventResolver) Action() string { return e.event.Action }

func (e *appointmentStateEventResolver) AppointmentStateNode() *appointmentStateResolver {
	return &appointmentStateResolver{state: &entity.AppointmentState{
		ID:   e.event.State.ID,
		Name: e.event.State.Name,
	}}
}
