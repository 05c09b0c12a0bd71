package graph

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-booking/app/dto"
	"github.com/vibast-solutions/ms-go-booking/app/middleware"

	"github.com/graph-gophers/graphql-go"
)

type createAccountArgs struct {
	Email       *string
	Password1   *string
	Password2   *string
	Name        *string
	Surnames    *string
	PhoneNumber *string
}

func (r *Resolver) CreateAccount(ctx context.Context, args createAccountArgs) *accountPayloadResolver {
	return newAccountPayload(r.accounts.CreateAccount(ctx, dto.CreateAccountInput{
		Email:       deref(args.Email),
		Password1:   deref(args.Password1),
		Password2:   deref(args.Password2),
		Name:        deref(args.Name),
		Surnames:    deref(args.Surnames),
		PhoneNumber: deref(args.PhoneNumber),
	}))
}

type editAccountArgs struct {
	Email       *string
	Name        *string
	Surnames    *string
	PhoneNumber *string
	IsVip       *bool
	IsActive    *bool
	IsStaff     *bool
}

func (r *Resolver) EditAccount(ctx context.Context, args editAccountArgs) *accountPayloadResolver {
	return newAccountPayload(r.accounts.EditAccount(ctx, middleware.CallerFromContext(ctx), dto.EditAccountInput{
		Email:       deref(args.Email),
		Name:        deref(args.Name),
		Surnames:    deref(args.Surnames),
		PhoneNumber: deref(args.PhoneNumber),
		IsVip:       args.IsVip,
		IsActive:    args.IsActive,
		IsStaff:     args.IsStaff,
	}))
}

func (r *Resolver) DeactivateAccount(ctx context.Context) *accountPayloadResolver {
	return newAccountPayload(r.accounts.DeactivateAccount(ctx, middleware.CallerFromContext(ctx)))
}

type passwordArgs struct {
	Password1 *string
	Password2 *string
}

func (r *Resolver) ChangePassword(ctx context.Context, args passwordArgs) *accountPayloadResolver {
	return newAccountPayload(r.accounts.ChangePassword(ctx, middleware.CallerFromContext(ctx), deref(args.Password1), deref(args.Password2)))
}

type sendVerificationEmailArgs struct {
	Email  *string
	Action *string
}

func (r *Resolver) SendVerificationEmail(ctx context.Context, args sendVerificationEmailArgs) *sendVerificationEmailPayloadResolver {
	res := r.accounts.RequestVerificationEmail(ctx, middleware.CallerFromContext(ctx), deref(args.Email), deref(args.Action))
	return &sendVerificationEmailPayloadResolver{statusResolver: statusResolver{res.Status}, res: res}
}

type tokenArgs struct {
	Token *string
}

func (r *Resolver) ActivateAccount(ctx context.Context, args tokenArgs) *accountPayloadResolver {
	return newAccountPayload(r.accounts.ActivateAccount(ctx, deref(args.Token)))
}

func (r *Resolver) UpdateEmail(ctx context.Context, args tokenArgs) *updateEmailPayloadResolver {
	res := r.accounts.UpdateEmail(ctx, deref(args.Token))
	return &updateEmailPayloadResolver{statusResolver: statusResolver{res.Status}, res: res}
}

type resetPasswordArgs struct {
	Token     *string
	Password1 *string
	Password2 *string
}

func (r *Resolver) ResetPassword(ctx context.Context, args resetPasswordArgs) *accountPayloadResolver {
	return newAccountPayload(r.accounts.ResetPassword(ctx, deref(args.Token), deref(args.Password1), deref(args.Password2)))
}

type tokenAuthArgs struct {
	Email    string
	Password string
}

func (r *Resolver) TokenAuth(ctx context.Context, args tokenAuthArgs) *tokenAuthPayloadResolver {
	res := r.accounts.TokenAuth(ctx, args.Email, args.Password)
	return &tokenAuthPayloadResolver{statusResolver: statusResolver{res.Status}, token: res.Token}
}

func (r *Resolver) VerifyToken(ctx context.Context, args tokenArgs) *accountPayloadResolver {
	return newAccountPayload(r.accounts.VerifyToken(ctx, deref(args.Token)))
}

func (r *Resolver) CreateAppointmentState(ctx context.Context, args struct{ Name string }) *appointmentStatePayloadResolver {
	res := r.appointments.CreateState(ctx, middleware.CallerFromContext(ctx), args.Name)
	return &appointmentStatePayloadResolver{statusResolver: statusResolver{res.Status}, state: res.AppointmentState}
}

type updateAppointmentStateArgs struct {
	ID   graphql.ID
	Name string
}

func (r *Resolver) UpdateAppointmentState(ctx context.Context, args updateAppointmentStateArgs) *appointmentStatePayloadResolver {
	id, _ := parseID(args.ID)
	res := r.appointments.UpdateState(ctx, middleware.CallerFromContext(ctx), id, args.Name)
	return &appointmentStatePayloadResolver{statusResolver: statusResolver{res.Status}, state: res.AppointmentState}
}

func (r *Resolver) DeleteAppointmentState(ctx context.Context, args struct{ ID graphql.ID }) *appointmentStatePayloadResolver {
	id, _ := parseID(args.ID)
	res := r.appointments.DeleteState(ctx, middleware.CallerFromContext(ctx), id)
	return &appointmentStatePayloadResolver{statusResolver: statusResolver{res.Status}, state: res.AppointmentState}
}

type createAppointmentArgs struct {
	AppointmentDate    *graphql.Time
	AppointmentStateID graphql.ID
}

func (r *Resolver) CreateAppointment(ctx context.Context, args createAppointmentArgs) *appointmentPayloadResolver {
	var date time.Time
	if args.AppointmentDate != nil {
		date = args.AppointmentDate.Time
	}

	stateID, _ := parseID(args.AppointmentStateID)
	res := r.appointments.CreateAppointment(ctx, middleware.CallerFromContext(ctx), date, stateID)
	return &appointmentPayloadResolver{
		statusResolver: statusResolver{res.Status},
		appointment:    res.Appointment,
		states:         r.appointments,
	}
}
