package graph

import (
	"context"
	"strconv"

	"github.com/vibast-solutions/ms-go-booking/app/entity"
	"github.com/vibast-solutions/ms-go-booking/app/middleware"
	"github.com/vibast-solutions/ms-go-booking/app/service"

	"github.com/graph-gophers/graphql-go"
	"github.com/sirupsen/logrus"
)

// Resolver is the root resolver for queries, mutations and subscriptions.
type Resolver struct {
	accounts     service.AccountService
	appointments service.AppointmentService
}

func NewResolver(accounts service.AccountService, appointments service.AppointmentService) *Resolver {
	return &Resolver{accounts: accounts, appointments: appointments}
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	account, err := r.accounts.Me(ctx, middleware.CallerFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return &userResolver{account: account}, nil
}

func (r *Resolver) Users(ctx context.Context) ([]*userResolver, error) {
	accounts, err := r.accounts.Users(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list users")
		return nil, service.ErrInternal
	}

	users := make([]*userResolver, 0, len(accounts))
	for _, account := range accounts {
		users = append(users, &userResolver{account: account})
	}
	return users, nil
}

func (r *Resolver) AppointmentState(ctx context.Context, args struct{ ID graphql.ID }) (*appointmentStateResolver, error) {
	id, ok := parseID(args.ID)
	if !ok {
		return nil, nil
	}
	state, err := r.appointments.State(ctx, id)
	if err != nil {
		logrus.WithError(err).Error("Failed to load appointment state")
		return nil, service.ErrInternal
	}
	if state == nil {
		return nil, nil
	}
	return &appointmentStateResolver{state: state}, nil
}

func (r *Resolver) AppointmentStates(ctx context.Context, args struct{ Name *string }) ([]*appointmentStateResolver, error) {
	states, err := r.appointments.States(ctx, deref(args.Name))
	if err != nil {
		logrus.WithError(err).Error("Failed to list appointment states")
		return nil, service.ErrInternal
	}

	resolvers := make([]*appointmentStateResolver, 0, len(states))
	for _, state := range states {
		resolvers = append(resolvers, &appointmentStateResolver{state: state})
	}
	return resolvers, nil
}

type appointmentsArgs struct {
	UserID             *graphql.ID
	AppointmentStateID *graphql.ID
	From               *graphql.Time
	To                 *graphql.Time
}

func (r *Resolver) Appointments(ctx context.Context, args appointmentsArgs) ([]*appointmentResolver, error) {
	// A filter id that matches no record yields no appointments; it must
	// not fall back to the unfiltered listing.
	filter := entity.AppointmentFilter{}
	if args.UserID != nil {
		id, ok := parseID(*args.UserID)
		if !ok {
			return []*appointmentResolver{}, nil
		}
		filter.AccountID = id
	}
	if args.AppointmentStateID != nil {
		id, ok := parseID(*args.AppointmentStateID)
		if !ok {
			return []*appointmentResolver{}, nil
		}
		filter.AppointmentStateID = id
	}
	if args.From != nil {
		filter.From = args.From.Time
	}
	if args.To != nil {
		filter.To = args.To.Time
	}

	appointments, err := r.appointments.Appointments(ctx, filter)
	if err != nil {
		logrus.WithError(err).Error("Failed to list appointments")
		return nil, service.ErrInternal
	}

	resolvers := make([]*appointmentResolver, 0, len(appointments))
	for _, appointment := range appointments {
		resolvers = append(resolvers, &appointmentResolver{appointment: appointment, states: r.appointments})
	}
	return resolvers, nil
}

// parseID reports false for ids that are not positive integers; no record
// can carry such an id.
func parseID(id graphql.ID) (uint64, bool) {
	n, err := strconv.ParseUint(string(id), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

func formatID(id uint64) graphql.ID {
	return graphql.ID(strconv.FormatUint(id, 10))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
