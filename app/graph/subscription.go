package graph

import (
	"context"
)

// OnAppointmentStateAction streams appointment state changes for one action
// until the subscriber goes away.
func (r *Resolver) OnAppointmentStateAction(ctx context.Context, args struct{ Action string }) (<-chan *appointmentStateEventResolver, error) {
	actions, err := r.appointments.SubscribeStateActions(ctx, args.Action)
	if err != nil {
		return nil, err
	}

	out := make(chan *appointmentStateEventResolver)
	go func() {
		defer close(out)
		for action := range actions {
			select {
			case out <- &appointmentStateEventResolver{event: action}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
