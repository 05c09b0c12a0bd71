package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-booking/app/dto"
	"github.com/vibast-solutions/ms-go-booking/app/entity"
	"github.com/vibast-solutions/ms-go-booking/app/events"
	"github.com/vibast-solutions/ms-go-booking/app/repository"

	"github.com/sirupsen/logrus"
)

// Appointment state actions, broadcast on topic appointment_state_<action>.
const (
	StateActionCreate = "CREATE_APPOINTMENT_STATE"
	StateActionUpdate = "UPDATE_APPOINTMENT_STATE"
	StateActionDelete = "DELETE_APPOINTMENT_STATE"
)

func StateActionTopic(action string) string {
	return "appointment_state_" + action
}

func validStateAction(action string) bool {
	switch action {
	case StateActionCreate, StateActionUpdate, StateActionDelete:
		return true
	}
	return false
}

type AppointmentStateNode struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type AppointmentStateAction struct {
	Action string               `json:"action"`
	State  AppointmentStateNode `json:"appointment_state_node"`
}

type AppointmentService interface {
	CreateState(ctx context.Context, caller *entity.Account, name string) dto.AppointmentStateResult
	UpdateState(ctx context.Context, caller *entity.Account, id uint64, name string) dto.AppointmentStateResult
	DeleteState(ctx context.Context, caller *entity.Account, id uint64) dto.AppointmentStateResult
	State(ctx context.Context, id uint64) (*entity.AppointmentState, error)
	States(ctx context.Context, name string) ([]*entity.AppointmentState, error)
	SubscribeStateActions(ctx context.Context, action string) (<-chan AppointmentStateAction, error)
	CreateAppointment(ctx context.Context, caller *entity.Account, date time.Time, stateID uint64) dto.AppointmentResult
	Appointments(ctx context.Context, filter entity.AppointmentFilter) ([]*entity.Appointment, error)
}

type appointmentService struct {
	db       *sql.DB
	bus      events.Bus
	observer MutationObserver
	now      func() time.Time
}

type AppointmentServiceOption func(*appointmentService)

func WithAppointmentObserver(observer MutationObserver) AppointmentServiceOption {
	return func(s *appointmentService) {
		s.observer = observer
	}
}

func WithAppointmentClock(now func() time.Time) AppointmentServiceOption {
	return func(s *appointmentService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewAppointmentService(db *sql.DB, bus events.Bus, opts ...AppointmentServiceOption) AppointmentService {
	svc := &appointmentService{
		db:  db,
		bus: bus,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *appointmentService) CreateState(ctx context.Context, caller *entity.Account, name string) dto.AppointmentStateResult {
	const op = "createAppointmentState"

	var errs fieldErrors
	if code := staffCode(caller); code != "" {
		errs.add(code)
	}
	errs.text(name, CodeNameRequired)
	if !errs.empty() {
		return s.stateResult(op, nil, errs...)
	}

	now := s.now()
	state := &entity.AppointmentState{
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repository.NewAppointmentRepository(s.db).CreateState(ctx, state); err != nil {
		logrus.WithError(err).Error("Failed to create appointment state")
		return s.stateResult(op, nil, CodeInternal)
	}

	logrus.WithField("state_id", state.ID).Info("Appointment state created")
	s.broadcast(ctx, StateActionCreate, state)
	return s.stateResult(op, state)
}

func (s *appointmentService) UpdateState(ctx context.Context, caller *entity.Account, id uint64, name string) dto.AppointmentStateResult {
	const op = "updateAppointmentState"

	var errs fieldErrors
	if code := staffCode(caller); code != "" {
		errs.add(code)
	}
	errs.text(name, CodeNameRequired)
	if !errs.empty() {
		return s.stateResult(op, nil, errs...)
	}

	var state *entity.AppointmentState
	err := s.inTx(ctx, func(repo *repository.AppointmentRepository) error {
		var err error
		state, err = repo.FindStateByID(ctx, id)
		if err != nil {
			return err
		}
		if state == nil {
			return codeError(CodeAppointmentStateDoesNotExist)
		}

		state.Name = strings.TrimSpace(name)
		return repo.UpdateState(ctx, state)
	})
	if err != nil {
		return s.stateResult(op, nil, stateFailure(err, "Failed to update appointment state"))
	}

	logrus.WithField("state_id", state.ID).Info("Appointment state updated")
	s.broadcast(ctx, StateActionUpdate, state)
	return s.stateResult(op, state)
}

func (s *appointmentService) DeleteState(ctx context.Context, caller *entity.Account, id uint64) dto.AppointmentStateResult {
	const op = "deleteAppointmentState"

	if code := staffCode(caller); code != "" {
		return s.stateResult(op, nil, code)
	}

	var state *entity.AppointmentState
	err := s.inTx(ctx, func(repo *repository.AppointmentRepository) error {
		var err error
		state, err = repo.FindStateByID(ctx, id)
		if err != nil {
			return err
		}
		if state == nil {
			return codeError(CodeAppointmentStateDoesNotExist)
		}

		_, err = repo.DeleteState(ctx, id)
		return err
	})
	if err != nil {
		return s.stateResult(op, nil, stateFailure(err, "Failed to delete appointment state"))
	}

	logrus.WithField("state_id", state.ID).Info("Appointment state deleted")
	s.broadcast(ctx, StateActionDelete, state)
	return s.stateResult(op, state)
}

func (s *appointmentService) State(ctx context.Context, id uint64) (*entity.AppointmentState, error) {
	return repository.NewAppointmentRepository(s.db).FindStateByID(ctx, id)
}

func (s *appointmentService) States(ctx context.Context, name string) ([]*entity.AppointmentState, error) {
	return repository.NewAppointmentRepository(s.db).ListStates(ctx, strings.TrimSpace(name))
}

// SubscribeStateActions streams appointment state changes of one action
// until ctx is cancelled.
func (s *appointmentService) SubscribeStateActions(ctx context.Context, action string) (<-chan AppointmentStateAction, error) {
	if !validStateAction(action) {
		return nil, ErrInvalidAction
	}

	in, err := s.bus.Subscribe(ctx, StateActionTopic(action))
	if err != nil {
		return nil, err
	}

	out := make(chan AppointmentStateAction)
	go func() {
		defer close(out)
		for event := range in {
			var payload AppointmentStateAction
			if err := event.Decode(&payload); err != nil {
				logrus.WithError(err).WithField("topic", event.Topic).Warn("Dropping malformed appointment state event")
				continue
			}
			select {
			case out <- payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *appointmentService) CreateAppointment(ctx context.Context, caller *entity.Account, date time.Time, stateID uint64) dto.AppointmentResult {
	const op = "createAppointment"

	var errs fieldErrors
	switch {
	case caller == nil:
		errs.add(CodeUserNotLoggedIn)
	case !caller.IsActive:
		errs.add(CodeAccountInactive)
	}
	if date.IsZero() {
		errs.add(CodeAppointmentDateRequired)
	}
	if !errs.empty() {
		return s.appointmentResult(op, nil, errs...)
	}

	repo := repository.NewAppointmentRepository(s.db)
	state, err := repo.FindStateByID(ctx, stateID)
	if err != nil {
		logrus.WithError(err).WithField("state_id", stateID).Error("Failed to load appointment state")
		return s.appointmentResult(op, nil, CodeInternal)
	}
	if state == nil {
		return s.appointmentResult(op, nil, CodeAppointmentStateDoesNotExist)
	}

	now := s.now()
	appointment := &entity.Appointment{
		AccountID:          caller.ID,
		AppointmentDate:    date.UTC(),
		AppointmentStateID: state.ID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err = repo.Create(ctx, appointment); err != nil {
		logrus.WithError(err).WithField("account_id", caller.ID).Error("Failed to create appointment")
		return s.appointmentResult(op, nil, CodeInternal)
	}

	logrus.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"account_id":     caller.ID,
	}).Info("Appointment created")
	return s.appointmentResult(op, appointment)
}

func (s *appointmentService) Appointments(ctx context.Context, filter entity.AppointmentFilter) ([]*entity.Appointment, error) {
	return repository.NewAppointmentRepository(s.db).List(ctx, filter)
}

func (s *appointmentService) inTx(ctx context.Context, fn func(repo *repository.AppointmentRepository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = fn(repository.NewAppointmentRepository(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *appointmentService) broadcast(ctx context.Context, action string, state *entity.AppointmentState) {
	if s.bus == nil {
		return
	}

	payload := AppointmentStateAction{
		Action: action,
		State:  AppointmentStateNode{ID: state.ID, Name: state.Name},
	}
	if err := s.bus.Publish(ctx, StateActionTopic(action), payload); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"state_id": state.ID,
			"action":   action,
		}).Warn("Failed to publish appointment state event")
	}
}

func (s *appointmentService) observe(op string, codes []string) dto.Status {
	st := dto.Status{Result: ResultOK, Errors: []string{}}
	if len(codes) > 0 {
		st = dto.Status{Result: ResultKO, Errors: codes}
	}
	if s.observer != nil {
		s.observer.ObserveMutation(op, st.Result)
	}
	return st
}

func (s *appointmentService) stateResult(op string, state *entity.AppointmentState, codes ...string) dto.AppointmentStateResult {
	return dto.AppointmentStateResult{AppointmentState: state, Status: s.observe(op, codes)}
}

func (s *appointmentService) appointmentResult(op string, appointment *entity.Appointment, codes ...string) dto.AppointmentResult {
	return dto.AppointmentResult{Appointment: appointment, Status: s.observe(op, codes)}
}

// staffCode returns the code rejecting caller for staff-only operations, or "".
func staffCode(caller *entity.Account) string {
	switch {
	case caller == nil:
		return CodeUserNotLoggedIn
	case !caller.IsActive:
		return CodeAccountInactive
	case !caller.IsStaff:
		return CodeOperationNotAllowed
	}
	return ""
}

func stateFailure(err error, message string) string {
	if ce, ok := err.(codeError); ok {
		return string(ce)
	}
	logrus.WithError(err).Error(message)
	return CodeInternal
}
