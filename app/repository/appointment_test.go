package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-booking/app/entity"
	"github.com/vibast-solutions/ms-go-booking/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	insertStateQuery       = `(?s)INSERT INTO appointment_states \(name, created_at, updated_at\) VALUES \(\?, \?, \?\)`
	findStateByIDQuery     = `(?s)SELECT id, name, created_at, updated_at FROM appointment_states WHERE id = \?`
	listStatesQuery        = `(?s)SELECT id, name, created_at, updated_at FROM appointment_states ORDER BY id`
	listStatesByNameQuery  = `(?s)SELECT id, name, created_at, updated_at FROM appointment_states WHERE name = \? ORDER BY id`
	updateStateQuery       = `(?s)UPDATE appointment_states SET name = \?, updated_at = \? WHERE id = \?`
	deleteStateQuery       = `(?s)DELETE FROM appointment_states WHERE id = \?`
	insertAppointmentQuery = `(?s)INSERT INTO appointments \(account_id, appointment_date, appointment_state_id, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?\)`
	selectAppointmentsBase = `(?s)SELECT id, account_id, appointment_date, appointment_state_id, created_at, updated_at\s+FROM appointments`
)

var stateColumns = []string{"id", "name", "created_at", "updated_at"}

var appointmentColumns = []string{
	"id",
	"account_id",
	"appointment_date",
	"appointment_state_id",
	"created_at",
	"updated_at",
}

func TestAppointmentRepository_CreateState(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewAppointmentRepository(db)
	now := time.Now()
	state := &entity.AppointmentState{Name: "PENDING", CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec(insertStateQuery).
		WithArgs("PENDING", now, now).
		WillReturnResult(sqlmock.NewResult(5, 1))

	if err := repo.CreateState(context.Background(), state); err != nil {
		t.Fatalf("create state failed: %v", err)
	}
	if state.ID != 5 {
		t.Fatalf("expected ID 5, got %d", state.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppointmentRepository_FindStateByID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewAppointmentRepository(db)
	now := time.Now()

	mock.ExpectQuery(findStateByIDQuery).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(stateColumns).AddRow(uint64(2), "CONFIRMED", now, now))
	mock.ExpectQuery(findStateByIDQuery).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(stateColumns))

	state, err := repo.FindStateByID(context.Background(), 2)
	if err != nil {
		t.Fatalf("find state failed: %v", err)
	}
	if state == nil || state.Name != "CONFIRMED" {
		t.Fatalf("unexpected state: %+v", state)
	}

	missing, err := repo.FindStateByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("find state failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil state, got %+v", missing)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppointmentRepository_ListStates(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewAppointmentRepository(db)
	now := time.Now()

	mock.ExpectQuery(listStatesQuery).
		WillReturnRows(sqlmock.NewRows(stateColumns).
			AddRow(uint64(1), "PENDING", now, now).
			AddRow(uint64(2), "CONFIRMED", now, now))
	mock.ExpectQuery(listStatesByNameQuery).
		WithArgs("PENDING").
		WillReturnRows(sqlmock.NewRows(stateColumns).AddRow(uint64(1), "PENDING", now, now))

	all, err := repo.ListStates(context.Background(), "")
	if err != nil {
		t.Fatalf("list states failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 states, got %d", len(all))
	}

	filtered, err := repo.ListStates(context.Background(), "PENDING")
	if err != nil {
		t.Fatalf("list states failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != 1 {
		t.Fatalf("unexpected filtered states: %+v", filtered)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppointmentRepository_UpdateAndDeleteState(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewAppointmentRepository(db)

	mock.ExpectExec(updateStateQuery).
		WithArgs("CANCELLED", sqlmock.AnyArg(), uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteStateQuery).
		WithArgs(uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	state := &entity.AppointmentState{ID: 4, Name: "CANCELLED"}
	if err := repo.UpdateState(context.Background(), state); err != nil {
		t.Fatalf("update state failed: %v", err)
	}
	if state.UpdatedAt.IsZero() {
		t.Fatalf("expected UpdatedAt to be set")
	}

	rows, err := repo.DeleteState(context.Background(), 4)
	if err != nil {
		t.Fatalf("delete state failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row affected, got %d", rows)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppointmentRepository_Create(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewAppointmentRepository(db)
	now := time.Now()
	appointment := &entity.Appointment{
		AccountID:          3,
		AppointmentDate:    now.Add(48 * time.Hour),
		AppointmentStateID: 1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	mock.ExpectExec(insertAppointmentQuery).
		WithArgs(uint64(3), appointment.AppointmentDate, uint64(1), now, now).
		WillReturnResult(sqlmock.NewResult(11, 1))

	if err := repo.Create(context.Background(), appointment); err != nil {
		t.Fatalf("create appointment failed: %v", err)
	}
	if appointment.ID != 11 {
		t.Fatalf("expected ID 11, got %d", appointment.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppointmentRepository_ListWithFilter(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewAppointmentRepository(db)
	now := time.Now()
	from := now.Add(-time.Hour)
	to := now.Add(time.Hour)

	mock.ExpectQuery(selectAppointmentsBase+` WHERE account_id = \? AND appointment_state_id = \? AND appointment_date >= \? AND appointment_date < \? ORDER BY appointment_date, id`).
		WithArgs(uint64(3), uint64(1), from, to).
		WillReturnRows(sqlmock.NewRows(appointmentColumns).AddRow(uint64(11), uint64(3), now, uint64(1), now, now))

	appointments, err := repo.List(context.Background(), entity.AppointmentFilter{
		AccountID:          3,
		AppointmentStateID: 1,
		From:               from,
		To:                 to,
	})
	if err != nil {
		t.Fatalf("list appointments failed: %v", err)
	}
	if len(appointments) != 1 || appointments[0].ID != 11 {
		t.Fatalf("unexpected appointments: %+v", appointments)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppointmentRepository_ListWithoutFilter(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewAppointmentRepository(db)

	mock.ExpectQuery(selectAppointmentsBase + ` ORDER BY appointment_date, id`).
		WithArgs().
		WillReturnRows(sqlmock.NewRows(appointmentColumns))

	appointments, err := repo.List(context.Background(), entity.AppointmentFilter{})
	if err != nil {
		t.Fatalf("list appointments failed: %v", err)
	}
	if len(appointments) != 0 {
		t.Fatalf("expected no appointments, got %d", len(appointments))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
