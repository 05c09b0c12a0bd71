package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-booking/app/entity"
)

type AppointmentRepository struct {
	db DBTX
}

func NewAppointmentRepository(db DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) CreateState(ctx context.Context, state *entity.AppointmentState) error {
	query := `INSERT INTO appointment_states (name, created_at, updated_at) VALUES (?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, state.Name, state.CreatedAt, state.UpdatedAt)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	state.ID = uint64(id)
	return nil
}

func (r *AppointmentRepository) FindStateByID(ctx context.Context, id uint64) (*entity.AppointmentState, error) {
	query := `SELECT id, name, created_at, updated_at FROM appointment_states WHERE id = ?`

	state := &entity.AppointmentState{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&state.ID,
		&state.Name,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// ListStates returns every state, or only those with the given name when it is not empty.
func (r *AppointmentRepository) ListStates(ctx context.Context, name string) ([]*entity.AppointmentState, error) {
	query := `SELECT id, name, created_at, updated_at FROM appointment_states`
	var args []interface{}
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := make([]*entity.AppointmentState, 0)
	for rows.Next() {
		state := &entity.AppointmentState{}
		if err = rows.Scan(&state.ID, &state.Name, &state.CreatedAt, &state.UpdatedAt); err != nil {
			return nil, err
		}
		states = append(states, state)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return states, nil
}

func (r *AppointmentRepository) UpdateState(ctx context.Context, state *entity.AppointmentState) error {
	query := `UPDATE appointment_states SET name = ?, updated_at = ? WHERE id = ?`
	state.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query, state.Name, state.UpdatedAt, state.ID)
	return err
}

func (r *AppointmentRepository) DeleteState(ctx context.Context, id uint64) (int64, error) {
	query := `DELETE FROM appointment_states WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *AppointmentRepository) Create(ctx context.Context, appointment *entity.Appointment) error {
	query := `
		INSERT INTO appointments (account_id, appointment_date, appointment_state_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		appointment.AccountID,
		appointment.AppointmentDate,
		appointment.AppointmentStateID,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	appointment.ID = uint64(id)
	return nil
}

func (r *AppointmentRepository) List(ctx context.Context, filter entity.AppointmentFilter) ([]*entity.Appointment, error) {
	query := `
		SELECT id, account_id, appointment_date, appointment_state_id, created_at, updated_at
		FROM appointments`

	var conditions []string
	var args []interface{}
	if filter.AccountID != 0 {
		conditions = append(conditions, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.AppointmentStateID != 0 {
		conditions = append(conditions, "appointment_state_id = ?")
		args = append(args, filter.AppointmentStateID)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "appointment_date >= ?")
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "appointment_date < ?")
		args = append(args, filter.To)
	}
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY appointment_date, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]*entity.Appointment, 0)
	for rows.Next() {
		appointment := &entity.Appointment{}
		if err = rows.Scan(
			&appointment.ID,
			&appointment.AccountID,
			&appointment.AppointmentDate,
			&appointment.AppointmentStateID,
			&appointment.CreatedAt,
			&appointment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return appointments, nil
}
