package entity

import "time"

type AppointmentState struct {
	ID        uint64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID                 uint64
	AccountID          uint64
	AppointmentDate    time.Time
	AppointmentStateID uint64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AppointmentFilter narrows appointment listings. Zero values are ignored.
type AppointmentFilter struct {
	AccountID          uint64
	AppointmentStateID uint64
	From               time.Time
	To                 time.Time
}
