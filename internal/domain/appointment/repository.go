package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// UpdateStatus persists a status change along with its tracking fields.
	UpdateStatus(ctx context.Context, a *Appointment) error

	// MaxQueueNumber returns the highest queue number assigned for the doctor
	// on the given day, or 0 if none exists.
	MaxQueueNumber(ctx context.Context, doctorID uuid.UUID, queueDate string) (int, error)

	// MaxQueueNumberBelow returns the highest queue number strictly below the
	// given one for the doctor/day among appointments in the given statuses,
	// or 0 if none exists. Backs the customer queue-position calculation.
	MaxQueueNumberBelow(ctx context.Context, doctorID uuid.UUID, queueDate string, below int, statuses []Status) (int, error)

	// FirstActiveForPatient returns the patient's queue-active appointment
	// with the lowest queue number on the given day, or ErrAppointmentNotFound.
	FirstActiveForPatient(ctx context.Context, patientID uuid.UUID, queueDate string) (*Appointment, error)
}
