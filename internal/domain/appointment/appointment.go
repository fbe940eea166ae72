package appointment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QueueDateLayout is the calendar-day key queue numbers are scoped to.
const QueueDateLayout = "2006-01-02"

// State transitions:
//
//	PENDING → CONFIRMED → PATIENT_ARRIVED → COMPLETED
//	PENDING → CANCELLED
//	CONFIRMED → CANCELLED
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusConfirmed      Status = "CONFIRMED"
	StatusPatientArrived Status = "PATIENT_ARRIVED"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPatientArrived, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsQueueActive reports whether an appointment in this status still holds a
// place in the daily queue.
func (s Status) IsQueueActive() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusPatientArrived
}

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index;uniqueIndex:ux_appointments_doctor_queue,priority:1"`

	ScheduledAt time.Time `gorm:"column:scheduled_at;not null;index"`
	Status      Status    `gorm:"column:status;type:varchar(30);not null;default:'PENDING';index"`

	// QueueNumber is sequential per doctor per calendar day, assigned at
	// creation. The composite unique index backs the retry in the service so
	// two concurrent bookings can never share a number.
	QueueNumber int    `gorm:"column:queue_number;not null;uniqueIndex:ux_appointments_doctor_queue,priority:3"`
	QueueDate   string `gorm:"column:queue_date;type:varchar(10);not null;index;uniqueIndex:ux_appointments_doctor_queue,priority:2"`

	Complaint string `gorm:"column:complaint;type:text"`
	Notes     string `gorm:"column:notes;type:text"`

	// Cancellation tracking
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancellationReason string     `gorm:"column:cancellation_reason;type:text"`
	CancelledBy        *uuid.UUID `gorm:"column:cancelled_by;type:uuid"`

	CompletedAt *time.Time `gorm:"column:completed_at"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

var allowedTransitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPatientArrived, StatusCancelled},
	StatusPatientArrived: {StatusCompleted},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

func (a *Appointment) CanTransitionTo(newStatus Status) bool {
	for _, s := range allowedTransitions[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

func (a *Appointment) Cancel(reason string, cancelledBy uuid.UUID) error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.CancelledBy = &cancelledBy
	return nil
}

func (a *Appointment) Complete() error {
	if !a.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCompleted
	a.CompletedAt = &now
	return nil
}

type CreateAppointmentCommand struct {
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	ScheduledAt time.Time
	Complaint   string
	Notes       string
	CreatedBy   uuid.UUID
}

type CancelAppointmentCommand struct {
	Reason      string
	CancelledBy uuid.UUID
}

type ListAppointmentsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *Status
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}

// QueuePosition is the customer-facing view of today's queue standing.
type QueuePosition struct {
	AppointmentID     uuid.UUID `json:"appointment_id"`
	DoctorID          uuid.UUID `json:"doctor_id"`
	QueueNumber       int       `json:"queue_number"`
	Position          int       `json:"position"`
	EstimatedWaitMins int       `json:"estimated_wait_mins"`
	Status            Status    `json:"status"`
}
