package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/config"
	"github.com/kliniksentosa/klinik-api/internal/domain"
	"github.com/kliniksentosa/klinik-api/internal/domain/appointment"
	"github.com/kliniksentosa/klinik-api/internal/repository"
)

// QueueService answers "how many people are ahead of me today". Position is
// derived from queue numbers, not recounted rows: the patient's own number
// minus the highest already-confirmed or arrived number below it, so gaps
// from cancellations do not inflate the wait.
type QueueService struct {
	repos   *repository.Registry
	billing config.BillingConfig
	log     *zap.Logger
	now     func() time.Time
}

func NewQueueService(repos *repository.Registry, billing config.BillingConfig, log *zap.Logger) *QueueService {
	return &QueueService{repos: repos, billing: billing, log: log, now: time.Now}
}

// MyPosition resolves the calling patient's standing in today's queue.
// Returns (nil, nil) when the patient has no queue-active appointment today.
func (s *QueueService) MyPosition(ctx context.Context, actor domain.Actor) (*appointment.QueuePosition, error) {
	if actor.Role != domain.RolePatient || actor.PatientID == nil {
		return nil, ErrForbidden
	}
	return s.positionForPatient(ctx, *actor.PatientID)
}

// PositionForPatient is the staff-facing lookup of a patient's queue standing.
func (s *QueueService) PositionForPatient(ctx context.Context, patientID uuid.UUID, actor domain.Actor) (*appointment.QueuePosition, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}
	return s.positionForPatient(ctx, patientID)
}

func (s *QueueService) positionForPatient(ctx context.Context, patientID uuid.UUID) (*appointment.QueuePosition, error) {
	today := s.now().Format(appointment.QueueDateLayout)

	a, err := s.repos.Appointments.FirstActiveForPatient(ctx, patientID, today)
	if err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) {
			return nil, nil
		}
		return nil, err
	}

	// Only confirmed or arrived appointments count as "ahead"; pending and
	// cancelled ones do not hold a serving slot.
	served, err := s.repos.Appointments.MaxQueueNumberBelow(ctx, a.DoctorID, today, a.QueueNumber,
		[]appointment.Status{appointment.StatusConfirmed, appointment.StatusPatientArrived})
	if err != nil {
		return nil, err
	}

	position := a.QueueNumber - served
	return &appointment.QueuePosition{
		AppointmentID:     a.ID,
		DoctorID:          a.DoctorID,
		QueueNumber:       a.QueueNumber,
		Position:          position,
		EstimatedWaitMins: position * s.billing.QueueSlotMinutes,
		Status:            a.Status,
	}, nil
}
