package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/domain"
	"github.com/kliniksentosa/klinik-api/internal/domain/appointment"
	"github.com/kliniksentosa/klinik-api/internal/repository"
	"github.com/kliniksentosa/klinik-api/pkg/metrics"
)

// queueAssignRetries bounds how many times a booking retries after losing a
// queue-number race to a concurrent booking for the same doctor and day.
const queueAssignRetries = 3

type AppointmentService struct {
	repos       *repository.Registry
	activitySvc *ActivityService
	metrics     *metrics.Collector
	log         *zap.Logger
}

func NewAppointmentService(repos *repository.Registry, activitySvc *ActivityService, collector *metrics.Collector, log *zap.Logger) *AppointmentService {
	return &AppointmentService{repos: repos, activitySvc: activitySvc, metrics: collector, log: log}
}

// Schedule books an appointment and assigns the next queue number for the
// doctor's day. The number is max+1 inside the booking transaction; the
// composite unique index catches concurrent writers and the whole booking is
// retried with a fresh number.
func (s *AppointmentService) Schedule(ctx context.Context, cmd *appointment.CreateAppointmentCommand, actor domain.Actor) (*appointment.Appointment, error) {
	if !actor.Role.IsStaff() && actor.Role != domain.RolePatient {
		return nil, ErrForbidden
	}
	if actor.Role == domain.RolePatient {
		if actor.PatientID == nil || *actor.PatientID != cmd.PatientID {
			return nil, ErrForbidden
		}
	}
	if cmd.ScheduledAt.Before(time.Now()) {
		return nil, appointment.ErrScheduledInPast
	}

	if _, err := s.repos.Patients.GetByID(ctx, cmd.PatientID); err != nil {
		return nil, fmt.Errorf("resolving patient: %w", err)
	}
	if _, err := s.repos.Doctors.GetByID(ctx, cmd.DoctorID); err != nil {
		return nil, fmt.Errorf("resolving doctor: %w", err)
	}

	queueDate := cmd.ScheduledAt.Format(appointment.QueueDateLayout)

	var created *appointment.Appointment
	var err error
	for attempt := 0; attempt < queueAssignRetries; attempt++ {
		err = s.repos.Transaction(ctx, func(tx *repository.Registry) error {
			max, err := tx.Appointments.MaxQueueNumber(ctx, cmd.DoctorID, queueDate)
			if err != nil {
				return fmt.Errorf("resolving queue number: %w", err)
			}

			a := &appointment.Appointment{
				PatientID:   cmd.PatientID,
				DoctorID:    cmd.DoctorID,
				ScheduledAt: cmd.ScheduledAt,
				Status:      appointment.StatusPending,
				QueueNumber: max + 1,
				QueueDate:   queueDate,
				Complaint:   cmd.Complaint,
				Notes:       cmd.Notes,
				CreatedBy:   actor.UserID,
			}
			if err := tx.Appointments.Create(ctx, a); err != nil {
				return err
			}

			if err := tx.Activities.Append(ctx, NewActivityLog(
				actor, domain.ActionCreate, "appointment", a.ID.String(), nil, a)); err != nil {
				return fmt.Errorf("recording activity: %w", err)
			}

			created = a
			return nil
		})
		if errors.Is(err, appointment.ErrQueueNumberConflict) {
			s.log.Debug("queue number conflict, retrying booking",
				zap.String("doctor_id", cmd.DoctorID.String()),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}

	s.metrics.AppointmentsScheduled.Inc()
	s.log.Info("appointment scheduled",
		zap.String("appointment_id", created.ID.String()),
		zap.Int("queue_number", created.QueueNumber),
		zap.String("queue_date", created.QueueDate),
	)

	return created, nil
}

// UpdateStatus moves an appointment along its lifecycle. Only transitions in
// the allowed table go through; terminal states reject everything.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus appointment.Status, actor domain.Actor) (*appointment.Appointment, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}
	if !newStatus.IsValid() {
		return nil, appointment.ErrInvalidStatus
	}

	var updated *appointment.Appointment
	err := s.repos.Transaction(ctx, func(tx *repository.Registry) error {
		a, err := tx.Appointments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !a.CanTransitionTo(newStatus) {
			return appointment.ErrInvalidStatusTransition
		}

		oldStatus := a.Status
		switch newStatus {
		case appointment.StatusCompleted:
			if err := a.Complete(); err != nil {
				return err
			}
		default:
			a.Status = newStatus
		}

		if err := tx.Appointments.UpdateStatus(ctx, a); err != nil {
			return fmt.Errorf("updating appointment status: %w", err)
		}

		if err := tx.Activities.Append(ctx, NewActivityLog(
			actor, domain.ActionStatusChange, "appointment", a.ID.String(),
			map[string]any{"status": oldStatus},
			map[string]any{"status": newStatus},
		)); err != nil {
			return fmt.Errorf("recording activity: %w", err)
		}

		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Cancel marks an appointment CANCELLED with a reason. Patients may cancel
// their own appointments; staff may cancel any.
func (s *AppointmentService) Cancel(ctx context.Context, id uuid.UUID, cmd *appointment.CancelAppointmentCommand, actor domain.Actor) (*appointment.Appointment, error) {
	var updated *appointment.Appointment
	err := s.repos.Transaction(ctx, func(tx *repository.Registry) error {
		a, err := tx.Appointments.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if actor.Role == domain.RolePatient {
			if actor.PatientID == nil || *actor.PatientID != a.PatientID {
				return ErrForbidden
			}
		} else if !actor.Role.IsStaff() {
			return ErrForbidden
		}

		oldStatus := a.Status
		if err := a.Cancel(cmd.Reason, actor.UserID); err != nil {
			return err
		}

		if err := tx.Appointments.UpdateStatus(ctx, a); err != nil {
			return fmt.Errorf("cancelling appointment: %w", err)
		}

		if err := tx.Activities.Append(ctx, NewActivityLog(
			actor, domain.ActionStatusChange, "appointment", a.ID.String(),
			map[string]any{"status": oldStatus},
			map[string]any{"status": a.Status, "reason": cmd.Reason},
		)); err != nil {
			return fmt.Errorf("recording activity: %w", err)
		}

		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *AppointmentService) Get(ctx context.Context, id uuid.UUID, actor domain.Actor) (*appointment.Appointment, error) {
	a, err := s.repos.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RolePatient {
		if actor.PatientID == nil || *actor.PatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}
	return a, nil
}

// List returns appointments matching the query. Patients are always scoped to
// their own appointments regardless of the filter they send.
func (s *AppointmentService) List(ctx context.Context, q *appointment.ListAppointmentsQuery, actor domain.Actor) (*appointment.PagedAppointments, error) {
	if actor.Role == domain.RolePatient {
		if actor.PatientID == nil {
			return nil, ErrForbidden
		}
		q.PatientID = actor.PatientID
	}
	return s.repos.Appointments.List(ctx, q)
}
