package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/domain"
	"github.com/kliniksentosa/klinik-api/internal/domain/appointment"
	"github.com/kliniksentosa/klinik-api/internal/domain/doctor"
	"github.com/kliniksentosa/klinik-api/internal/domain/medicalrecord"
	"github.com/kliniksentosa/klinik-api/internal/repository"
)

// MedicalRecordService creates and reads visit records. A record is written
// once per appointment by the treating doctor and never edited afterwards.
type MedicalRecordService struct {
	repos       *repository.Registry
	activitySvc *ActivityService
	log         *zap.Logger
}

func NewMedicalRecordService(repos *repository.Registry, activitySvc *ActivityService, log *zap.Logger) *MedicalRecordService {
	return &MedicalRecordService{repos: repos, activitySvc: activitySvc, log: log}
}

func (s *MedicalRecordService) Create(ctx context.Context, cmd *medicalrecord.CreateRecordCommand, actor domain.Actor) (*medicalrecord.MedicalRecord, error) {
	if actor.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	if actor.DoctorID == nil {
		return nil, doctor.ErrNoDoctorProfile
	}
	if cmd.Diagnosis == "" {
		return nil, &ValidationError{Fields: []string{"diagnosis is required"}}
	}

	var created *medicalrecord.MedicalRecord
	err := s.repos.Transaction(ctx, func(tx *repository.Registry) error {
		a, err := tx.Appointments.GetByID(ctx, cmd.AppointmentID)
		if err != nil {
			return fmt.Errorf("resolving appointment: %w", err)
		}
		if a.DoctorID != *actor.DoctorID {
			return ErrForbidden
		}
		if a.Status != appointment.StatusPatientArrived && a.Status != appointment.StatusCompleted {
			return medicalrecord.ErrAppointmentNotInProgress
		}

		r := &medicalrecord.MedicalRecord{
			PatientID:     a.PatientID,
			AppointmentID: a.ID,
			DoctorID:      a.DoctorID,
			Diagnosis:     cmd.Diagnosis,
			Symptoms:      cmd.Symptoms,
			Treatment:     cmd.Treatment,
			ICDCodes:      cmd.ICDCodes,
			Notes:         cmd.Notes,
			CreatedBy:     actor.UserID,
		}
		if err := tx.Records.Create(ctx, r); err != nil {
			return fmt.Errorf("creating medical record: %w", err)
		}

		if err := tx.Activities.Append(ctx, NewActivityLog(
			actor, domain.ActionCreate, "medical_record", r.ID.String(), nil, r)); err != nil {
			return fmt.Errorf("recording activity: %w", err)
		}

		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("medical record created",
		zap.String("record_id", created.ID.String()),
		zap.String("appointment_id", created.AppointmentID.String()),
	)

	return created, nil
}

// Get returns a record. Patients may only read their own history.
func (s *MedicalRecordService) Get(ctx context.Context, id uuid.UUID, actor domain.Actor) (*medicalrecord.MedicalRecord, error) {
	r, err := s.repos.Records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RolePatient {
		if actor.PatientID == nil || *actor.PatientID != r.PatientID {
			return nil, ErrForbidden
		}
	}
	return r, nil
}

func (s *MedicalRecordService) GetByAppointment(ctx context.Context, appointmentID uuid.UUID, actor domain.Actor) (*medicalrecord.MedicalRecord, error) {
	r, err := s.repos.Records.GetByAppointmentID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RolePatient {
		if actor.PatientID == nil || *actor.PatientID != r.PatientID {
			return nil, ErrForbidden
		}
	}
	return r, nil
}

// List returns records matching the query. Patients are scoped to their own
// history regardless of the filter they send.
func (s *MedicalRecordService) List(ctx context.Context, q *medicalrecord.ListRecordsQuery, actor domain.Actor) (*medicalrecord.PagedRecords, error) {
	if actor.Role == domain.RolePatient {
		if actor.PatientID == nil {
			return nil, ErrForbidden
		}
		q.PatientID = actor.PatientID
	}
	return s.repos.Records.List(ctx, q)
}
