package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/domain"
	"github.com/kliniksentosa/klinik-api/internal/domain/patient"
	"github.com/kliniksentosa/klinik-api/internal/repository"
	"github.com/kliniksentosa/klinik-api/pkg/metrics"
)

type PatientService struct {
	repos       *repository.Registry
	activitySvc *ActivityService
	metrics     *metrics.Collector
	log         *zap.Logger
}

func NewPatientService(repos *repository.Registry, activitySvc *ActivityService, collector *metrics.Collector, log *zap.Logger) *PatientService {
	return &PatientService{repos: repos, activitySvc: activitySvc, metrics: collector, log: log}
}

func (s *PatientService) Register(ctx context.Context, cmd *patient.CreatePatientCommand, actor domain.Actor) (*patient.Patient, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}

	cmd.Normalize()
	if err := s.validateCreate(cmd); err != nil {
		return nil, err
	}

	p := &patient.Patient{
		MedicalRecordNumber: cmd.MedicalRecordNumber,
		FullName:            cmd.FullName,
		DateOfBirth:         cmd.DateOfBirth,
		Gender:              cmd.Gender,
		NationalID:          cmd.NationalID,
		Phone:               cmd.Phone,
		Email:               cmd.Email,
		Address:             cmd.Address,
		Allergies:           cmd.Allergies,
		BloodType:           cmd.BloodType,
		InsuranceNo:         cmd.InsuranceNo,
		Notes:               cmd.Notes,
		CreatedBy:           actor.UserID,
	}

	if err := s.repos.Patients.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.activitySvc.LogAsync(actor, domain.ActionCreate, "patient", p.ID.String(), nil, p)
	s.metrics.PatientsRegistered.Inc()
	s.log.Info("patient registered",
		zap.String("patient_id", p.ID.String()),
		zap.String("mrn", p.MedicalRecordNumber),
	)

	return p, nil
}

func (s *PatientService) Update(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, actor domain.Actor) (*patient.Patient, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}

	existing, err := s.repos.Patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repos.Patients.Update(ctx, id, cmd)
	if err != nil {
		return nil, fmt.Errorf("updating patient: %w", err)
	}

	s.activitySvc.LogAsync(actor, domain.ActionUpdate, "patient", id.String(), existing, updated)

	return updated, nil
}

// Get returns a patient. A patient-role actor may only read their own record.
func (s *PatientService) Get(ctx context.Context, id uuid.UUID, actor domain.Actor) (*patient.Patient, error) {
	if actor.Role == domain.RolePatient {
		if actor.PatientID == nil || *actor.PatientID != id {
			return nil, ErrForbidden
		}
	}
	return s.repos.Patients.GetByID(ctx, id)
}

func (s *PatientService) List(ctx context.Context, q *patient.ListPatientsQuery, actor domain.Actor) (*patient.PagedPatients, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}
	return s.repos.Patients.List(ctx, q)
}

// Deactivate soft-deletes a patient record. Admin only; history referencing
// the patient stays intact.
func (s *PatientService) Deactivate(ctx context.Context, id uuid.UUID, actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return ErrForbidden
	}

	existing, err := s.repos.Patients.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repos.Patients.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("deactivating patient: %w", err)
	}

	s.activitySvc.LogAsync(actor, domain.ActionDelete, "patient", id.String(), existing, nil)
	return nil
}

func (s *PatientService) validateCreate(cmd *patient.CreatePatientCommand) error {
	var fields []string
	if cmd.MedicalRecordNumber == "" {
		fields = append(fields, "medical_record_number is required")
	}
	if cmd.FullName == "" {
		fields = append(fields, "full_name is required")
	}
	if !cmd.Gender.IsValid() {
		return patient.ErrInvalidGender
	}
	if cmd.DateOfBirth.IsZero() || cmd.DateOfBirth.After(time.Now()) {
		return patient.ErrInvalidDateOfBirth
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
