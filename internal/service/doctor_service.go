package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/domain"
	"github.com/kliniksentosa/klinik-api/internal/domain/doctor"
	"github.com/kliniksentosa/klinik-api/internal/repository"
)

type DoctorService struct {
	repos       *repository.Registry
	activitySvc *ActivityService
	log         *zap.Logger
}

func NewDoctorService(repos *repository.Registry, activitySvc *ActivityService, log *zap.Logger) *DoctorService {
	return &DoctorService{repos: repos, activitySvc: activitySvc, log: log}
}

func (s *DoctorService) Create(ctx context.Context, cmd *doctor.CreateDoctorCommand, actor domain.Actor) (*doctor.Doctor, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}

	var fields []string
	if cmd.FullName == "" {
		fields = append(fields, "full_name is required")
	}
	if cmd.LicenseNumber == "" {
		fields = append(fields, "license_number is required")
	}
	if cmd.Specialization == "" {
		fields = append(fields, "specialization is required")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	d := &doctor.Doctor{
		FullName:        cmd.FullName,
		Specialization:  cmd.Specialization,
		LicenseNumber:   cmd.LicenseNumber,
		Phone:           cmd.Phone,
		Schedule:        cmd.Schedule,
		ConsultationFee: cmd.ConsultationFee,
		CreatedBy:       actor.UserID,
	}

	if err := s.repos.Doctors.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("creating doctor: %w", err)
	}

	s.activitySvc.LogAsync(actor, domain.ActionCreate, "doctor", d.ID.String(), nil, d)
	s.log.Info("doctor created",
		zap.String("doctor_id", d.ID.String()),
		zap.String("license_number", d.LicenseNumber),
	)

	return d, nil
}

func (s *DoctorService) Update(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand, actor domain.Actor) (*doctor.Doctor, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}

	existing, err := s.repos.Doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repos.Doctors.Update(ctx, id, cmd)
	if err != nil {
		return nil, fmt.Errorf("updating doctor: %w", err)
	}

	s.activitySvc.LogAsync(actor, domain.ActionUpdate, "doctor", id.String(), existing, updated)
	return updated, nil
}

// Get and List are open to any authenticated user; patients need the roster
// to book an appointment.
func (s *DoctorService) Get(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return s.repos.Doctors.GetByID(ctx, id)
}

func (s *DoctorService) List(ctx context.Context, q *doctor.ListDoctorsQuery) (*doctor.PagedDoctors, error) {
	return s.repos.Doctors.List(ctx, q)
}

func (s *DoctorService) Deactivate(ctx context.Context, id uuid.UUID, actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return ErrForbidden
	}

	existing, err := s.repos.Doctors.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repos.Doctors.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("deactivating doctor: %w", err)
	}

	s.activitySvc.LogAsync(actor, domain.ActionDelete, "doctor", id.String(), existing, nil)
	return nil
}
