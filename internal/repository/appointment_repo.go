package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kliniksentosa/klinik-api/internal/domain/appointment"
)

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) appointment.Repository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return appointment.ErrQueueNumberConflict
		}
		return err
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	stmt := r.db.WithContext(ctx).Model(&appointment.Appointment{})
	if q.PatientID != nil {
		stmt = stmt.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		stmt = stmt.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		stmt = stmt.Where("status = ?", *q.Status)
	}
	if q.DateFrom != nil {
		stmt = stmt.Where("scheduled_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		stmt = stmt.Where("scheduled_at <= ?", *q.DateTo)
	}

	var count int64
	if err := stmt.Count(&count).Error; err != nil {
		return nil, err
	}

	var appointments []*appointment.Appointment
	err := stmt.
		Order("scheduled_at ASC, queue_number ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}

	return &appointment.PagedAppointments{
		Appointments: appointments,
		TotalCount:   count,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   totalPages(count, pageSize),
	}, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, a *appointment.Appointment) error {
	return r.db.WithContext(ctx).Model(a).Updates(map[string]any{
		"status":              a.Status,
		"cancelled_at":        a.CancelledAt,
		"cancellation_reason": a.CancellationReason,
		"cancelled_by":        a.CancelledBy,
		"completed_at":        a.CompletedAt,
	}).Error
}

func (r *appointmentRepository) MaxQueueNumber(ctx context.Context, doctorID uuid.UUID, queueDate string) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Select("MAX(queue_number)").
		Where("doctor_id = ? AND queue_date = ?", doctorID, queueDate).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *appointmentRepository) MaxQueueNumberBelow(ctx context.Context, doctorID uuid.UUID, queueDate string, below int, statuses []appointment.Status) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Select("MAX(queue_number)").
		Where("doctor_id = ? AND queue_date = ? AND queue_number < ? AND status IN ?",
			doctorID, queueDate, below, statuses).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *appointmentRepository) FirstActiveForPatient(ctx context.Context, patientID uuid.UUID, queueDate string) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND queue_date = ? AND status IN ?",
			patientID, queueDate,
			[]appointment.Status{appointment.StatusPending, appointment.StatusConfirmed, appointment.StatusPatientArrived}).
		Order("queue_number ASC").
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}
