package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	mr "github.com/kliniksentosa/klinik-api/internal/domain/medicalrecord"
)

type medicalRecordRepository struct {
	db *gorm.DB
}

func NewMedicalRecordRepository(db *gorm.DB) mr.Repository {
	return &medicalRecordRepository{db: db}
}

func (r *medicalRecordRepository) Create(ctx context.Context, rec *mr.MedicalRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return mr.ErrRecordAlreadyExists
		}
		return err
	}
	return nil
}

func (r *medicalRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*mr.MedicalRecord, error) {
	var rec mr.MedicalRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mr.ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *medicalRecordRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*mr.MedicalRecord, error) {
	var rec mr.MedicalRecord
	if err := r.db.WithContext(ctx).First(&rec, "appointment_id = ?", appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mr.ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *medicalRecordRepository) List(ctx context.Context, q *mr.ListRecordsQuery) (*mr.PagedRecords, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	stmt := r.db.WithContext(ctx).Model(&mr.MedicalRecord{})
	if q.PatientID != nil {
		stmt = stmt.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		stmt = stmt.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.DateFrom != nil {
		stmt = stmt.Where("created_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		stmt = stmt.Where("created_at <= ?", *q.DateTo)
	}

	var count int64
	if err := stmt.Count(&count).Error; err != nil {
		return nil, err
	}

	var records []*mr.MedicalRecord
	err := stmt.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return &mr.PagedRecords{
		Records:    records,
		TotalCount: count,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(count, pageSize),
	}, nil
}
