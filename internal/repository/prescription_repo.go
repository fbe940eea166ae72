package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kliniksentosa/klinik-api/internal/domain/prescription"
)

type prescriptionRepository struct {
	db *gorm.DB
}

func NewPrescriptionRepository(db *gorm.DB) prescription.Repository {
	return &prescriptionRepository{db: db}
}

func (r *prescriptionRepository) Create(ctx context.Context, p *prescription.Prescription) error {
	// Items are inserted individually as they pass stock validation, not via
	// the association.
	if err := r.db.WithContext(ctx).Omit("Items").Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return prescription.ErrRecordAlreadyPrescribed
		}
		return err
	}
	return nil
}

func (r *prescriptionRepository) CreateItem(ctx context.Context, item *prescription.PrescriptionItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *prescriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	var p prescription.Prescription
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, prescription.ErrPrescriptionNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *prescriptionRepository) ExistsForMedicalRecord(ctx context.Context, medicalRecordID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&prescription.Prescription{}).
		Where("medical_record_id = ?", medicalRecordID).
		Count(&count).Error
	return count > 0, err
}

func (r *prescriptionRepository) UpdateStatus(ctx context.Context, p *prescription.Prescription) error {
	return r.db.WithContext(ctx).Model(p).Updates(map[string]any{
		"status":       p.Status,
		"prepared_at":  p.PreparedAt,
		"dispensed_at": p.DispensedAt,
	}).Error
}

func (r *prescriptionRepository) List(ctx context.Context, q *prescription.ListPrescriptionsQuery) (*prescription.PagedPrescriptions, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	stmt := r.db.WithContext(ctx).Model(&prescription.Prescription{})
	if q.DoctorID != nil {
		stmt = stmt.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		stmt = stmt.Where("status = ?", *q.Status)
	}

	var count int64
	if err := stmt.Count(&count).Error; err != nil {
		return nil, err
	}

	var prescriptions []*prescription.Prescription
	err := stmt.
		Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&prescriptions).Error
	if err != nil {
		return nil, err
	}

	return &prescription.PagedPrescriptions{
		Prescriptions: prescriptions,
		TotalCount:    count,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    totalPages(count, pageSize),
	}, nil
}
