package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kliniksentosa/klinik-api/internal/domain/appointment"
	"github.com/kliniksentosa/klinik-api/internal/domain/doctor"
	"github.com/kliniksentosa/klinik-api/internal/domain/drug"
	mr "github.com/kliniksentosa/klinik-api/internal/domain/medicalrecord"
	"github.com/kliniksentosa/klinik-api/internal/domain/patient"
	"github.com/kliniksentosa/klinik-api/internal/domain/payment"
	"github.com/kliniksentosa/klinik-api/internal/domain/prescription"
)

// Registry bundles all repositories over a single gorm handle. Transaction
// produces a registry bound to the transaction's handle, so a service can
// run multi-repository work atomically without knowing about gorm.
type Registry struct {
	db *gorm.DB

	Patients      patient.Repository
	Doctors       doctor.Repository
	Appointments  appointment.Repository
	Records       mr.Repository
	Drugs         drug.Repository
	Prescriptions prescription.Repository
	Payments      payment.Repository
	Users         *UserRepository
	Activities    *ActivityRepository
}

func New(db *gorm.DB) *Registry {
	return &Registry{
		db:            db,
		Patients:      NewPatientRepository(db),
		Doctors:       NewDoctorRepository(db),
		Appointments:  NewAppointmentRepository(db),
		Records:       NewMedicalRecordRepository(db),
		Drugs:         NewDrugRepository(db),
		Prescriptions: NewPrescriptionRepository(db),
		Payments:      NewPaymentRepository(db),
		Users:         NewUserRepository(db),
		Activities:    NewActivityRepository(db),
	}
}

// Transaction runs fn inside one database transaction; any error rolls the
// whole unit back.
func (r *Registry) Transaction(ctx context.Context, fn func(tx *Registry) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

func (r *Registry) DB() *gorm.DB {
	return r.db
}

func normalizePage(page, pageSize int) (int, int) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize
}

func totalPages(count int64, pageSize int) int {
	pages := int(count) / pageSize
	if int(count)%pageSize != 0 {
		pages++
	}
	return pages
}
