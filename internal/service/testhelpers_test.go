package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kliniksentosa/klinik-api/internal/config"
	"github.com/kliniksentosa/klinik-api/internal/domain"
	"github.com/kliniksentosa/klinik-api/internal/domain/appointment"
	"github.com/kliniksentosa/klinik-api/internal/domain/doctor"
	"github.com/kliniksentosa/klinik-api/internal/domain/drug"
	"github.com/kliniksentosa/klinik-api/internal/domain/medicalrecord"
	"github.com/kliniksentosa/klinik-api/internal/domain/patient"
	"github.com/kliniksentosa/klinik-api/internal/repository"
	"github.com/kliniksentosa/klinik-api/pkg/database"
	"github.com/kliniksentosa/klinik-api/pkg/metrics"
)

// Single collector for the whole test binary; promauto panics on duplicate
// registration.
var testCollector = metrics.NewCollector("klinik_test")

var testBilling = config.BillingConfig{
	AppointmentFee:            50000,
	RequirePaidBeforeDispense: false,
	QueueSlotMinutes:          15,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Shared-cache in-memory databases misbehave with concurrent connections.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

func newTestRegistry(t *testing.T) *repository.Registry {
	t.Helper()
	return repository.New(newTestDB(t))
}

func newTestActivityService(t *testing.T, repos *repository.Registry) *ActivityService {
	t.Helper()
	svc := NewActivityService(repos.Activities, testCollector, zap.NewNop())
	t.Cleanup(svc.Shutdown)
	return svc
}

func adminActor() domain.Actor {
	return domain.Actor{UserID: uuid.New(), Email: "admin@klinik.test", Role: domain.RoleAdmin}
}

func pharmacistActor() domain.Actor {
	return domain.Actor{UserID: uuid.New(), Email: "apoteker@klinik.test", Role: domain.RolePharmacist}
}

func receptionistActor() domain.Actor {
	return domain.Actor{UserID: uuid.New(), Email: "frontdesk@klinik.test", Role: domain.RoleReceptionist}
}

func doctorActor(doctorID uuid.UUID) domain.Actor {
	return domain.Actor{UserID: uuid.New(), Email: "dokter@klinik.test", Role: domain.RoleDoctor, DoctorID: &doctorID}
}

func patientActor(patientID uuid.UUID) domain.Actor {
	return domain.Actor{UserID: uuid.New(), Email: "pasien@klinik.test", Role: domain.RolePatient, PatientID: &patientID}
}

func seedPatient(t *testing.T, repos *repository.Registry, mrn string) *patient.Patient {
	t.Helper()
	p := &patient.Patient{
		MedicalRecordNumber: mrn,
		FullName:            "Budi Santoso",
		DateOfBirth:         time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
		Gender:              patient.GenderMale,
		CreatedBy:           uuid.New(),
	}
	require.NoError(t, repos.Patients.Create(context.Background(), p))
	return p
}

func seedDoctor(t *testing.T, repos *repository.Registry, license string) *doctor.Doctor {
	t.Helper()
	d := &doctor.Doctor{
		FullName:        "dr. Sari Wijaya",
		Specialization:  "general",
		LicenseNumber:   license,
		ConsultationFee: 50000,
		CreatedBy:       uuid.New(),
	}
	require.NoError(t, repos.Doctors.Create(context.Background(), d))
	return d
}

func seedDrug(t *testing.T, repos *repository.Registry, name, sku string, price int64, stock int) *drug.Drug {
	t.Helper()
	d := &drug.Drug{
		Name:      name,
		SKU:       sku,
		Unit:      "tablet",
		UnitPrice: price,
		StockQty:  stock,
		CreatedBy: uuid.New(),
	}
	require.NoError(t, repos.Drugs.Create(context.Background(), d))
	return d
}

func seedAppointment(t *testing.T, repos *repository.Registry, patientID, doctorID uuid.UUID, queueNumber int, status appointment.Status) *appointment.Appointment {
	t.Helper()
	now := time.Now()
	a := &appointment.Appointment{
		PatientID:   patientID,
		DoctorID:    doctorID,
		ScheduledAt: now.Add(time.Hour),
		Status:      status,
		QueueNumber: queueNumber,
		QueueDate:   now.Format(appointment.QueueDateLayout),
		CreatedBy:   uuid.New(),
	}
	require.NoError(t, repos.Appointments.Create(context.Background(), a))
	return a
}

func seedRecord(t *testing.T, repos *repository.Registry, a *appointment.Appointment) *medicalrecord.MedicalRecord {
	t.Helper()
	r := &medicalrecord.MedicalRecord{
		PatientID:     a.PatientID,
		AppointmentID: a.ID,
		DoctorID:      a.DoctorID,
		Diagnosis:     "ISPA",
		CreatedBy:     uuid.New(),
	}
	require.NoError(t, repos.Records.Create(context.Background(), r))
	return r
}
