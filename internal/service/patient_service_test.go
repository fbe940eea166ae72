package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/domain/patient"
)

func newPatientService(t *testing.T) (*PatientService, *drugFixture) {
	t.Helper()
	repos := newTestRegistry(t)
	svc := NewPatientService(repos, newTestActivityService(t, repos), testCollector, zap.NewNop())
	return svc, &drugFixture{repos: repos}
}

func TestPatientRegister(t *testing.T) {
	svc, _ := newPatientService(t)
	actor := receptionistActor()

	p, err := svc.Register(context.Background(), &patient.CreatePatientCommand{
		MedicalRecordNumber: "  RM-2026-0001  ",
		FullName:            "Siti Aminah",
		DateOfBirth:         time.Date(1985, 7, 20, 0, 0, 0, 0, time.UTC),
		Gender:              patient.GenderFemale,
		Email:               "SITI@Example.COM",
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, "RM-2026-0001", p.MedicalRecordNumber)
	assert.Equal(t, "siti@example.com", p.Email)
	assert.Equal(t, actor.UserID, p.CreatedBy)

	// Duplicate registry number is rejected.
	_, err = svc.Register(context.Background(), &patient.CreatePatientCommand{
		MedicalRecordNumber: "RM-2026-0001",
		FullName:            "Someone Else",
		DateOfBirth:         time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:              patient.GenderMale,
	}, actor)
	assert.ErrorIs(t, err, patient.ErrPatientAlreadyExists)
}

func TestPatientRegister_Validation(t *testing.T) {
	svc, _ := newPatientService(t)
	actor := receptionistActor()

	_, err := svc.Register(context.Background(), &patient.CreatePatientCommand{
		MedicalRecordNumber: "RM-1",
		FullName:            "X",
		DateOfBirth:         time.Now().Add(24 * time.Hour),
		Gender:              patient.GenderMale,
	}, actor)
	assert.ErrorIs(t, err, patient.ErrInvalidDateOfBirth)

	_, err = svc.Register(context.Background(), &patient.CreatePatientCommand{
		MedicalRecordNumber: "RM-2",
		FullName:            "X",
		DateOfBirth:         time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:              patient.Gender("other"),
	}, actor)
	assert.ErrorIs(t, err, patient.ErrInvalidGender)

	_, err = svc.Register(context.Background(), &patient.CreatePatientCommand{
		MedicalRecordNumber: "RM-3",
		FullName:            "X",
		DateOfBirth:         time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:              patient.GenderMale,
	}, patientActor(uuid.New()))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPatientGet_SelfScoping(t *testing.T) {
	svc, f := newPatientService(t)

	mine := seedPatient(t, f.repos, "RM-SELF")
	other := seedPatient(t, f.repos, "RM-OTHER")

	got, err := svc.Get(context.Background(), mine.ID, patientActor(mine.ID))
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = svc.Get(context.Background(), other.ID, patientActor(mine.ID))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPatientDeactivate(t *testing.T) {
	svc, f := newPatientService(t)
	p := seedPatient(t, f.repos, "RM-DEACT")

	err := svc.Deactivate(context.Background(), p.ID, receptionistActor())
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Deactivate(context.Background(), p.ID, adminActor()))

	_, err = f.repos.Patients.GetByID(context.Background(), p.ID)
	assert.ErrorIs(t, err, patient.ErrPatientNotFound)
}
