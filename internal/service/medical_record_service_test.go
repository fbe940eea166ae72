package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/domain/appointment"
	"github.com/kliniksentosa/klinik-api/internal/domain/medicalrecord"
)

func TestMedicalRecordCreate(t *testing.T) {
	repos := newTestRegistry(t)
	svc := NewMedicalRecordService(repos, newTestActivityService(t, repos), zap.NewNop())

	d := seedDoctor(t, repos, "SIP-200")
	p := seedPatient(t, repos, "MRN-200")
	a := seedAppointment(t, repos, p.ID, d.ID, 1, appointment.StatusPatientArrived)
	actor := doctorActor(d.ID)

	r, err := svc.Create(context.Background(), &medicalrecord.CreateRecordCommand{
		AppointmentID: a.ID,
		Diagnosis:     "ISPA",
		Symptoms:      "batuk, demam",
		Treatment:     "istirahat, obat simptomatik",
		ICDCodes:      []string{"J06.9"},
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, p.ID, r.PatientID)
	assert.Equal(t, d.ID, r.DoctorID)

	// One record per appointment.
	_, err = svc.Create(context.Background(), &medicalrecord.CreateRecordCommand{
		AppointmentID: a.ID,
		Diagnosis:     "lain-lain",
	}, actor)
	assert.ErrorIs(t, err, medicalrecord.ErrRecordAlreadyExists)
}

func TestMedicalRecordCreate_Guards(t *testing.T) {
	repos := newTestRegistry(t)
	svc := NewMedicalRecordService(repos, newTestActivityService(t, repos), zap.NewNop())

	d := seedDoctor(t, repos, "SIP-201")
	other := seedDoctor(t, repos, "SIP-202")
	p := seedPatient(t, repos, "MRN-201")

	// Patient has not arrived yet.
	pending := seedAppointment(t, repos, p.ID, d.ID, 1, appointment.StatusConfirmed)
	_, err := svc.Create(context.Background(), &medicalrecord.CreateRecordCommand{
		AppointmentID: pending.ID,
		Diagnosis:     "ISPA",
	}, doctorActor(d.ID))
	assert.ErrorIs(t, err, medicalrecord.ErrAppointmentNotInProgress)

	// Only the treating doctor can write the record.
	arrived := seedAppointment(t, repos, p.ID, d.ID, 2, appointment.StatusPatientArrived)
	_, err = svc.Create(context.Background(), &medicalrecord.CreateRecordCommand{
		AppointmentID: arrived.ID,
		Diagnosis:     "ISPA",
	}, doctorActor(other.ID))
	assert.ErrorIs(t, err, ErrForbidden)

	// Pharmacists never write records.
	_, err = svc.Create(context.Background(), &medicalrecord.CreateRecordCommand{
		AppointmentID: arrived.ID,
		Diagnosis:     "ISPA",
	}, pharmacistActor())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestMedicalRecordRead_PatientScoping(t *testing.T) {
	repos := newTestRegistry(t)
	svc := NewMedicalRecordService(repos, newTestActivityService(t, repos), zap.NewNop())

	d := seedDoctor(t, repos, "SIP-203")
	mine := seedPatient(t, repos, "MRN-202")
	other := seedPatient(t, repos, "MRN-203")
	a := seedAppointment(t, repos, mine.ID, d.ID, 1, appointment.StatusPatientArrived)
	r := seedRecord(t, repos, a)

	got, err := svc.Get(context.Background(), r.ID, patientActor(mine.ID))
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	_, err = svc.Get(context.Background(), r.ID, patientActor(other.ID))
	assert.ErrorIs(t, err, ErrForbidden)

	// Listing as another patient is silently scoped to their own history.
	page, err := svc.List(context.Background(), &medicalrecord.ListRecordsQuery{}, patientActor(other.ID))
	require.NoError(t, err)
	assert.Empty(t, page.Records)
}
