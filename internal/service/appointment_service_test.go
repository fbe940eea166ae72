package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/domain/appointment"
	"github.com/kliniksentosa/klinik-api/internal/domain/doctor"
	"github.com/kliniksentosa/klinik-api/internal/domain/patient"
	"github.com/kliniksentosa/klinik-api/internal/repository"
)

type appointmentFixture struct {
	repos   *repository.Registry
	doctor  *doctor.Doctor
	patient *patient.Patient
}

func newAppointmentService(t *testing.T) (*AppointmentService, *appointmentFixture) {
	t.Helper()
	repos := newTestRegistry(t)
	f := &appointmentFixture{
		repos:   repos,
		doctor:  seedDoctor(t, repos, "SIP-100"),
		patient: seedPatient(t, repos, "MRN-100"),
	}
	svc := NewAppointmentService(repos, newTestActivityService(t, repos), testCollector, zap.NewNop())
	return svc, f
}

func TestAppointmentSchedule_AssignsSequentialQueueNumbers(t *testing.T) {
	svc, f := newAppointmentService(t)
	actor := receptionistActor()
	scheduledAt := time.Now().Add(2 * time.Hour)

	first, err := svc.Schedule(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID:   f.patient.ID,
		DoctorID:    f.doctor.ID,
		ScheduledAt: scheduledAt,
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 1, first.QueueNumber)
	assert.Equal(t, appointment.StatusPending, first.Status)
	assert.Equal(t, scheduledAt.Format(appointment.QueueDateLayout), first.QueueDate)

	second, err := svc.Schedule(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID:   f.patient.ID,
		DoctorID:    f.doctor.ID,
		ScheduledAt: scheduledAt.Add(15 * time.Minute),
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 2, second.QueueNumber)

	// A different doctor's queue starts at 1 for the same day.
	other := seedDoctor(t, f.repos, "SIP-101")
	third, err := svc.Schedule(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID:   f.patient.ID,
		DoctorID:    other.ID,
		ScheduledAt: scheduledAt,
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 1, third.QueueNumber)
}

func TestAppointmentSchedule_RejectsPast(t *testing.T) {
	svc, f := newAppointmentService(t)

	_, err := svc.Schedule(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID:   f.patient.ID,
		DoctorID:    f.doctor.ID,
		ScheduledAt: time.Now().Add(-time.Hour),
	}, receptionistActor())
	assert.ErrorIs(t, err, appointment.ErrScheduledInPast)
}

func TestAppointmentSchedule_PatientCanOnlyBookSelf(t *testing.T) {
	svc, f := newAppointmentService(t)
	other := seedPatient(t, f.repos, "MRN-101")

	_, err := svc.Schedule(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID:   other.ID,
		DoctorID:    f.doctor.ID,
		ScheduledAt: time.Now().Add(time.Hour),
	}, patientActor(f.patient.ID))
	assert.ErrorIs(t, err, ErrForbidden)

	a, err := svc.Schedule(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID:   f.patient.ID,
		DoctorID:    f.doctor.ID,
		ScheduledAt: time.Now().Add(time.Hour),
	}, patientActor(f.patient.ID))
	require.NoError(t, err)
	assert.Equal(t, f.patient.ID, a.PatientID)
}

func TestAppointmentStatus_TransitionTable(t *testing.T) {
	svc, f := newAppointmentService(t)
	actor := receptionistActor()

	a, err := svc.Schedule(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID:   f.patient.ID,
		DoctorID:    f.doctor.ID,
		ScheduledAt: time.Now().Add(time.Hour),
	}, actor)
	require.NoError(t, err)

	// PENDING cannot jump straight to PATIENT_ARRIVED or COMPLETED.
	_, err = svc.UpdateStatus(context.Background(), a.ID, appointment.StatusPatientArrived, actor)
	assert.ErrorIs(t, err, appointment.ErrInvalidStatusTransition)
	_, err = svc.UpdateStatus(context.Background(), a.ID, appointment.StatusCompleted, actor)
	assert.ErrorIs(t, err, appointment.ErrInvalidStatusTransition)

	for _, status := range []appointment.Status{
		appointment.StatusConfirmed,
		appointment.StatusPatientArrived,
		appointment.StatusCompleted,
	} {
		a, err = svc.UpdateStatus(context.Background(), a.ID, status, actor)
		require.NoError(t, err)
		assert.Equal(t, status, a.Status)
	}
	require.NotNil(t, a.CompletedAt)

	// COMPLETED is terminal.
	_, err = svc.UpdateStatus(context.Background(), a.ID, appointment.StatusCancelled, actor)
	assert.ErrorIs(t, err, appointment.ErrInvalidStatusTransition)
}

func TestAppointmentCancel(t *testing.T) {
	svc, f := newAppointmentService(t)
	actor := receptionistActor()

	a, err := svc.Schedule(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID:   f.patient.ID,
		DoctorID:    f.doctor.ID,
		ScheduledAt: time.Now().Add(time.Hour),
	}, actor)
	require.NoError(t, err)

	// A stranger cannot cancel someone else's appointment.
	other := seedPatient(t, f.repos, "MRN-102")
	_, err = svc.Cancel(context.Background(), a.ID, &appointment.CancelAppointmentCommand{Reason: "nope"}, patientActor(other.ID))
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled, err := svc.Cancel(context.Background(), a.ID, &appointment.CancelAppointmentCommand{Reason: "patient request"}, patientActor(f.patient.ID))
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCancelled, cancelled.Status)
	assert.Equal(t, "patient request", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)

	// Cancelling twice fails on the transition table.
	_, err = svc.Cancel(context.Background(), a.ID, &appointment.CancelAppointmentCommand{Reason: "again"}, receptionistActor())
	assert.ErrorIs(t, err, appointment.ErrInvalidStatusTransition)
}
