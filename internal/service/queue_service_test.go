package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/domain/appointment"
)

func TestQueuePosition_SkipsInactiveNumbers(t *testing.T) {
	repos := newTestRegistry(t)
	svc := NewQueueService(repos, testBilling, zap.NewNop())

	d := seedDoctor(t, repos, "SIP-010")
	var patients [5]*appointment.Appointment
	statuses := []appointment.Status{
		appointment.StatusConfirmed,
		appointment.StatusConfirmed,
		appointment.StatusConfirmed,
		appointment.StatusPending,
		appointment.StatusPending,
	}
	for i := 0; i < 5; i++ {
		p := seedPatient(t, repos, "MRN-Q"+string(rune('0'+i)))
		patients[i] = seedAppointment(t, repos, p.ID, d.ID, i+1, statuses[i])
	}

	// Holder of queue number 4: highest confirmed/arrived number below 4 is
	// 3, so position = 4 - 3 = 1 and wait = 1 * 15.
	pos, err := svc.positionForPatient(context.Background(), patients[3].PatientID)
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, 4, pos.QueueNumber)
	assert.Equal(t, 1, pos.Position)
	assert.Equal(t, 15, pos.EstimatedWaitMins)

	// Holder of queue number 5 sees the same confirmed ceiling: 5 - 3 = 2.
	pos, err = svc.positionForPatient(context.Background(), patients[4].PatientID)
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, 2, pos.Position)
	assert.Equal(t, 30, pos.EstimatedWaitMins)

	// First in line with nothing confirmed below them.
	pos, err = svc.positionForPatient(context.Background(), patients[0].PatientID)
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, 1, pos.QueueNumber)
	assert.Equal(t, 1, pos.Position)
}

func TestQueuePosition_NoAppointmentToday(t *testing.T) {
	repos := newTestRegistry(t)
	svc := NewQueueService(repos, testBilling, zap.NewNop())

	p := seedPatient(t, repos, "MRN-EMPTY")

	// No active queue is a nil result, not an error.
	pos, err := svc.MyPosition(context.Background(), patientActor(p.ID))
	require.NoError(t, err)
	assert.Nil(t, pos)
}

func TestQueuePosition_IgnoresCancelledAndCompleted(t *testing.T) {
	repos := newTestRegistry(t)
	svc := NewQueueService(repos, testBilling, zap.NewNop())

	d := seedDoctor(t, repos, "SIP-011")
	p1 := seedPatient(t, repos, "MRN-C1")
	p2 := seedPatient(t, repos, "MRN-C2")
	p3 := seedPatient(t, repos, "MRN-C3")

	seedAppointment(t, repos, p1.ID, d.ID, 1, appointment.StatusCancelled)
	seedAppointment(t, repos, p2.ID, d.ID, 2, appointment.StatusCompleted)
	mine := seedAppointment(t, repos, p3.ID, d.ID, 3, appointment.StatusConfirmed)

	// Cancelled and completed appointments do not hold serving slots, so the
	// gap does not inflate the wait but nobody counts as "ahead" either.
	pos, err := svc.MyPosition(context.Background(), patientActor(p3.ID))
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, mine.QueueNumber, pos.QueueNumber)
	assert.Equal(t, 3, pos.Position)
	assert.Equal(t, 45, pos.EstimatedWaitMins)
}

func TestQueuePosition_RoleChecks(t *testing.T) {
	repos := newTestRegistry(t)
	svc := NewQueueService(repos, testBilling, zap.NewNop())

	p := seedPatient(t, repos, "MRN-R1")

	_, err := svc.MyPosition(context.Background(), adminActor())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.PositionForPatient(context.Background(), p.ID, patientActor(p.ID))
	assert.ErrorIs(t, err, ErrForbidden)

	pos, err := svc.PositionForPatient(context.Background(), p.ID, receptionistActor())
	require.NoError(t, err)
	assert.Nil(t, pos)
}
