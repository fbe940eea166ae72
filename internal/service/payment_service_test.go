package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/domain/appointment"
	"github.com/kliniksentosa/klinik-api/internal/domain/payment"
)

func newPaymentService(t *testing.T) (*PaymentService, *appointment.Appointment) {
	t.Helper()
	repos := newTestRegistry(t)
	svc := NewPaymentService(repos, testBilling, testCollector, zap.NewNop())

	d := seedDoctor(t, repos, "SIP-300")
	p := seedPatient(t, repos, "MRN-300")
	a := seedAppointment(t, repos, p.ID, d.ID, 1, appointment.StatusConfirmed)
	return svc, a
}

func TestPaymentCreate_DefaultsToConfiguredFee(t *testing.T) {
	svc, a := newPaymentService(t)

	p, err := svc.Create(context.Background(), &payment.CreatePaymentCommand{
		AppointmentID: a.ID,
	}, receptionistActor())
	require.NoError(t, err)
	assert.Equal(t, testBilling.AppointmentFee, p.AppointmentFee)
	assert.Equal(t, testBilling.AppointmentFee, p.Amount)
	assert.Equal(t, payment.MethodCash, p.Method)
	assert.Equal(t, payment.StatusPending, p.Status)

	// One payment per appointment.
	_, err = svc.Create(context.Background(), &payment.CreatePaymentCommand{
		AppointmentID: a.ID,
	}, receptionistActor())
	assert.ErrorIs(t, err, payment.ErrPaymentAlreadyExists)
}

func TestPaymentMarkPaid(t *testing.T) {
	svc, a := newPaymentService(t)
	actor := receptionistActor()

	p, err := svc.Create(context.Background(), &payment.CreatePaymentCommand{
		AppointmentID: a.ID,
	}, actor)
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), p.ID, &payment.MarkPaidCommand{
		Method: payment.MethodQRIS,
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPaid, paid.Status)
	assert.Equal(t, payment.MethodQRIS, paid.Method)
	require.NotNil(t, paid.PaidAt)
	require.NotNil(t, paid.ProcessedBy)
	assert.Equal(t, actor.UserID, *paid.ProcessedBy)

	// Settling twice is rejected.
	_, err = svc.MarkPaid(context.Background(), p.ID, &payment.MarkPaidCommand{}, actor)
	assert.ErrorIs(t, err, payment.ErrPaymentNotPending)
}

func TestPaymentCancel(t *testing.T) {
	svc, a := newPaymentService(t)

	p, err := svc.Create(context.Background(), &payment.CreatePaymentCommand{
		AppointmentID: a.ID,
	}, receptionistActor())
	require.NoError(t, err)

	// Pharmacists settle bills but never void them.
	_, err = svc.Cancel(context.Background(), p.ID, pharmacistActor())
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled, err := svc.Cancel(context.Background(), p.ID, receptionistActor())
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCancelled, cancelled.Status)

	_, err = svc.MarkPaid(context.Background(), p.ID, &payment.MarkPaidCommand{}, receptionistActor())
	assert.ErrorIs(t, err, payment.ErrPaymentNotPending)
}
