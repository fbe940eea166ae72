package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/config"
	"github.com/kliniksentosa/klinik-api/internal/domain"
	"github.com/kliniksentosa/klinik-api/internal/domain/appointment"
	"github.com/kliniksentosa/klinik-api/internal/domain/drug"
	"github.com/kliniksentosa/klinik-api/internal/domain/payment"
	"github.com/kliniksentosa/klinik-api/internal/domain/prescription"
	"github.com/kliniksentosa/klinik-api/internal/repository"
)

type prescriptionFixture struct {
	repos    *repository.Registry
	svc      *PrescriptionService
	doctor   domain.Actor
	pharma   domain.Actor
	record   uuid.UUID
	appt     uuid.UUID
	drugA    *drug.Drug
	drugB    *drug.Drug
}

func newPrescriptionFixture(t *testing.T, billing config.BillingConfig) *prescriptionFixture {
	t.Helper()

	repos := newTestRegistry(t)
	d := seedDoctor(t, repos, "SIP-001")
	p := seedPatient(t, repos, "MRN-001")
	a := seedAppointment(t, repos, p.ID, d.ID, 1, appointment.StatusPatientArrived)
	r := seedRecord(t, repos, a)

	return &prescriptionFixture{
		repos:  repos,
		svc:    NewPrescriptionService(repos, billing, testCollector, zap.NewNop()),
		doctor: doctorActor(d.ID),
		pharma: pharmacistActor(),
		record: r.ID,
		appt:   a.ID,
		drugA:  seedDrug(t, repos, "Paracetamol 500mg", "PCT-500", 5000, 100),
		drugB:  seedDrug(t, repos, "Amoxicillin 500mg", "AMX-500", 8000, 50),
	}
}

func (f *prescriptionFixture) createPending(t *testing.T, qtyA, qtyB int) *prescription.Prescription {
	t.Helper()
	p, err := f.svc.Create(context.Background(), &prescription.CreatePrescriptionCommand{
		MedicalRecordID: f.record,
		Items: []prescription.CreateItemCommand{
			{DrugID: f.drugA.ID, Qty: qtyA, DosageInstructions: "3x1 after meals"},
			{DrugID: f.drugB.ID, Qty: qtyB, DosageInstructions: "3x1"},
		},
	}, f.doctor)
	require.NoError(t, err)
	return p
}

func (f *prescriptionFixture) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	d, err := f.repos.Drugs.GetByID(context.Background(), id)
	require.NoError(t, err)
	return d.StockQty
}

func TestPrescriptionCreate_Success_StockUntouched(t *testing.T) {
	f := newPrescriptionFixture(t, testBilling)

	p := f.createPending(t, 10, 5)

	assert.Equal(t, prescription.StatusPending, p.Status)
	assert.Len(t, p.Items, 2)

	// Creation validates stock but must not decrement it.
	assert.Equal(t, 100, f.stockOf(t, f.drugA.ID))
	assert.Equal(t, 50, f.stockOf(t, f.drugB.ID))

	reloaded, err := f.svc.Get(context.Background(), p.ID, f.pharma)
	require.NoError(t, err)
	assert.Len(t, reloaded.Items, 2)
}

func TestPrescriptionCreate_InsufficientStock_NothingPersists(t *testing.T) {
	f := newPrescriptionFixture(t, testBilling)

	_, err := f.svc.Create(context.Background(), &prescription.CreatePrescriptionCommand{
		MedicalRecordID: f.record,
		Items: []prescription.CreateItemCommand{
			{DrugID: f.drugA.ID, Qty: 1000},
			{DrugID: f.drugB.ID, Qty: 5},
		},
	}, f.doctor)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient stock")

	var stockErr *drug.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 100, stockErr.Available)
	assert.Equal(t, 1000, stockErr.Requested)

	// The whole transaction rolled back: no prescription, no items.
	var count int64
	require.NoError(t, f.repos.DB().Model(&prescription.Prescription{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, f.repos.DB().Model(&prescription.PrescriptionItem{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPrescriptionCreate_Validation(t *testing.T) {
	f := newPrescriptionFixture(t, testBilling)

	_, err := f.svc.Create(context.Background(), &prescription.CreatePrescriptionCommand{
		MedicalRecordID: f.record,
	}, f.doctor)
	assert.ErrorIs(t, err, prescription.ErrNoItems)

	_, err = f.svc.Create(context.Background(), &prescription.CreatePrescriptionCommand{
		MedicalRecordID: f.record,
		Items:           []prescription.CreateItemCommand{{DrugID: f.drugA.ID, Qty: 0}},
	}, f.doctor)
	assert.ErrorIs(t, err, prescription.ErrInvalidItemQty)

	_, err = f.svc.Create(context.Background(), &prescription.CreatePrescriptionCommand{
		MedicalRecordID: f.record,
		Items:           []prescription.CreateItemCommand{{DrugID: f.drugA.ID, Qty: 1}},
	}, f.pharma)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPrescriptionPrepare_DecrementsStockAndUpsertsPayment(t *testing.T) {
	f := newPrescriptionFixture(t, testBilling)
	p := f.createPending(t, 10, 5)

	updated, err := f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusPrepared, f.pharma)
	require.NoError(t, err)
	assert.Equal(t, prescription.StatusPrepared, updated.Status)
	require.NotNil(t, updated.PreparedAt)

	assert.Equal(t, 90, f.stockOf(t, f.drugA.ID))
	assert.Equal(t, 40, f.stockOf(t, f.drugB.ID))

	auditA, err := f.repos.Drugs.ListStockAudit(context.Background(), f.drugA.ID, 10)
	require.NoError(t, err)
	require.Len(t, auditA, 1)
	assert.Equal(t, drug.ActionPrescriptionDispensed, auditA[0].Action)
	assert.Equal(t, -10, auditA[0].Quantity)
	assert.Equal(t, 100, auditA[0].OldStock)
	assert.Equal(t, 90, auditA[0].NewStock)

	auditB, err := f.repos.Drugs.ListStockAudit(context.Background(), f.drugB.ID, 10)
	require.NoError(t, err)
	require.Len(t, auditB, 1)

	// prescriptionFee = 5000*10 + 8000*5 = 90000, amount = 50000 + 90000.
	pay, err := f.repos.Payments.GetByAppointmentID(context.Background(), f.appt)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), pay.AppointmentFee)
	assert.Equal(t, int64(90000), pay.PrescriptionFee)
	assert.Equal(t, int64(140000), pay.Amount)
	assert.Equal(t, payment.MethodCash, pay.Method)
	assert.Equal(t, payment.StatusPending, pay.Status)
}

func TestPrescriptionPrepare_AllOrNothing(t *testing.T) {
	f := newPrescriptionFixture(t, testBilling)
	p := f.createPending(t, 10, 5)

	// Drain drug B behind the prescription's back so preparation fails on the
	// second item after the first was already decremented.
	_, err := f.repos.Drugs.AdjustStock(context.Background(), f.drugB.ID, -48)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusPrepared, f.pharma)
	require.Error(t, err)
	var stockErr *drug.InsufficientStockError
	assert.ErrorAs(t, err, &stockErr)

	// Nothing moved: drug A untouched, no payment, status still PENDING.
	assert.Equal(t, 100, f.stockOf(t, f.drugA.ID))
	assert.Equal(t, 2, f.stockOf(t, f.drugB.ID))

	_, err = f.repos.Payments.GetByAppointmentID(context.Background(), f.appt)
	assert.ErrorIs(t, err, payment.ErrPaymentNotFound)

	reloaded, err := f.repos.Prescriptions.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, prescription.StatusPending, reloaded.Status)

	audit, err := f.repos.Drugs.ListStockAudit(context.Background(), f.drugA.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, audit)
}

func TestPrescriptionPrepare_FeeUsesPriceAtPreparationTime(t *testing.T) {
	f := newPrescriptionFixture(t, testBilling)
	p := f.createPending(t, 10, 5)

	// Reprice drug A between creation and preparation.
	newPrice := int64(6000)
	_, err := f.repos.Drugs.Update(context.Background(), f.drugA.ID, &drug.UpdateDrugCommand{UnitPrice: &newPrice})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusPrepared, f.pharma)
	require.NoError(t, err)

	pay, err := f.repos.Payments.GetByAppointmentID(context.Background(), f.appt)
	require.NoError(t, err)
	assert.Equal(t, int64(6000*10+8000*5), pay.PrescriptionFee)
}

func TestPrescriptionPrepare_ReplacesPrescriptionFeeOnExistingPayment(t *testing.T) {
	f := newPrescriptionFixture(t, testBilling)
	p := f.createPending(t, 10, 5)

	paymentSvc := NewPaymentService(f.repos, testBilling, testCollector, zap.NewNop())
	existing, err := paymentSvc.Create(context.Background(), &payment.CreatePaymentCommand{
		AppointmentID:  f.appt,
		AppointmentFee: 75000,
	}, receptionistActor())
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusPrepared, f.pharma)
	require.NoError(t, err)

	pay, err := f.repos.Payments.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	// The appointment fee set at the counter survives; only the prescription
	// portion is replaced.
	assert.Equal(t, int64(75000), pay.AppointmentFee)
	assert.Equal(t, int64(90000), pay.PrescriptionFee)
	assert.Equal(t, int64(165000), pay.Amount)
}

func TestPrescriptionStatus_TransitionTable(t *testing.T) {
	f := newPrescriptionFixture(t, testBilling)
	p := f.createPending(t, 1, 1)

	// Skipping PREPARED is rejected.
	_, err := f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusDispensed, f.pharma)
	assert.ErrorIs(t, err, prescription.ErrInvalidStatusTransition)

	_, err = f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusPrepared, f.pharma)
	require.NoError(t, err)

	// Going backwards is rejected.
	_, err = f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusPending, f.pharma)
	assert.ErrorIs(t, err, prescription.ErrInvalidStatusTransition)

	updated, err := f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusDispensed, f.pharma)
	require.NoError(t, err)
	assert.Equal(t, prescription.StatusDispensed, updated.Status)
	require.NotNil(t, updated.DispensedAt)

	// DISPENSED is terminal.
	_, err = f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusPrepared, f.pharma)
	assert.ErrorIs(t, err, prescription.ErrInvalidStatusTransition)
}

func TestPrescriptionStatus_RoleEnforcement(t *testing.T) {
	f := newPrescriptionFixture(t, testBilling)
	p := f.createPending(t, 1, 1)

	_, err := f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusPrepared, f.doctor)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusPrepared, adminActor())
	assert.NoError(t, err)
}

func TestPrescriptionDispense_PaymentGate(t *testing.T) {
	billing := testBilling
	billing.RequirePaidBeforeDispense = true

	f := newPrescriptionFixture(t, billing)
	p := f.createPending(t, 2, 1)

	_, err := f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusPrepared, f.pharma)
	require.NoError(t, err)

	// Payment exists but is still PENDING, so dispensing is blocked.
	_, err = f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusDispensed, f.pharma)
	assert.ErrorIs(t, err, prescription.ErrPaymentRequired)

	pay, err := f.repos.Payments.GetByAppointmentID(context.Background(), f.appt)
	require.NoError(t, err)

	paymentSvc := NewPaymentService(f.repos, billing, testCollector, zap.NewNop())
	_, err = paymentSvc.MarkPaid(context.Background(), pay.ID, &payment.MarkPaidCommand{Method: payment.MethodQRIS}, receptionistActor())
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusDispensed, f.pharma)
	assert.NoError(t, err)
}

func TestPrescriptionDispense_NoGateByDefault(t *testing.T) {
	f := newPrescriptionFixture(t, testBilling)
	p := f.createPending(t, 2, 1)

	_, err := f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusPrepared, f.pharma)
	require.NoError(t, err)

	// Default policy: collect at the counter, dispense regardless.
	_, err = f.svc.UpdateStatus(context.Background(), p.ID, prescription.StatusDispensed, f.pharma)
	assert.NoError(t, err)
}
