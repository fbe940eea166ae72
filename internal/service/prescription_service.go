package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/config"
	"github.com/kliniksentosa/klinik-api/internal/domain"
	"github.com/kliniksentosa/klinik-api/internal/domain/doctor"
	"github.com/kliniksentosa/klinik-api/internal/domain/drug"
	"github.com/kliniksentosa/klinik-api/internal/domain/payment"
	"github.com/kliniksentosa/klinik-api/internal/domain/prescription"
	"github.com/kliniksentosa/klinik-api/internal/repository"
	"github.com/kliniksentosa/klinik-api/pkg/metrics"
)

// PrescriptionService drives the prescription lifecycle:
//
//	Create: PENDING prescription with validated items, stock untouched.
//	PENDING to PREPARED: stock decremented, audit rows written, payment upserted.
//	PREPARED to DISPENSED: hand-over, optionally gated on the payment being PAID.
//
// Every step runs in one transaction; a failure on any item rolls back the
// whole operation, so no partial prescription, decrement, or payment can
// persist.
type PrescriptionService struct {
	repos   *repository.Registry
	billing config.BillingConfig
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewPrescriptionService(repos *repository.Registry, billing config.BillingConfig, collector *metrics.Collector, log *zap.Logger) *PrescriptionService {
	return &PrescriptionService{repos: repos, billing: billing, metrics: collector, log: log}
}

// Create issues a new prescription for a medical record. Only a doctor can
// prescribe; stock is validated per item but not decremented until the
// prescription is prepared.
func (s *PrescriptionService) Create(ctx context.Context, cmd *prescription.CreatePrescriptionCommand, actor domain.Actor) (*prescription.Prescription, error) {
	if actor.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	if actor.DoctorID == nil {
		return nil, doctor.ErrNoDoctorProfile
	}
	if len(cmd.Items) == 0 {
		return nil, prescription.ErrNoItems
	}
	for _, item := range cmd.Items {
		if item.Qty <= 0 {
			return nil, prescription.ErrInvalidItemQty
		}
		if item.DrugID == uuid.Nil {
			return nil, &ValidationError{Fields: []string{"drug_id is required on every item"}}
		}
	}

	var created *prescription.Prescription
	err := s.repos.Transaction(ctx, func(tx *repository.Registry) error {
		record, err := tx.Records.GetByID(ctx, cmd.MedicalRecordID)
		if err != nil {
			return fmt.Errorf("resolving medical record: %w", err)
		}

		p := &prescription.Prescription{
			MedicalRecordID: record.ID,
			DoctorID:        *actor.DoctorID,
			Status:          prescription.StatusPending,
			CreatedBy:       actor.UserID,
		}
		if err := tx.Prescriptions.Create(ctx, p); err != nil {
			return fmt.Errorf("creating prescription: %w", err)
		}

		if err := tx.Activities.Append(ctx, NewActivityLog(
			actor, domain.ActionCreate, "prescription", p.ID.String(), nil, p)); err != nil {
			return fmt.Errorf("recording activity: %w", err)
		}

		for _, item := range cmd.Items {
			// Fresh read inside the transaction: validation must see a
			// consistent stock snapshot, not whatever the handler read earlier.
			d, err := tx.Drugs.GetByID(ctx, item.DrugID)
			if err != nil {
				return fmt.Errorf("resolving drug: %w", err)
			}
			if d.StockQty < item.Qty {
				return &drug.InsufficientStockError{
					DrugID:    d.ID.String(),
					DrugName:  d.Name,
					Available: d.StockQty,
					Requested: item.Qty,
				}
			}

			row := &prescription.PrescriptionItem{
				PrescriptionID:     p.ID,
				DrugID:             d.ID,
				Qty:                item.Qty,
				DosageInstructions: item.DosageInstructions,
			}
			if err := tx.Prescriptions.CreateItem(ctx, row); err != nil {
				return fmt.Errorf("creating prescription item: %w", err)
			}
			p.Items = append(p.Items, *row)
		}

		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PrescriptionsIssued.Inc()
	s.log.Info("prescription created",
		zap.String("prescription_id", created.ID.String()),
		zap.Int("items", len(created.Items)),
	)

	return created, nil
}

// UpdateStatus moves a prescription along PENDING → PREPARED → DISPENSED.
// Disallowed moves, including skipping PREPARED, are rejected before any
// side effect.
func (s *PrescriptionService) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus prescription.Status, actor domain.Actor) (*prescription.Prescription, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RolePharmacist {
		return nil, ErrForbidden
	}
	if !newStatus.IsValid() {
		return nil, prescription.ErrInvalidStatus
	}

	var updated *prescription.Prescription
	err := s.repos.Transaction(ctx, func(tx *repository.Registry) error {
		p, err := tx.Prescriptions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !prescription.CanTransition(p.Status, newStatus) {
			return prescription.ErrInvalidStatusTransition
		}

		oldStatus := p.Status
		now := time.Now()

		switch newStatus {
		case prescription.StatusPrepared:
			if err := s.prepare(ctx, tx, p, actor); err != nil {
				return err
			}
			p.PreparedAt = &now
		case prescription.StatusDispensed:
			if s.billing.RequirePaidBeforeDispense {
				if err := s.checkPaid(ctx, tx, p); err != nil {
					return err
				}
			}
			p.DispensedAt = &now
		}

		p.Status = newStatus
		if err := tx.Prescriptions.UpdateStatus(ctx, p); err != nil {
			return fmt.Errorf("updating prescription status: %w", err)
		}

		if err := tx.Activities.Append(ctx, NewActivityLog(
			actor, domain.ActionStatusChange, "prescription", p.ID.String(),
			map[string]any{"status": oldStatus},
			map[string]any{"status": newStatus},
		)); err != nil {
			return fmt.Errorf("recording activity: %w", err)
		}

		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch newStatus {
	case prescription.StatusPrepared:
		s.metrics.PrescriptionsPrepared.Inc()
	case prescription.StatusDispensed:
		s.metrics.PrescriptionsDispensed.Inc()
	}

	s.log.Info("prescription status updated",
		zap.String("prescription_id", id.String()),
		zap.String("status", string(newStatus)),
	)

	return updated, nil
}

// prepare decrements stock for every item, writes the stock audit trail, and
// creates or updates the appointment's payment with the prescription fee
// computed from unit prices as of now.
func (s *PrescriptionService) prepare(ctx context.Context, tx *repository.Registry, p *prescription.Prescription, actor domain.Actor) error {
	var prescriptionFee int64

	for _, item := range p.Items {
		d, err := tx.Drugs.DecrementStock(ctx, item.DrugID, item.Qty)
		if err != nil {
			return err
		}

		if err := tx.Drugs.LogStockChange(ctx, &drug.StockAuditLog{
			DrugID:   d.ID,
			Action:   drug.ActionPrescriptionDispensed,
			Quantity: -item.Qty,
			OldStock: d.StockQty,
			NewStock: d.StockQty - item.Qty,
			UserID:   actor.UserID,
			Reason:   fmt.Sprintf("prescription %s", p.ID),
		}); err != nil {
			return fmt.Errorf("recording stock audit: %w", err)
		}

		prescriptionFee += d.UnitPrice * int64(item.Qty)
	}

	appointmentID, err := s.resolveAppointment(ctx, tx, p)
	if err != nil {
		return err
	}

	pay, err := tx.Payments.GetByAppointmentID(ctx, appointmentID)
	switch {
	case err == nil:
		// Existing payment keeps its appointment fee; only the prescription
		// portion is replaced.
		pay.PrescriptionFee = prescriptionFee
		pay.Amount = pay.AppointmentFee + prescriptionFee
		if err := tx.Payments.Update(ctx, pay); err != nil {
			return fmt.Errorf("updating payment: %w", err)
		}
	case errors.Is(err, payment.ErrPaymentNotFound):
		pay = &payment.Payment{
			AppointmentID:   appointmentID,
			AppointmentFee:  s.billing.AppointmentFee,
			PrescriptionFee: prescriptionFee,
			Amount:          s.billing.AppointmentFee + prescriptionFee,
			Method:          payment.MethodCash,
			Status:          payment.StatusPending,
		}
		if err := tx.Payments.Create(ctx, pay); err != nil {
			return fmt.Errorf("creating payment: %w", err)
		}
	default:
		return fmt.Errorf("resolving payment: %w", err)
	}

	return nil
}

func (s *PrescriptionService) checkPaid(ctx context.Context, tx *repository.Registry, p *prescription.Prescription) error {
	appointmentID, err := s.resolveAppointment(ctx, tx, p)
	if err != nil {
		return err
	}
	pay, err := tx.Payments.GetByAppointmentID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			return prescription.ErrPaymentRequired
		}
		return err
	}
	if pay.Status != payment.StatusPaid {
		return prescription.ErrPaymentRequired
	}
	return nil
}

func (s *PrescriptionService) resolveAppointment(ctx context.Context, tx *repository.Registry, p *prescription.Prescription) (uuid.UUID, error) {
	record, err := tx.Records.GetByID(ctx, p.MedicalRecordID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolving medical record: %w", err)
	}
	return record.AppointmentID, nil
}

// Get loads a prescription with its items.
func (s *PrescriptionService) Get(ctx context.Context, id uuid.UUID, actor domain.Actor) (*prescription.Prescription, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}
	return s.repos.Prescriptions.GetByID(ctx, id)
}

func (s *PrescriptionService) List(ctx context.Context, q *prescription.ListPrescriptionsQuery, actor domain.Actor) (*prescription.PagedPrescriptions, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}
	return s.repos.Prescriptions.List(ctx, q)
}
