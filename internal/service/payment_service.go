package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kliniksentosa/klinik-api/internal/config"
	"github.com/kliniksentosa/klinik-api/internal/domain"
	"github.com/kliniksentosa/klinik-api/internal/domain/payment"
	"github.com/kliniksentosa/klinik-api/internal/repository"
	"github.com/kliniksentosa/klinik-api/pkg/metrics"
)

type PaymentService struct {
	repos   *repository.Registry
	billing config.BillingConfig
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewPaymentService(repos *repository.Registry, billing config.BillingConfig, collector *metrics.Collector, log *zap.Logger) *PaymentService {
	return &PaymentService{repos: repos, billing: billing, metrics: collector, log: log}
}

// Create opens a payment for an appointment ahead of any prescription, e.g.
// for consultation-only visits. The prescription flow upserts into the same
// row later, keeping the appointment fee set here.
func (s *PaymentService) Create(ctx context.Context, cmd *payment.CreatePaymentCommand, actor domain.Actor) (*payment.Payment, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}

	method := cmd.Method
	if method == "" {
		method = payment.MethodCash
	}
	if !method.IsValid() {
		return nil, payment.ErrInvalidMethod
	}

	fee := cmd.AppointmentFee
	if fee <= 0 {
		fee = s.billing.AppointmentFee
	}

	var created *payment.Payment
	err := s.repos.Transaction(ctx, func(tx *repository.Registry) error {
		if _, err := tx.Appointments.GetByID(ctx, cmd.AppointmentID); err != nil {
			return fmt.Errorf("resolving appointment: %w", err)
		}

		p := &payment.Payment{
			AppointmentID:  cmd.AppointmentID,
			AppointmentFee: fee,
			Amount:         fee,
			Method:         method,
			Status:         payment.StatusPending,
		}
		if err := tx.Payments.Create(ctx, p); err != nil {
			return err
		}

		if err := tx.Activities.Append(ctx, NewActivityLog(
			actor, domain.ActionCreate, "payment", p.ID.String(), nil, p)); err != nil {
			return fmt.Errorf("recording activity: %w", err)
		}

		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// MarkPaid settles a pending payment.
func (s *PaymentService) MarkPaid(ctx context.Context, id uuid.UUID, cmd *payment.MarkPaidCommand, actor domain.Actor) (*payment.Payment, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleReceptionist && actor.Role != domain.RolePharmacist {
		return nil, ErrForbidden
	}
	if cmd.Method != "" && !cmd.Method.IsValid() {
		return nil, payment.ErrInvalidMethod
	}

	var updated *payment.Payment
	err := s.repos.Transaction(ctx, func(tx *repository.Registry) error {
		p, err := tx.Payments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != payment.StatusPending {
			return payment.ErrPaymentNotPending
		}

		now := time.Now()
		p.Status = payment.StatusPaid
		p.PaidAt = &now
		p.ProcessedBy = &actor.UserID
		if cmd.Method != "" {
			p.Method = cmd.Method
		}

		if err := tx.Payments.Update(ctx, p); err != nil {
			return fmt.Errorf("settling payment: %w", err)
		}

		if err := tx.Activities.Append(ctx, NewActivityLog(
			actor, domain.ActionPaymentProcessed, "payment", p.ID.String(),
			map[string]any{"status": payment.StatusPending},
			map[string]any{"status": payment.StatusPaid, "amount": p.Amount, "method": p.Method},
		)); err != nil {
			return fmt.Errorf("recording activity: %w", err)
		}

		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PaymentsSettled.Inc()
	s.log.Info("payment settled",
		zap.String("payment_id", id.String()),
		zap.Int64("amount", updated.Amount),
	)

	return updated, nil
}

// Cancel voids a pending payment, e.g. when the appointment was cancelled.
func (s *PaymentService) Cancel(ctx context.Context, id uuid.UUID, actor domain.Actor) (*payment.Payment, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleReceptionist {
		return nil, ErrForbidden
	}

	var updated *payment.Payment
	err := s.repos.Transaction(ctx, func(tx *repository.Registry) error {
		p, err := tx.Payments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != payment.StatusPending {
			return payment.ErrPaymentNotPending
		}

		p.Status = payment.StatusCancelled
		if err := tx.Payments.Update(ctx, p); err != nil {
			return fmt.Errorf("cancelling payment: %w", err)
		}

		if err := tx.Activities.Append(ctx, NewActivityLog(
			actor, domain.ActionStatusChange, "payment", p.ID.String(),
			map[string]any{"status": payment.StatusPending},
			map[string]any{"status": payment.StatusCancelled},
		)); err != nil {
			return fmt.Errorf("recording activity: %w", err)
		}

		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *PaymentService) Get(ctx context.Context, id uuid.UUID, actor domain.Actor) (*payment.Payment, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}
	return s.repos.Payments.GetByID(ctx, id)
}

// GetByAppointment resolves the payment for an appointment. Patients may look
// up the bill of their own appointment.
func (s *PaymentService) GetByAppointment(ctx context.Context, appointmentID uuid.UUID, actor domain.Actor) (*payment.Payment, error) {
	if actor.Role == domain.RolePatient {
		a, err := s.repos.Appointments.GetByID(ctx, appointmentID)
		if err != nil {
			return nil, err
		}
		if actor.PatientID == nil || *actor.PatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}
	return s.repos.Payments.GetByAppointmentID(ctx, appointmentID)
}
