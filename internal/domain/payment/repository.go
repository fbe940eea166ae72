package payment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// GetByAppointmentID returns ErrPaymentNotFound when the appointment has
	// no payment yet; callers use that to decide between create and update.
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Payment, error)

	// Update persists fee and status changes on an existing payment.
	Update(ctx context.Context, p *Payment) error
}
