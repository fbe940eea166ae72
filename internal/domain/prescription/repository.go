package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	CreateItem(ctx context.Context, item *PrescriptionItem) error

	// GetByID loads the prescription with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)

	ExistsForMedicalRecord(ctx context.Context, medicalRecordID uuid.UUID) (bool, error)

	// UpdateStatus persists the status and its timestamp fields.
	UpdateStatus(ctx context.Context, p *Prescription) error

	List(ctx context.Context, q *ListPrescriptionsQuery) (*PagedPrescriptions, error)
}
