package prescription

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status moves strictly forward:
//
//	PENDING → PREPARED → DISPENSED
//
// PREPARED is the point where stock is decremented and the payment is
// created or updated; DISPENSED marks hand-over at the counter.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPrepared  Status = "PREPARED"
	StatusDispensed Status = "DISPENSED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPrepared, StatusDispensed:
		return true
	}
	return false
}

var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusPrepared},
	StatusPrepared:  {StatusDispensed},
	StatusDispensed: {},
}

// CanTransition reports whether from → to is an allowed move. Skipping a
// step (PENDING directly to DISPENSED) and any regression are rejected.
func CanTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Prescription struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	MedicalRecordID uuid.UUID `gorm:"column:medical_record_id;type:uuid;not null;uniqueIndex"`
	DoctorID        uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	Status Status `gorm:"column:status;type:varchar(20);not null;default:'PENDING';index"`

	// Items are created together with the prescription and never added to
	// afterwards.
	Items []PrescriptionItem `gorm:"foreignKey:PrescriptionID"`

	PreparedAt  *time.Time `gorm:"column:prepared_at"`
	DispensedAt *time.Time `gorm:"column:dispensed_at"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Prescription) TableName() string {
	return "prescriptions"
}

func (p *Prescription) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PrescriptionItem is one drug line entry; immutable once created.
type PrescriptionItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	PrescriptionID uuid.UUID `gorm:"column:prescription_id;type:uuid;not null;index"`
	DrugID         uuid.UUID `gorm:"column:drug_id;type:uuid;not null;index"`

	Qty                int    `gorm:"column:qty;not null"`
	DosageInstructions string `gorm:"column:dosage_instructions;type:text"`
}

func (PrescriptionItem) TableName() string {
	return "prescription_items"
}

func (i *PrescriptionItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type CreateItemCommand struct {
	DrugID             uuid.UUID
	Qty                int
	DosageInstructions string
}

type CreatePrescriptionCommand struct {
	MedicalRecordID uuid.UUID
	Items           []CreateItemCommand
}

type ListPrescriptionsQuery struct {
	DoctorID *uuid.UUID
	Status   *Status
	Page     int
	PageSize int
}

type PagedPrescriptions struct {
	Prescriptions []*Prescription
	TotalCount    int64
	Page          int
	PageSize      int
	TotalPages    int
}
