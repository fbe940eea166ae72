package payment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

type Method string

const (
	MethodCash     Method = "CASH"
	MethodDebit    Method = "DEBIT"
	MethodQRIS     Method = "QRIS"
	MethodTransfer Method = "TRANSFER"
)

func (m Method) IsValid() bool {
	switch m {
	case MethodCash, MethodDebit, MethodQRIS, MethodTransfer:
		return true
	}
	return false
}

// Payment is one-to-one with an appointment. Amounts are rupiah.
// Amount = AppointmentFee + PrescriptionFee; the prescription portion is
// replaced, never accumulated, when a prescription is re-prepared.
type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;uniqueIndex"`

	AppointmentFee  int64 `gorm:"column:appointment_fee;not null"`
	PrescriptionFee int64 `gorm:"column:prescription_fee;not null;default:0"`
	Amount          int64 `gorm:"column:amount;not null"`

	Method Method `gorm:"column:method;type:varchar(20);not null;default:'CASH'"`
	Status Status `gorm:"column:status;type:varchar(20);not null;default:'PENDING';index"`

	PaidAt      *time.Time `gorm:"column:paid_at"`
	ProcessedBy *uuid.UUID `gorm:"column:processed_by;type:uuid"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type CreatePaymentCommand struct {
	AppointmentID  uuid.UUID
	AppointmentFee int64
	Method         Method
}

type MarkPaidCommand struct {
	Method      Method
	ProcessedBy uuid.UUID
}
