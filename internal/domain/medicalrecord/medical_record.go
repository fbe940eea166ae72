package medicalrecord

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MedicalRecord captures the outcome of one visit. Records are created once
// per appointment and never edited afterwards.
type MedicalRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	PatientID     uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;uniqueIndex"`
	DoctorID      uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	Diagnosis string   `gorm:"column:diagnosis;type:text;not null"`
	Symptoms  string   `gorm:"column:symptoms;type:text"`
	Treatment string   `gorm:"column:treatment;type:text"`
	ICDCodes  []string `gorm:"column:icd_codes;serializer:json"`

	Notes string `gorm:"column:notes;type:text"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (MedicalRecord) TableName() string {
	return "medical_records"
}

func (r *MedicalRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type CreateRecordCommand struct {
	PatientID     uuid.UUID
	AppointmentID uuid.UUID
	DoctorID      uuid.UUID
	Diagnosis     string
	Symptoms      string
	Treatment     string
	ICDCodes      []string
	Notes         string
	CreatedBy     uuid.UUID
}

type ListRecordsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type PagedRecords struct {
	Records    []*MedicalRecord
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
