package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"` // Soft delete

	// MedicalRecordNumber is the clinic-issued registry number printed on the
	// patient card, distinct from the row's UUID.
	MedicalRecordNumber string `gorm:"column:medical_record_number;type:varchar(30);uniqueIndex;not null"`

	FullName    string    `gorm:"column:full_name;type:varchar(200);not null"`
	DateOfBirth time.Time `gorm:"column:date_of_birth;not null"`
	Gender      Gender    `gorm:"column:gender;type:varchar(10);not null"`
	NationalID  string    `gorm:"column:national_id;type:varchar(50);index"`

	Phone   string `gorm:"column:phone;type:varchar(20)"`
	Email   string `gorm:"column:email;type:varchar(255)"`
	Address string `gorm:"column:address;type:text"`

	Allergies    []string `gorm:"column:allergies;serializer:json"`
	BloodType    string   `gorm:"column:blood_type;type:varchar(5)"`
	InsuranceNo  string   `gorm:"column:insurance_no;type:varchar(50)"`
	Notes        string   `gorm:"column:notes;type:text"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Patient) TableName() string {
	return "patients"
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Patient) Age() int {
	now := time.Now()
	years := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		years--
	}
	return years
}

func (p *Patient) IsActive() bool {
	return !p.DeletedAt.Valid
}

type CreatePatientCommand struct {
	MedicalRecordNumber string
	FullName            string
	DateOfBirth         time.Time
	Gender              Gender
	NationalID          string
	Phone               string
	Email               string
	Address             string
	Allergies           []string
	BloodType           string
	InsuranceNo         string
	Notes               string
	CreatedBy           uuid.UUID
}

func (c *CreatePatientCommand) Normalize() {
	c.MedicalRecordNumber = strings.TrimSpace(c.MedicalRecordNumber)
	c.FullName = strings.TrimSpace(c.FullName)
	c.NationalID = strings.TrimSpace(c.NationalID)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
}

type UpdatePatientCommand struct {
	FullName    *string
	Phone       *string
	Email       *string
	Address     *string
	Allergies   *[]string
	BloodType   *string
	InsuranceNo *string
	Notes       *string
	UpdatedBy   uuid.UUID
}

// ListPatientsQuery defines filtering and pagination for patient list queries.
type ListPatientsQuery struct {
	Search   string // matches name or medical record number
	Page     int
	PageSize int
}

type PagedPatients struct {
	Patients   []*Patient
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
