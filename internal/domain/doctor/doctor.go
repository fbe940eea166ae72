package doctor

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Doctor struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	FullName       string `gorm:"column:full_name;type:varchar(200);not null"`
	Specialization string `gorm:"column:specialization;type:varchar(100);not null;index"`
	LicenseNumber  string `gorm:"column:license_number;type:varchar(50);uniqueIndex;not null"`
	Phone          string `gorm:"column:phone;type:varchar(20)"`

	// Free-text practice schedule shown to the front desk, e.g. "Mon-Fri 08:00-14:00"
	Schedule string `gorm:"column:schedule;type:varchar(200)"`

	ConsultationFee int64 `gorm:"column:consultation_fee;not null;default:0"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Doctor) TableName() string {
	return "doctors"
}

func (d *Doctor) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

type CreateDoctorCommand struct {
	FullName        string
	Specialization  string
	LicenseNumber   string
	Phone           string
	Schedule        string
	ConsultationFee int64
	CreatedBy       uuid.UUID
}

type UpdateDoctorCommand struct {
	FullName        *string
	Specialization  *string
	Phone           *string
	Schedule        *string
	ConsultationFee *int64
	UpdatedBy       uuid.UUID
}

type ListDoctorsQuery struct {
	Specialization string
	Page           int
	PageSize       int
}

type PagedDoctors struct {
	Doctors    []*Doctor
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
