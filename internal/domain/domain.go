package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RolePharmacist   Role = "pharmacist"
	RoleReceptionist Role = "receptionist"
	RolePatient      Role = "patient"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePharmacist, RoleReceptionist, RolePatient:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to clinic personnel.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleDoctor || r == RolePharmacist || r == RoleReceptionist
}

type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null"`
	FullName     string `gorm:"column:full_name;type:varchar(200);not null"`
	Role         Role   `gorm:"column:role;type:varchar(30);not null;index"`

	// For doctor role, links to the doctor profile used on prescriptions
	DoctorID *uuid.UUID `gorm:"column:doctor_id;type:uuid;index"`
	// For patient role, links to the patient registry entry
	PatientID *uuid.UUID `gorm:"column:patient_id;type:uuid;index"`

	IsActive         bool       `gorm:"column:is_active;default:true;index"`
	FailedLoginCount int        `gorm:"column:failed_login_count;default:0"`
	LockedUntil      *time.Time `gorm:"column:locked_until"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsLocked returns true if the account is temporarily locked due to failed logins.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// Actor is the immutable identity a request acts as. It is resolved once by
// the auth middleware and passed explicitly into every service call; nothing
// downstream mutates it or reads identity from shared request state.
type Actor struct {
	UserID    uuid.UUID
	Email     string
	Role      Role
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
}

func (a Actor) IsZero() bool {
	return a.UserID == uuid.Nil
}

type ActivityAction string

const (
	ActionCreate           ActivityAction = "CREATE"
	ActionUpdate           ActivityAction = "UPDATE"
	ActionDelete           ActivityAction = "DELETE"
	ActionStatusChange     ActivityAction = "STATUS_CHANGE"
	ActionStockAdjust      ActivityAction = "STOCK_ADJUST"
	ActionPaymentProcessed ActivityAction = "PAYMENT_PROCESSED"
	ActionLogin            ActivityAction = "LOGIN"
)

// ActivityLog is the append-only ledger of every mutating action in the
// system, with before/after JSON snapshots for compliance review. Rows are
// never updated or deleted.
type ActivityLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	UserRole Role      `gorm:"column:user_role;type:varchar(30);not null"`

	Action     ActivityAction `gorm:"column:action;type:varchar(30);not null;index"`
	EntityType string         `gorm:"column:entity_type;type:varchar(50);not null;index"`
	EntityID   string         `gorm:"column:entity_id;type:varchar(50);index"`

	OldValue string `gorm:"column:old_value;type:text"`
	NewValue string `gorm:"column:new_value;type:text"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

type Claims struct {
	UserID    uuid.UUID  `json:"sub"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	DoctorID  *uuid.UUID `json:"doctor_id,omitempty"`
	PatientID *uuid.UUID `json:"patient_id,omitempty"`
}

// ToActor converts validated token claims into the actor value carried
// through the request.
func (c *Claims) ToActor() Actor {
	return Actor{
		UserID:    c.UserID,
		Email:     c.Email,
		Role:      c.Role,
		DoctorID:  c.DoctorID,
		PatientID: c.PatientID,
	}
}
