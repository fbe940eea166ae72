package drug

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Drug struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"` // Soft delete

	Name string `gorm:"column:name;type:varchar(200);not null;index"`
	SKU  string `gorm:"column:sku;type:varchar(50);uniqueIndex;not null"`
	Unit string `gorm:"column:unit;type:varchar(30)"` // tablet, capsule, ml

	// UnitPrice in rupiah. Prescription fees are computed from the price at
	// preparation time, not at prescription creation.
	UnitPrice int64 `gorm:"column:unit_price;not null"`

	// StockQty must never go negative; every mutation pairs with a
	// StockAuditLog row in the same transaction.
	StockQty int `gorm:"column:stock_qty;not null;default:0;check:stock_qty >= 0"`
	MinStock int `gorm:"column:min_stock;not null;default:0"`

	ExpiryDate *time.Time `gorm:"column:expiry_date;index"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Drug) TableName() string {
	return "drugs"
}

func (d *Drug) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// IsLowStock reports whether the drug fell to or below its reorder threshold.
func (d *Drug) IsLowStock() bool {
	return d.MinStock > 0 && d.StockQty <= d.MinStock
}

type StockAction string

const (
	ActionStockIn               StockAction = "STOCK_IN"
	ActionStockAdjusted         StockAction = "STOCK_ADJUSTED"
	ActionPrescriptionDispensed StockAction = "PRESCRIPTION_DISPENSED"
)

// StockAuditLog is the append-only ledger of every stock mutation. Rows are
// never updated or deleted.
type StockAuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	DrugID   uuid.UUID   `gorm:"column:drug_id;type:uuid;not null;index"`
	Action   StockAction `gorm:"column:action;type:varchar(40);not null;index"`
	Quantity int         `gorm:"column:quantity;not null"` // signed delta
	OldStock int         `gorm:"column:old_stock;not null"`
	NewStock int         `gorm:"column:new_stock;not null"`

	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Reason string    `gorm:"column:reason;type:text"`
}

func (StockAuditLog) TableName() string {
	return "stock_audit_logs"
}

func (l *StockAuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type CreateDrugCommand struct {
	Name       string
	SKU        string
	Unit       string
	UnitPrice  int64
	StockQty   int
	MinStock   int
	ExpiryDate *time.Time
	CreatedBy  uuid.UUID
}

type UpdateDrugCommand struct {
	Name       *string
	Unit       *string
	UnitPrice  *int64
	MinStock   *int
	ExpiryDate *time.Time
	UpdatedBy  uuid.UUID
}

// AdjustStockCommand is an administrative stock correction; Delta may be
// negative but the resulting stock may not be.
type AdjustStockCommand struct {
	Delta  int
	Reason string
}

type ListDrugsQuery struct {
	Search   string
	LowStock bool
	Page     int
	PageSize int
}

type PagedDrugs struct {
	Drugs      []*Drug
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
