package drug

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Drug) error
	GetByID(ctx context.Context, id uuid.UUID) (*Drug, error)
	GetBySKU(ctx context.Context, sku string) (*Drug, error)
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateDrugCommand) (*Drug, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q *ListDrugsQuery) (*PagedDrugs, error)
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// DecrementStock atomically subtracts qty from the drug's stock, guarded
	// by stock_qty >= qty in the same statement. Returns the drug as read
	// before the decrement and an InsufficientStockError when the guard
	// rejects the update, so two concurrent dispenses can never drive the
	// stock negative.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (*Drug, error)

	// AdjustStock atomically applies a signed delta under the same
	// non-negative guard. Used by administrative corrections and restocking.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*Drug, error)

	// LogStockChange appends a StockAuditLog row. Runs inside the caller's
	// transaction so a rolled-back mutation leaves no audit trace.
	LogStockChange(ctx context.Context, entry *StockAuditLog) error

	// ListStockAudit returns the audit trail for one drug, newest first.
	ListStockAudit(ctx context.Context, drugID uuid.UUID, limit int) ([]*StockAuditLog, error)
}
