package drug

import (
	"errors"
	"fmt"
)

var (
	ErrDrugNotFound         = errors.New("drug not found")
	ErrDrugAlreadyExists    = errors.New("drug with this SKU already exists")
	ErrStockWouldGoNegative = errors.New("stock adjustment would make quantity negative")
)

// InsufficientStockError names the offending drug and quantities so the
// rejection message is actionable at the pharmacy counter.
type InsufficientStockError struct {
	DrugID    string
	DrugName  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s: available %d, requested %d",
		e.DrugName, e.Available, e.Requested)
}
