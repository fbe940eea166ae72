package prescription

import "errors"

var (
	ErrPrescriptionNotFound    = errors.New("prescription not found")
	ErrNoItems                 = errors.New("prescription must have at least one item")
	ErrInvalidItemQty          = errors.New("prescription item quantity must be positive")
	ErrInvalidStatus           = errors.New("invalid prescription status")
	ErrInvalidStatusTransition = errors.New("invalid prescription status transition")
	ErrPaymentRequired         = errors.New("payment must be settled before dispensing")
	ErrRecordAlreadyPrescribed = errors.New("medical record already has a prescription")
)
