package payment

import "errors"

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentAlreadyExists = errors.New("appointment already has a payment")
	ErrPaymentNotPending    = errors.New("payment is not in a pending state")
	ErrInvalidMethod        = errors.New("invalid payment method")
)
