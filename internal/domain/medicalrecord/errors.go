package medicalrecord

import "errors"

var (
	ErrRecordNotFound      = errors.New("medical record not found")
	ErrRecordAlreadyExists = errors.New("appointment already has a medical record")
	ErrRecordImmutable     = errors.New("medical records cannot be modified")

	// ErrAppointmentNotInProgress rejects records written before the patient
	// has arrived.
	ErrAppointmentNotInProgress = errors.New("appointment is not in progress")
)
