package doctor

import "errors"

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrDoctorAlreadyExists = errors.New("doctor with this license number already exists")
	ErrNoDoctorProfile     = errors.New("acting user has no doctor profile")
)
