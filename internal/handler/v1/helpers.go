package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kliniksentosa/klinik-api/internal/domain"
	"github.com/kliniksentosa/klinik-api/internal/domain/appointment"
	"github.com/kliniksentosa/klinik-api/internal/domain/doctor"
	"github.com/kliniksentosa/klinik-api/internal/domain/drug"
	"github.com/kliniksentosa/klinik-api/internal/domain/medicalrecord"
	"github.com/kliniksentosa/klinik-api/internal/domain/patient"
	"github.com/kliniksentosa/klinik-api/internal/domain/payment"
	"github.com/kliniksentosa/klinik-api/internal/domain/prescription"
	"github.com/kliniksentosa/klinik-api/internal/service"
)

// Envelope is the fixed response shape used by every endpoint:
// success true with a payload, or success false with an error string.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   *string `json:"error"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Error: &message})
}

// respondServiceError translates service and domain errors into HTTP status
// codes. Business-rule violations are 400, unknown entities 404, permission
// failures 403, bad credentials 401; anything unrecognized is a 500 with a
// generic message.
func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		respondError(c, http.StatusBadRequest, validErr.Error())
		return
	}

	var stockErr *drug.InsufficientStockError
	if errors.As(err, &stockErr) {
		respondError(c, http.StatusBadRequest, stockErr.Error())
		return
	}

	switch {
	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, doctor.ErrDoctorNotFound),
		errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, medicalrecord.ErrRecordNotFound),
		errors.Is(err, drug.ErrDrugNotFound),
		errors.Is(err, prescription.ErrPrescriptionNotFound),
		errors.Is(err, payment.ErrPaymentNotFound):
		respondError(c, http.StatusNotFound, err.Error())

	case errors.Is(err, patient.ErrPatientAlreadyExists),
		errors.Is(err, doctor.ErrDoctorAlreadyExists),
		errors.Is(err, drug.ErrDrugAlreadyExists),
		errors.Is(err, medicalrecord.ErrRecordAlreadyExists),
		errors.Is(err, prescription.ErrRecordAlreadyPrescribed),
		errors.Is(err, payment.ErrPaymentAlreadyExists):
		respondError(c, http.StatusConflict, err.Error())

	case errors.Is(err, doctor.ErrNoDoctorProfile),
		errors.Is(err, patient.ErrInvalidGender),
		errors.Is(err, patient.ErrInvalidDateOfBirth),
		errors.Is(err, appointment.ErrScheduledInPast),
		errors.Is(err, appointment.ErrInvalidStatus),
		errors.Is(err, appointment.ErrInvalidStatusTransition),
		errors.Is(err, medicalrecord.ErrAppointmentNotInProgress),
		errors.Is(err, drug.ErrStockWouldGoNegative),
		errors.Is(err, prescription.ErrNoItems),
		errors.Is(err, prescription.ErrInvalidItemQty),
		errors.Is(err, prescription.ErrInvalidStatus),
		errors.Is(err, prescription.ErrInvalidStatusTransition),
		errors.Is(err, prescription.ErrPaymentRequired),
		errors.Is(err, payment.ErrInvalidMethod),
		errors.Is(err, payment.ErrPaymentNotPending):
		respondError(c, http.StatusBadRequest, err.Error())

	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, "access denied")

	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid credentials")

	case errors.Is(err, service.ErrAccountLocked):
		respondError(c, http.StatusTooManyRequests, "account temporarily locked")

	case errors.Is(err, service.ErrAccountInactive):
		respondError(c, http.StatusForbidden, "account is inactive")

	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+param+": must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

// actorFrom pulls the authenticated actor set by the auth middleware. A zero
// actor means the route was wired without authentication by mistake.
func actorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get("actor")
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	if !ok || actor.IsZero() {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return domain.Actor{}, false
	}
	return actor, true
}
