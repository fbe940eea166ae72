package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kliniksentosa/klinik-api/internal/domain/payment"
	"github.com/kliniksentosa/klinik-api/internal/service"
)

type PaymentHandler struct {
	paymentSvc *service.PaymentService
}

func NewPaymentHandler(paymentSvc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

type createPaymentRequest struct {
	AppointmentID  uuid.UUID `json:"appointment_id" binding:"required"`
	AppointmentFee int64     `json:"appointment_fee"`
	Method         string    `json:"method"`
}

func (h *PaymentHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req createPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.paymentSvc.Create(c.Request.Context(), &payment.CreatePaymentCommand{
		AppointmentID:  req.AppointmentID,
		AppointmentFee: req.AppointmentFee,
		Method:         payment.Method(req.Method),
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

type markPaidRequest struct {
	Method string `json:"method"`
}

func (h *PaymentHandler) MarkPaid(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req markPaidRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.paymentSvc.MarkPaid(c.Request.Context(), id, &payment.MarkPaidCommand{
		Method:      payment.Method(req.Method),
		ProcessedBy: actor.UserID,
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PaymentHandler) Cancel(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.paymentSvc.Cancel(c.Request.Context(), id, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.paymentSvc.Get(c.Request.Context(), id, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PaymentHandler) GetByAppointment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	appointmentID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.paymentSvc.GetByAppointment(c.Request.Context(), appointmentID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}
