package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kliniksentosa/klinik-api/internal/domain/prescription"
	"github.com/kliniksentosa/klinik-api/internal/service"
)

type PrescriptionHandler struct {
	prescriptionSvc *service.PrescriptionService
}

func NewPrescriptionHandler(prescriptionSvc *service.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{prescriptionSvc: prescriptionSvc}
}

type prescriptionItemRequest struct {
	DrugID             uuid.UUID `json:"drug_id" binding:"required"`
	Qty                int       `json:"qty" binding:"required"`
	DosageInstructions string    `json:"dosage_instructions"`
}

type createPrescriptionRequest struct {
	MedicalRecordID uuid.UUID                 `json:"medical_record_id" binding:"required"`
	Items           []prescriptionItemRequest `json:"items" binding:"required"`
}

func (h *PrescriptionHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req createPrescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &prescription.CreatePrescriptionCommand{
		MedicalRecordID: req.MedicalRecordID,
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, prescription.CreateItemCommand{
			DrugID:             item.DrugID,
			Qty:                item.Qty,
			DosageInstructions: item.DosageInstructions,
		})
	}

	p, err := h.prescriptionSvc.Create(c.Request.Context(), cmd, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

type updatePrescriptionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *PrescriptionHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updatePrescriptionStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.prescriptionSvc.UpdateStatus(c.Request.Context(), id, prescription.Status(req.Status), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PrescriptionHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.prescriptionSvc.Get(c.Request.Context(), id, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PrescriptionHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	q := &prescription.ListPrescriptionsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("doctor_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.DoctorID = &id
		}
	}
	if raw := c.Query("status"); raw != "" {
		status := prescription.Status(raw)
		q.Status = &status
	}

	result, err := h.prescriptionSvc.List(c.Request.Context(), q, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}
