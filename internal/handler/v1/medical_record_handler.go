package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kliniksentosa/klinik-api/internal/domain/medicalrecord"
	"github.com/kliniksentosa/klinik-api/internal/service"
)

type MedicalRecordHandler struct {
	recordSvc *service.MedicalRecordService
}

func NewMedicalRecordHandler(recordSvc *service.MedicalRecordService) *MedicalRecordHandler {
	return &MedicalRecordHandler{recordSvc: recordSvc}
}

type createRecordRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" binding:"required"`
	Diagnosis     string    `json:"diagnosis" binding:"required"`
	Symptoms      string    `json:"symptoms"`
	Treatment     string    `json:"treatment"`
	ICDCodes      []string  `json:"icd_codes"`
	Notes         string    `json:"notes"`
}

func (h *MedicalRecordHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req createRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.recordSvc.Create(c.Request.Context(), &medicalrecord.CreateRecordCommand{
		AppointmentID: req.AppointmentID,
		Diagnosis:     req.Diagnosis,
		Symptoms:      req.Symptoms,
		Treatment:     req.Treatment,
		ICDCodes:      req.ICDCodes,
		Notes:         req.Notes,
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, r)
}

func (h *MedicalRecordHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	r, err := h.recordSvc.Get(c.Request.Context(), id, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, r)
}

func (h *MedicalRecordHandler) GetByAppointment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	appointmentID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	r, err := h.recordSvc.GetByAppointment(c.Request.Context(), appointmentID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, r)
}

func (h *MedicalRecordHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	q := &medicalrecord.ListRecordsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("patient_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.PatientID = &id
		}
	}
	if raw := c.Query("doctor_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.DoctorID = &id
		}
	}

	result, err := h.recordSvc.List(c.Request.Context(), q, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}
