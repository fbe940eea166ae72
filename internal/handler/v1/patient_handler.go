package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kliniksentosa/klinik-api/internal/domain/patient"
	"github.com/kliniksentosa/klinik-api/internal/service"
)

type PatientHandler struct {
	patientSvc *service.PatientService
}

func NewPatientHandler(patientSvc *service.PatientService) *PatientHandler {
	return &PatientHandler{patientSvc: patientSvc}
}

type createPatientRequest struct {
	MedicalRecordNumber string   `json:"medical_record_number" binding:"required"`
	FullName            string   `json:"full_name" binding:"required"`
	DateOfBirth         string   `json:"date_of_birth" binding:"required"` // YYYY-MM-DD
	Gender              string   `json:"gender" binding:"required"`
	NationalID          string   `json:"national_id"`
	Phone               string   `json:"phone"`
	Email               string   `json:"email"`
	Address             string   `json:"address"`
	Allergies           []string `json:"allergies"`
	BloodType           string   `json:"blood_type"`
	InsuranceNo         string   `json:"insurance_no"`
	Notes               string   `json:"notes"`
}

func (h *PatientHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		respondError(c, 400, "date_of_birth must be formatted as YYYY-MM-DD")
		return
	}

	p, err := h.patientSvc.Register(c.Request.Context(), &patient.CreatePatientCommand{
		MedicalRecordNumber: req.MedicalRecordNumber,
		FullName:            req.FullName,
		DateOfBirth:         dob,
		Gender:              patient.Gender(req.Gender),
		NationalID:          req.NationalID,
		Phone:               req.Phone,
		Email:               req.Email,
		Address:             req.Address,
		Allergies:           req.Allergies,
		BloodType:           req.BloodType,
		InsuranceNo:         req.InsuranceNo,
		Notes:               req.Notes,
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

type updatePatientRequest struct {
	FullName    *string   `json:"full_name"`
	Phone       *string   `json:"phone"`
	Email       *string   `json:"email"`
	Address     *string   `json:"address"`
	Allergies   *[]string `json:"allergies"`
	BloodType   *string   `json:"blood_type"`
	InsuranceNo *string   `json:"insurance_no"`
	Notes       *string   `json:"notes"`
}

func (h *PatientHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.patientSvc.Update(c.Request.Context(), id, &patient.UpdatePatientCommand{
		FullName:    req.FullName,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		Allergies:   req.Allergies,
		BloodType:   req.BloodType,
		InsuranceNo: req.InsuranceNo,
		Notes:       req.Notes,
		UpdatedBy:   actor.UserID,
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PatientHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.patientSvc.Get(c.Request.Context(), id, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PatientHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	result, err := h.patientSvc.List(c.Request.Context(), &patient.ListPatientsQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}

func (h *PatientHandler) Deactivate(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.patientSvc.Deactivate(c.Request.Context(), id, actor); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deactivated": true})
}
