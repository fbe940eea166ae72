package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/kliniksentosa/klinik-api/internal/domain/doctor"
	"github.com/kliniksentosa/klinik-api/internal/service"
)

type DoctorHandler struct {
	doctorSvc *service.DoctorService
}

func NewDoctorHandler(doctorSvc *service.DoctorService) *DoctorHandler {
	return &DoctorHandler{doctorSvc: doctorSvc}
}

type createDoctorRequest struct {
	FullName        string `json:"full_name" binding:"required"`
	Specialization  string `json:"specialization" binding:"required"`
	LicenseNumber   string `json:"license_number" binding:"required"`
	Phone           string `json:"phone"`
	Schedule        string `json:"schedule"`
	ConsultationFee int64  `json:"consultation_fee"`
}

func (h *DoctorHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req createDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.doctorSvc.Create(c.Request.Context(), &doctor.CreateDoctorCommand{
		FullName:        req.FullName,
		Specialization:  req.Specialization,
		LicenseNumber:   req.LicenseNumber,
		Phone:           req.Phone,
		Schedule:        req.Schedule,
		ConsultationFee: req.ConsultationFee,
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, d)
}

type updateDoctorRequest struct {
	FullName        *string `json:"full_name"`
	Specialization  *string `json:"specialization"`
	Phone           *string `json:"phone"`
	Schedule        *string `json:"schedule"`
	ConsultationFee *int64  `json:"consultation_fee"`
}

func (h *DoctorHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.doctorSvc.Update(c.Request.Context(), id, &doctor.UpdateDoctorCommand{
		FullName:        req.FullName,
		Specialization:  req.Specialization,
		Phone:           req.Phone,
		Schedule:        req.Schedule,
		ConsultationFee: req.ConsultationFee,
		UpdatedBy:       actor.UserID,
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}

func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.doctorSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}

func (h *DoctorHandler) List(c *gin.Context) {
	result, err := h.doctorSvc.List(c.Request.Context(), &doctor.ListDoctorsQuery{
		Specialization: c.Query("specialization"),
		Page:           parseQueryInt(c, "page", 1),
		PageSize:       parseQueryInt(c, "page_size", 20),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}

func (h *DoctorHandler) Deactivate(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.doctorSvc.Deactivate(c.Request.Context(), id, actor); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deactivated": true})
}
