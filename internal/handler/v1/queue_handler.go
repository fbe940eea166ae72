package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/kliniksentosa/klinik-api/internal/service"
)

type QueueHandler struct {
	queueSvc *service.QueueService
}

func NewQueueHandler(queueSvc *service.QueueService) *QueueHandler {
	return &QueueHandler{queueSvc: queueSvc}
}

// MyPosition answers the logged-in patient's standing in today's queue.
// data is null when the patient has no active appointment today.
func (h *QueueHandler) MyPosition(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	pos, err := h.queueSvc.MyPosition(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pos)
}

// PatientPosition is the front-desk view of a patient's queue standing.
func (h *QueueHandler) PatientPosition(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	pos, err := h.queueSvc.PositionForPatient(c.Request.Context(), patientID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pos)
}
