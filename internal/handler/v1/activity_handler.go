package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/kliniksentosa/klinik-api/internal/repository"
	"github.com/kliniksentosa/klinik-api/internal/service"
)

type ActivityHandler struct {
	activitySvc *service.ActivityService
}

func NewActivityHandler(activitySvc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc}
}

func (h *ActivityHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	result, err := h.activitySvc.List(c.Request.Context(), &repository.ListActivitiesQuery{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Page:       parseQueryInt(c, "page", 1),
		PageSize:   parseQueryInt(c, "page_size", 20),
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}
