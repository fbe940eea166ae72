package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kliniksentosa/klinik-api/internal/domain/drug"
	"github.com/kliniksentosa/klinik-api/internal/service"
)

type DrugHandler struct {
	drugSvc *service.DrugService
}

func NewDrugHandler(drugSvc *service.DrugService) *DrugHandler {
	return &DrugHandler{drugSvc: drugSvc}
}

type createDrugRequest struct {
	Name       string     `json:"name" binding:"required"`
	SKU        string     `json:"sku" binding:"required"`
	Unit       string     `json:"unit"`
	UnitPrice  int64      `json:"unit_price"`
	StockQty   int        `json:"stock_qty"`
	MinStock   int        `json:"min_stock"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

func (h *DrugHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req createDrugRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.drugSvc.Create(c.Request.Context(), &drug.CreateDrugCommand{
		Name:       req.Name,
		SKU:        req.SKU,
		Unit:       req.Unit,
		UnitPrice:  req.UnitPrice,
		StockQty:   req.StockQty,
		MinStock:   req.MinStock,
		ExpiryDate: req.ExpiryDate,
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, d)
}

type updateDrugRequest struct {
	Name       *string    `json:"name"`
	Unit       *string    `json:"unit"`
	UnitPrice  *int64     `json:"unit_price"`
	MinStock   *int       `json:"min_stock"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

func (h *DrugHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateDrugRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.drugSvc.Update(c.Request.Context(), id, &drug.UpdateDrugCommand{
		Name:       req.Name,
		Unit:       req.Unit,
		UnitPrice:  req.UnitPrice,
		MinStock:   req.MinStock,
		ExpiryDate: req.ExpiryDate,
		UpdatedBy:  actor.UserID,
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}

type adjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

func (h *DrugHandler) AdjustStock(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req adjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.drugSvc.AdjustStock(c.Request.Context(), id, &drug.AdjustStockCommand{
		Delta:  req.Delta,
		Reason: req.Reason,
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}

func (h *DrugHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.drugSvc.Get(c.Request.Context(), id, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}

func (h *DrugHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	result, err := h.drugSvc.List(c.Request.Context(), &drug.ListDrugsQuery{
		Search:   c.Query("search"),
		LowStock: c.Query("low_stock") == "true",
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, result)
}

func (h *DrugHandler) StockAudit(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	entries, err := h.drugSvc.StockAudit(c.Request.Context(), id, parseQueryInt(c, "limit", 50), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, entries)
}

func (h *DrugHandler) Deactivate(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.drugSvc.Deactivate(c.Request.Context(), id, actor); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deactivated": true})
}
