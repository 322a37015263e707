package handler

import (
	"net/http"

	"github.com/jljulioa/POS-App-sub001/internal/dto"
	"github.com/jljulioa/POS-App-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// Adjust sets a product's stock to a physical count.
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustStock(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventoryHandler) Transactions(c *gin.Context) {
	var filter dto.InventoryTransactionFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) Alerts(c *gin.Context) {
	resp, err := h.svc.LowStockAlerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reconciliation reports ledger drift. The report's ok flag carries the
// verdict; the request itself succeeds either way.
func (h *InventoryHandler) Reconciliation(c *gin.Context) {
	report, err := h.svc.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
