package handler

import (
	"net/http"

	"github.com/jljulioa/POS-App-sub001/internal/dto"
	"github.com/jljulioa/POS-App-sub001/internal/middleware"
	"github.com/jljulioa/POS-App-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct {
	sales   service.SaleService
	returns service.ReturnService
}

func NewSalesHandler(sales service.SaleService, returns service.ReturnService) *SalesHandler {
	return &SalesHandler{sales: sales, returns: returns}
}

// Record creates a sale. The cashier comes from the token when auth is on;
// otherwise from the request body.
func (h *SalesHandler) Record(c *gin.Context) {
	var req dto.RecordSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if claims := middleware.GetClaims(c); claims != nil && claims.UserID != "" {
		req.CashierID = claims.UserID
	}

	resp, err := h.sales.RecordSale(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SalesHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.sales.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalesHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.sales.ListSales(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Return puts returned units back in stock and shrinks the sale.
func (h *SalesHandler) Return(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ProcessReturnRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.returns.ProcessReturn(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
