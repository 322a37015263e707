package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jljulioa/POS-App-sub001/internal/dto"
	"github.com/jljulioa/POS-App-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

// ── Stubs ─────────────────────────────────────────────────────────────────────

type stubSales struct {
	err  error
	last dto.RecordSaleRequest
}

func (s *stubSales) RecordSale(_ context.Context, req dto.RecordSaleRequest) (*dto.SaleResponse, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.SaleResponse{ID: uuid.NewString(), CashierID: req.CashierID}, nil
}
func (s *stubSales) GetSale(_ context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.SaleResponse{ID: id.String()}, nil
}
func (s *stubSales) ListSales(context.Context, dto.SaleFilter) (*dto.SaleListResponse, error) {
	return &dto.SaleListResponse{}, s.err
}

var _ service.SaleService = (*stubSales)(nil)

type stubReturns struct{ err error }

func (s *stubReturns) ProcessReturn(_ context.Context, id uuid.UUID, _ dto.ProcessReturnRequest) (*dto.ReturnResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ReturnResponse{SaleID: id.String()}, nil
}

var _ service.ReturnService = (*stubReturns)(nil)

type stubInventory struct {
	report *dto.ReconciliationReport
	err    error
}

func (s *stubInventory) AdjustStock(_ context.Context, req dto.AdjustStockRequest) (*dto.AdjustStockResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.AdjustStockResponse{ProductID: req.ProductID, StockAfter: *req.NewPhysicalCount}, nil
}
func (s *stubInventory) ListTransactions(context.Context, dto.InventoryTransactionFilter) (*dto.InventoryTransactionListResponse, error) {
	return &dto.InventoryTransactionListResponse{}, s.err
}
func (s *stubInventory) LowStockAlerts(context.Context) ([]dto.LowStockAlert, error) {
	return []dto.LowStockAlert{}, s.err
}
func (s *stubInventory) Reconcile(context.Context) (*dto.ReconciliationReport, error) {
	return s.report, s.err
}

var _ service.InventoryService = (*stubInventory)(nil)

// ── Helpers ──────────────────────────────────────────────────────────────────

func send(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func salesRouter(sales *stubSales, returns *stubReturns) *gin.Engine {
	h := NewSalesHandler(sales, returns)
	r := gin.New()
	r.POST("/sales", h.Record)
	r.GET("/sales/:id", h.Get)
	r.POST("/sales/:id/returns", h.Return)
	return r
}

func validSale() map[string]interface{} {
	return map[string]interface{}{
		"payment_method": "cash",
		"cashier_id":     "till-3",
		"items": []map[string]interface{}{
			{"product_id": uuid.NewString(), "quantity": 2, "unit_price": "1.50"},
		},
	}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestRecordSale_Created(t *testing.T) {
	sales := &stubSales{}
	w := send(salesRouter(sales, &stubReturns{}), http.MethodPost, "/sales", validSale())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "till-3", sales.last.CashierID)
	assert.True(t, sales.last.Items[0].UnitPrice.Equal(decimal.RequireFromString("1.50")))
}

func TestRecordSale_BindingErrors(t *testing.T) {
	r := salesRouter(&stubSales{}, &stubReturns{})

	req := httptest.NewRequest(http.MethodPost, "/sales", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := validSale()
	body["payment_method"] = "barter"
	w = send(r, http.MethodPost, "/sales", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "PaymentMethod")

	body = validSale()
	body["items"] = []map[string]interface{}{}
	w = send(r, http.MethodPost, "/sales", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("x: %w", service.ErrProductNotFound), http.StatusNotFound, "not_found"},
		{"insufficient stock", &service.InsufficientStockError{ProductID: "p", Requested: 3, Available: 1}, http.StatusConflict, "insufficient_stock"},
		{"return exceeds", &service.ReturnExceedsOriginalError{}, http.StatusConflict, "return_exceeds_original"},
		{"overpayment", &service.OverpaymentError{}, http.StatusConflict, "overpayment"},
		{"already processed", service.ErrInvoiceAlreadyProcessed, http.StatusConflict, "already_processed"},
		{"duplicate", service.ErrDuplicate, http.StatusConflict, "duplicate"},
		{"validation", &service.ValidationError{Field: "items", Reason: "empty"}, http.StatusBadRequest, "invalid"},
		{"deadlock", fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40P01"}), http.StatusConflict, "retry"},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := send(salesRouter(&stubSales{err: tc.err}, &stubReturns{}), http.MethodPost, "/sales", validSale())
			assert.Equal(t, tc.status, w.Code)

			var body struct {
				Detail string `json:"detail"`
				Code   string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.Detail)
			if tc.code == "retry" {
				assert.Equal(t, "1", w.Header().Get("Retry-After"))
			}
			if tc.status == http.StatusInternalServerError {
				assert.NotContains(t, body.Detail, "disk on fire")
			}
		})
	}
}

func TestGetSale_BadID(t *testing.T) {
	w := send(salesRouter(&stubSales{}, &stubReturns{}), http.MethodGet, "/sales/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReturn_OK(t *testing.T) {
	id := uuid.NewString()
	w := send(salesRouter(&stubSales{}, &stubReturns{}), http.MethodPost, "/sales/"+id+"/returns", map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": uuid.NewString(), "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), id)
}

func TestAdjust_RequiresCount(t *testing.T) {
	h := NewInventoryHandler(&stubInventory{})
	r := gin.New()
	r.POST("/adjustments", h.Adjust)

	w := send(r, http.MethodPost, "/adjustments", map[string]interface{}{"product_id": uuid.NewString()})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = send(r, http.MethodPost, "/adjustments", map[string]interface{}{"product_id": uuid.NewString(), "new_physical_count": 0})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestReconciliation_ReportsDrift(t *testing.T) {
	h := NewInventoryHandler(&stubInventory{report: &dto.ReconciliationReport{
		OK:         false,
		StockDrift: []dto.StockDrift{{ProductID: "p", Stock: 3, LedgerStock: 2}},
	}})
	r := gin.New()
	r.GET("/reconciliation", h.Reconciliation)

	w := send(r, http.MethodGet, "/reconciliation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":false`)
}
