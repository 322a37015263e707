package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	From       string `form:"from"` // YYYY-MM-DD, inclusive
	To         string `form:"to"`   // YYYY-MM-DD, inclusive
	CustomerID string `form:"customer_id"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleItemRequest struct {
	ProductID   string          `json:"product_id"   validate:"required,uuid"`
	ProductName string          `json:"product_name" validate:"omitempty,max=255"`
	Quantity    int             `json:"quantity"     validate:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price"   validate:"min=0"`
	// TotalPrice is optional; when present it must equal quantity * unit_price.
	TotalPrice *decimal.Decimal `json:"total_price"`
}

type RecordSaleRequest struct {
	CustomerID    *string           `json:"customer_id"    validate:"omitempty,uuid"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash card transfer credit"`
	CashierID     string            `json:"cashier_id"     validate:"omitempty,max=64"`
	Items         []SaleItemRequest `json:"items"          validate:"required,min=1,dive"`
}

type ReturnItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type ProcessReturnRequest struct {
	Items []ReturnItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes *string             `json:"notes" validate:"omitempty,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	CustomerID    *string            `json:"customer_id,omitempty"`
	CashierID     string             `json:"cashier_id,omitempty"`
	PaymentMethod string             `json:"payment_method"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Items         []SaleItemResponse `json:"items"`
	CreatedAt     string             `json:"created_at"`
}

type ReturnResponse struct {
	SaleID      string          `json:"sale_id"`
	RefundTotal decimal.Decimal `json:"refund_total"`
	Sale        SaleResponse    `json:"sale"`
}
