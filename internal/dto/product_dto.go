package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// ProductFilter is bound from the query string of GET /v1/products.
type ProductFilter struct {
	Query   string `form:"q"` // matches name or code
	Code    string `form:"code"`
	Barcode string `form:"barcode"`
	Page    int    `form:"page,default=1"   validate:"min=1"`
	Limit   int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Code       string          `json:"code"        validate:"required,max=64"`
	Name       string          `json:"name"        validate:"required,max=255"`
	Reference  *string         `json:"reference"   validate:"omitempty,max=128"`
	Barcode    *string         `json:"barcode"     validate:"omitempty,max=64"`
	Stock      int             `json:"stock"       validate:"min=0"`
	MinStock   int             `json:"min_stock"   validate:"min=0"`
	MaxStock   int             `json:"max_stock"   validate:"min=0"`
	Cost       decimal.Decimal `json:"cost"        validate:"min=0"`
	Price      decimal.Decimal `json:"price"       validate:"min=0"`
	CategoryID *string         `json:"category_id" validate:"omitempty,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Reference  *string         `json:"reference,omitempty"`
	Barcode    *string         `json:"barcode,omitempty"`
	Stock      int             `json:"stock"`
	MinStock   int             `json:"min_stock"`
	MaxStock   int             `json:"max_stock"`
	Cost       decimal.Decimal `json:"cost"`
	Price      decimal.Decimal `json:"price"`
	CategoryID *string         `json:"category_id,omitempty"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

// PriceHistoryItem is one row of GET /v1/products/:id/price-history.
type PriceHistoryItem struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	PurchaseInvoiceID *string         `json:"purchase_invoice_id,omitempty"`
	CostBefore        decimal.Decimal `json:"cost_before"`
	CostAfter         decimal.Decimal `json:"cost_after"`
	PriceBefore       decimal.Decimal `json:"price_before"`
	PriceAfter        decimal.Decimal `json:"price_after"`
	Reason            string          `json:"reason"`
	CreatedAt         string          `json:"created_at"`
}

type PriceHistoryListResponse struct {
	Data  []PriceHistoryItem `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
