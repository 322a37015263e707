package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

type PurchaseInvoiceFilter struct {
	PaymentStatus string `form:"payment_status" validate:"omitempty,oneof=Unpaid 'Partially Paid' Paid"`
	Processed     string `form:"processed"      validate:"omitempty,oneof=true false"`
	Page          int    `form:"page,default=1"   validate:"min=1"`
	Limit         int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type PurchaseInvoiceListResponse struct {
	Data  []PurchaseInvoiceResponse `json:"data"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Limit int                       `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreatePurchaseInvoiceRequest struct {
	InvoiceNumber string          `json:"invoice_number" validate:"required,max=64"`
	InvoiceDate   string          `json:"invoice_date"   validate:"required,datetime=2006-01-02"`
	SupplierName  string          `json:"supplier_name"  validate:"required,max=255"`
	TotalAmount   decimal.Decimal `json:"total_amount"   validate:"min=0"`
	PaymentTerms  string          `json:"payment_terms"  validate:"omitempty,max=128"`
}

type ReceiveItemRequest struct {
	ProductID       string           `json:"product_id"        validate:"required,uuid"`
	Quantity        int              `json:"quantity"          validate:"required,min=1"`
	CostPrice       decimal.Decimal  `json:"cost_price"        validate:"min=0"`
	NewSellingPrice *decimal.Decimal `json:"new_selling_price"`
}

type ReceivePurchaseInvoiceRequest struct {
	Items []ReceiveItemRequest `json:"items" validate:"required,min=1,dive"`
	// AllowReReceive lets an already processed invoice receive more goods;
	// lines for products already on the invoice accumulate.
	AllowReReceive bool `json:"allow_re_receive"`
}

type RecordPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"         validate:"required,gt=0"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash card transfer check"`
	PaymentDate   string          `json:"payment_date"   validate:"omitempty,datetime=2006-01-02"`
	Notes         *string         `json:"notes"          validate:"omitempty,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PurchaseInvoiceItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}

type PurchaseInvoicePaymentResponse struct {
	ID            string          `json:"id"`
	PaymentDate   string          `json:"payment_date"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Notes         *string         `json:"notes,omitempty"`
}

type PurchaseInvoiceResponse struct {
	ID            string                           `json:"id"`
	InvoiceNumber string                           `json:"invoice_number"`
	InvoiceDate   string                           `json:"invoice_date"`
	SupplierName  string                           `json:"supplier_name"`
	TotalAmount   decimal.Decimal                  `json:"total_amount"`
	PaymentTerms  string                           `json:"payment_terms,omitempty"`
	Processed     bool                             `json:"processed"`
	BalanceDue    decimal.Decimal                  `json:"balance_due"`
	PaymentStatus string                           `json:"payment_status"`
	Items         []PurchaseInvoiceItemResponse    `json:"items"`
	Payments      []PurchaseInvoicePaymentResponse `json:"payments"`
	CreatedAt     string                           `json:"created_at"`
}

type PaymentResponse struct {
	InvoiceID     string          `json:"invoice_id"`
	PaymentID     string          `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	PaymentStatus string          `json:"payment_status"`
}
