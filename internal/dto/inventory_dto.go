package dto

// ─── Filter / List ──────────────────────────────────────────────────────────

// InventoryTransactionFilter is bound from the query string of
// GET /v1/inventory/transactions.
type InventoryTransactionFilter struct {
	ProductID         string `form:"product_id"          validate:"omitempty,uuid"`
	Type              string `form:"type"                validate:"omitempty,oneof=Sale Purchase Return Adjustment"`
	RelatedDocumentID string `form:"related_document_id" validate:"omitempty,max=64"`
	Page              int    `form:"page,default=1"      validate:"min=1"`
	Limit             int    `form:"limit,default=100"   validate:"min=1,max=500"`
}

type InventoryTransactionListResponse struct {
	Data  []InventoryTransactionResponse `json:"data"`
	Total int64                          `json:"total"`
	Page  int                            `json:"page"`
	Limit int                            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AdjustStockRequest struct {
	ProductID        string  `json:"product_id"          validate:"required,uuid"`
	NewPhysicalCount *int    `json:"new_physical_count"  validate:"required,min=0"`
	Notes            *string `json:"notes"               validate:"omitempty,max=500"`
	// RelatedDocumentID references a count sheet or other business document;
	// generated when empty.
	RelatedDocumentID *string `json:"related_document_id" validate:"omitempty,max=64"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AdjustStockResponse struct {
	ProductID         string `json:"product_id"`
	StockBefore       int    `json:"stock_before"`
	StockAfter        int    `json:"stock_after"`
	Delta             int    `json:"delta"`
	RelatedDocumentID string `json:"related_document_id"`
	TransactionID     uint64 `json:"transaction_id"`
}

type InventoryTransactionResponse struct {
	ID                uint64 `json:"id"`
	ProductID         string `json:"product_id"`
	ProductName       string `json:"product_name"`
	TransactionType   string `json:"transaction_type"`
	QuantityChange    int    `json:"quantity_change"`
	StockBefore       int    `json:"stock_before"`
	StockAfter        int    `json:"stock_after"`
	RelatedDocumentID string `json:"related_document_id"`
	Notes             string `json:"notes,omitempty"`
	CreatedAt         string `json:"created_at"`
}

type LowStockAlert struct {
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	MinStock  int    `json:"min_stock"`
	MaxStock  int    `json:"max_stock"`
}
