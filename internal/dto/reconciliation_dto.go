package dto

import "github.com/shopspring/decimal"

// ReconciliationReport lists every place where stored aggregates disagree
// with the ledger. OK is true when all lists are empty.
type ReconciliationReport struct {
	OK                  bool                  `json:"ok"`
	ProductsChecked     int                   `json:"products_checked"`
	StockDrift          []StockDrift          `json:"stock_drift"`
	BrokenEntries       []BrokenLedgerEntry   `json:"broken_entries"`
	SaleTotalDrift      []SaleTotalDrift      `json:"sale_total_drift"`
	InvoiceBalanceDrift []InvoiceBalanceDrift `json:"invoice_balance_drift"`
}

type StockDrift struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Stock          int    `json:"stock"`
	LedgerStock    int    `json:"ledger_stock"`
	HasLedgerEntry bool   `json:"has_ledger_entry"`
}

type BrokenLedgerEntry struct {
	TransactionID  uint64 `json:"transaction_id"`
	ProductID      string `json:"product_id"`
	QuantityChange int    `json:"quantity_change"`
	StockBefore    int    `json:"stock_before"`
	StockAfter     int    `json:"stock_after"`
}

type SaleTotalDrift struct {
	SaleID      string          `json:"sale_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemsTotal  decimal.Decimal `json:"items_total"`
}

type InvoiceBalanceDrift struct {
	InvoiceID     string          `json:"invoice_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentsTotal decimal.Decimal `json:"payments_total"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
}
