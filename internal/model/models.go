package model

// AllModels lists every persisted model, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Product{},
		&InventoryTransaction{},
		&Customer{},
		&Sale{},
		&SaleItem{},
		&PurchaseInvoice{},
		&PurchaseInvoiceItem{},
		&PurchaseInvoicePayment{},
		&PriceHistory{},
	}
}
