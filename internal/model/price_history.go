package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const PriceChangeReasonPurchaseInvoice = "purchase_invoice"

// PriceHistory records every cost/price change of a product.
// Rows are immutable: never updated or deleted.
type PriceHistory struct {
	ID                uuid.UUID       `gorm:"type:char(36);primaryKey"`
	ProductID         uuid.UUID       `gorm:"type:char(36);not null;index"`
	PurchaseInvoiceID *uuid.UUID      `gorm:"type:char(36);index"`
	CostBefore        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostAfter         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PriceBefore       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PriceAfter        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason            string          `gorm:"type:varchar(32);not null"`
	CreatedAt         time.Time
}

func (h *PriceHistory) BeforeCreate(_ *gorm.DB) error {
	assignID(&h.ID)
	return nil
}
