package model

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionSale       TransactionType = "Sale"
	TransactionPurchase   TransactionType = "Purchase"
	TransactionReturn     TransactionType = "Return"
	TransactionAdjustment TransactionType = "Adjustment"
)

// InventoryTransaction is one immutable ledger entry. Rows are only ever
// inserted; corrections are new entries.
//
// ID is an insertion sequence so "most recent entry for a product" has a total
// order even when several entries share a timestamp. RelatedDocumentID is a
// loose reference (sale, invoice, adjustment) and is not a foreign key.
type InventoryTransaction struct {
	ID                uint64          `gorm:"primaryKey;autoIncrement"`
	ProductID         uuid.UUID       `gorm:"type:char(36);not null;index"`
	ProductName       string          `gorm:"type:varchar(255);not null"`
	TransactionType   TransactionType `gorm:"type:varchar(20);not null;index"`
	QuantityChange    int             `gorm:"not null"`
	StockBefore       int             `gorm:"not null"`
	StockAfter        int             `gorm:"not null"`
	RelatedDocumentID string          `gorm:"type:varchar(64);index"`
	Notes             string          `gorm:"type:text"`
	CreatedAt         time.Time       `gorm:"index"`
}
