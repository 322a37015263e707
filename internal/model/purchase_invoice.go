package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "Unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "Partially Paid"
	PaymentStatusPaid          PaymentStatus = "Paid"
)

// DerivePaymentStatus is the only place payment status is computed.
func DerivePaymentStatus(balanceDue, totalAmount decimal.Decimal) PaymentStatus {
	switch {
	case !balanceDue.IsPositive():
		return PaymentStatusPaid
	case balanceDue.LessThan(totalAmount):
		return PaymentStatusPartiallyPaid
	default:
		return PaymentStatusUnpaid
	}
}

// PurchaseInvoice is a supplier invoice. Processed flips to true when goods
// are received; BalanceDue is TotalAmount minus the sum of payments.
type PurchaseInvoice struct {
	ID            uuid.UUID       `gorm:"type:char(36);primaryKey"`
	InvoiceNumber string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	InvoiceDate   time.Time       `gorm:"not null"`
	SupplierName  string          `gorm:"type:varchar(255);not null"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentTerms  string          `gorm:"type:varchar(128)"`
	Processed     bool            `gorm:"not null;default:false"`
	BalanceDue    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items    []PurchaseInvoiceItem    `gorm:"foreignKey:PurchaseInvoiceID"`
	Payments []PurchaseInvoicePayment `gorm:"foreignKey:PurchaseInvoiceID"`
}

func (p *PurchaseInvoice) BeforeCreate(_ *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// PurchaseInvoiceItem is unique per (invoice, product); re-receiving the same
// product accumulates Quantity and TotalCost.
type PurchaseInvoiceItem struct {
	ID                uuid.UUID       `gorm:"type:char(36);primaryKey"`
	PurchaseInvoiceID uuid.UUID       `gorm:"type:char(36);not null;uniqueIndex:idx_invoice_product"`
	ProductID         uuid.UUID       `gorm:"type:char(36);not null;uniqueIndex:idx_invoice_product"`
	ProductName       string          `gorm:"type:varchar(255);not null"`
	Quantity          int             `gorm:"not null"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalCost         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (i *PurchaseInvoiceItem) BeforeCreate(_ *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

type PurchaseInvoicePayment struct {
	ID                uuid.UUID       `gorm:"type:char(36);primaryKey"`
	PurchaseInvoiceID uuid.UUID       `gorm:"type:char(36);not null;index"`
	PaymentDate       time.Time       `gorm:"not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod     string          `gorm:"type:varchar(20);not null"`
	Notes             *string
	CreatedAt         time.Time
}

func (p *PurchaseInvoicePayment) BeforeCreate(_ *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
