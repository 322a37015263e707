package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
	// PaymentMethodCredit sells on account: the sale total is added to the
	// customer's outstanding balance.
	PaymentMethodCredit = "credit"
)

// Sale is the live record of what the customer still owns: returns shrink the
// lines and TotalAmount is recomputed from them.
type Sale struct {
	ID            uuid.UUID       `gorm:"type:char(36);primaryKey"`
	CustomerID    *uuid.UUID      `gorm:"type:char(36);index"`
	CashierID     string          `gorm:"type:varchar(64)"`
	PaymentMethod string          `gorm:"type:varchar(20);not null"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt     time.Time       `gorm:"index"`
	UpdatedAt     time.Time

	Items []SaleItem `gorm:"foreignKey:SaleID"`
}

func (s *Sale) BeforeCreate(_ *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// SumItems returns the sum of the current line totals.
func (s *Sale) SumItems() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.TotalPrice)
	}
	return total
}

type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:char(36);primaryKey"`
	SaleID      uuid.UUID       `gorm:"type:char(36);not null;index"`
	LineNo      int             `gorm:"not null"`
	ProductID   uuid.UUID       `gorm:"type:char(36);not null;index"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"` // snapshot at sale time
	TotalPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (i *SaleItem) BeforeCreate(_ *gorm.DB) error {
	assignID(&i.ID)
	return nil
}
