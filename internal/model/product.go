package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the single mutable aggregate for current stock.
// Stock, Cost and Price change only through the stock mutator and the
// purchase invoice receiver; every stock change has a matching
// InventoryTransaction row.
type Product struct {
	ID         uuid.UUID       `gorm:"type:char(36);primaryKey"`
	Code       string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	Name       string          `gorm:"type:varchar(255);index;not null"`
	Reference  *string         `gorm:"type:varchar(128)"`
	Barcode    *string         `gorm:"type:varchar(64);index"`
	Stock      int             `gorm:"not null;default:0"`
	MinStock   int             `gorm:"not null;default:0"`
	MaxStock   int             `gorm:"not null;default:0"`
	Cost       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CategoryID *uuid.UUID      `gorm:"type:char(36);index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// IsLowStock reports whether stock has reached the reorder threshold.
func (p *Product) IsLowStock() bool { return p.Stock <= p.MinStock }

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
