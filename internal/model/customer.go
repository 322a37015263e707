package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer carries the outstanding balance of sales made on credit.
type Customer struct {
	ID                   uuid.UUID       `gorm:"type:char(36);primaryKey"`
	Name                 string          `gorm:"type:varchar(255);not null"`
	IdentificationNumber *string         `gorm:"type:varchar(64);index"`
	Email                *string         `gorm:"type:varchar(255)"`
	Phone                *string         `gorm:"type:varchar(64)"`
	OutstandingBalance   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (c *Customer) BeforeCreate(_ *gorm.DB) error {
	assignID(&c.ID)
	return nil
}
