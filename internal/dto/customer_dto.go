package dto

import "github.com/shopspring/decimal"

type CreateCustomerRequest struct {
	Name                 string  `json:"name"                  validate:"required,max=255"`
	IdentificationNumber *string `json:"identification_number" validate:"omitempty,max=64"`
	Email                *string `json:"email"                 validate:"omitempty,email"`
	Phone                *string `json:"phone"                 validate:"omitempty,max=64"`
}

type CustomerResponse struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	IdentificationNumber *string         `json:"identification_number,omitempty"`
	Email                *string         `json:"email,omitempty"`
	Phone                *string         `json:"phone,omitempty"`
	OutstandingBalance   decimal.Decimal `json:"outstanding_balance"`
	CreatedAt            string          `json:"created_at"`
}
