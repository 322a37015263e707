package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jljulioa/POS-App-sub001/internal/dto"
	"github.com/jljulioa/POS-App-sub001/internal/model"
	"github.com/jljulioa/POS-App-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerService interface {
	Create(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.CustomerResponse, error)
}

type customerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) CustomerService {
	return &customerService{repo: repo}
}

func (s *customerService) Create(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name", "required")
	}
	c := &model.Customer{
		Name:                 strings.TrimSpace(req.Name),
		IdentificationNumber: req.IdentificationNumber,
		Email:                req.Email,
		Phone:                req.Phone,
		OutstandingBalance:   decimal.Zero,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return customerToResponse(c), nil
}

func (s *customerService) GetByID(ctx context.Context, id uuid.UUID) (*dto.CustomerResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerNotFound(id)
		}
		return nil, err
	}
	return customerToResponse(c), nil
}

func customerToResponse(c *model.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:                   c.ID.String(),
		Name:                 c.Name,
		IdentificationNumber: c.IdentificationNumber,
		Email:                c.Email,
		Phone:                c.Phone,
		OutstandingBalance:   c.OutstandingBalance,
		CreatedAt:            formatTime(c.CreatedAt),
	}
}
