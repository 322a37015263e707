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
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	PriceHistory(ctx context.Context, id uuid.UUID, page, limit int) (*dto.PriceHistoryListResponse, error)
}

type productService struct {
	repo   repository.ProductRepository
	prices repository.PriceHistoryRepository
	ledger LedgerWriter
}

func NewProductService(repo repository.ProductRepository, prices repository.PriceHistoryRepository, ledger LedgerWriter) ProductService {
	return &productService{repo: repo, prices: prices, ledger: ledger}
}

// Create inserts a product. Opening stock is booked as an Adjustment entry
// in the same transaction so the ledger covers the product from day one.
func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, invalid("code", "required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name", "required")
	}
	if req.Stock < 0 {
		return nil, invalid("stock", "must not be negative")
	}
	if req.Cost.IsNegative() || req.Price.IsNegative() {
		return nil, invalid("price", "cost and price must not be negative")
	}
	if err := checkCents("cost", req.Cost); err != nil {
		return nil, err
	}
	if err := checkCents("price", req.Price); err != nil {
		return nil, err
	}

	p := &model.Product{
		Code:      strings.TrimSpace(req.Code),
		Name:      strings.TrimSpace(req.Name),
		Reference: req.Reference,
		Barcode:   req.Barcode,
		Stock:     req.Stock,
		MinStock:  req.MinStock,
		MaxStock:  req.MaxStock,
		Cost:      req.Cost,
		Price:     req.Price,
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		cid, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, invalid("category_id", "not a valid id")
		}
		p.CategoryID = &cid
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, p); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("product code %s: %w", p.Code, ErrDuplicate)
			}
			return fmt.Errorf("create product: %w", err)
		}
		if p.Stock == 0 {
			return nil
		}
		_, err := s.ledger.Record(tx, LedgerEntry{
			ProductID:         p.ID,
			ProductName:       p.Name,
			Type:              model.TransactionAdjustment,
			QuantityChange:    p.Stock,
			StockBefore:       0,
			StockAfter:        p.Stock,
			RelatedDocumentID: "OPEN-" + p.ID.String(),
			Notes:             "Opening stock",
		})
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Str("product_id", p.ID.String()).Str("code", p.Code).Int("stock", p.Stock).Msg("product created")
	return productToResponse(p), nil
}

func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productNotFound(id)
		}
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		data = append(data, *productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *productService) PriceHistory(ctx context.Context, id uuid.UUID, page, limit int) (*dto.PriceHistoryListResponse, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	rows, total, err := s.prices.ListByProduct(ctx, id, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.PriceHistoryItem, 0, len(rows))
	for _, h := range rows {
		item := dto.PriceHistoryItem{
			ID:          h.ID.String(),
			ProductID:   h.ProductID.String(),
			CostBefore:  h.CostBefore,
			CostAfter:   h.CostAfter,
			PriceBefore: h.PriceBefore,
			PriceAfter:  h.PriceAfter,
			Reason:      h.Reason,
			CreatedAt:   formatTime(h.CreatedAt),
		}
		if h.PurchaseInvoiceID != nil {
			invoiceID := h.PurchaseInvoiceID.String()
			item.PurchaseInvoiceID = &invoiceID
		}
		data = append(data, item)
	}
	return &dto.PriceHistoryListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	resp := &dto.ProductResponse{
		ID:        p.ID.String(),
		Code:      p.Code,
		Name:      p.Name,
		Reference: p.Reference,
		Barcode:   p.Barcode,
		Stock:     p.Stock,
		MinStock:  p.MinStock,
		MaxStock:  p.MaxStock,
		Cost:      p.Cost,
		Price:     p.Price,
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
	if p.CategoryID != nil {
		cid := p.CategoryID.String()
		resp.CategoryID = &cid
	}
	return resp
}
