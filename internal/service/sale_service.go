package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jljulioa/POS-App-sub001/internal/dto"
	"github.com/jljulioa/POS-App-sub001/internal/model"
	"github.com/jljulioa/POS-App-sub001/internal/repository"
	"github.com/jljulioa/POS-App-sub001/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	RecordSale(ctx context.Context, req dto.RecordSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo       repository.SaleRepository
	customers  repository.CustomerRepository
	stock      StockMutator
	ledger     LedgerWriter
	dispatcher *worker.Dispatcher
}

func NewSaleService(
	repo repository.SaleRepository,
	customers repository.CustomerRepository,
	stock StockMutator,
	ledger LedgerWriter,
	dispatcher *worker.Dispatcher,
) SaleService {
	return &saleService{
		repo:       repo,
		customers:  customers,
		stock:      stock,
		ledger:     ledger,
		dispatcher: dispatcher,
	}
}

type saleLine struct {
	productID uuid.UUID
	name      string
	quantity  int
	unitPrice decimal.Decimal
	total     decimal.Decimal
}

// ── RecordSale ────────────────────────────────────────────────────────────────
//   1. Validate the cart (no transaction yet)
//   2. BEGIN TX: insert header, per line lock, insert line and deduct stock,
//      update customer balance for credit sales, write one Sale ledger entry per line
//   3. COMMIT
//   4. (async) enqueue low-stock alerts

func (s *saleService) RecordSale(ctx context.Context, req dto.RecordSaleRequest) (*dto.SaleResponse, error) {
	lines, total, customerID, err := validateSale(req)
	if err != nil {
		return nil, err
	}

	sale := model.Sale{
		CustomerID:    customerID,
		CashierID:     req.CashierID,
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   total,
	}
	var touched []*StockMutation

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		touched = touched[:0]
		if err := s.repo.CreateTx(tx, &sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		items := make([]model.SaleItem, 0, len(lines))
		for i, l := range lines {
			// Lock first so the line carries the product's name and cost,
			// then insert the line ahead of the deduction.
			product, err := s.stock.Lock(tx, l.productID)
			if err != nil {
				return err
			}
			name := l.name
			if name == "" {
				name = product.Name
			}
			item := model.SaleItem{
				SaleID:      sale.ID,
				LineNo:      i + 1,
				ProductID:   l.productID,
				ProductName: name,
				Quantity:    l.quantity,
				UnitPrice:   l.unitPrice,
				CostPrice:   product.Cost,
				TotalPrice:  l.total,
			}
			if err := s.repo.CreateItemTx(tx, &item); err != nil {
				return fmt.Errorf("create sale line %d: %w", i+1, err)
			}
			mut, err := s.stock.Mutate(tx, l.productID, -l.quantity, false)
			if err != nil {
				return err
			}
			items = append(items, item)
			touched = append(touched, mut)
		}
		sale.Items = items

		if sale.CustomerID != nil {
			if err := s.chargeCustomer(tx, *sale.CustomerID, sale.PaymentMethod, total); err != nil {
				return err
			}
		}

		// Ledger last, so each entry reflects the final state of its product.
		ref := sale.ID.String()
		for _, mut := range touched {
			notes := fmt.Sprintf("Sale %s", ref)
			if _, err := s.ledger.Record(tx, entryFor(mut, model.TransactionSale, ref, notes)); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Int("lines", len(sale.Items)).
		Str("total", sale.TotalAmount.StringFixed(2)).
		Msg("sale recorded")

	enqueueLowStock(ctx, s.dispatcher, touched, sale.ID.String())

	return saleToResponse(&sale), nil
}

// chargeCustomer checks the customer exists and, for credit sales, adds the
// sale total to the outstanding balance.
func (s *saleService) chargeCustomer(tx *gorm.DB, customerID uuid.UUID, method string, amount decimal.Decimal) error {
	c, err := s.customers.LockByIDTx(tx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return customerNotFound(customerID)
		}
		return fmt.Errorf("lock customer %s: %w", customerID, err)
	}
	if method != model.PaymentMethodCredit {
		return nil
	}
	if err := s.customers.UpdateOutstandingTx(tx, customerID, c.OutstandingBalance.Add(amount)); err != nil {
		return fmt.Errorf("update customer balance: %w", err)
	}
	return nil
}

// validateSale rejects malformed carts before any transaction opens.
func validateSale(req dto.RecordSaleRequest) ([]saleLine, decimal.Decimal, *uuid.UUID, error) {
	switch req.PaymentMethod {
	case model.PaymentMethodCash, model.PaymentMethodCard, model.PaymentMethodTransfer, model.PaymentMethodCredit:
	default:
		return nil, decimal.Zero, nil, invalid("payment_method", fmt.Sprintf("unsupported method %q", req.PaymentMethod))
	}
	if len(req.Items) == 0 {
		return nil, decimal.Zero, nil, invalid("items", "a sale needs at least one line")
	}

	var customerID *uuid.UUID
	if req.CustomerID != nil && *req.CustomerID != "" {
		id, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return nil, decimal.Zero, nil, invalid("customer_id", "not a valid id")
		}
		customerID = &id
	}
	if req.PaymentMethod == model.PaymentMethodCredit && customerID == nil {
		return nil, decimal.Zero, nil, invalid("customer_id", "credit sales need a customer")
	}

	lines := make([]saleLine, 0, len(req.Items))
	total := decimal.Zero
	for i, it := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, decimal.Zero, nil, invalid(field+".product_id", "not a valid id")
		}
		if it.Quantity < 1 {
			return nil, decimal.Zero, nil, invalid(field+".quantity", "must be at least 1")
		}
		if it.UnitPrice.IsNegative() {
			return nil, decimal.Zero, nil, invalid(field+".unit_price", "must not be negative")
		}
		if err := checkCents(field+".unit_price", it.UnitPrice); err != nil {
			return nil, decimal.Zero, nil, err
		}
		lineTotal := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		if it.TotalPrice != nil && !it.TotalPrice.Equal(lineTotal) {
			return nil, decimal.Zero, nil, invalid(field+".total_price",
				fmt.Sprintf("expected %s for %d x %s", lineTotal.StringFixed(2), it.Quantity, it.UnitPrice.StringFixed(2)))
		}
		total = total.Add(lineTotal)
		lines = append(lines, saleLine{
			productID: pid,
			name:      it.ProductName,
			quantity:  it.Quantity,
			unitPrice: it.UnitPrice,
			total:     lineTotal,
		})
	}
	return lines, total, customerID, nil
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, saleNotFound(id)
		}
		return nil, err
	}
	return saleToResponse(sale), nil
}

// ListSales returns a paginated list of sales, newest first.
func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		data = append(data, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// enqueueLowStock is best effort: the sale is already committed.
func enqueueLowStock(ctx context.Context, d *worker.Dispatcher, touched []*StockMutation, ref string) {
	if d == nil {
		return
	}
	for _, alert := range lowStockAlerts(touched, ref) {
		if err := d.EnqueueStockAlert(ctx, alert); err != nil {
			log.Warn().Err(err).Str("product_id", alert.ProductID).Msg("failed to enqueue stock alert")
		}
	}
}

// lowStockAlerts builds one alert per product at or below its minimum. A
// product touched by several lines is judged on its last mutation.
func lowStockAlerts(touched []*StockMutation, ref string) []worker.StockAlert {
	last := make(map[uuid.UUID]*StockMutation, len(touched))
	order := make([]uuid.UUID, 0, len(touched))
	for _, mut := range touched {
		id := mut.Product.ID
		if _, seen := last[id]; !seen {
			order = append(order, id)
		}
		last[id] = mut
	}

	var alerts []worker.StockAlert
	now := formatTime(time.Now())
	for _, id := range order {
		mut := last[id]
		if mut.StockAfter > mut.Product.MinStock {
			continue
		}
		alerts = append(alerts, worker.StockAlert{
			ProductID:   id.String(),
			ProductName: mut.Product.Name,
			Stock:       mut.StockAfter,
			MinStock:    mut.Product.MinStock,
			DocumentID:  ref,
			RaisedAt:    now,
		})
	}
	return alerts
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func saleToResponse(s *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, dto.SaleItemResponse{
			ID:          it.ID.String(),
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			CostPrice:   it.CostPrice,
			TotalPrice:  it.TotalPrice,
		})
	}
	resp := &dto.SaleResponse{
		ID:            s.ID.String(),
		CashierID:     s.CashierID,
		PaymentMethod: s.PaymentMethod,
		TotalAmount:   s.TotalAmount,
		Items:         items,
		CreatedAt:     formatTime(s.CreatedAt),
	}
	if s.CustomerID != nil {
		id := s.CustomerID.String()
		resp.CustomerID = &id
	}
	return resp
}
