package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jljulioa/POS-App-sub001/internal/dto"
	"github.com/jljulioa/POS-App-sub001/internal/model"
	"github.com/jljulioa/POS-App-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseInvoiceService interface {
	Create(ctx context.Context, req dto.CreatePurchaseInvoiceRequest) (*dto.PurchaseInvoiceResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseInvoiceResponse, error)
	List(ctx context.Context, filter dto.PurchaseInvoiceFilter) (*dto.PurchaseInvoiceListResponse, error)
	Receive(ctx context.Context, id uuid.UUID, req dto.ReceivePurchaseInvoiceRequest) (*dto.PurchaseInvoiceResponse, error)
	RecordPayment(ctx context.Context, id uuid.UUID, req dto.RecordPaymentRequest) (*dto.PaymentResponse, error)
}

type purchaseInvoiceService struct {
	repo     repository.PurchaseInvoiceRepository
	products repository.ProductRepository
	prices   repository.PriceHistoryRepository
	stock    StockMutator
	ledger   LedgerWriter
}

func NewPurchaseInvoiceService(
	repo repository.PurchaseInvoiceRepository,
	products repository.ProductRepository,
	prices repository.PriceHistoryRepository,
	stock StockMutator,
	ledger LedgerWriter,
) PurchaseInvoiceService {
	return &purchaseInvoiceService{
		repo:     repo,
		products: products,
		prices:   prices,
		stock:    stock,
		ledger:   ledger,
	}
}

const dateLayout = "2006-01-02"

func (s *purchaseInvoiceService) Create(ctx context.Context, req dto.CreatePurchaseInvoiceRequest) (*dto.PurchaseInvoiceResponse, error) {
	if strings.TrimSpace(req.InvoiceNumber) == "" {
		return nil, invalid("invoice_number", "required")
	}
	if strings.TrimSpace(req.SupplierName) == "" {
		return nil, invalid("supplier_name", "required")
	}
	if req.TotalAmount.IsNegative() {
		return nil, invalid("total_amount", "must not be negative")
	}
	if err := checkCents("total_amount", req.TotalAmount); err != nil {
		return nil, err
	}
	date, err := time.Parse(dateLayout, req.InvoiceDate)
	if err != nil {
		return nil, invalid("invoice_date", "expected YYYY-MM-DD")
	}

	inv := &model.PurchaseInvoice{
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		InvoiceDate:   date,
		SupplierName:  req.SupplierName,
		TotalAmount:   req.TotalAmount,
		PaymentTerms:  req.PaymentTerms,
		BalanceDue:    req.TotalAmount,
		PaymentStatus: model.DerivePaymentStatus(req.TotalAmount, req.TotalAmount),
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("invoice number %s: %w", inv.InvoiceNumber, ErrDuplicate)
		}
		return nil, fmt.Errorf("create purchase invoice: %w", err)
	}
	return invoiceToResponse(inv), nil
}

func (s *purchaseInvoiceService) Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseInvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoiceNotFound(id)
		}
		return nil, err
	}
	return invoiceToResponse(inv), nil
}

func (s *purchaseInvoiceService) List(ctx context.Context, filter dto.PurchaseInvoiceFilter) (*dto.PurchaseInvoiceListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	invoices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.PurchaseInvoiceResponse, 0, len(invoices))
	for i := range invoices {
		data = append(data, *invoiceToResponse(&invoices[i]))
	}
	return &dto.PurchaseInvoiceListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

type receiveLine struct {
	productID uuid.UUID
	quantity  int
	cost      decimal.Decimal
	price     *decimal.Decimal
}

// ── Receive ───────────────────────────────────────────────────────────────────
//   1. Validate lines (no transaction yet)
//   2. BEGIN TX: lock invoice; refuse if already processed unless re-receive
//      is allowed; per line: add stock, update cost/price (+ price history),
//      upsert the invoice line, write a Purchase ledger entry
//   3. Mark processed, COMMIT. Any failing line rolls back the whole batch.

func (s *purchaseInvoiceService) Receive(ctx context.Context, id uuid.UUID, req dto.ReceivePurchaseInvoiceRequest) (*dto.PurchaseInvoiceResponse, error) {
	lines, err := validateReceive(req)
	if err != nil {
		return nil, err
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		inv, err := s.repo.LockByIDTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invoiceNotFound(id)
			}
			return fmt.Errorf("lock purchase invoice %s: %w", id, err)
		}
		if inv.Processed && !req.AllowReReceive {
			return fmt.Errorf("invoice %s: %w", inv.InvoiceNumber, ErrInvoiceAlreadyProcessed)
		}

		for _, l := range lines {
			if err := s.receiveLine(tx, inv, l); err != nil {
				return err
			}
		}
		return s.repo.MarkProcessedTx(tx, id)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("invoice_id", id.String()).
		Int("lines", len(lines)).
		Bool("re_receive", req.AllowReReceive).
		Msg("purchase invoice received")

	return s.Get(ctx, id)
}

func (s *purchaseInvoiceService) receiveLine(tx *gorm.DB, inv *model.PurchaseInvoice, l receiveLine) error {
	mut, err := s.stock.Mutate(tx, l.productID, l.quantity, true)
	if err != nil {
		return err
	}
	p := mut.Product

	newPrice := p.Price
	if l.price != nil {
		newPrice = *l.price
	}
	priceChanged := !newPrice.Equal(p.Price)
	costChanged := !l.cost.Equal(p.Cost)
	if costChanged || priceChanged {
		if err := s.products.UpdatePricesTx(tx, p.ID, l.cost, newPrice); err != nil {
			return fmt.Errorf("update prices of %s: %w", p.ID, err)
		}
		invoiceID := inv.ID
		if err := s.prices.CreateTx(tx, &model.PriceHistory{
			ProductID:         p.ID,
			PurchaseInvoiceID: &invoiceID,
			CostBefore:        p.Cost,
			CostAfter:         l.cost,
			PriceBefore:       p.Price,
			PriceAfter:        newPrice,
			Reason:            model.PriceChangeReasonPurchaseInvoice,
		}); err != nil {
			return fmt.Errorf("record price history of %s: %w", p.ID, err)
		}
	}

	lineCost := l.cost.Mul(decimal.NewFromInt(int64(l.quantity)))
	item, err := s.repo.FindItemTx(tx, inv.ID, p.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = &model.PurchaseInvoiceItem{
			PurchaseInvoiceID: inv.ID,
			ProductID:         p.ID,
			ProductName:       p.Name,
			Quantity:          l.quantity,
			CostPrice:         l.cost,
			TotalCost:         lineCost,
		}
		if err := s.repo.CreateItemTx(tx, item); err != nil {
			return fmt.Errorf("create invoice line for %s: %w", p.ID, err)
		}
	case err != nil:
		return fmt.Errorf("find invoice line for %s: %w", p.ID, err)
	default:
		item.ProductName = p.Name
		item.CostPrice = l.cost
		item.Quantity += l.quantity
		item.TotalCost = item.TotalCost.Add(lineCost)
		if err := s.repo.UpdateItemTx(tx, item); err != nil {
			return fmt.Errorf("update invoice line for %s: %w", p.ID, err)
		}
	}

	notes := fmt.Sprintf("Invoice %s: cost %s -> %s", inv.InvoiceNumber, p.Cost.StringFixed(2), l.cost.StringFixed(2))
	if priceChanged {
		notes += fmt.Sprintf(", price %s -> %s", p.Price.StringFixed(2), newPrice.StringFixed(2))
	}
	_, err = s.ledger.Record(tx, entryFor(mut, model.TransactionPurchase, inv.ID.String(), notes))
	return err
}

func validateReceive(req dto.ReceivePurchaseInvoiceRequest) ([]receiveLine, error) {
	if len(req.Items) == 0 {
		return nil, invalid("items", "nothing to receive")
	}
	lines := make([]receiveLine, 0, len(req.Items))
	for i, it := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, invalid(field+".product_id", "not a valid id")
		}
		if it.Quantity < 1 {
			return nil, invalid(field+".quantity", "must be at least 1")
		}
		if it.CostPrice.IsNegative() {
			return nil, invalid(field+".cost_price", "must not be negative")
		}
		if err := checkCents(field+".cost_price", it.CostPrice); err != nil {
			return nil, err
		}
		if it.NewSellingPrice != nil {
			if it.NewSellingPrice.IsNegative() {
				return nil, invalid(field+".new_selling_price", "must not be negative")
			}
			if err := checkCents(field+".new_selling_price", *it.NewSellingPrice); err != nil {
				return nil, err
			}
		}
		lines = append(lines, receiveLine{
			productID: pid,
			quantity:  it.Quantity,
			cost:      it.CostPrice,
			price:     it.NewSellingPrice,
		})
	}
	return lines, nil
}

// ── RecordPayment ─────────────────────────────────────────────────────────────
// Locks the invoice, rejects overpayment, stores the payment and the new
// balance/status together.

func (s *purchaseInvoiceService) RecordPayment(ctx context.Context, id uuid.UUID, req dto.RecordPaymentRequest) (*dto.PaymentResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, invalid("amount", "must be greater than zero")
	}
	if err := checkCents("amount", req.Amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, invalid("payment_method", "required")
	}
	paidOn := time.Now().UTC()
	if req.PaymentDate != "" {
		d, err := time.Parse(dateLayout, req.PaymentDate)
		if err != nil {
			return nil, invalid("payment_date", "expected YYYY-MM-DD")
		}
		paidOn = d
	}

	var resp dto.PaymentResponse
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		inv, err := s.repo.LockByIDTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invoiceNotFound(id)
			}
			return fmt.Errorf("lock purchase invoice %s: %w", id, err)
		}
		if req.Amount.GreaterThan(inv.BalanceDue) {
			return &OverpaymentError{InvoiceID: id.String(), Amount: req.Amount, BalanceDue: inv.BalanceDue}
		}

		balance := inv.BalanceDue.Sub(req.Amount)
		status := model.DerivePaymentStatus(balance, inv.TotalAmount)

		payment := &model.PurchaseInvoicePayment{
			PurchaseInvoiceID: id,
			PaymentDate:       paidOn,
			Amount:            req.Amount,
			PaymentMethod:     req.PaymentMethod,
			Notes:             req.Notes,
		}
		if err := s.repo.CreatePaymentTx(tx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if err := s.repo.UpdateBalanceTx(tx, id, balance, status); err != nil {
			return fmt.Errorf("update invoice balance: %w", err)
		}

		resp = dto.PaymentResponse{
			InvoiceID:     id.String(),
			PaymentID:     payment.ID.String(),
			Amount:        req.Amount,
			BalanceDue:    balance,
			PaymentStatus: string(status),
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("invoice_id", id.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Str("balance_due", resp.BalanceDue.StringFixed(2)).
		Str("status", resp.PaymentStatus).
		Msg("invoice payment recorded")

	return &resp, nil
}

func invoiceToResponse(inv *model.PurchaseInvoice) *dto.PurchaseInvoiceResponse {
	items := make([]dto.PurchaseInvoiceItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, dto.PurchaseInvoiceItemResponse{
			ID:          it.ID.String(),
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			CostPrice:   it.CostPrice,
			TotalCost:   it.TotalCost,
		})
	}
	payments := make([]dto.PurchaseInvoicePaymentResponse, 0, len(inv.Payments))
	for _, p := range inv.Payments {
		payments = append(payments, dto.PurchaseInvoicePaymentResponse{
			ID:            p.ID.String(),
			PaymentDate:   p.PaymentDate.Format(dateLayout),
			Amount:        p.Amount,
			PaymentMethod: p.PaymentMethod,
			Notes:         p.Notes,
		})
	}
	return &dto.PurchaseInvoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   inv.InvoiceDate.Format(dateLayout),
		SupplierName:  inv.SupplierName,
		TotalAmount:   inv.TotalAmount,
		PaymentTerms:  inv.PaymentTerms,
		Processed:     inv.Processed,
		BalanceDue:    inv.BalanceDue,
		PaymentStatus: string(inv.PaymentStatus),
		Items:         items,
		Payments:      payments,
		CreatedAt:     formatTime(inv.CreatedAt),
	}
}
