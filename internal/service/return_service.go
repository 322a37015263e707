package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jljulioa/POS-App-sub001/internal/dto"
	"github.com/jljulioa/POS-App-sub001/internal/model"
	"github.com/jljulioa/POS-App-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReturnService interface {
	ProcessReturn(ctx context.Context, saleID uuid.UUID, req dto.ProcessReturnRequest) (*dto.ReturnResponse, error)
}

type returnService struct {
	sales     repository.SaleRepository
	customers repository.CustomerRepository
	stock     StockMutator
	ledger    LedgerWriter
}

func NewReturnService(
	sales repository.SaleRepository,
	customers repository.CustomerRepository,
	stock StockMutator,
	ledger LedgerWriter,
) ReturnService {
	return &returnService{sales: sales, customers: customers, stock: stock, ledger: ledger}
}

type returnLine struct {
	productID uuid.UUID
	quantity  int
}

// ── ProcessReturn ─────────────────────────────────────────────────────────────
// The sale stays the record of what the customer still owns: returned units
// are taken off its lines and the total is recomputed. The Return ledger
// entries are the immutable trail.
//
//   1. Validate quantities (no transaction yet)
//   2. BEGIN TX: lock the sale, check every product has enough remaining units,
//      per item add stock back, shrink lines, write a Return ledger entry
//   3. Recompute sale total, refund credit customers, COMMIT

func (s *returnService) ProcessReturn(ctx context.Context, saleID uuid.UUID, req dto.ProcessReturnRequest) (*dto.ReturnResponse, error) {
	lines, err := validateReturn(req)
	if err != nil {
		return nil, err
	}
	notes := fmt.Sprintf("Return on sale %s", saleID)
	if req.Notes != nil && *req.Notes != "" {
		notes += ": " + *req.Notes
	}

	var sale *model.Sale
	refund := decimal.Zero

	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		refund = decimal.Zero
		var err error
		sale, err = s.sales.LockByIDTx(tx, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return saleNotFound(saleID)
			}
			return fmt.Errorf("lock sale %s: %w", saleID, err)
		}

		for _, l := range lines {
			// Checked against the lines as already reduced by earlier items of
			// this request, so repeating a product cannot over-return.
			if remaining := remainingQuantity(sale.Items, l.productID); l.quantity > remaining {
				return &ReturnExceedsOriginalError{
					SaleID:    saleID.String(),
					ProductID: l.productID.String(),
					Requested: l.quantity,
					Remaining: remaining,
				}
			}

			mut, err := s.stock.Mutate(tx, l.productID, l.quantity, true)
			if err != nil {
				return err
			}

			lineRefund, err := s.shrinkLines(tx, sale.Items, l.productID, l.quantity)
			if err != nil {
				return err
			}
			refund = refund.Add(lineRefund)

			if _, err := s.ledger.Record(tx, entryFor(mut, model.TransactionReturn, saleID.String(), notes)); err != nil {
				return err
			}
		}

		sale.TotalAmount = sale.SumItems()
		if err := s.sales.UpdateTotalTx(tx, saleID, sale.TotalAmount); err != nil {
			return fmt.Errorf("update sale total: %w", err)
		}

		if sale.PaymentMethod == model.PaymentMethodCredit && sale.CustomerID != nil {
			return s.refundCustomer(tx, *sale.CustomerID, refund)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("sale_id", saleID.String()).
		Str("refund", refund.StringFixed(2)).
		Str("new_total", sale.TotalAmount.StringFixed(2)).
		Msg("return processed")

	return &dto.ReturnResponse{
		SaleID:      saleID.String(),
		RefundTotal: refund,
		Sale:        *saleToResponse(sale),
	}, nil
}

// shrinkLines takes qty units of the product off the sale lines in line order
// and returns the refunded amount. items is updated in place.
func (s *returnService) shrinkLines(tx *gorm.DB, items []model.SaleItem, productID uuid.UUID, qty int) (decimal.Decimal, error) {
	refund := decimal.Zero
	for i := range items {
		if qty == 0 {
			break
		}
		it := &items[i]
		if it.ProductID != productID || it.Quantity == 0 {
			continue
		}
		take := min(qty, it.Quantity)
		it.Quantity -= take
		it.TotalPrice = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		refund = refund.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(take))))
		qty -= take

		if err := s.sales.UpdateItemTx(tx, it.ID, it.Quantity, it.TotalPrice); err != nil {
			return decimal.Zero, fmt.Errorf("update sale line %d: %w", it.LineNo, err)
		}
	}
	return refund, nil
}

func (s *returnService) refundCustomer(tx *gorm.DB, customerID uuid.UUID, amount decimal.Decimal) error {
	c, err := s.customers.LockByIDTx(tx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return customerNotFound(customerID)
		}
		return fmt.Errorf("lock customer %s: %w", customerID, err)
	}
	balance := decimal.Max(c.OutstandingBalance.Sub(amount), decimal.Zero)
	if err := s.customers.UpdateOutstandingTx(tx, customerID, balance); err != nil {
		return fmt.Errorf("update customer balance: %w", err)
	}
	return nil
}

func remainingQuantity(items []model.SaleItem, productID uuid.UUID) int {
	n := 0
	for _, it := range items {
		if it.ProductID == productID {
			n += it.Quantity
		}
	}
	return n
}

func validateReturn(req dto.ProcessReturnRequest) ([]returnLine, error) {
	if len(req.Items) == 0 {
		return nil, invalid("items", "a return needs at least one item")
	}
	lines := make([]returnLine, 0, len(req.Items))
	for i, it := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, invalid(field+".product_id", "not a valid id")
		}
		if it.Quantity < 1 {
			return nil, invalid(field+".quantity", "must be at least 1")
		}
		lines = append(lines, returnLine{productID: pid, quantity: it.Quantity})
	}
	return lines, nil
}
