package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jljulioa/POS-App-sub001/internal/dto"
	"github.com/jljulioa/POS-App-sub001/internal/model"
	"github.com/jljulioa/POS-App-sub001/internal/repository"
	"github.com/jljulioa/POS-App-sub001/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// InventoryService handles manual stock adjustments, the ledger read side
// and reconciliation of stored aggregates against the ledger.
type InventoryService interface {
	AdjustStock(ctx context.Context, req dto.AdjustStockRequest) (*dto.AdjustStockResponse, error)
	ListTransactions(ctx context.Context, filter dto.InventoryTransactionFilter) (*dto.InventoryTransactionListResponse, error)
	LowStockAlerts(ctx context.Context) ([]dto.LowStockAlert, error)
	Reconcile(ctx context.Context) (*dto.ReconciliationReport, error)
}

type inventoryService struct {
	products     repository.ProductRepository
	transactions repository.InventoryTransactionRepository
	sales        repository.SaleRepository
	invoices     repository.PurchaseInvoiceRepository
	stock        StockMutator
	ledger       LedgerWriter
	dispatcher   *worker.Dispatcher
}

func NewInventoryService(
	products repository.ProductRepository,
	transactions repository.InventoryTransactionRepository,
	sales repository.SaleRepository,
	invoices repository.PurchaseInvoiceRepository,
	stock StockMutator,
	ledger LedgerWriter,
	dispatcher *worker.Dispatcher,
) InventoryService {
	return &inventoryService{
		products:     products,
		transactions: transactions,
		sales:        sales,
		invoices:     invoices,
		stock:        stock,
		ledger:       ledger,
		dispatcher:   dispatcher,
	}
}

// ── AdjustStock ───────────────────────────────────────────────────────────────
// Sets stock to a physical count. A zero delta still writes an Adjustment
// entry so the count itself is on record.

func (s *inventoryService) AdjustStock(ctx context.Context, req dto.AdjustStockRequest) (*dto.AdjustStockResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, invalid("product_id", "not a valid id")
	}
	if req.NewPhysicalCount == nil {
		return nil, invalid("new_physical_count", "required")
	}
	count := *req.NewPhysicalCount
	if count < 0 {
		return nil, invalid("new_physical_count", "must not be negative")
	}

	ref := "ADJ-" + uuid.NewString()
	if req.RelatedDocumentID != nil && strings.TrimSpace(*req.RelatedDocumentID) != "" {
		ref = strings.TrimSpace(*req.RelatedDocumentID)
	}
	notes := "Physical count"
	if req.Notes != nil && *req.Notes != "" {
		notes = *req.Notes
	}

	var mut *StockMutation
	var entry *model.InventoryTransaction
	txErr := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		p, err := s.stock.Lock(tx, productID)
		if err != nil {
			return err
		}
		mut, err = s.stock.Mutate(tx, productID, count-p.Stock, true)
		if err != nil {
			return err
		}
		entry, err = s.ledger.Record(tx, entryFor(mut, model.TransactionAdjustment, ref, notes))
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("product_id", productID.String()).
		Int("stock_before", mut.StockBefore).
		Int("stock_after", mut.StockAfter).
		Str("reference", ref).
		Msg("stock adjusted")

	enqueueLowStock(ctx, s.dispatcher, []*StockMutation{mut}, ref)

	return &dto.AdjustStockResponse{
		ProductID:         productID.String(),
		StockBefore:       mut.StockBefore,
		StockAfter:        mut.StockAfter,
		Delta:             mut.Delta,
		RelatedDocumentID: ref,
		TransactionID:     entry.ID,
	}, nil
}

func (s *inventoryService) ListTransactions(ctx context.Context, filter dto.InventoryTransactionFilter) (*dto.InventoryTransactionListResponse, error) {
	f := repository.InventoryTransactionFilter{
		Type:              filter.Type,
		RelatedDocumentID: filter.RelatedDocumentID,
		Page:              filter.Page,
		Limit:             filter.Limit,
	}
	if filter.ProductID != "" {
		pid, err := uuid.Parse(filter.ProductID)
		if err != nil {
			return nil, invalid("product_id", "not a valid id")
		}
		f.ProductID = &pid
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 500 {
		f.Limit = 100
	}

	rows, total, err := s.transactions.List(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.InventoryTransactionResponse, 0, len(rows))
	for _, r := range rows {
		data = append(data, dto.InventoryTransactionResponse{
			ID:                r.ID,
			ProductID:         r.ProductID.String(),
			ProductName:       r.ProductName,
			TransactionType:   string(r.TransactionType),
			QuantityChange:    r.QuantityChange,
			StockBefore:       r.StockBefore,
			StockAfter:        r.StockAfter,
			RelatedDocumentID: r.RelatedDocumentID,
			Notes:             r.Notes,
			CreatedAt:         formatTime(r.CreatedAt),
		})
	}
	return &dto.InventoryTransactionListResponse{Data: data, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *inventoryService) LowStockAlerts(ctx context.Context) ([]dto.LowStockAlert, error) {
	products, err := s.products.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.LowStockAlert, 0, len(products))
	for _, p := range products {
		alerts = append(alerts, dto.LowStockAlert{
			ProductID: p.ID.String(),
			Code:      p.Code,
			Name:      p.Name,
			Stock:     p.Stock,
			MinStock:  p.MinStock,
			MaxStock:  p.MaxStock,
		})
	}
	return alerts, nil
}

// ── Reconcile ─────────────────────────────────────────────────────────────────
// Read-only check of the ledger invariants:
//   - product stock equals stock_after of its latest entry (0 with no entries)
//   - stock_after - stock_before == quantity_change for every entry
//   - sale total equals the sum of its lines
//   - invoice balance_due equals total minus payments and is never negative

func (s *inventoryService) Reconcile(ctx context.Context) (*dto.ReconciliationReport, error) {
	report := &dto.ReconciliationReport{
		StockDrift:          []dto.StockDrift{},
		BrokenEntries:       []dto.BrokenLedgerEntry{},
		SaleTotalDrift:      []dto.SaleTotalDrift{},
		InvoiceBalanceDrift: []dto.InvoiceBalanceDrift{},
	}

	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	latest, err := s.transactions.LatestPerProduct(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest ledger entries: %w", err)
	}
	byProduct := make(map[uuid.UUID]model.InventoryTransaction, len(latest))
	for _, e := range latest {
		byProduct[e.ProductID] = e
	}
	for _, p := range products {
		e, ok := byProduct[p.ID]
		ledgerStock := 0
		if ok {
			ledgerStock = e.StockAfter
		}
		if p.Stock != ledgerStock {
			report.StockDrift = append(report.StockDrift, dto.StockDrift{
				ProductID:      p.ID.String(),
				ProductName:    p.Name,
				Stock:          p.Stock,
				LedgerStock:    ledgerStock,
				HasLedgerEntry: ok,
			})
		}
	}
	report.ProductsChecked = len(products)

	broken, err := s.transactions.FindArithmeticMismatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger arithmetic: %w", err)
	}
	for _, e := range broken {
		report.BrokenEntries = append(report.BrokenEntries, dto.BrokenLedgerEntry{
			TransactionID:  e.ID,
			ProductID:      e.ProductID.String(),
			QuantityChange: e.QuantityChange,
			StockBefore:    e.StockBefore,
			StockAfter:     e.StockAfter,
		})
	}

	totals, err := s.sales.ListTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("sale totals: %w", err)
	}
	for _, t := range totals {
		if !t.TotalAmount.Round(2).Equal(t.ItemsTotal.Round(2)) {
			report.SaleTotalDrift = append(report.SaleTotalDrift, dto.SaleTotalDrift{
				SaleID:      t.ID.String(),
				TotalAmount: t.TotalAmount,
				ItemsTotal:  t.ItemsTotal,
			})
		}
	}

	balances, err := s.invoices.ListBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("invoice balances: %w", err)
	}
	for _, b := range balances {
		expected := b.TotalAmount.Sub(b.PaymentsTotal).Round(2)
		if !b.BalanceDue.Round(2).Equal(expected) || b.BalanceDue.IsNegative() {
			report.InvoiceBalanceDrift = append(report.InvoiceBalanceDrift, dto.InvoiceBalanceDrift{
				InvoiceID:     b.ID.String(),
				TotalAmount:   b.TotalAmount,
				PaymentsTotal: b.PaymentsTotal,
				BalanceDue:    b.BalanceDue,
			})
		}
	}

	report.OK = len(report.StockDrift) == 0 &&
		len(report.BrokenEntries) == 0 &&
		len(report.SaleTotalDrift) == 0 &&
		len(report.InvoiceBalanceDrift) == 0
	return report, nil
}
