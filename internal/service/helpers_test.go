package service

import (
	"context"
	"testing"

	"github.com/jljulioa/POS-App-sub001/internal/config"
	"github.com/jljulioa/POS-App-sub001/internal/dto"
	"github.com/jljulioa/POS-App-sub001/internal/infra"
	"github.com/jljulioa/POS-App-sub001/internal/model"
	"github.com/jljulioa/POS-App-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Test fixture ─────────────────────────────────────────────────────────────

// fixture wires every service against one in-memory SQLite database. SQLite
// runs with a single connection, so transactions are serialized.
type fixture struct {
	db        *gorm.DB
	products  repository.ProductRepository
	txs       repository.InventoryTransactionRepository
	saleRepo  repository.SaleRepository
	invRepo   repository.PurchaseInvoiceRepository
	custRepo  repository.CustomerRepository
	stock     StockMutator
	ledger    LedgerWriter
	sales     SaleService
	returns   ReturnService
	invoices  PurchaseInvoiceService
	inventory InventoryService
	catalog   ProductService
	customers CustomerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := infra.NewDatabase(&config.Config{DatabaseDriver: "sqlite", DatabaseURL: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{
		db:       db,
		products: repository.NewProductRepository(db),
		txs:      repository.NewInventoryTransactionRepository(db),
		saleRepo: repository.NewSaleRepository(db),
		invRepo:  repository.NewPurchaseInvoiceRepository(db),
		custRepo: repository.NewCustomerRepository(db),
	}
	prices := repository.NewPriceHistoryRepository(db)
	f.stock = NewStockMutator(f.products)
	f.ledger = NewLedgerWriter(f.txs)
	f.sales = NewSaleService(f.saleRepo, f.custRepo, f.stock, f.ledger, nil)
	f.returns = NewReturnService(f.saleRepo, f.custRepo, f.stock, f.ledger)
	f.invoices = NewPurchaseInvoiceService(f.invRepo, f.products, prices, f.stock, f.ledger)
	f.inventory = NewInventoryService(f.products, f.txs, f.saleRepo, f.invRepo, f.stock, f.ledger, nil)
	f.catalog = NewProductService(f.products, prices, f.ledger)
	f.customers = NewCustomerService(f.custRepo)
	return f
}

var ctx = context.Background()

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seedProduct creates a product through the catalog so opening stock has a
// ledger entry, keeping reconciliation clean.
func (f *fixture) seedProduct(t *testing.T, code string, stock int, cost, price string) uuid.UUID {
	t.Helper()
	resp, err := f.catalog.Create(ctx, dto.CreateProductRequest{
		Code:  code,
		Name:  "Product " + code,
		Stock: stock,
		Cost:  dec(cost),
		Price: dec(price),
	})
	require.NoError(t, err)
	return uuid.MustParse(resp.ID)
}

func (f *fixture) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.products.FindByID(ctx, id)
	require.NoError(t, err)
	return p.Stock
}

// entries returns the product's ledger, oldest first.
func (f *fixture) entries(t *testing.T, id uuid.UUID) []model.InventoryTransaction {
	t.Helper()
	var rows []model.InventoryTransaction
	require.NoError(t, f.db.Where("product_id = ?", id).Order("id ASC").Find(&rows).Error)
	return rows
}

func (f *fixture) entriesFor(t *testing.T, ref string) []model.InventoryTransaction {
	t.Helper()
	var rows []model.InventoryTransaction
	require.NoError(t, f.db.Where("related_document_id = ?", ref).Order("id ASC").Find(&rows).Error)
	return rows
}

func item(id uuid.UUID, qty int, price string) dto.SaleItemRequest {
	return dto.SaleItemRequest{ProductID: id.String(), Quantity: qty, UnitPrice: dec(price)}
}

func cashSale(items ...dto.SaleItemRequest) dto.RecordSaleRequest {
	return dto.RecordSaleRequest{PaymentMethod: model.PaymentMethodCash, CashierID: "cashier-1", Items: items}
}

func (f *fixture) assertReconciled(t *testing.T) {
	t.Helper()
	report, err := f.inventory.Reconcile(ctx)
	require.NoError(t, err)
	require.True(t, report.OK, "reconciliation report: %+v", report)
}
