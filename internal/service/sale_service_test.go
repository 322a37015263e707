package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/jljulioa/POS-App-sub001/internal/dto"
	"github.com/jljulioa/POS-App-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRecordSale_DeductsStockAndWritesLedger(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 10, "3.00", "5.00")

	resp, err := f.sales.RecordSale(ctx, cashSale(item(id, 3, "5.00")))
	require.NoError(t, err)

	assert.Equal(t, 7, f.stockOf(t, id))
	assert.True(t, resp.TotalAmount.Equal(dec("15.00")))
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Items[0].CostPrice.Equal(dec("3.00")), "cost snapshot")
	assert.Equal(t, "Product P1", resp.Items[0].ProductName)

	rows := f.entriesFor(t, resp.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, model.TransactionSale, rows[0].TransactionType)
	assert.Equal(t, -3, rows[0].QuantityChange)
	assert.Equal(t, 10, rows[0].StockBefore)
	assert.Equal(t, 7, rows[0].StockAfter)

	f.assertReconciled(t)
}

func TestRecordSale_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 2, "3.00", "5.00")

	_, err := f.sales.RecordSale(ctx, cashSale(item(id, 3, "5.00")))
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, id.String(), stockErr.ProductID)
	assert.True(t, IsConflict(err))

	assert.Equal(t, 2, f.stockOf(t, id))
	assert.Len(t, f.entries(t, id), 1, "only the opening entry")

	var count int64
	require.NoError(t, f.db.Model(&model.Sale{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecordSale_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.sales.RecordSale(ctx, cashSale(item(uuid.New(), 1, "1.00")))
	assert.True(t, errors.Is(err, ErrProductNotFound))
}

func TestRecordSale_MultiLineRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	a := f.seedProduct(t, "A", 10, "1.00", "2.00")
	b := f.seedProduct(t, "B", 1, "1.00", "2.00")

	_, err := f.sales.RecordSale(ctx, cashSale(item(a, 4, "2.00"), item(b, 2, "2.00")))
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 10, f.stockOf(t, a), "first line rolled back")
	assert.Equal(t, 1, f.stockOf(t, b))
	assert.Len(t, f.entries(t, a), 1)
	f.assertReconciled(t)
}

func TestRecordSale_SameProductTwice(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 5, "1.00", "2.00")

	resp, err := f.sales.RecordSale(ctx, cashSale(item(id, 2, "2.00"), item(id, 3, "1.50")))
	require.NoError(t, err)
	assert.Equal(t, 0, f.stockOf(t, id))
	assert.True(t, resp.TotalAmount.Equal(dec("8.50")))

	rows := f.entriesFor(t, resp.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, 5, rows[0].StockBefore)
	assert.Equal(t, 3, rows[0].StockAfter)
	assert.Equal(t, 3, rows[1].StockBefore)
	assert.Equal(t, 0, rows[1].StockAfter)
	f.assertReconciled(t)
}

func TestRecordSale_Validation(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 5, "1.00", "2.00")
	wrong := dec("9.99")

	cases := map[string]dto.RecordSaleRequest{
		"no items":       cashSale(),
		"zero quantity":  cashSale(item(id, 0, "1.00")),
		"negative price": cashSale(item(id, 1, "-1.00")),
		"bad product id": cashSale(dto.SaleItemRequest{ProductID: "nope", Quantity: 1}),
		"bad method":     {PaymentMethod: "barter", Items: []dto.SaleItemRequest{item(id, 1, "1.00")}},
		"credit without customer": {
			PaymentMethod: model.PaymentMethodCredit,
			Items:         []dto.SaleItemRequest{item(id, 1, "1.00")},
		},
		"sub-cent price": cashSale(item(id, 3, "0.333")),
		"total mismatch": cashSale(dto.SaleItemRequest{
			ProductID: id.String(), Quantity: 2, UnitPrice: dec("2.00"), TotalPrice: &wrong,
		}),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.sales.RecordSale(ctx, req)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
	assert.Equal(t, 5, f.stockOf(t, id))
}

func TestRecordSale_MatchingTotalPriceAccepted(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 5, "1.00", "2.00")
	total := dec("4.00")

	_, err := f.sales.RecordSale(ctx, cashSale(dto.SaleItemRequest{
		ProductID: id.String(), Quantity: 2, UnitPrice: dec("2.00"), TotalPrice: &total,
	}))
	require.NoError(t, err)
}

func TestRecordSale_CreditChargesCustomer(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 5, "1.00", "2.50")
	cust, err := f.customers.Create(ctx, dto.CreateCustomerRequest{Name: "Ana"})
	require.NoError(t, err)

	req := cashSale(item(id, 2, "2.50"))
	req.PaymentMethod = model.PaymentMethodCredit
	req.CustomerID = &cust.ID
	_, err = f.sales.RecordSale(ctx, req)
	require.NoError(t, err)

	got, err := f.customers.GetByID(ctx, uuid.MustParse(cust.ID))
	require.NoError(t, err)
	assert.True(t, got.OutstandingBalance.Equal(dec("5.00")))
}

func TestRecordSale_UnknownCustomerRollsBack(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 5, "1.00", "2.00")
	missing := uuid.NewString()

	req := cashSale(item(id, 1, "2.00"))
	req.CustomerID = &missing
	_, err := f.sales.RecordSale(ctx, req)
	require.ErrorIs(t, err, ErrCustomerNotFound)
	assert.Equal(t, 5, f.stockOf(t, id))
}

func TestRecordSale_ConcurrentLastUnit(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 1, "1.00", "2.00")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.sales.RecordSale(ctx, cashSale(item(id, 1, "2.00")))
		}(i)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 0, f.stockOf(t, id))
	f.assertReconciled(t)
}

func TestGetAndListSales(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 5, "1.00", "2.00")
	created, err := f.sales.RecordSale(ctx, cashSale(item(id, 1, "2.00")))
	require.NoError(t, err)

	got, err := f.sales.GetSale(ctx, uuid.MustParse(created.ID))
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Len(t, got.Items, 1)

	_, err = f.sales.GetSale(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSaleNotFound)

	list, err := f.sales.ListSales(ctx, dto.SaleFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
}

func TestRecordSale_PriceScale(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 5, "1.00", "2.00")

	_, err := f.sales.RecordSale(ctx, cashSale(item(id, 3, "0.333")))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "items[0].unit_price", verr.Field)
	assert.Equal(t, "at most 2 decimal places", verr.Reason)
	assert.Len(t, f.entries(t, id), 1, "only the opening entry")

	resp, err := f.sales.RecordSale(ctx, cashSale(item(id, 2, "2.500")))
	require.NoError(t, err)
	assert.True(t, resp.TotalAmount.Equal(dec("5.00")))
}

// lineCountingMutator records how many sale lines exist for a product at the
// moment its stock is deducted.
type lineCountingMutator struct {
	StockMutator
	seen []int64
}

func (m *lineCountingMutator) Mutate(tx *gorm.DB, productID uuid.UUID, delta int, allowNegative bool) (*StockMutation, error) {
	var n int64
	if err := tx.Model(&model.SaleItem{}).Where("product_id = ?", productID).Count(&n).Error; err != nil {
		return nil, err
	}
	m.seen = append(m.seen, n)
	return m.StockMutator.Mutate(tx, productID, delta, allowNegative)
}

func TestRecordSale_InsertsLineBeforeDeduction(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 10, "1.25", "2.00")
	m := &lineCountingMutator{StockMutator: f.stock}
	svc := NewSaleService(f.saleRepo, f.custRepo, m, f.ledger, nil)

	resp, err := svc.RecordSale(ctx, cashSale(item(id, 1, "2.00"), item(id, 2, "2.00")))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, m.seen)
	require.Len(t, resp.Items, 2)
	assert.True(t, resp.Items[0].CostPrice.Equal(dec("1.25")), "cost comes from the locked product")
	assert.NotEmpty(t, resp.Items[0].ProductName)
	assert.Equal(t, 7, f.stockOf(t, id))
}

func TestLowStockAlerts_OnePerProduct(t *testing.T) {
	a := &model.Product{ID: uuid.New(), Name: "Cola", MinStock: 3}
	b := &model.Product{ID: uuid.New(), Name: "Chips", MinStock: 1}
	c := &model.Product{ID: uuid.New(), Name: "Water", MinStock: 2}
	touched := []*StockMutation{
		{Product: a, StockBefore: 6, StockAfter: 4},
		{Product: b, StockBefore: 9, StockAfter: 8},
		{Product: a, StockBefore: 4, StockAfter: 2},
		{Product: c, StockBefore: 3, StockAfter: 2},
		{Product: a, StockBefore: 2, StockAfter: 1},
	}

	alerts := lowStockAlerts(touched, "sale-1")
	require.Len(t, alerts, 2)
	assert.Equal(t, a.ID.String(), alerts[0].ProductID)
	assert.Equal(t, 1, alerts[0].Stock, "last mutation wins")
	assert.Equal(t, c.ID.String(), alerts[1].ProductID)
	assert.Equal(t, "sale-1", alerts[1].DocumentID)

	assert.Empty(t, lowStockAlerts([]*StockMutation{{Product: b, StockAfter: 5}}, "x"))
}
