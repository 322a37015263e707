package service

import (
	"errors"
	"testing"

	"github.com/jljulioa/POS-App-sub001/internal/dto"
	"github.com/jljulioa/POS-App-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func returnOf(id uuid.UUID, qty int) dto.ProcessReturnRequest {
	return dto.ProcessReturnRequest{Items: []dto.ReturnItemRequest{{ProductID: id.String(), Quantity: qty}}}
}

func TestProcessReturn_RestocksAndShrinksSale(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 10, "1.00", "4.00")
	sale, err := f.sales.RecordSale(ctx, cashSale(item(id, 5, "4.00")))
	require.NoError(t, err)
	require.Equal(t, 5, f.stockOf(t, id))

	saleID := uuid.MustParse(sale.ID)
	resp, err := f.returns.ProcessReturn(ctx, saleID, returnOf(id, 2))
	require.NoError(t, err)

	assert.Equal(t, 7, f.stockOf(t, id))
	assert.True(t, resp.RefundTotal.Equal(dec("8.00")))
	require.Len(t, resp.Sale.Items, 1)
	assert.Equal(t, 3, resp.Sale.Items[0].Quantity)
	assert.True(t, resp.Sale.Items[0].TotalPrice.Equal(dec("12.00")))
	assert.True(t, resp.Sale.TotalAmount.Equal(dec("12.00")))

	rows := f.entriesFor(t, sale.ID)
	require.Len(t, rows, 2)
	ret := rows[1]
	assert.Equal(t, model.TransactionReturn, ret.TransactionType)
	assert.Equal(t, 2, ret.QuantityChange)
	assert.Equal(t, 5, ret.StockBefore)
	assert.Equal(t, 7, ret.StockAfter)

	f.assertReconciled(t)
}

func TestProcessReturn_ExceedsOriginal(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 10, "1.00", "4.00")
	sale, err := f.sales.RecordSale(ctx, cashSale(item(id, 2, "4.00")))
	require.NoError(t, err)

	_, err = f.returns.ProcessReturn(ctx, uuid.MustParse(sale.ID), returnOf(id, 3))
	var exceeds *ReturnExceedsOriginalError
	require.True(t, errors.As(err, &exceeds))
	assert.Equal(t, 2, exceeds.Remaining)
	assert.Equal(t, 8, f.stockOf(t, id))
}

func TestProcessReturn_SecondReturnSeesReducedSale(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 10, "1.00", "4.00")
	sale, err := f.sales.RecordSale(ctx, cashSale(item(id, 3, "4.00")))
	require.NoError(t, err)
	saleID := uuid.MustParse(sale.ID)

	_, err = f.returns.ProcessReturn(ctx, saleID, returnOf(id, 2))
	require.NoError(t, err)
	_, err = f.returns.ProcessReturn(ctx, saleID, returnOf(id, 2))
	require.ErrorIs(t, err, ErrReturnExceedsOriginal)

	_, err = f.returns.ProcessReturn(ctx, saleID, returnOf(id, 1))
	require.NoError(t, err)
	assert.Equal(t, 10, f.stockOf(t, id))

	got, err := f.sales.GetSale(ctx, saleID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.IsZero())
	f.assertReconciled(t)
}

func TestProcessReturn_RepeatedProductInRequest(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 10, "1.00", "4.00")
	sale, err := f.sales.RecordSale(ctx, cashSale(item(id, 3, "4.00")))
	require.NoError(t, err)

	req := dto.ProcessReturnRequest{Items: []dto.ReturnItemRequest{
		{ProductID: id.String(), Quantity: 2},
		{ProductID: id.String(), Quantity: 2},
	}}
	_, err = f.returns.ProcessReturn(ctx, uuid.MustParse(sale.ID), req)
	require.ErrorIs(t, err, ErrReturnExceedsOriginal)
	assert.Equal(t, 7, f.stockOf(t, id), "whole return rolled back")
}

func TestProcessReturn_ConsumesLinesInOrder(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 10, "1.00", "4.00")
	sale, err := f.sales.RecordSale(ctx, cashSale(item(id, 2, "4.00"), item(id, 2, "3.00")))
	require.NoError(t, err)

	resp, err := f.returns.ProcessReturn(ctx, uuid.MustParse(sale.ID), returnOf(id, 3))
	require.NoError(t, err)
	// 2 units at 4.00 from line 1, then 1 unit at 3.00 from line 2
	assert.True(t, resp.RefundTotal.Equal(dec("11.00")))
	assert.Equal(t, 0, resp.Sale.Items[0].Quantity)
	assert.Equal(t, 1, resp.Sale.Items[1].Quantity)
	assert.True(t, resp.Sale.TotalAmount.Equal(dec("3.00")))
	f.assertReconciled(t)
}

func TestProcessReturn_ProductNotOnSale(t *testing.T) {
	f := newFixture(t)
	a := f.seedProduct(t, "A", 10, "1.00", "4.00")
	b := f.seedProduct(t, "B", 10, "1.00", "4.00")
	sale, err := f.sales.RecordSale(ctx, cashSale(item(a, 1, "4.00")))
	require.NoError(t, err)

	_, err = f.returns.ProcessReturn(ctx, uuid.MustParse(sale.ID), returnOf(b, 1))
	require.ErrorIs(t, err, ErrReturnExceedsOriginal)
	assert.Equal(t, 10, f.stockOf(t, b))
}

func TestProcessReturn_UnknownSale(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 10, "1.00", "4.00")
	_, err := f.returns.ProcessReturn(ctx, uuid.New(), returnOf(id, 1))
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestProcessReturn_RefundsCreditCustomer(t *testing.T) {
	f := newFixture(t)
	id := f.seedProduct(t, "P1", 10, "1.00", "4.00")
	cust, err := f.customers.Create(ctx, dto.CreateCustomerRequest{Name: "Ana"})
	require.NoError(t, err)

	req := cashSale(item(id, 3, "4.00"))
	req.PaymentMethod = model.PaymentMethodCredit
	req.CustomerID = &cust.ID
	sale, err := f.sales.RecordSale(ctx, req)
	require.NoError(t, err)

	_, err = f.returns.ProcessReturn(ctx, uuid.MustParse(sale.ID), returnOf(id, 1))
	require.NoError(t, err)

	got, err := f.customers.GetByID(ctx, uuid.MustParse(cust.ID))
	require.NoError(t, err)
	assert.True(t, got.OutstandingBalance.Equal(dec("8.00")))
}
