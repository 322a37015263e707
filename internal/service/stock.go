package service

import (
	"errors"
	"fmt"

	"github.com/jljulioa/POS-App-sub001/internal/model"
	"github.com/jljulioa/POS-App-sub001/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMutation is the result of one stock change. Product is the row as it
// was read under lock, before the change.
type StockMutation struct {
	Product     *model.Product
	Delta       int
	StockBefore int
	StockAfter  int
}

// StockMutator applies signed deltas to product stock. Every call must run
// inside the caller's transaction; the product row stays locked until it ends.
type StockMutator interface {
	// Mutate locks the product, applies delta and returns the before/after pair.
	// With allowNegative=false a result below zero fails with
	// *InsufficientStockError and nothing is written.
	Mutate(tx *gorm.DB, productID uuid.UUID, delta int, allowNegative bool) (*StockMutation, error)
	// Lock reads the product under lock without changing it.
	Lock(tx *gorm.DB, productID uuid.UUID) (*model.Product, error)
}

type stockMutator struct {
	products repository.ProductRepository
}

func NewStockMutator(products repository.ProductRepository) StockMutator {
	return &stockMutator{products: products}
}

func (m *stockMutator) Lock(tx *gorm.DB, productID uuid.UUID) (*model.Product, error) {
	p, err := m.products.LockByIDTx(tx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productNotFound(productID)
		}
		return nil, fmt.Errorf("lock product %s: %w", productID, err)
	}
	return p, nil
}

func (m *stockMutator) Mutate(tx *gorm.DB, productID uuid.UUID, delta int, allowNegative bool) (*StockMutation, error) {
	p, err := m.Lock(tx, productID)
	if err != nil {
		return nil, err
	}

	before := p.Stock
	after := before + delta
	if !allowNegative && after < 0 {
		return nil, &InsufficientStockError{
			ProductID:   productID.String(),
			ProductName: p.Name,
			Requested:   -delta,
			Available:   before,
		}
	}

	if delta != 0 {
		if err := m.products.SetStockTx(tx, productID, after); err != nil {
			return nil, fmt.Errorf("update stock of %s: %w", productID, err)
		}
	}

	return &StockMutation{Product: p, Delta: delta, StockBefore: before, StockAfter: after}, nil
}

// LedgerEntry is the input of LedgerWriter.Record.
type LedgerEntry struct {
	ProductID         uuid.UUID
	ProductName       string
	Type              model.TransactionType
	QuantityChange    int
	StockBefore       int
	StockAfter        int
	RelatedDocumentID string
	Notes             string
}

// entryFor builds a ledger entry from a mutation so before/after/change
// always agree.
func entryFor(m *StockMutation, typ model.TransactionType, relatedDocumentID, notes string) LedgerEntry {
	return LedgerEntry{
		ProductID:         m.Product.ID,
		ProductName:       m.Product.Name,
		Type:              typ,
		QuantityChange:    m.Delta,
		StockBefore:       m.StockBefore,
		StockAfter:        m.StockAfter,
		RelatedDocumentID: relatedDocumentID,
		Notes:             notes,
	}
}

// LedgerWriter appends inventory transactions. It exposes no update or delete.
type LedgerWriter interface {
	Record(tx *gorm.DB, e LedgerEntry) (*model.InventoryTransaction, error)
}

type ledgerWriter struct {
	repo repository.InventoryTransactionRepository
}

func NewLedgerWriter(repo repository.InventoryTransactionRepository) LedgerWriter {
	return &ledgerWriter{repo: repo}
}

func (w *ledgerWriter) Record(tx *gorm.DB, e LedgerEntry) (*model.InventoryTransaction, error) {
	row := &model.InventoryTransaction{
		ProductID:         e.ProductID,
		ProductName:       e.ProductName,
		TransactionType:   e.Type,
		QuantityChange:    e.QuantityChange,
		StockBefore:       e.StockBefore,
		StockAfter:        e.StockAfter,
		RelatedDocumentID: e.RelatedDocumentID,
		Notes:             e.Notes,
	}
	if err := w.repo.CreateTx(tx, row); err != nil {
		return nil, fmt.Errorf("record %s ledger entry for %s: %w", e.Type, e.ProductID, err)
	}
	return row, nil
}
