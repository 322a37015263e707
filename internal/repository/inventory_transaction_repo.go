package repository

import (
	"context"

	"github.com/jljulioa/POS-App-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryTransactionFilter defines filters for listing ledger entries.
type InventoryTransactionFilter struct {
	ProductID         *uuid.UUID
	Type              string
	RelatedDocumentID string
	Page              int
	Limit             int
}

// InventoryTransactionRepository is append-only: there is no update or delete.
type InventoryTransactionRepository interface {
	CreateTx(tx *gorm.DB, t *model.InventoryTransaction) error
	List(ctx context.Context, filter InventoryTransactionFilter) ([]model.InventoryTransaction, int64, error)
	// LatestPerProduct returns the most recent entry of every product that has one.
	LatestPerProduct(ctx context.Context) ([]model.InventoryTransaction, error)
	// FindArithmeticMismatches returns entries where stock_after - stock_before != quantity_change.
	FindArithmeticMismatches(ctx context.Context) ([]model.InventoryTransaction, error)
}

type inventoryTransactionRepo struct{ db *gorm.DB }

func NewInventoryTransactionRepository(db *gorm.DB) InventoryTransactionRepository {
	return &inventoryTransactionRepo{db: db}
}

func (r *inventoryTransactionRepo) CreateTx(tx *gorm.DB, t *model.InventoryTransaction) error {
	return tx.Create(t).Error
}

func (r *inventoryTransactionRepo) List(ctx context.Context, filter InventoryTransactionFilter) ([]model.InventoryTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryTransaction{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		q = q.Where("transaction_type = ?", filter.Type)
	}
	if filter.RelatedDocumentID != "" {
		q = q.Where("related_document_id = ?", filter.RelatedDocumentID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var entries []model.InventoryTransaction
	err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&entries).Error
	return entries, total, err
}

func (r *inventoryTransactionRepo) LatestPerProduct(ctx context.Context) ([]model.InventoryTransaction, error) {
	latest := r.db.Model(&model.InventoryTransaction{}).
		Select("MAX(id)").
		Group("product_id")

	var entries []model.InventoryTransaction
	err := r.db.WithContext(ctx).
		Where("id IN (?)", latest).
		Find(&entries).Error
	return entries, err
}

func (r *inventoryTransactionRepo) FindArithmeticMismatches(ctx context.Context) ([]model.InventoryTransaction, error) {
	var entries []model.InventoryTransaction
	err := r.db.WithContext(ctx).
		Where("stock_after - stock_before <> quantity_change").
		Order("id").
		Find(&entries).Error
	return entries, err
}
