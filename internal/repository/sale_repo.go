package repository

import (
	"context"
	"time"

	"github.com/jljulioa/POS-App-sub001/internal/dto"
	"github.com/jljulioa/POS-App-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleTotals pairs a sale's stored total with the sum of its lines.
type SaleTotals struct {
	ID          uuid.UUID
	TotalAmount decimal.Decimal
	ItemsTotal  decimal.Decimal
}

type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)
	ListTotals(ctx context.Context) ([]SaleTotals, error)

	CreateTx(tx *gorm.DB, s *model.Sale) error
	CreateItemTx(tx *gorm.DB, item *model.SaleItem) error
	// LockByIDTx locks the sale header and loads its lines in line order.
	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	UpdateItemTx(tx *gorm.DB, itemID uuid.UUID, quantity int, totalPrice decimal.Decimal) error
	UpdateTotalTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error

	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func orderedItems(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Items", orderedItems).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Sale{})
	if filter.From != "" {
		if from, err := time.Parse("2006-01-02", filter.From); err == nil {
			q = q.Where("created_at >= ?", from)
		}
	}
	if filter.To != "" {
		if to, err := time.Parse("2006-01-02", filter.To); err == nil {
			q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
		}
	}
	if filter.CustomerID != "" {
		q = q.Where("customer_id = ?", filter.CustomerID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items", orderedItems).
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) ListTotals(ctx context.Context) ([]SaleTotals, error) {
	var rows []SaleTotals
	err := r.db.WithContext(ctx).
		Table("sales").
		Select("sales.id AS id, sales.total_amount AS total_amount, COALESCE(SUM(sale_items.total_price), 0) AS items_total").
		Joins("LEFT JOIN sale_items ON sale_items.sale_id = sales.id").
		Group("sales.id, sales.total_amount").
		Scan(&rows).Error
	return rows, err
}

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	// Lines are inserted one by one by the caller.
	return tx.Omit(clause.Associations).Create(s).Error
}

func (r *saleRepo) CreateItemTx(tx *gorm.DB, item *model.SaleItem) error {
	return tx.Create(item).Error
}

func (r *saleRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("sale_id = ?", id).Order("line_no ASC").Find(&s.Items).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) UpdateItemTx(tx *gorm.DB, itemID uuid.UUID, quantity int, totalPrice decimal.Decimal) error {
	return tx.Model(&model.SaleItem{}).Where("id = ?", itemID).Updates(map[string]interface{}{
		"quantity":    quantity,
		"total_price": totalPrice,
	}).Error
}

func (r *saleRepo) UpdateTotalTx(tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).Update("total_amount", total).Error
}
