package repository

import (
	"context"

	"github.com/jljulioa/POS-App-sub001/internal/dto"
	"github.com/jljulioa/POS-App-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceBalance pairs an invoice's stored balance with the sum of its payments.
type InvoiceBalance struct {
	ID            uuid.UUID
	TotalAmount   decimal.Decimal
	BalanceDue    decimal.Decimal
	PaymentsTotal decimal.Decimal
}

type PurchaseInvoiceRepository interface {
	Create(ctx context.Context, inv *model.PurchaseInvoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseInvoice, error)
	List(ctx context.Context, filter dto.PurchaseInvoiceFilter) ([]model.PurchaseInvoice, int64, error)
	ListBalances(ctx context.Context) ([]InvoiceBalance, error)

	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.PurchaseInvoice, error)
	// FindItemTx returns gorm.ErrRecordNotFound when the invoice has no line for the product.
	FindItemTx(tx *gorm.DB, invoiceID, productID uuid.UUID) (*model.PurchaseInvoiceItem, error)
	CreateItemTx(tx *gorm.DB, item *model.PurchaseInvoiceItem) error
	UpdateItemTx(tx *gorm.DB, item *model.PurchaseInvoiceItem) error
	MarkProcessedTx(tx *gorm.DB, id uuid.UUID) error
	UpdateBalanceTx(tx *gorm.DB, id uuid.UUID, balanceDue decimal.Decimal, status model.PaymentStatus) error
	CreatePaymentTx(tx *gorm.DB, p *model.PurchaseInvoicePayment) error

	DB() *gorm.DB
}

type purchaseInvoiceRepo struct{ db *gorm.DB }

func NewPurchaseInvoiceRepository(db *gorm.DB) PurchaseInvoiceRepository {
	return &purchaseInvoiceRepo{db: db}
}

func (r *purchaseInvoiceRepo) DB() *gorm.DB { return r.db }

func (r *purchaseInvoiceRepo) Create(ctx context.Context, inv *model.PurchaseInvoice) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(inv).Error
}

func (r *purchaseInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseInvoice, error) {
	var inv model.PurchaseInvoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date ASC, created_at ASC") }).
		First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *purchaseInvoiceRepo) List(ctx context.Context, filter dto.PurchaseInvoiceFilter) ([]model.PurchaseInvoice, int64, error) {
	var invoices []model.PurchaseInvoice
	var total int64

	q := r.db.WithContext(ctx).Model(&model.PurchaseInvoice{})
	if filter.PaymentStatus != "" {
		q = q.Where("payment_status = ?", filter.PaymentStatus)
	}
	switch filter.Processed {
	case "true":
		q = q.Where("processed = ?", true)
	case "false":
		q = q.Where("processed = ?", false)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("invoice_date DESC, created_at DESC").Offset(offset).Limit(filter.Limit).Find(&invoices).Error
	return invoices, total, err
}

func (r *purchaseInvoiceRepo) ListBalances(ctx context.Context) ([]InvoiceBalance, error) {
	var rows []InvoiceBalance
	err := r.db.WithContext(ctx).
		Table("purchase_invoices").
		Select(`purchase_invoices.id AS id,
			purchase_invoices.total_amount AS total_amount,
			purchase_invoices.balance_due AS balance_due,
			COALESCE(SUM(purchase_invoice_payments.amount), 0) AS payments_total`).
		Joins("LEFT JOIN purchase_invoice_payments ON purchase_invoice_payments.purchase_invoice_id = purchase_invoices.id").
		Group("purchase_invoices.id, purchase_invoices.total_amount, purchase_invoices.balance_due").
		Scan(&rows).Error
	return rows, err
}

func (r *purchaseInvoiceRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.PurchaseInvoice, error) {
	var inv model.PurchaseInvoice
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *purchaseInvoiceRepo) FindItemTx(tx *gorm.DB, invoiceID, productID uuid.UUID) (*model.PurchaseInvoiceItem, error) {
	var item model.PurchaseInvoiceItem
	err := tx.Where("purchase_invoice_id = ? AND product_id = ?", invoiceID, productID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *purchaseInvoiceRepo) CreateItemTx(tx *gorm.DB, item *model.PurchaseInvoiceItem) error {
	return tx.Create(item).Error
}

func (r *purchaseInvoiceRepo) UpdateItemTx(tx *gorm.DB, item *model.PurchaseInvoiceItem) error {
	return tx.Model(&model.PurchaseInvoiceItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"product_name": item.ProductName,
		"quantity":     item.Quantity,
		"cost_price":   item.CostPrice,
		"total_cost":   item.TotalCost,
	}).Error
}

func (r *purchaseInvoiceRepo) MarkProcessedTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&model.PurchaseInvoice{}).Where("id = ?", id).Update("processed", true).Error
}

func (r *purchaseInvoiceRepo) UpdateBalanceTx(tx *gorm.DB, id uuid.UUID, balanceDue decimal.Decimal, status model.PaymentStatus) error {
	return tx.Model(&model.PurchaseInvoice{}).Where("id = ?", id).Updates(map[string]interface{}{
		"balance_due":    balanceDue,
		"payment_status": status,
	}).Error
}

func (r *purchaseInvoiceRepo) CreatePaymentTx(tx *gorm.DB, p *model.PurchaseInvoicePayment) error {
	return tx.Create(p).Error
}
