package service

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Sentinel errors. Structured errors below unwrap to one of these so callers
// can match with errors.Is and still read the context with errors.As.
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrSaleNotFound     = errors.New("sale not found")
	ErrInvoiceNotFound  = errors.New("purchase invoice not found")
	ErrCustomerNotFound = errors.New("customer not found")

	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrReturnExceedsOriginal   = errors.New("return exceeds original sale quantity")
	ErrOverpayment             = errors.New("payment exceeds balance due")
	ErrInvoiceAlreadyProcessed = errors.New("purchase invoice already processed")
	ErrDuplicate               = errors.New("record already exists")

	ErrValidation = errors.New("validation failed")
)

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	ID       string
	sentinel error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.sentinel }

func productNotFound(id fmt.Stringer) error {
	return &NotFoundError{Resource: "product", ID: id.String(), sentinel: ErrProductNotFound}
}

func saleNotFound(id fmt.Stringer) error {
	return &NotFoundError{Resource: "sale", ID: id.String(), sentinel: ErrSaleNotFound}
}

func invoiceNotFound(id fmt.Stringer) error {
	return &NotFoundError{Resource: "purchase invoice", ID: id.String(), sentinel: ErrInvoiceNotFound}
}

func customerNotFound(id fmt.Stringer) error {
	return &NotFoundError{Resource: "customer", ID: id.String(), sentinel: ErrCustomerNotFound}
}

// InsufficientStockError is returned by the sale path when a deduction would
// take stock below zero.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): requested %d, available %d",
		e.ProductName, e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ReturnExceedsOriginalError is returned when a return asks for more units
// than the sale still holds for the product.
type ReturnExceedsOriginalError struct {
	SaleID    string
	ProductID string
	Requested int
	Remaining int
}

func (e *ReturnExceedsOriginalError) Error() string {
	return fmt.Sprintf("cannot return %d of product %s on sale %s: only %d remaining",
		e.Requested, e.ProductID, e.SaleID, e.Remaining)
}

func (e *ReturnExceedsOriginalError) Unwrap() error { return ErrReturnExceedsOriginal }

type OverpaymentError struct {
	InvoiceID  string
	Amount     decimal.Decimal
	BalanceDue decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds balance due %s on invoice %s",
		e.Amount.StringFixed(2), e.BalanceDue.StringFixed(2), e.InvoiceID)
}

func (e *OverpaymentError) Unwrap() error { return ErrOverpayment }

// ValidationError rejects malformed input before any transaction opens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// checkCents rejects money values the decimal(12,2) columns would round.
// Trailing zeros are fine: 1.500 is accepted, 0.005 is not.
func checkCents(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(2)) {
		return invalid(field, "at most 2 decimal places")
	}
	return nil
}

// IsNotFound reports whether err refers to a missing product, sale, invoice or customer.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrSaleNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrCustomerNotFound)
}

// IsConflict reports whether err is a state conflict detected under lock.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrReturnExceedsOriginal) ||
		errors.Is(err, ErrOverpayment) ||
		errors.Is(err, ErrInvoiceAlreadyProcessed) ||
		errors.Is(err, ErrDuplicate)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsRetryable reports whether err is a lock conflict raised by the database
// (deadlock, lock wait timeout, serialization failure). The whole operation
// was rolled back and may be attempted again as-is.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40P01", "40001", "55P03":
			return true
		}
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1213 || myErr.Number == 1205
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// isUniqueViolation detects duplicate-key errors across the supported drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
