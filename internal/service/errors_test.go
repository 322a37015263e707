package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	id := uuid.New()
	wrapped := fmt.Errorf("record sale: %w", productNotFound(id))

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
	assert.Contains(t, wrapped.Error(), id.String())

	var nf *NotFoundError
	assert.True(t, errors.As(wrapped, &nf))
	assert.Equal(t, "product", nf.Resource)

	assert.True(t, IsConflict(&InsufficientStockError{}))
	assert.True(t, IsConflict(&ReturnExceedsOriginalError{}))
	assert.True(t, IsConflict(&OverpaymentError{}))
	assert.True(t, IsConflict(fmt.Errorf("x: %w", ErrInvoiceAlreadyProcessed)))
	assert.True(t, IsValidation(invalid("items", "empty")))
	assert.False(t, IsValidation(ErrDuplicate))
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, true},
		{"pg lock not available", &pgconn.PgError{Code: "55P03"}, true},
		{"pg unique", &pgconn.PgError{Code: "23505"}, false},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213}, true},
		{"mysql lock wait", &mysql.MySQLError{Number: 1205}, true},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, false},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"plain", errors.New("nope"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryable(fmt.Errorf("tx: %w", tc.err)))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.True(t, isUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}))
	assert.False(t, isUniqueViolation(errors.New("other")))
}
