package service

import (
	"context"

	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction. Returning an error from fn
// rolls back every write made through tx.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
