package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// LowStockKey is a Redis hash of product id -> latest StockAlert JSON.
const LowStockKey = "alerts:low_stock"

// StockAlert is enqueued after a committed sale or adjustment leaves a
// product at or below its minimum stock.
type StockAlert struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
	MinStock    int    `json:"min_stock"`
	DocumentID  string `json:"document_id"`
	RaisedAt    string `json:"raised_at,omitempty"`
}

// StockAlertWorker records the latest alert per product and logs it.
type StockAlertWorker struct {
	rdb *redis.Client
}

func NewStockAlertWorker(rdb *redis.Client) *StockAlertWorker {
	return &StockAlertWorker{rdb: rdb}
}

func (w *StockAlertWorker) Handle(ctx context.Context, payload json.RawMessage) error {
	var alert StockAlert
	if err := json.Unmarshal(payload, &alert); err != nil {
		return fmt.Errorf("decode stock alert: %w", err)
	}
	if alert.ProductID == "" {
		return fmt.Errorf("stock alert without product id")
	}
	if alert.RaisedAt == "" {
		alert.RaisedAt = time.Now().UTC().Format(time.RFC3339)
	}

	log.Warn().
		Str("product_id", alert.ProductID).
		Str("product", alert.ProductName).
		Int("stock", alert.Stock).
		Int("min_stock", alert.MinStock).
		Str("document_id", alert.DocumentID).
		Msg("low stock")

	if w.rdb == nil {
		return nil
	}
	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	return w.rdb.HSet(ctx, LowStockKey, alert.ProductID, data).Err()
}
