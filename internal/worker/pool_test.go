package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeJob(t *testing.T, jobType string, payload interface{}) string {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(Job{Type: jobType, Payload: data})
	require.NoError(t, err)
	return string(raw)
}

func TestPool_DispatchRoutesByType(t *testing.T) {
	p := NewPool(nil)
	var got StockAlert
	p.Handle(QueueStockAlert, JobStockAlert, func(_ context.Context, payload json.RawMessage) error {
		return json.Unmarshal(payload, &got)
	})

	job, err := p.dispatch(context.Background(), encodeJob(t, JobStockAlert, StockAlert{ProductID: "p-1", Stock: 2}))
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, JobStockAlert, job.Type)
	assert.Equal(t, "p-1", got.ProductID)
	assert.Equal(t, 2, got.Stock)
}

func TestPool_DispatchFailures(t *testing.T) {
	p := NewPool(nil)
	boom := errors.New("boom")
	p.Handle(QueueStockAlert, JobStockAlert, func(context.Context, json.RawMessage) error { return boom })

	job, err := p.dispatch(context.Background(), "{not json")
	assert.Error(t, err)
	assert.Nil(t, job, "undecodable envelope")

	job, err = p.dispatch(context.Background(), encodeJob(t, "mystery", struct{}{}))
	assert.Error(t, err)
	assert.Nil(t, job, "unknown type")

	job, err = p.dispatch(context.Background(), encodeJob(t, JobStockAlert, StockAlert{ProductID: "p"}))
	assert.ErrorIs(t, err, boom)
	assert.NotNil(t, job, "handler failure keeps the job for retry")
}

func TestPool_HandleRegistersQueueOnce(t *testing.T) {
	p := NewPool(nil)
	noop := func(context.Context, json.RawMessage) error { return nil }
	p.Handle(QueueStockAlert, JobStockAlert, noop)
	p.Handle(QueueStockAlert, "other", noop)
	assert.Equal(t, []string{QueueStockAlert}, p.queues)
}

func TestNewDLQEntry(t *testing.T) {
	e := newDLQEntry(QueueStockAlert, JobStockAlert, json.RawMessage(`{"product_id":"p"}`), "boom", 3)
	assert.Equal(t, QueueStockAlert, e.OriginalQueue)
	assert.Equal(t, 3, e.Attempts)
	assert.JSONEq(t, `{"product_id":"p"}`, string(e.Payload))
	assert.NotEmpty(t, e.FailedAt)

	broken := newDLQEntry(QueueStockAlert, "unknown", json.RawMessage(`{oops`), "decode", 0)
	_, err := json.Marshal(broken)
	require.NoError(t, err, "invalid payloads are wrapped as strings")
	assert.Equal(t, `"{oops"`, string(broken.Payload))
}

func TestStockAlertWorker_WithoutRedis(t *testing.T) {
	w := NewStockAlertWorker(nil)
	payload, err := json.Marshal(StockAlert{ProductID: "p-1", Stock: 0, MinStock: 3})
	require.NoError(t, err)
	assert.NoError(t, w.Handle(context.Background(), payload))

	assert.Error(t, w.Handle(context.Background(), json.RawMessage(`{}`)))
	assert.Error(t, w.Handle(context.Background(), json.RawMessage(`[`)))
}

// brpopCounter counts BRPOP calls issued by a client.
type brpopCounter struct{ n atomic.Int64 }

func (c *brpopCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (c *brpopCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "brpop" {
			c.n.Add(1)
		}
		return next(ctx, cmd)
	}
}

func (c *brpopCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestPool_BacksOffWhenRedisUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:       "127.0.0.1:1",
		MaxRetries: -1,
		Dialer: func(context.Context, string, string) (net.Conn, error) {
			return nil, errors.New("connection refused")
		},
	})
	defer rdb.Close()
	counter := &brpopCounter{}
	rdb.AddHook(counter)

	p := NewPool(rdb)
	p.backoff = 100 * time.Millisecond
	p.Handle(QueueStockAlert, JobStockAlert, func(context.Context, json.RawMessage) error { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 350*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		p.run(ctx, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after the context ended")
	}
	calls := counter.n.Load()
	assert.GreaterOrEqual(t, calls, int64(1))
	assert.LessOrEqual(t, calls, int64(6), "failed pops must be spaced by the backoff")
}
