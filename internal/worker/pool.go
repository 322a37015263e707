package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueStockAlert = "jobs:stock_alert"

	JobStockAlert = "stock_alert"

	// MaxJobAttempts is how many times a failing job runs before it is moved
	// to the dead letter queue.
	MaxJobAttempts = 3

	// fetchBackoff is how long a worker waits after a failed BRPOP before
	// asking Redis again.
	fetchBackoff = time.Second
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// HandlerFunc processes one job payload.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueStockAlert pushes a low-stock notification to Redis.
func (d *Dispatcher) EnqueueStockAlert(ctx context.Context, alert StockAlert) error {
	return d.enqueue(ctx, QueueStockAlert, JobStockAlert, alert)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Pool routes dequeued jobs to their handlers by job type.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]HandlerFunc
	queues   []string
	backoff  time.Duration
}

func NewPool(rdb *redis.Client) *Pool {
	return &Pool{rdb: rdb, handlers: make(map[string]HandlerFunc), backoff: fetchBackoff}
}

// Handle registers h for jobs of jobType arriving on queue.
func (p *Pool) Handle(queue, jobType string, h HandlerFunc) {
	p.handlers[jobType] = h
	for _, q := range p.queues {
		if q == queue {
			return
		}
	}
	p.queues = append(p.queues, queue)
}

// Start launches numWorkers goroutines consuming all registered queues.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Strs("queues", p.queues).Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue // timeout or shutdown
				}
				log.Warn().Err(err).Int("worker", id).Msg("brpop failed, backing off")
				p.wait(ctx)
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

// wait pauses for the pool's backoff or until ctx is done.
func (p *Pool) wait(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// process runs one raw job. Undecodable or unknown jobs go straight to the
// DLQ; failing jobs are re-queued until MaxJobAttempts.
func (p *Pool) process(ctx context.Context, queue, raw string) {
	job, err := p.dispatch(ctx, raw)
	if err == nil {
		return
	}

	if job == nil || job.Attempts+1 >= MaxJobAttempts {
		jobType, payload, attempts := "unknown", json.RawMessage(raw), 0
		if job != nil {
			jobType, payload, attempts = job.Type, job.Payload, job.Attempts+1
		}
		SendToDLQ(ctx, p.rdb, queue, jobType, payload, err.Error(), attempts)
		return
	}

	job.Attempts++
	log.Warn().Err(err).Str("queue", queue).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, re-queued")
	if pushErr := push(ctx, p.rdb, queue, *job); pushErr != nil {
		log.Error().Err(pushErr).Str("queue", queue).Msg("failed to re-queue job")
	}
}

// dispatch decodes raw and calls the registered handler. A nil job means the
// envelope itself could not be used.
func (p *Pool) dispatch(ctx context.Context, raw string) (*Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		return nil, fmt.Errorf("no handler for job type %q", job.Type)
	}
	return &job, h(ctx, job.Payload)
}
