package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultRedisKey is the list holding pending tasks
	DefaultRedisKey = "recipebook:tasks"
	// DefaultPollWait bounds each blocking pop so workers notice shutdown
	DefaultPollWait = 5 * time.Second

	retryDelay       = time.Second
	processingSuffix = ":processing"
	ackTimeout       = 5 * time.Second
)

// RedisQueue pushes tasks onto a Redis list. Workers move each task onto a
// processing list with BLMOVE and remove it once handled, so a task held by a
// worker that dies stays in the processing list and is requeued by the next
// Start. Delivery is at least once: a requeued or twice-pushed task runs twice.
type RedisQueue struct {
	client     redis.UniversalClient
	key        string
	processing string
	pollWait   time.Duration
	workers    int
	dispatcher *Dispatcher
	metrics    Metrics
	logger     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisQueue creates a Redis-backed queue
func NewRedisQueue(client redis.UniversalClient, key string, pollWait time.Duration, workers int, dispatcher *Dispatcher, metrics Metrics, logger *zap.Logger) *RedisQueue {
	if key == "" {
		key = DefaultRedisKey
	}
	if pollWait <= 0 {
		pollWait = DefaultPollWait
	}
	if workers < 1 {
		workers = 1
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &RedisQueue{
		client:     client,
		key:        key,
		processing: key + processingSuffix,
		pollWait:   pollWait,
		workers:    workers,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger.Named("redis-queue"),
	}
}

// Enqueue pushes the task as JSON
func (q *RedisQueue) Enqueue(ctx context.Context, task outbound.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	depth, err := q.client.LPush(ctx, q.key, data).Result()
	if err != nil {
		return fmt.Errorf("failed to push task: %w", err)
	}
	q.metrics.SetQueueDepth(int(depth))
	return nil
}

// Start launches the workers
func (q *RedisQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancel != nil {
		return nil
	}

	requeued, err := q.requeueProcessing(ctx)
	if err != nil {
		return fmt.Errorf("failed to requeue unfinished tasks: %w", err)
	}
	if requeued > 0 {
		q.logger.Warn("Requeued tasks left unfinished by a previous worker", zap.Int("count", requeued))
	}

	runCtx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(runCtx)
	}

	q.logger.Info("Task queue started",
		zap.String("key", q.key),
		zap.Int("workers", q.workers),
	)
	return nil
}

func (q *RedisQueue) work(ctx context.Context) {
	defer q.wg.Done()
	for ctx.Err() == nil {
		payload, err := q.client.BLMove(ctx, q.key, q.processing, "RIGHT", "LEFT", q.pollWait).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.logger.Error("Failed to pop task", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			continue
		}

		var task outbound.Task
		if err := json.Unmarshal([]byte(payload), &task); err != nil {
			q.logger.Error("Dropping undecodable task", zap.String("payload", payload), zap.Error(err))
		} else {
			_ = q.dispatcher.Dispatch(context.WithoutCancel(ctx), task)
		}
		q.ack(payload)
	}
}

// ack removes a handled task from the processing list
func (q *RedisQueue) ack(payload string) {
	ctx, cancel := context.WithTimeout(context.Background(), ackTimeout)
	defer cancel()
	if err := q.client.LRem(ctx, q.processing, 1, payload).Err(); err != nil {
		q.logger.Error("Failed to acknowledge task", zap.Error(err))
	}
}

// requeueProcessing moves every task left on the processing list back to the
// consuming end of the pending list
func (q *RedisQueue) requeueProcessing(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, q.processing, q.key, "RIGHT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, err
		}
		moved++
	}
}

// Stop signals the workers and waits for in-flight tasks
func (q *RedisQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("Task queue stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Depth reports the number of pending tasks
func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// InFlight reports the number of tasks taken by workers and not yet handled
func (q *RedisQueue) InFlight(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.processing).Result()
}
