package queue

import (
	"context"
	"sync"

	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"go.uber.org/zap"
)

// MemoryQueue runs tasks on a pool of goroutines fed by a buffered channel.
// Stop hands every buffered task to a worker, with a canceled context once the
// stop deadline passes. Tasks still buffered when the process dies are lost;
// their recipes stay pending until the instruction service reclaims them as stale.
type MemoryQueue struct {
	tasks      chan outbound.Task
	workers    int
	dispatcher *Dispatcher
	metrics    Metrics
	logger     *zap.Logger

	mu      sync.RWMutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewMemoryQueue creates an in-process queue
func NewMemoryQueue(workers, bufferSize int, dispatcher *Dispatcher, metrics Metrics, logger *zap.Logger) *MemoryQueue {
	if workers < 1 {
		workers = 1
	}
	if bufferSize < 1 {
		bufferSize = 1
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &MemoryQueue{
		tasks:      make(chan outbound.Task, bufferSize),
		workers:    workers,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger.Named("memory-queue"),
	}
}

// Enqueue buffers a task without blocking
func (q *MemoryQueue) Enqueue(ctx context.Context, task outbound.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- task:
		q.metrics.SetQueueDepth(len(q.tasks))
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the workers. The context only bounds startup.
func (q *MemoryQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return nil
	}
	if q.closed {
		return ErrQueueClosed
	}
	q.started = true

	runCtx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(runCtx)
	}

	q.logger.Info("Task queue started", zap.Int("workers", q.workers))
	return nil
}

func (q *MemoryQueue) work(ctx context.Context) {
	defer q.wg.Done()
	for task := range q.tasks {
		q.metrics.SetQueueDepth(len(q.tasks))
		_ = q.dispatcher.Dispatch(ctx, task)
	}
}

// Stop refuses new tasks and waits for the buffered ones to finish. When ctx
// expires first, running handlers are canceled and ctx's error is returned.
func (q *MemoryQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	started := q.started
	q.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		q.logger.Info("Task queue drained")
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}
