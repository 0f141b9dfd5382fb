// Package queue runs background tasks on an in-process or Redis-backed queue
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when the in-process buffer has no room
	ErrQueueFull = errors.New("task queue is full")
	// ErrQueueClosed is returned once the queue has been stopped
	ErrQueueClosed = errors.New("task queue is closed")
)

// Task outcomes reported to Metrics
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeUnknown   = "unknown_kind"
)

// Handler processes one task
type Handler func(ctx context.Context, task outbound.Task) error

// Runner is the consumer side of a queue
type Runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Queue is a task queue with its consumers
type Queue interface {
	outbound.TaskQueue
	Runner
}

// Metrics receives task processing measurements
type Metrics interface {
	RecordTask(kind, outcome string, duration time.Duration)
	SetQueueDepth(depth int)
}

type nopMetrics struct{}

func (nopMetrics) RecordTask(string, string, time.Duration) {}
func (nopMetrics) SetQueueDepth(int)                        {}

// Dispatcher routes tasks to the handler registered for their kind
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	metrics  Metrics
	logger   *zap.Logger
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(metrics Metrics, logger *zap.Logger) *Dispatcher {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Dispatcher{
		handlers: make(map[string]Handler),
		metrics:  metrics,
		logger:   logger.Named("dispatcher"),
	}
}

// Register sets the handler for a task kind
func (d *Dispatcher) Register(kind string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = h
}

// Dispatch runs the task's handler. Unknown kinds are dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, task outbound.Task) (err error) {
	d.mu.RLock()
	h, ok := d.handlers[task.Kind]
	d.mu.RUnlock()

	fields := []zap.Field{
		zap.String("task_id", task.ID.String()),
		zap.String("kind", task.Kind),
		zap.Uint("recipe_id", task.RecipeID),
	}

	if !ok {
		d.logger.Warn("Dropping task of unknown kind", fields...)
		d.metrics.RecordTask(task.Kind, OutcomeUnknown, 0)
		return nil
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task handler panicked: %v", r)
		}
		duration := time.Since(start)
		if err != nil {
			d.logger.Error("Task failed", append(fields, zap.Duration("duration", duration), zap.Error(err))...)
			d.metrics.RecordTask(task.Kind, OutcomeFailed, duration)
			return
		}
		d.logger.Debug("Task completed", append(fields, zap.Duration("duration", duration))...)
		d.metrics.RecordTask(task.Kind, OutcomeSucceeded, duration)
	}()

	return h(ctx, task)
}
