package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedTask struct {
	kind    string
	outcome string
}

type recordingMetrics struct {
	mu    sync.Mutex
	tasks []recordedTask
}

func (m *recordingMetrics) RecordTask(kind, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, recordedTask{kind: kind, outcome: outcome})
}

func (m *recordingMetrics) SetQueueDepth(int) {}

func (m *recordingMetrics) recorded() []recordedTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedTask(nil), m.tasks...)
}

func TestDispatcher_Dispatch(t *testing.T) {
	metrics := &recordingMetrics{}
	d := NewDispatcher(metrics, zap.NewNop())

	var got []uint
	d.Register("ok", func(ctx context.Context, task outbound.Task) error {
		got = append(got, task.RecipeID)
		return nil
	})
	d.Register("fails", func(ctx context.Context, task outbound.Task) error {
		return errors.New("boom")
	})
	d.Register("panics", func(ctx context.Context, task outbound.Task) error {
		panic("bad handler")
	})

	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, outbound.NewTask("ok", 7)))
	assert.EqualError(t, d.Dispatch(ctx, outbound.NewTask("fails", 8)), "boom")
	assert.ErrorContains(t, d.Dispatch(ctx, outbound.NewTask("panics", 9)), "bad handler")
	require.NoError(t, d.Dispatch(ctx, outbound.NewTask("mystery", 10)))

	assert.Equal(t, []uint{7}, got)
	assert.Equal(t, []recordedTask{
		{kind: "ok", outcome: OutcomeSucceeded},
		{kind: "fails", outcome: OutcomeFailed},
		{kind: "panics", outcome: OutcomeFailed},
		{kind: "mystery", outcome: OutcomeUnknown},
	}, metrics.recorded())
}
