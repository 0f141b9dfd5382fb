package outbound

import (
	"context"
	"time"

	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/google/uuid"
)

// GenerationRequest is a single prompt sent to a text-generation model
type GenerationRequest struct {
	System string
	Prompt string
}

// InstructionGenerator produces cooking instructions from a prompt
type InstructionGenerator interface {
	GenerateInstructions(ctx context.Context, req GenerationRequest) (string, error)
}

// TaskKindGenerateInstructions is the task that generates AI instructions for a recipe
const TaskKindGenerateInstructions = "generate_ai_instructions"

// Task is a unit of background work
type Task struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	RecipeID   uint      `json:"recipe_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewTask creates a task with a fresh id
func NewTask(kind string, recipeID uint) Task {
	return Task{
		ID:         uuid.New(),
		Kind:       kind,
		RecipeID:   recipeID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// TaskQueue accepts background tasks for asynchronous execution
type TaskQueue interface {
	Enqueue(ctx context.Context, task Task) error
}

// Notification is pushed to live subscribers of a topic
type Notification struct {
	Topic  string
	Target string
	State  inbound.AIStateDTO
}

// Notifier delivers notifications to connected clients
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// MetricsRecorder receives business measurements from the application services
type MetricsRecorder interface {
	RecordSearch(duration time.Duration, results int64)
	RecordImport(created, updated, failed int)
	RecordAIJob(outcome string, duration time.Duration)
}

// NopMetrics discards every measurement
type NopMetrics struct{}

func (NopMetrics) RecordSearch(time.Duration, int64) {}
func (NopMetrics) RecordImport(int, int, int)        {}
func (NopMetrics) RecordAIJob(string, time.Duration) {}
