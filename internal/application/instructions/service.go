// Package instructions runs the AI cooking instructions workflow: an
// idempotent request, a background generation task and a live update.
package instructions

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/alchemorsel/recipebook/internal/application/catalog"
	"github.com/alchemorsel/recipebook/internal/domain/recipe"
	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/alchemorsel/recipebook/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Job outcomes reported to metrics
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// outcomeTimeout bounds storing a generation result once the task's own
// context is gone
const outcomeTimeout = 5 * time.Second

var tracer = otel.Tracer("github.com/alchemorsel/recipebook/internal/application/instructions")

// ErrorDescriber turns a generation error into the message stored on the recipe
type ErrorDescriber func(err error) string

// Option configures a Service
type Option func(*Service)

// WithPendingTimeout lets a request restart generation for a recipe that has
// been pending longer than d, as happens when its task was lost. Zero disables it.
func WithPendingTimeout(d time.Duration) Option {
	return func(s *Service) { s.pendingTimeout = d }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service implements the instruction workflow use cases
type Service struct {
	recipes        outbound.RecipeRepository
	generator      outbound.InstructionGenerator
	queue          outbound.TaskQueue
	notifier       outbound.Notifier
	describe       ErrorDescriber
	metrics        outbound.MetricsRecorder
	logger         *zap.Logger
	now            func() time.Time
	pendingTimeout time.Duration
}

// NewService creates a new instruction service
func NewService(
	recipes outbound.RecipeRepository,
	generator outbound.InstructionGenerator,
	queue outbound.TaskQueue,
	notifier outbound.Notifier,
	describe ErrorDescriber,
	metrics outbound.MetricsRecorder,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	if describe == nil {
		describe = func(err error) string { return err.Error() }
	}
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	s := &Service{
		recipes:   recipes,
		generator: generator,
		queue:     queue,
		notifier:  notifier,
		describe:  describe,
		metrics:   metrics,
		logger:    logger.Named("instruction-service"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestInstructions schedules generation for an idle or failed recipe.
// Pending and ready recipes are returned unchanged and nothing is scheduled,
// except a recipe pending for longer than the pending timeout, which is
// scheduled again.
func (s *Service) RequestInstructions(ctx context.Context, recipeID uint) (*inbound.AIStateDTO, error) {
	r, err := s.load(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	status := r.AI().Status
	switch {
	case status.CanRequest():
		won, err := s.recipes.MarkPending(ctx, recipeID)
		if err != nil {
			return nil, errors.NewDatabaseError("mark instructions pending", err)
		}
		if !won {
			// Another request moved the recipe first
			return s.GetState(ctx, recipeID)
		}
		if err := r.BeginGeneration(s.now()); err != nil {
			return nil, errors.Wrap(err, "failed to begin generation")
		}
	case s.isStale(r):
		won, err := s.recipes.ReclaimStalePending(ctx, recipeID, s.now().Add(-s.pendingTimeout))
		if err != nil {
			return nil, errors.NewDatabaseError("reclaim stale pending recipe", err)
		}
		if !won {
			return s.GetState(ctx, recipeID)
		}
		s.logger.Warn("Rescheduling instruction generation stuck in pending",
			zap.Uint("recipe_id", recipeID),
			zap.Time("pending_since", r.UpdatedAt()),
		)
	default:
		state := catalog.ToAIState(r)
		return &state, nil
	}

	task := outbound.NewTask(outbound.TaskKindGenerateInstructions, recipeID)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		s.logger.Error("Failed to enqueue instruction generation",
			zap.Uint("recipe_id", recipeID),
			zap.Error(err),
		)
		message := fmt.Sprintf("Failed to schedule instruction generation: %s", err.Error())
		storeCtx, cancel := outcomeContext(ctx)
		defer cancel()
		if _, ferr := s.recipes.FailInstructions(storeCtx, recipeID, message); ferr != nil {
			s.logger.Error("Failed to record scheduling failure", zap.Uint("recipe_id", recipeID), zap.Error(ferr))
		}
		return nil, errors.NewQueueError(task.Kind, err)
	}

	s.logEvents(r)
	s.logger.Info("Instruction generation requested",
		zap.Uint("recipe_id", recipeID),
		zap.String("task_id", task.ID.String()),
	)

	state := catalog.ToAIState(r)
	return &state, nil
}

// isStale reports whether a pending recipe has waited past the pending timeout
func (s *Service) isStale(r *recipe.Recipe) bool {
	if s.pendingTimeout <= 0 || r.AI().Status != recipe.AIStatusPending {
		return false
	}
	return s.now().Sub(r.UpdatedAt()) > s.pendingTimeout
}

// outcomeContext detaches from ctx so a result is stored even when the task
// was canceled while the generator ran
func outcomeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), outcomeTimeout)
}

// GenerateInstructions is the background task body. It does nothing unless the
// recipe is still pending, and stores the outcome only if it still is.
func (s *Service) GenerateInstructions(ctx context.Context, recipeID uint) error {
	ctx, span := tracer.Start(ctx, "instructions.Generate")
	defer span.End()
	span.SetAttributes(attribute.Int64("recipe.id", int64(recipeID)))
	started := s.now()

	r, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		if stderrors.Is(err, recipe.ErrRecipeNotFound) {
			s.logger.Info("Recipe gone before generation", zap.Uint("recipe_id", recipeID))
			s.metrics.RecordAIJob(OutcomeSkipped, time.Since(started))
			return nil
		}
		span.RecordError(err)
		return err
	}
	if r.AI().Status != recipe.AIStatusPending {
		s.logger.Info("Skipping generation for recipe that is not pending",
			zap.Uint("recipe_id", recipeID),
			zap.String("status", r.AI().Status.String()),
		)
		s.metrics.RecordAIJob(OutcomeSkipped, time.Since(started))
		return nil
	}

	text, genErr := s.generator.GenerateInstructions(ctx, outbound.GenerationRequest{
		System: SystemPrompt,
		Prompt: BuildPrompt(r),
	})

	storeCtx, cancel := outcomeContext(ctx)
	defer cancel()

	outcome := OutcomeSucceeded
	var stored bool
	if genErr == nil {
		now := s.now()
		stored, err = s.recipes.CompleteInstructions(storeCtx, recipeID, text, now)
		if err == nil && stored {
			err = r.CompleteGeneration(text, now)
		}
	} else {
		outcome = OutcomeFailed
		message := s.describe(genErr)
		span.RecordError(genErr)
		span.SetStatus(codes.Error, message)
		s.logger.Warn("Instruction generation failed",
			zap.Uint("recipe_id", recipeID),
			zap.String("message", message),
			zap.Error(genErr),
		)
		stored, err = s.recipes.FailInstructions(storeCtx, recipeID, message)
		if err == nil && stored {
			err = r.FailGeneration(message, s.now())
		}
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("store generation outcome for recipe %d: %w", recipeID, err)
	}
	if !stored {
		s.logger.Info("Recipe left pending state during generation", zap.Uint("recipe_id", recipeID))
		s.metrics.RecordAIJob(OutcomeSkipped, time.Since(started))
		return nil
	}

	s.metrics.RecordAIJob(outcome, time.Since(started))
	s.logEvents(r)

	notification := outbound.Notification{
		Topic:  inbound.Topic(recipeID),
		Target: inbound.InstructionsTarget(recipeID),
		State:  catalog.ToAIState(r),
	}
	if err := s.notifier.Notify(storeCtx, notification); err != nil {
		s.logger.Warn("Failed to notify subscribers", zap.Uint("recipe_id", recipeID), zap.Error(err))
	}
	return nil
}

// GetState returns the current instructions state of a recipe
func (s *Service) GetState(ctx context.Context, recipeID uint) (*inbound.AIStateDTO, error) {
	r, err := s.load(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	state := catalog.ToAIState(r)
	return &state, nil
}

func (s *Service) load(ctx context.Context, recipeID uint) (*recipe.Recipe, error) {
	r, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		if stderrors.Is(err, recipe.ErrRecipeNotFound) {
			return nil, errors.NewRecipeNotFoundError(recipeID)
		}
		return nil, errors.NewDatabaseError("find recipe", err)
	}
	return r, nil
}

func (s *Service) logEvents(r *recipe.Recipe) {
	for _, event := range r.Events() {
		s.logger.Debug("Domain event",
			zap.String("event", event.EventName()),
			zap.Uint("recipe_id", r.ID()),
			zap.Time("occurred_at", event.OccurredAt()),
		)
	}
}

var _ inbound.InstructionService = (*Service)(nil)
