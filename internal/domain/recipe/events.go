package recipe

import "time"

// RecipeImportedEvent is raised when an import creates or updates a recipe
type RecipeImportedEvent struct {
	RecipeID   uint
	Title      string
	Created    bool
	ImportedAt time.Time
}

func (e RecipeImportedEvent) EventName() string {
	return "recipe.imported"
}

func (e RecipeImportedEvent) OccurredAt() time.Time {
	return e.ImportedAt
}

// AIInstructionsRequestedEvent is raised when generation moves a recipe to pending
type AIInstructionsRequestedEvent struct {
	RecipeID    uint
	RequestedAt time.Time
}

func (e AIInstructionsRequestedEvent) EventName() string {
	return "recipe.ai_instructions.requested"
}

func (e AIInstructionsRequestedEvent) OccurredAt() time.Time {
	return e.RequestedAt
}

// AIInstructionsCompletedEvent is raised when generated instructions are stored
type AIInstructionsCompletedEvent struct {
	RecipeID    uint
	CompletedAt time.Time
}

func (e AIInstructionsCompletedEvent) EventName() string {
	return "recipe.ai_instructions.completed"
}

func (e AIInstructionsCompletedEvent) OccurredAt() time.Time {
	return e.CompletedAt
}

// AIInstructionsFailedEvent is raised when generation fails
type AIInstructionsFailedEvent struct {
	RecipeID uint
	Reason   string
	FailedAt time.Time
}

func (e AIInstructionsFailedEvent) EventName() string {
	return "recipe.ai_instructions.failed"
}

func (e AIInstructionsFailedEvent) OccurredAt() time.Time {
	return e.FailedAt
}
