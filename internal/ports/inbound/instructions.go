package inbound

import (
	"context"
	"fmt"
	"time"
)

// InstructionService drives generation of AI cooking instructions
type InstructionService interface {
	// RequestInstructions starts generation unless it is already pending or done
	RequestInstructions(ctx context.Context, recipeID uint) (*AIStateDTO, error)
	// GenerateInstructions is the background task body
	GenerateInstructions(ctx context.Context, recipeID uint) error
	GetState(ctx context.Context, recipeID uint) (*AIStateDTO, error)
}

// AIStateDTO is the generated instructions state of a recipe
type AIStateDTO struct {
	RecipeID     uint       `json:"recipe_id"`
	Status       string     `json:"status"`
	Instructions string     `json:"instructions,omitempty"`
	GeneratedAt  *time.Time `json:"generated_at,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Pending reports whether generation is in progress
func (s AIStateDTO) Pending() bool {
	return s.Status == "pending"
}

// Topic is the live update channel for a recipe
func Topic(recipeID uint) string {
	return fmt.Sprintf("recipe_%d", recipeID)
}

// InstructionsTarget is the page element replaced by live updates
func InstructionsTarget(recipeID uint) string {
	return fmt.Sprintf("ai_instructions_recipe_%d", recipeID)
}
