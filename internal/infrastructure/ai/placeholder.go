package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/alchemorsel/recipebook/internal/ports/outbound"
)

// PlaceholderGenerator answers without a model. It is used when no API key is
// configured and returns the same text for the same prompt.
type PlaceholderGenerator struct{}

// NewPlaceholderGenerator creates a placeholder generator
func NewPlaceholderGenerator() *PlaceholderGenerator {
	return &PlaceholderGenerator{}
}

// GenerateInstructions returns deterministic placeholder steps
func (g *PlaceholderGenerator) GenerateInstructions(ctx context.Context, req outbound.GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(req.Prompt))
	return fmt.Sprintf("AI steps: %s\n"+
		"1. Gather and measure every ingredient.\n"+
		"2. Prepare the ingredients as listed.\n"+
		"3. Combine and cook until done.", hex.EncodeToString(sum[:])[:8]), nil
}
