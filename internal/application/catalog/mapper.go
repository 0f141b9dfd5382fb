package catalog

import (
	"github.com/alchemorsel/recipebook/internal/domain/recipe"
	"github.com/alchemorsel/recipebook/internal/ports/inbound"
)

// ToRecipeDTO converts a recipe for display with ingredient lines scaled by factor
func ToRecipeDTO(r *recipe.Recipe, factor float64) inbound.RecipeDTO {
	if factor <= 0 {
		factor = 1
	}

	lines := make([]inbound.IngredientLineDTO, len(r.Ingredients()))
	for i, link := range r.Ingredients() {
		lines[i] = inbound.IngredientLineDTO{
			Name:     link.IngredientName,
			Quantity: link.ScaledQuantity(factor),
			Unit:     link.Unit,
			RawText:  link.RawText,
			Display:  link.DisplayText(factor),
		}
	}

	return inbound.RecipeDTO{
		ID:          r.ID(),
		Title:       r.Title(),
		CookTime:    r.CookTime(),
		PrepTime:    r.PrepTime(),
		TotalTime:   r.TotalTime(),
		Ratings:     r.Ratings(),
		Cuisine:     deref(r.Cuisine()),
		Category:    deref(r.Category()),
		Author:      deref(r.Author()),
		ImageURL:    deref(r.ImageURL()),
		Scale:       factor,
		Ingredients: lines,
		AI:          ToAIState(r),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
}

// ToAIState converts the generated instructions state of a recipe
func ToAIState(r *recipe.Recipe) inbound.AIStateDTO {
	ai := r.AI()
	return inbound.AIStateDTO{
		RecipeID:     r.ID(),
		Status:       ai.Status.String(),
		Instructions: deref(ai.Text),
		GeneratedAt:  ai.GeneratedAt,
		Error:        deref(ai.Error),
	}
}

func toRecipeDTOs(recipes []*recipe.Recipe) []inbound.RecipeDTO {
	dtos := make([]inbound.RecipeDTO, len(recipes))
	for i, r := range recipes {
		dtos[i] = ToRecipeDTO(r, 1)
	}
	return dtos
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
