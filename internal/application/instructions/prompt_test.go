package instructions

import (
	"testing"

	"github.com/alchemorsel/recipebook/internal/domain/recipe"
	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	quantity := 2.5
	prep, cook := 10, 20
	r := recipe.Rehydrate(recipe.Snapshot{
		ID:       1,
		Title:    "Pancakes",
		PrepTime: &prep,
		CookTime: &cook,
		Category: strPtr("Breakfast"),
		Ingredients: []recipe.RecipeIngredient{
			{IngredientName: "flour", Quantity: &quantity, Unit: "cups", RawText: "2 1/2 cups flour"},
			{IngredientName: "eggs", RawText: "some eggs"},
		},
	})

	expected := "Recipe: Pancakes\n\n" +
		"Ingredients:\n" +
		"2.5 cups flour\n" +
		"eggs\n\n" +
		"Additional Info:\n" +
		"- Prep time: 10 minutes\n" +
		"- Cook time: 20 minutes\n" +
		"- Category: Breakfast\n\n" +
		"Please provide detailed step-by-step cooking instructions for this recipe.\n"

	assert.Equal(t, expected, BuildPrompt(r))
}

func TestBuildPrompt_NoOptionalAttributes(t *testing.T) {
	r := recipe.Rehydrate(recipe.Snapshot{ID: 2, Title: "Water"})

	prompt := BuildPrompt(r)

	assert.Contains(t, prompt, "Ingredients:\n\nAdditional Info:\n\nPlease provide")
	assert.NotContains(t, prompt, "Prep time")
	assert.NotContains(t, prompt, "Cuisine")
}

func strPtr(s string) *string { return &s }
