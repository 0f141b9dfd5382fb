// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"context"
	"fmt"
	"testing"

	"github.com/alchemorsel/recipebook/internal/domain/recipe"
	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
)

var units = []string{"cup", "cups", "tbsp", "tsp", "g", "oz", "lb"}

// RecipeFactory provides methods to create test recipes
type RecipeFactory struct {
	faker *gofakeit.Faker
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{
		faker: gofakeit.New(seed),
	}
}

// Record creates an import record with n ingredient lines of distinct ingredients
func (f *RecipeFactory) Record(n int) inbound.RecipeRecord {
	cook := f.faker.Number(5, 120)
	prep := f.faker.Number(0, 60)
	rating := float64(f.faker.Number(0, 50)) / 10

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		lines = append(lines, fmt.Sprintf("%d %s ingredient%d", f.faker.Number(1, 4), f.faker.RandomString(units), i))
	}

	return inbound.RecipeRecord{
		Title:       fmt.Sprintf("%s %s", f.faker.AdjectiveDescriptive(), f.faker.Dessert()),
		CookTime:    &cook,
		PrepTime:    &prep,
		Ratings:     &rating,
		Cuisine:     f.faker.RandomString([]string{"Italian", "Mexican", "Thai", "French"}),
		Category:    f.faker.RandomString([]string{"Dinner", "Dessert", "Breakfast"}),
		Author:      f.faker.Name(),
		Image:       f.faker.URL(),
		Ingredients: lines,
	}
}

// RecipeBuilder provides a fluent interface for building test recipes
type RecipeBuilder struct {
	id      uint
	title   string
	details recipe.Details
	lines   []string
	ai      recipe.AIInstructions
}

// NewRecipeBuilder creates a new recipe builder with default values
func NewRecipeBuilder() *RecipeBuilder {
	return &RecipeBuilder{
		title: gofakeit.Sentence(3),
		ai:    recipe.AIInstructions{Status: recipe.AIStatusIdle},
	}
}

// WithID sets the stored identifier
func (b *RecipeBuilder) WithID(id uint) *RecipeBuilder {
	b.id = id
	return b
}

// WithTitle sets the title
func (b *RecipeBuilder) WithTitle(title string) *RecipeBuilder {
	b.title = title
	return b
}

// WithDetails sets descriptive attributes
func (b *RecipeBuilder) WithDetails(d recipe.Details) *RecipeBuilder {
	b.details = d
	return b
}

// WithIngredients sets ingredient lines, parsed as the importer would
func (b *RecipeBuilder) WithIngredients(lines ...string) *RecipeBuilder {
	b.lines = lines
	return b
}

// WithStatus sets the instructions status
func (b *RecipeBuilder) WithStatus(status recipe.AIStatus) *RecipeBuilder {
	b.ai.Status = status
	return b
}

// WithInstructions sets stored instruction text
func (b *RecipeBuilder) WithInstructions(text string) *RecipeBuilder {
	b.ai.Text = &text
	return b
}

// Build creates the recipe; it panics on invalid input
func (b *RecipeBuilder) Build() *recipe.Recipe {
	r, err := recipe.NewRecipe(b.title)
	if err != nil {
		panic(err)
	}
	if err := r.ApplyDetails(b.details); err != nil {
		panic(err)
	}

	links := make([]recipe.RecipeIngredient, 0, len(b.lines))
	for i, line := range b.lines {
		parsed := recipe.ParseIngredientLine(line)
		ingredient := recipe.Ingredient{ID: uint(i + 1), Name: parsed.Name}
		link, err := recipe.NewRecipeIngredient(ingredient, parsed.Quantity, parsed.Unit, parsed.RawText)
		if err != nil {
			panic(err)
		}
		links = append(links, link)
	}
	if err := r.ReplaceIngredients(links); err != nil {
		panic(err)
	}

	snapshot := r.Snapshot()
	snapshot.ID = b.id
	snapshot.AI = b.ai
	return recipe.Rehydrate(snapshot)
}

// SeedRecipe parses lines, links their ingredients and saves the recipe
func SeedRecipe(
	t *testing.T,
	recipes outbound.RecipeRepository,
	ingredients outbound.IngredientRepository,
	title string,
	details recipe.Details,
	lines ...string,
) *recipe.Recipe {
	t.Helper()
	ctx := context.Background()

	r, err := recipe.NewRecipe(title)
	require.NoError(t, err)
	require.NoError(t, r.ApplyDetails(details))

	links := make([]recipe.RecipeIngredient, 0, len(lines))
	for _, line := range lines {
		parsed := recipe.ParseIngredientLine(line)
		ingredient, _, err := ingredients.FindOrCreate(ctx, parsed.Name)
		require.NoError(t, err)
		link, err := recipe.NewRecipeIngredient(ingredient, parsed.Quantity, parsed.Unit, parsed.RawText)
		require.NoError(t, err)
		links = append(links, link)
	}
	require.NoError(t, r.ReplaceIngredients(links))
	require.NoError(t, recipes.Save(ctx, r))
	return r
}
