package instructions

import (
	"fmt"
	"strings"

	"github.com/alchemorsel/recipebook/internal/domain/recipe"
)

// SystemPrompt frames the model as a chef assistant answering in plain numbered steps
const SystemPrompt = "You are a professional chef assistant. Generate clear, step-by-step cooking " +
	"instructions for the given recipe. Before the steps, give a short reflection of 2-3 sentences " +
	"on the dish in the voice of a culinary alchemist. Then write the steps as a plain numbered list " +
	"starting with '1.' with no markdown, no headers, no bold text and no titles."

// BuildPrompt renders the user prompt for a recipe. Unknown attributes are left out.
func BuildPrompt(r *recipe.Recipe) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Recipe: %s\n\nIngredients:\n", r.Title())
	for _, link := range r.Ingredients() {
		b.WriteString(ingredientLine(link))
		b.WriteByte('\n')
	}

	b.WriteString("\nAdditional Info:\n")
	if r.PrepTime() != nil {
		fmt.Fprintf(&b, "- Prep time: %d minutes\n", *r.PrepTime())
	}
	if r.CookTime() != nil {
		fmt.Fprintf(&b, "- Cook time: %d minutes\n", *r.CookTime())
	}
	if r.Category() != nil {
		fmt.Fprintf(&b, "- Category: %s\n", *r.Category())
	}
	if r.Cuisine() != nil {
		fmt.Fprintf(&b, "- Cuisine: %s\n", *r.Cuisine())
	}

	b.WriteString("\nPlease provide detailed step-by-step cooking instructions for this recipe.\n")
	return b.String()
}

func ingredientLine(link recipe.RecipeIngredient) string {
	parts := make([]string, 0, 3)
	if link.Quantity != nil {
		parts = append(parts, recipe.FormatQuantity(*link.Quantity))
	}
	if link.Unit != "" {
		parts = append(parts, link.Unit)
	}
	parts = append(parts, link.IngredientName)
	return strings.Join(parts, " ")
}
