package recipe

import (
	"strconv"
	"strings"
	"time"
)

// Ingredient is a normalized foodstuff name shared across recipes
type Ingredient struct {
	ID        uint
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewIngredient normalizes name and validates it
func NewIngredient(name string) (Ingredient, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return Ingredient{}, ErrIngredientNameRequired
	}
	return Ingredient{Name: normalized}, nil
}

// NormalizeName is the stored and compared form of an ingredient name
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RecipeIngredient links a recipe to an ingredient with the authored line
type RecipeIngredient struct {
	ID             uint
	RecipeID       uint
	IngredientID   uint
	IngredientName string
	Quantity       *float64
	Unit           string
	RawText        string
}

// NewRecipeIngredient validates a link before it is attached to a recipe
func NewRecipeIngredient(ingredient Ingredient, quantity *float64, unit, rawText string) (RecipeIngredient, error) {
	if ingredient.Name == "" {
		return RecipeIngredient{}, ErrIngredientNameRequired
	}
	if quantity != nil && *quantity <= 0 {
		return RecipeIngredient{}, ErrInvalidQuantity
	}
	if strings.TrimSpace(rawText) == "" {
		return RecipeIngredient{}, ErrRawTextRequired
	}

	return RecipeIngredient{
		IngredientID:   ingredient.ID,
		IngredientName: ingredient.Name,
		Quantity:       quantity,
		Unit:           strings.TrimSpace(unit),
		RawText:        rawText,
	}, nil
}

// ScaledQuantity multiplies the quantity by factor; nil when no quantity is known
func (ri RecipeIngredient) ScaledQuantity(factor float64) *float64 {
	if ri.Quantity == nil {
		return nil
	}
	scaled := *ri.Quantity * factor
	return &scaled
}

// DisplayText renders the line for a serving factor. The authored text is kept
// unless the line can be rebuilt from a quantity and a unit.
func (ri RecipeIngredient) DisplayText(factor float64) string {
	if factor == 1 || ri.Quantity == nil || ri.Unit == "" {
		return ri.RawText
	}

	scaled := ri.ScaledQuantity(factor)
	return strings.Join([]string{FormatQuantity(*scaled), ri.Unit, ri.IngredientName}, " ")
}

// FormatQuantity prints a quantity without trailing zeros
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
