package recipe

import "errors"

// Domain errors for recipe operations

var (
	// Entity validation errors
	ErrTitleRequired   = errors.New("recipe title is required")
	ErrTitleTooLong    = errors.New("recipe title must not exceed 255 characters")
	ErrInvalidCookTime = errors.New("cook time must be zero or more minutes")
	ErrInvalidPrepTime = errors.New("prep time must be zero or more minutes")
	ErrInvalidRating   = errors.New("ratings must be between 0 and 5")

	// Ingredient errors
	ErrIngredientNameRequired = errors.New("ingredient name is required")
	ErrInvalidQuantity        = errors.New("quantity must be greater than 0")
	ErrRawTextRequired        = errors.New("ingredient raw text is required")
	ErrDuplicateIngredient    = errors.New("ingredient already linked to recipe")

	// Lookup and state errors
	ErrRecipeNotFound          = errors.New("recipe not found")
	ErrInvalidStatusTransition = errors.New("invalid ai instructions status transition")
)
