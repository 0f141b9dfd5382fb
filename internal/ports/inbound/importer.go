package inbound

import "context"

// ImportService loads recipes from JSON documents
type ImportService interface {
	// ImportFile reads a JSON array of recipe records from path
	ImportFile(ctx context.Context, path string) (*ImportResult, error)
	ImportRecords(ctx context.Context, records []RecipeRecord) *ImportResult
	// Seed imports the bundled sample recipes into an empty catalog
	Seed(ctx context.Context) (*ImportResult, error)
}

// RecipeRecord is one recipe in an import document
type RecipeRecord struct {
	Title       string   `json:"title" validate:"required,max=255"`
	CookTime    *int     `json:"cook_time" validate:"omitempty,gte=0"`
	PrepTime    *int     `json:"prep_time" validate:"omitempty,gte=0"`
	Ratings     *float64 `json:"ratings" validate:"omitempty,gte=0,lte=5"`
	Cuisine     string   `json:"cuisine"`
	Category    string   `json:"category"`
	Author      string   `json:"author"`
	Image       string   `json:"image"`
	Ingredients []string `json:"ingredients"`
}

// ImportResult counts what an import changed
type ImportResult struct {
	CreatedRecipes     int      `json:"created_recipes"`
	UpdatedRecipes     int      `json:"updated_recipes"`
	CreatedIngredients int      `json:"created_ingredients"`
	Errors             []string `json:"errors"`
}

// Changed reports whether any recipe was written
func (r *ImportResult) Changed() bool {
	return r.CreatedRecipes > 0 || r.UpdatedRecipes > 0
}
