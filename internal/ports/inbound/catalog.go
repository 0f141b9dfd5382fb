// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"
)

// CatalogService defines the read side of the recipe catalog.
// This is the primary port that HTTP handlers and the CLI use.
type CatalogService interface {
	Search(ctx context.Context, query SearchQuery) (*SearchResult, error)
	GetRecipe(ctx context.Context, id uint, scale float64) (*RecipeDTO, error)
	Home(ctx context.Context) (*HomeDTO, error)
	IngredientNames(ctx context.Context) ([]string, error)

	// Aggregate cache management
	PopularCategories(ctx context.Context) ([]string, error)
	RefreshPopularCategories(ctx context.Context) ([]string, error)
	InvalidatePopularCategories(ctx context.Context) error
	ClearCaches(ctx context.Context) error
}

// RecipeDTO is the recipe as shown to clients
type RecipeDTO struct {
	ID          uint                `json:"id"`
	Title       string              `json:"title"`
	CookTime    *int                `json:"cook_time,omitempty"`
	PrepTime    *int                `json:"prep_time,omitempty"`
	TotalTime   *int                `json:"total_time,omitempty"`
	Ratings     *float64            `json:"ratings,omitempty"`
	Cuisine     string              `json:"cuisine,omitempty"`
	Category    string              `json:"category,omitempty"`
	Author      string              `json:"author,omitempty"`
	ImageURL    string              `json:"image_url,omitempty"`
	Scale       float64             `json:"scale"`
	Ingredients []IngredientLineDTO `json:"ingredients"`
	AI          AIStateDTO          `json:"ai_instructions"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// IngredientLineDTO is one ingredient line of a recipe
type IngredientLineDTO struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	RawText  string   `json:"raw_text"`
	Display  string   `json:"display"`
}

// SearchResult is one page of matching recipes plus the data the filter UI needs
type SearchResult struct {
	Recipes           []RecipeDTO `json:"recipes"`
	Page              int         `json:"page"`
	PageSize          int         `json:"page_size"`
	TotalCount        int64       `json:"total_count"`
	TotalPages        int         `json:"total_pages"`
	HasNext           bool        `json:"has_next"`
	HasPrev           bool        `json:"has_prev"`
	AllIngredients    []string    `json:"all_ingredients"`
	PopularCategories []string    `json:"popular_categories"`
	Query             SearchQuery `json:"query"`
}

// HomeDTO is the landing page content
type HomeDTO struct {
	Featured           []RecipeDTO `json:"featured"`
	PopularIngredients []string    `json:"popular_ingredients"`
	TotalRecipes       int64       `json:"total_recipes"`
}
