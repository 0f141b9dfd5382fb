// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/recipebook/internal/domain/recipe"
)

// ErrCacheMiss is returned by CacheRepository.Get when a key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// RecipeRepository defines the interface for recipe persistence.
// Lookups of a missing recipe return an error wrapping recipe.ErrRecipeNotFound.
type RecipeRepository interface {
	// Basic CRUD operations
	FindByID(ctx context.Context, id uint) (*recipe.Recipe, error)
	FindByTitle(ctx context.Context, title string) (*recipe.Recipe, error)
	Save(ctx context.Context, r *recipe.Recipe) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)

	// Query operations
	Search(ctx context.Context, criteria SearchCriteria) ([]*recipe.Recipe, int64, error)
	CategoryCounts(ctx context.Context, limit int) ([]CategoryCount, error)
	FeaturedRecipes(ctx context.Context, limit int) ([]*recipe.Recipe, error)

	// Conditional instruction updates. Each reports whether a row changed.
	MarkPending(ctx context.Context, id uint) (bool, error)
	// ReclaimStalePending restarts a pending recipe last touched before cutoff
	ReclaimStalePending(ctx context.Context, id uint, cutoff time.Time) (bool, error)
	CompleteInstructions(ctx context.Context, id uint, text string, at time.Time) (bool, error)
	FailInstructions(ctx context.Context, id uint, message string) (bool, error)
}

// IngredientRepository defines the interface for ingredient persistence
type IngredientRepository interface {
	// FindOrCreate returns the ingredient with the normalized name, creating it when absent
	FindOrCreate(ctx context.Context, name string) (recipe.Ingredient, bool, error)
	AllNames(ctx context.Context) ([]string, error)
	MostUsed(ctx context.Context, limit int) ([]string, error)
}

// Transactor runs fn inside a database transaction carried by the context
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SearchCriteria defines search parameters for recipes
type SearchCriteria struct {
	Query       string
	Category    string
	Cuisine     string
	Ingredients []string
	MatchAll    bool
	MaxTime     *int
	MinRating   *float64
	Offset      int
	Limit       int
}

// CategoryCount is the number of recipes in a category
type CategoryCount struct {
	Category string
	Count    int64
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Flush(ctx context.Context) error
}
