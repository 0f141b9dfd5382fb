package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"go.uber.org/zap"
)

const (
	// PopularCategoriesKey is the cache key of the popular categories list
	PopularCategoriesKey = "popular_categories"
	// PopularCategoriesLimit is how many categories the list holds
	PopularCategoriesLimit = 5
	// DefaultPopularCategoriesTTL is used when no TTL is configured
	DefaultPopularCategoriesTTL = 7 * 24 * time.Hour
)

// PopularCategories owns the cached list of the categories with the most recipes.
// Cache failures fall back to computing the list from the repository.
type PopularCategories struct {
	cache   outbound.CacheRepository
	recipes outbound.RecipeRepository
	ttl     time.Duration
	logger  *zap.Logger
}

// NewPopularCategories creates the popular categories cache component
func NewPopularCategories(
	cache outbound.CacheRepository,
	recipes outbound.RecipeRepository,
	ttl time.Duration,
	logger *zap.Logger,
) *PopularCategories {
	if ttl <= 0 {
		ttl = DefaultPopularCategoriesTTL
	}
	return &PopularCategories{
		cache:   cache,
		recipes: recipes,
		ttl:     ttl,
		logger:  logger.Named("popular-categories"),
	}
}

// Get returns the cached list, computing and storing it on a miss
func (p *PopularCategories) Get(ctx context.Context) ([]string, error) {
	data, err := p.cache.Get(ctx, PopularCategoriesKey)
	switch {
	case err == nil:
		var categories []string
		if err := json.Unmarshal(data, &categories); err == nil {
			return categories, nil
		}
		p.logger.Warn("Discarding unreadable cache entry", zap.String("key", PopularCategoriesKey))
	case !errors.Is(err, outbound.ErrCacheMiss):
		p.logger.Warn("Cache read failed", zap.String("key", PopularCategoriesKey), zap.Error(err))
	}

	return p.computeAndStore(ctx)
}

// Refresh drops the cached list and recomputes it
func (p *PopularCategories) Refresh(ctx context.Context) ([]string, error) {
	if err := p.Invalidate(ctx); err != nil {
		p.logger.Warn("Cache invalidation failed", zap.Error(err))
	}
	return p.computeAndStore(ctx)
}

// Invalidate drops the cached list
func (p *PopularCategories) Invalidate(ctx context.Context) error {
	return p.cache.Delete(ctx, PopularCategoriesKey)
}

func (p *PopularCategories) computeAndStore(ctx context.Context) ([]string, error) {
	counts, err := p.recipes.CategoryCounts(ctx, PopularCategoriesLimit)
	if err != nil {
		return nil, err
	}

	categories := make([]string, len(counts))
	for i, c := range counts {
		categories[i] = c.Category
	}

	data, err := json.Marshal(categories)
	if err == nil {
		err = p.cache.Set(ctx, PopularCategoriesKey, data, p.ttl)
	}
	if err != nil {
		p.logger.Warn("Cache write failed", zap.String("key", PopularCategoriesKey), zap.Error(err))
	}
	return categories, nil
}
