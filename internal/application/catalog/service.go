// Package catalog provides the application layer for browsing and searching recipes.
// This implements the use cases defined in the inbound ports.
package catalog

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/alchemorsel/recipebook/internal/domain/recipe"
	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/alchemorsel/recipebook/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	featuredLimit          = 3
	popularIngredientLimit = 10
)

var tracer = otel.Tracer("github.com/alchemorsel/recipebook/internal/application/catalog")

// Service implements the catalog use cases
type Service struct {
	recipes     outbound.RecipeRepository
	ingredients outbound.IngredientRepository
	cache       outbound.CacheRepository
	popular     *PopularCategories
	metrics     outbound.MetricsRecorder
	logger      *zap.Logger
}

// NewService creates a new catalog service
func NewService(
	recipes outbound.RecipeRepository,
	ingredients outbound.IngredientRepository,
	cache outbound.CacheRepository,
	popular *PopularCategories,
	metrics outbound.MetricsRecorder,
	logger *zap.Logger,
) inbound.CatalogService {
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &Service{
		recipes:     recipes,
		ingredients: ingredients,
		cache:       cache,
		popular:     popular,
		metrics:     metrics,
		logger:      logger.Named("catalog-service"),
	}
}

// Search returns one page of recipes matching every given filter, in creation order
func (s *Service) Search(ctx context.Context, query inbound.SearchQuery) (*inbound.SearchResult, error) {
	ctx, span := tracer.Start(ctx, "catalog.Search")
	defer span.End()
	started := time.Now()

	query.Page = inbound.ClampPage(query.Page)
	if len(query.Ingredients) > 0 {
		query.Ingredients = inbound.SplitIngredients(strings.Join(query.Ingredients, ","))
	}
	if query.SearchType == "" {
		query.SearchType = inbound.SearchAll
	}
	span.SetAttributes(
		attribute.String("search.query", query.Query),
		attribute.String("search.category", query.Category),
		attribute.StringSlice("search.ingredients", query.Ingredients),
		attribute.String("search.type", string(query.SearchType)),
		attribute.Int("search.page", query.Page),
	)

	result := &inbound.SearchResult{
		Recipes:  []inbound.RecipeDTO{},
		Page:     query.Page,
		PageSize: inbound.PageSize,
		HasPrev:  query.Page > 1,
		Query:    query,
	}

	// An ingredient filter that normalized to nothing matches no recipe
	if !query.HasIngredients || len(query.Ingredients) > 0 {
		recipes, total, err := s.recipes.Search(ctx, outbound.SearchCriteria{
			Query:       query.Query,
			Category:    query.Category,
			Cuisine:     query.Cuisine,
			Ingredients: query.Ingredients,
			MatchAll:    query.SearchType != inbound.SearchAny,
			MaxTime:     query.MaxTime,
			MinRating:   query.MinRating,
			Offset:      (query.Page - 1) * inbound.PageSize,
			Limit:       inbound.PageSize,
		})
		if err != nil {
			span.RecordError(err)
			return nil, errors.NewDatabaseError("search recipes", err)
		}
		result.Recipes = toRecipeDTOs(recipes)
		result.TotalCount = total
		result.TotalPages = int((total + inbound.PageSize - 1) / inbound.PageSize)
		result.HasNext = query.Page < result.TotalPages
	}

	names, err := s.ingredients.AllNames(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("list ingredients", err)
	}
	result.AllIngredients = names

	categories, err := s.popular.Get(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("count categories", err)
	}
	result.PopularCategories = categories

	s.metrics.RecordSearch(time.Since(started), result.TotalCount)
	s.logger.Debug("Search completed",
		zap.String("query", query.Query),
		zap.Strings("ingredients", query.Ingredients),
		zap.Int("page", query.Page),
		zap.Int64("total", result.TotalCount),
	)
	return result, nil
}

// GetRecipe returns a recipe with ingredient lines scaled by factor
func (s *Service) GetRecipe(ctx context.Context, id uint, factor float64) (*inbound.RecipeDTO, error) {
	r, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, recipe.ErrRecipeNotFound) {
			return nil, errors.NewRecipeNotFoundError(id)
		}
		return nil, errors.NewDatabaseError("find recipe", err)
	}

	dto := ToRecipeDTO(r, factor)
	return &dto, nil
}

// Home returns the featured recipes and the most used ingredients
func (s *Service) Home(ctx context.Context) (*inbound.HomeDTO, error) {
	featured, err := s.recipes.FeaturedRecipes(ctx, featuredLimit)
	if err != nil {
		return nil, errors.NewDatabaseError("find featured recipes", err)
	}

	ingredients, err := s.ingredients.MostUsed(ctx, popularIngredientLimit)
	if err != nil {
		return nil, errors.NewDatabaseError("find popular ingredients", err)
	}

	total, err := s.recipes.Count(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("count recipes", err)
	}

	return &inbound.HomeDTO{
		Featured:           toRecipeDTOs(featured),
		PopularIngredients: ingredients,
		TotalRecipes:       total,
	}, nil
}

// IngredientNames returns every ingredient name for autocomplete
func (s *Service) IngredientNames(ctx context.Context) ([]string, error) {
	names, err := s.ingredients.AllNames(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("list ingredients", err)
	}
	return names, nil
}

// PopularCategories returns the cached top categories
func (s *Service) PopularCategories(ctx context.Context) ([]string, error) {
	categories, err := s.popular.Get(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("count categories", err)
	}
	return categories, nil
}

// RefreshPopularCategories recomputes the top categories
func (s *Service) RefreshPopularCategories(ctx context.Context) ([]string, error) {
	categories, err := s.popular.Refresh(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("count categories", err)
	}
	s.logger.Info("Popular categories refreshed", zap.Strings("categories", categories))
	return categories, nil
}

// InvalidatePopularCategories drops the cached top categories
func (s *Service) InvalidatePopularCategories(ctx context.Context) error {
	return s.popular.Invalidate(ctx)
}

// ClearCaches drops every cached aggregate
func (s *Service) ClearCaches(ctx context.Context) error {
	if err := s.cache.Flush(ctx); err != nil {
		return errors.NewInternalError("failed to clear caches").WithCause(err)
	}
	s.logger.Info("All caches cleared")
	return nil
}
