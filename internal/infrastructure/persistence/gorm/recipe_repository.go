// Package gorm provides GORM-based repository implementations
package gorm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alchemorsel/recipebook/internal/domain/recipe"
	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"gorm.io/gorm"
)

// aiColumns are written only through the conditional instruction updates
var aiColumns = []string{
	"ai_instructions",
	"ai_instructions_status",
	"ai_instructions_generated_at",
	"ai_instructions_error",
}

// RecipeRepository implements the recipe repository interface using GORM
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) outbound.RecipeRepository {
	return &RecipeRepository{db: db}
}

// FindByID finds a recipe by ID with its ingredient links
func (r *RecipeRepository) FindByID(ctx context.Context, id uint) (*recipe.Recipe, error) {
	var model RecipeModel

	result := r.withLinks(conn(ctx, r.db)).First(&model, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipe %d: %w", id, recipe.ErrRecipeNotFound)
		}
		return nil, result.Error
	}

	return ModelToRecipe(&model)
}

// FindByTitle finds a recipe by exact title
func (r *RecipeRepository) FindByTitle(ctx context.Context, title string) (*recipe.Recipe, error) {
	var model RecipeModel

	result := r.withLinks(conn(ctx, r.db)).
		Where("title = ?", title).
		Order("id ASC").
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recipe %q: %w", title, recipe.ErrRecipeNotFound)
		}
		return nil, result.Error
	}

	return ModelToRecipe(&model)
}

// Save creates or updates a recipe and replaces its ingredient links.
// Instruction columns are left untouched on update.
func (r *RecipeRepository) Save(ctx context.Context, rec *recipe.Recipe) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	snapshot := rec.Snapshot()
	model := RecipeToModel(snapshot)

	return withinTx(ctx, r.db, func(ctx context.Context) error {
		db := conn(ctx, r.db)

		if model.ID == 0 {
			if err := db.Omit("Ingredients").Create(model).Error; err != nil {
				return err
			}
			rec.AssignID(model.ID)
		} else {
			omit := append([]string{"id", "created_at", "Ingredients"}, aiColumns...)
			result := db.Model(&RecipeModel{ID: model.ID}).
				Select("*").
				Omit(omit...).
				Updates(model)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("recipe %d: %w", model.ID, recipe.ErrRecipeNotFound)
			}
		}

		if err := db.Where("recipe_id = ?", model.ID).Delete(&RecipeIngredientModel{}).Error; err != nil {
			return err
		}
		links := LinksToModels(model.ID, snapshot.Ingredients)
		if len(links) == 0 {
			return nil
		}
		return db.Omit("Ingredient").Create(&links).Error
	})
}

// Delete removes a recipe and its ingredient links
func (r *RecipeRepository) Delete(ctx context.Context, id uint) error {
	return withinTx(ctx, r.db, func(ctx context.Context) error {
		db := conn(ctx, r.db)
		if err := db.Where("recipe_id = ?", id).Delete(&RecipeIngredientModel{}).Error; err != nil {
			return err
		}

		result := db.Delete(&RecipeModel{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("recipe %d: %w", id, recipe.ErrRecipeNotFound)
		}
		return nil
	})
}

// Count returns the number of recipes
func (r *RecipeRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := conn(ctx, r.db).Model(&RecipeModel{}).Count(&total).Error
	return total, err
}

// Search returns one page of recipes matching criteria, ordered by id, and the total match count
func (r *RecipeRepository) Search(ctx context.Context, criteria outbound.SearchCriteria) ([]*recipe.Recipe, int64, error) {
	var total int64
	if err := r.applyCriteria(ctx, criteria).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 || criteria.Offset >= int(total) {
		return []*recipe.Recipe{}, total, nil
	}

	var models []RecipeModel
	query := r.withLinks(r.applyCriteria(ctx, criteria)).Order("recipes.id ASC")
	if criteria.Limit > 0 {
		query = query.Limit(criteria.Limit)
	}
	if criteria.Offset > 0 {
		query = query.Offset(criteria.Offset)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, err
	}

	recipes, err := ModelsToRecipes(models)
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// CategoryCounts returns categories by descending recipe count, ties by name
func (r *RecipeRepository) CategoryCounts(ctx context.Context, limit int) ([]outbound.CategoryCount, error) {
	var rows []struct {
		Category    string
		RecipeCount int64
	}

	err := conn(ctx, r.db).Model(&RecipeModel{}).
		Select("category, COUNT(*) AS recipe_count").
		Where("category IS NOT NULL AND category <> ''").
		Group("category").
		Order("recipe_count DESC, category ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make([]outbound.CategoryCount, len(rows))
	for i, row := range rows {
		counts[i] = outbound.CategoryCount{Category: row.Category, Count: row.RecipeCount}
	}
	return counts, nil
}

// FeaturedRecipes returns the highest rated recipes
func (r *RecipeRepository) FeaturedRecipes(ctx context.Context, limit int) ([]*recipe.Recipe, error) {
	var models []RecipeModel

	err := r.withLinks(conn(ctx, r.db)).
		Where("ratings IS NOT NULL").
		Order("ratings DESC, id ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return ModelsToRecipes(models)
}

// MarkPending moves an idle or failed recipe to pending in one conditional update
func (r *RecipeRepository) MarkPending(ctx context.Context, id uint) (bool, error) {
	// Rows written before the status column existed hold an empty status
	requestable := []string{""}
	for _, status := range recipe.RequestableStatuses {
		requestable = append(requestable, string(status))
	}

	result := conn(ctx, r.db).Model(&RecipeModel{}).
		Where("id = ? AND ai_instructions_status IN ?", id, requestable).
		Updates(map[string]interface{}{
			"ai_instructions_status": string(recipe.AIStatusPending),
			"ai_instructions_error":  nil,
			"updated_at":             time.Now(),
		})
	return result.RowsAffected == 1, result.Error
}

// ReclaimStalePending refreshes a recipe stuck in pending since before cutoff,
// so that exactly one caller can schedule its generation again
func (r *RecipeRepository) ReclaimStalePending(ctx context.Context, id uint, cutoff time.Time) (bool, error) {
	result := conn(ctx, r.db).Model(&RecipeModel{}).
		Where("id = ? AND ai_instructions_status = ? AND updated_at < ?", id, string(recipe.AIStatusPending), cutoff).
		Updates(map[string]interface{}{
			"ai_instructions_error": nil,
			"updated_at":            time.Now(),
		})
	return result.RowsAffected == 1, result.Error
}

// CompleteInstructions stores generated text on a recipe that is still pending
func (r *RecipeRepository) CompleteInstructions(ctx context.Context, id uint, text string, at time.Time) (bool, error) {
	result := conn(ctx, r.db).Model(&RecipeModel{}).
		Where("id = ? AND ai_instructions_status = ?", id, string(recipe.AIStatusPending)).
		Updates(map[string]interface{}{
			"ai_instructions":              text,
			"ai_instructions_status":       string(recipe.AIStatusReady),
			"ai_instructions_generated_at": at,
			"ai_instructions_error":        nil,
			"updated_at":                   time.Now(),
		})
	return result.RowsAffected == 1, result.Error
}

// FailInstructions records an error on a recipe that is still pending
func (r *RecipeRepository) FailInstructions(ctx context.Context, id uint, message string) (bool, error) {
	result := conn(ctx, r.db).Model(&RecipeModel{}).
		Where("id = ? AND ai_instructions_status = ?", id, string(recipe.AIStatusPending)).
		Updates(map[string]interface{}{
			"ai_instructions_status": string(recipe.AIStatusFailed),
			"ai_instructions_error":  message,
			"updated_at":             time.Now(),
		})
	return result.RowsAffected == 1, result.Error
}

func (r *RecipeRepository) withLinks(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_ingredients.id ASC")
		}).
		Preload("Ingredients.Ingredient")
}

// applyCriteria builds a fresh filtered query; every filter is ANDed
func (r *RecipeRepository) applyCriteria(ctx context.Context, c outbound.SearchCriteria) *gorm.DB {
	db := conn(ctx, r.db)
	query := db.Model(&RecipeModel{})

	if c.Category != "" {
		query = query.Where("recipes.category = ?", c.Category)
	}
	if c.Cuisine != "" {
		query = query.Where("recipes.cuisine = ?", c.Cuisine)
	}
	if c.MaxTime != nil {
		query = query.Where("recipes.total_time <= ?", *c.MaxTime)
	}
	if c.MinRating != nil {
		query = query.Where("recipes.ratings >= ?", *c.MinRating)
	}

	if q := strings.TrimSpace(c.Query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		byIngredient := conn(ctx, r.db).Model(&RecipeIngredientModel{}).
			Select("recipe_ingredients.recipe_id").
			Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
			Where(`ingredients.name LIKE ? ESCAPE '\'`, pattern)
		query = query.Where(`(recipes.search_title LIKE ? ESCAPE '\' OR recipes.id IN (?))`, pattern, byIngredient)
	}

	if len(c.Ingredients) > 0 {
		matching := conn(ctx, r.db).Model(&RecipeIngredientModel{}).
			Select("recipe_ingredients.recipe_id").
			Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
			Where("ingredients.name IN ?", c.Ingredients)
		if c.MatchAll {
			matching = matching.
				Group("recipe_ingredients.recipe_id").
				Having("COUNT(DISTINCT recipe_ingredients.ingredient_id) = ?", len(c.Ingredients))
		}
		query = query.Where("recipes.id IN (?)", matching)
	}

	return query
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
