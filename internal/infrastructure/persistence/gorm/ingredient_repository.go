package gorm

import (
	"context"
	"errors"

	"github.com/alchemorsel/recipebook/internal/domain/recipe"
	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IngredientRepository implements the ingredient repository interface using GORM
type IngredientRepository struct {
	db *gorm.DB
}

// NewIngredientRepository creates a new ingredient repository
func NewIngredientRepository(db *gorm.DB) outbound.IngredientRepository {
	return &IngredientRepository{db: db}
}

// FindOrCreate returns the ingredient with the normalized name and whether it was created
func (r *IngredientRepository) FindOrCreate(ctx context.Context, name string) (recipe.Ingredient, bool, error) {
	ingredient, err := recipe.NewIngredient(name)
	if err != nil {
		return recipe.Ingredient{}, false, err
	}

	db := conn(ctx, r.db)

	var model IngredientModel
	err = db.Where("name = ?", ingredient.Name).First(&model).Error
	if err == nil {
		return ModelToIngredient(&model), false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return recipe.Ingredient{}, false, err
	}

	// A concurrent import may insert the same name between the read and the write
	model = IngredientModel{Name: ingredient.Name}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&model)
	if result.Error != nil {
		return recipe.Ingredient{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		model = IngredientModel{}
		if err := db.Where("name = ?", ingredient.Name).First(&model).Error; err != nil {
			return recipe.Ingredient{}, false, err
		}
		return ModelToIngredient(&model), false, nil
	}

	return ModelToIngredient(&model), true, nil
}

// AllNames returns every ingredient name, sorted
func (r *IngredientRepository) AllNames(ctx context.Context) ([]string, error) {
	var names []string
	err := conn(ctx, r.db).Model(&IngredientModel{}).
		Distinct("name").
		Order("name ASC").
		Pluck("name", &names).Error
	return names, err
}

// MostUsed returns the ingredient names linked to the most recipes
func (r *IngredientRepository) MostUsed(ctx context.Context, limit int) ([]string, error) {
	var names []string
	err := conn(ctx, r.db).Model(&IngredientModel{}).
		Select("ingredients.name").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.ingredient_id = ingredients.id").
		Group("ingredients.id, ingredients.name").
		Order("COUNT(recipe_ingredients.id) DESC, ingredients.name ASC").
		Limit(limit).
		Pluck("ingredients.name", &names).Error
	return names, err
}
