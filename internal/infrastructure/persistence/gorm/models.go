// Package gorm provides GORM model definitions for the application
package gorm

import (
	"time"
)

// RecipeModel represents the GORM model for recipes
type RecipeModel struct {
	ID        uint   `gorm:"primaryKey"`
	Title     string `gorm:"type:varchar(255);not null;index"`
	CookTime  *int
	PrepTime  *int
	TotalTime *int     `gorm:"index"`
	Ratings   *float64 `gorm:"type:decimal(3,2);index"`
	Cuisine   *string  `gorm:"type:varchar(255);index"`
	Category  *string  `gorm:"type:varchar(255);index"`
	Author    *string  `gorm:"type:varchar(255)"`
	ImageURL  *string  `gorm:"column:image_url;type:text"`

	// Title lower-cased in Go; SQLite's LOWER folds ASCII only
	SearchTitle string `gorm:"column:search_title;type:varchar(255);not null;default:'';index"`

	AIInstructions            *string    `gorm:"column:ai_instructions;type:text"`
	AIInstructionsStatus      string     `gorm:"column:ai_instructions_status;type:varchar(20);not null;default:idle;index"`
	AIInstructionsGeneratedAt *time.Time `gorm:"column:ai_instructions_generated_at"`
	AIInstructionsError       *string    `gorm:"column:ai_instructions_error;type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Ingredients []RecipeIngredientModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// IngredientModel represents the GORM model for ingredients
type IngredientModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(255);not null;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecipeIngredientModel links a recipe to an ingredient
type RecipeIngredientModel struct {
	ID           uint     `gorm:"primaryKey"`
	RecipeID     uint     `gorm:"not null;uniqueIndex:idx_recipe_ingredients_recipe_ingredient"`
	IngredientID uint     `gorm:"not null;uniqueIndex:idx_recipe_ingredients_recipe_ingredient;index"`
	Quantity     *float64 `gorm:"type:decimal(8,3)"`
	Unit         string   `gorm:"type:varchar(255)"`
	RawText      string   `gorm:"type:text;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Ingredient IngredientModel `gorm:"foreignKey:IngredientID;constraint:OnDelete:RESTRICT"`
}

// AllModels lists every model managed by the schema
func AllModels() []interface{} {
	return []interface{}{
		&IngredientModel{},
		&RecipeModel{},
		&RecipeIngredientModel{},
	}
}

// TableName methods for custom table names
func (RecipeModel) TableName() string {
	return "recipes"
}

func (IngredientModel) TableName() string {
	return "ingredients"
}

func (RecipeIngredientModel) TableName() string {
	return "recipe_ingredients"
}
