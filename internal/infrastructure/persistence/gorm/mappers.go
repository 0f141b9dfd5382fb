// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"fmt"
	"strings"

	"github.com/alchemorsel/recipebook/internal/domain/recipe"
)

// RecipeToModel converts a domain recipe snapshot to a GORM model without links
func RecipeToModel(s recipe.Snapshot) *RecipeModel {
	return &RecipeModel{
		ID:                        s.ID,
		Title:                     s.Title,
		SearchTitle:               strings.ToLower(s.Title),
		CookTime:                  s.CookTime,
		PrepTime:                  s.PrepTime,
		TotalTime:                 s.TotalTime,
		Ratings:                   s.Ratings,
		Cuisine:                   s.Cuisine,
		Category:                  s.Category,
		Author:                    s.Author,
		ImageURL:                  s.ImageURL,
		AIInstructions:            s.AI.Text,
		AIInstructionsStatus:      string(s.AI.Status),
		AIInstructionsGeneratedAt: s.AI.GeneratedAt,
		AIInstructionsError:       s.AI.Error,
		CreatedAt:                 s.CreatedAt,
		UpdatedAt:                 s.UpdatedAt,
	}
}

// LinksToModels converts ingredient links of a recipe to GORM models
func LinksToModels(recipeID uint, links []recipe.RecipeIngredient) []RecipeIngredientModel {
	models := make([]RecipeIngredientModel, len(links))
	for i, link := range links {
		models[i] = RecipeIngredientModel{
			RecipeID:     recipeID,
			IngredientID: link.IngredientID,
			Quantity:     link.Quantity,
			Unit:         link.Unit,
			RawText:      link.RawText,
		}
	}
	return models
}

// ModelToRecipe converts a GORM model with preloaded links to a domain recipe
func ModelToRecipe(m *RecipeModel) (*recipe.Recipe, error) {
	status, err := recipe.ParseAIStatus(m.AIInstructionsStatus)
	if err != nil {
		return nil, fmt.Errorf("recipe %d: %w", m.ID, err)
	}

	links := make([]recipe.RecipeIngredient, len(m.Ingredients))
	for i, link := range m.Ingredients {
		links[i] = recipe.RecipeIngredient{
			ID:             link.ID,
			RecipeID:       link.RecipeID,
			IngredientID:   link.IngredientID,
			IngredientName: link.Ingredient.Name,
			Quantity:       link.Quantity,
			Unit:           link.Unit,
			RawText:        link.RawText,
		}
	}

	return recipe.Rehydrate(recipe.Snapshot{
		ID:        m.ID,
		Title:     m.Title,
		CookTime:  m.CookTime,
		PrepTime:  m.PrepTime,
		TotalTime: m.TotalTime,
		Ratings:   m.Ratings,
		Cuisine:   m.Cuisine,
		Category:  m.Category,
		Author:    m.Author,
		ImageURL:  m.ImageURL,
		AI: recipe.AIInstructions{
			Status:      status,
			Text:        m.AIInstructions,
			GeneratedAt: m.AIInstructionsGeneratedAt,
			Error:       m.AIInstructionsError,
		},
		Ingredients: links,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}), nil
}

// ModelsToRecipes converts a slice of models
func ModelsToRecipes(models []RecipeModel) ([]*recipe.Recipe, error) {
	recipes := make([]*recipe.Recipe, len(models))
	for i := range models {
		r, err := ModelToRecipe(&models[i])
		if err != nil {
			return nil, err
		}
		recipes[i] = r
	}
	return recipes, nil
}

// ModelToIngredient converts a GORM ingredient to the domain value
func ModelToIngredient(m *IngredientModel) recipe.Ingredient {
	return recipe.Ingredient{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
