package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alchemorsel/recipebook/internal/application/importer"
	gormrepo "github.com/alchemorsel/recipebook/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/alchemorsel/recipebook/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) InvalidatePopularCategories(context.Context) error {
	c.calls++
	return nil
}

// ImportServiceTestSuite imports into an in-memory SQLite catalog
type ImportServiceTestSuite struct {
	suite.Suite
	ctx         context.Context
	recipes     outbound.RecipeRepository
	ingredients outbound.IngredientRepository
	caches      *countingInvalidator
	service     inbound.ImportService
}

func (s *ImportServiceTestSuite) SetupTest() {
	db := testutils.NewSQLiteDB(s.T())
	s.ctx = context.Background()
	s.recipes = gormrepo.NewRecipeRepository(db)
	s.ingredients = gormrepo.NewIngredientRepository(db)
	s.caches = &countingInvalidator{}
	s.service = importer.NewService(s.recipes, s.ingredients, gormrepo.NewTransactor(db), s.caches, nil, zap.NewNop())
}

func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func (s *ImportServiceTestSuite) TestImportRecords() {
	s.Run("NewRecords_ShouldCreateRecipesAndIngredients", func() {
		// Arrange
		records := []inbound.RecipeRecord{
			{
				Title:       "Scrambled Eggs",
				CookTime:    intPtr(5),
				PrepTime:    intPtr(2),
				Ratings:     floatPtr(4.2),
				Category:    "  Breakfast ",
				Ingredients: []string{"2 large eggs", "1 tbsp butter", "", "3 eggs (extra)", "salt"},
			},
			{
				Title:       "Buttered Toast",
				Ingredients: []string{"2 slices bread", "1 tbsp butter"},
			},
		}

		// Act
		result := s.service.ImportRecords(s.ctx, records)

		// Assert
		assert.Empty(s.T(), result.Errors)
		assert.Equal(s.T(), 2, result.CreatedRecipes)
		assert.Equal(s.T(), 0, result.UpdatedRecipes)
		assert.Equal(s.T(), 4, result.CreatedIngredients)
		assert.Equal(s.T(), 1, s.caches.calls)

		eggs, err := s.recipes.FindByTitle(s.ctx, "Scrambled Eggs")
		require.NoError(s.T(), err)
		assert.Equal(s.T(), 7, *eggs.TotalTime())
		assert.Equal(s.T(), "Breakfast", *eggs.Category())
		require.Len(s.T(), eggs.Ingredients(), 3)
		assert.Equal(s.T(), "eggs", eggs.Ingredients()[0].IngredientName)
		assert.Equal(s.T(), "2 large eggs", eggs.Ingredients()[0].RawText)
		assert.Equal(s.T(), "salt", eggs.Ingredients()[2].IngredientName)
	})

	s.Run("ExistingTitle_ShouldUpdateAndReplaceLinks", func() {
		// Arrange
		records := []inbound.RecipeRecord{{
			Title:       "Buttered Toast",
			Ratings:     floatPtr(3.5),
			Ingredients: []string{"1 slice bread", "1 tsp jam"},
		}}

		// Act
		result := s.service.ImportRecords(s.ctx, records)

		// Assert
		assert.Empty(s.T(), result.Errors)
		assert.Equal(s.T(), 0, result.CreatedRecipes)
		assert.Equal(s.T(), 1, result.UpdatedRecipes)
		assert.Equal(s.T(), 1, result.CreatedIngredients)

		toast, err := s.recipes.FindByTitle(s.ctx, "Buttered Toast")
		require.NoError(s.T(), err)
		assert.Equal(s.T(), 3.5, *toast.Ratings())
		require.Len(s.T(), toast.Ingredients(), 2)
		assert.Equal(s.T(), "jam", toast.Ingredients()[1].IngredientName)
		total, err := s.recipes.Count(s.ctx)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), int64(2), total)
	})

	s.Run("InvalidRecord_ShouldBeReportedAndOthersImported", func() {
		// Arrange
		records := []inbound.RecipeRecord{
			{Title: "Fruit Salad", Ingredients: []string{"1 apple"}},
			{Title: "Bad Rating", Ratings: floatPtr(7)},
			{Title: "", CookTime: intPtr(-1)},
			{Title: "   "},
		}

		// Act
		result := s.service.ImportRecords(s.ctx, records)

		// Assert
		assert.Equal(s.T(), 1, result.CreatedRecipes)
		require.Len(s.T(), result.Errors, 3)
		assert.Equal(s.T(), "Error importing recipe at index 1: ratings must be at most 5", result.Errors[0])
		assert.True(s.T(), strings.HasPrefix(result.Errors[1], "Error importing recipe at index 2: title is required"))
		assert.Equal(s.T(), "Error importing recipe at index 3: recipe title is required", result.Errors[2])
		_, err := s.recipes.FindByTitle(s.ctx, "Bad Rating")
		assert.Error(s.T(), err)
	})

	s.Run("NothingChanged_ShouldNotInvalidateCache", func() {
		// Arrange
		before := s.caches.calls

		// Act
		result := s.service.ImportRecords(s.ctx, []inbound.RecipeRecord{{Title: ""}})

		// Assert
		assert.False(s.T(), result.Changed())
		assert.Equal(s.T(), before, s.caches.calls)
	})
}

func (s *ImportServiceTestSuite) TestImportFile() {
	s.Run("MissingFile_ShouldReportError", func() {
		// Arrange
		path := filepath.Join(s.T().TempDir(), "missing.json")

		// Act
		result, err := s.service.ImportFile(s.ctx, path)

		// Assert
		require.NoError(s.T(), err)
		assert.Equal(s.T(), []string{"File does not exist: " + path}, result.Errors)
	})

	s.Run("InvalidJSON_ShouldReportErrorAndImportNothing", func() {
		// Arrange
		path := filepath.Join(s.T().TempDir(), "broken.json")
		require.NoError(s.T(), os.WriteFile(path, []byte(`[{"title": "Half`), 0o600))

		// Act
		result, err := s.service.ImportFile(s.ctx, path)

		// Assert
		require.NoError(s.T(), err)
		require.Len(s.T(), result.Errors, 1)
		assert.True(s.T(), strings.HasPrefix(result.Errors[0], "Invalid JSON format: "))
		assert.Zero(s.T(), result.CreatedRecipes)
	})

	s.Run("MalformedRecord_ShouldReportIndexAndImportTheRest", func() {
		// Arrange
		path := filepath.Join(s.T().TempDir(), "mixed.json")
		doc := `[
			{"title": "Iced Tea", "ingredients": ["2 tea bags"]},
			{"title": "Broken", "cook_time": "ten"},
			42,
			{"title": "Mint Water", "ingredients": ["1 sprig mint"]}
		]`
		require.NoError(s.T(), os.WriteFile(path, []byte(doc), 0o600))

		// Act
		result, err := s.service.ImportFile(s.ctx, path)

		// Assert
		require.NoError(s.T(), err)
		assert.Equal(s.T(), 2, result.CreatedRecipes)
		require.Len(s.T(), result.Errors, 2)
		assert.True(s.T(), strings.HasPrefix(result.Errors[0], "Error importing recipe at index 1: malformed record: "), result.Errors[0])
		assert.True(s.T(), strings.HasPrefix(result.Errors[1], "Error importing recipe at index 2: malformed record: "), result.Errors[1])
		_, err = s.recipes.FindByTitle(s.ctx, "Mint Water")
		assert.NoError(s.T(), err)
		_, err = s.recipes.FindByTitle(s.ctx, "Broken")
		assert.Error(s.T(), err)
	})

	s.Run("ValidFile_ShouldImportRecords", func() {
		// Arrange
		path := filepath.Join(s.T().TempDir(), "recipes.json")
		doc := `[{"title": "Lemonade", "prep_time": 5, "category": "Drinks", "ingredients": ["4 lemons", "1 cup sugar"]}]`
		require.NoError(s.T(), os.WriteFile(path, []byte(doc), 0o600))

		// Act
		result, err := s.service.ImportFile(s.ctx, path)

		// Assert
		require.NoError(s.T(), err)
		assert.Empty(s.T(), result.Errors)
		assert.Equal(s.T(), 1, result.CreatedRecipes)
		assert.Equal(s.T(), 2, result.CreatedIngredients)
	})
}

func (s *ImportServiceTestSuite) TestSeed() {
	s.Run("EmptyCatalog_ShouldImportSamples", func() {
		// Act
		result, err := s.service.Seed(s.ctx)

		// Assert
		require.NoError(s.T(), err)
		assert.Empty(s.T(), result.Errors)
		assert.Equal(s.T(), 6, result.CreatedRecipes)
		assert.Positive(s.T(), result.CreatedIngredients)
	})

	s.Run("PopulatedCatalog_ShouldDoNothing", func() {
		// Act
		result, err := s.service.Seed(s.ctx)

		// Assert
		require.NoError(s.T(), err)
		assert.False(s.T(), result.Changed())
		total, err := s.recipes.Count(s.ctx)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), int64(6), total)
	})
}

func TestImportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ImportServiceTestSuite))
}
