package recipe

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RecipeTestSuite provides a test suite for Recipe entity
type RecipeTestSuite struct {
	suite.Suite
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func stringPtr(v string) *string  { return &v }

func (suite *RecipeTestSuite) mustRecipe(title string) *Recipe {
	r, err := NewRecipe(title)
	require.NoError(suite.T(), err)
	return r
}

func (suite *RecipeTestSuite) mustLink(name, raw string, quantity *float64, unit string) RecipeIngredient {
	ingredient, err := NewIngredient(name)
	require.NoError(suite.T(), err)
	link, err := NewRecipeIngredient(ingredient, quantity, unit, raw)
	require.NoError(suite.T(), err)
	return link
}

// TestRecipeCreation tests recipe creation scenarios
func (suite *RecipeTestSuite) TestRecipeCreation() {
	suite.Run("ValidTitle_ShouldCreateIdleRecipe", func() {
		// Act
		recipe, err := NewRecipe("  Spaghetti Carbonara ")

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), "Spaghetti Carbonara", recipe.Title())
		assert.Zero(suite.T(), recipe.ID())
		assert.Equal(suite.T(), AIStatusIdle, recipe.AI().Status)
		assert.Nil(suite.T(), recipe.TotalTime())
		assert.NotZero(suite.T(), recipe.CreatedAt())
	})

	suite.Run("BlankTitle_ShouldReturnError", func() {
		recipe, err := NewRecipe("   ")

		assert.ErrorIs(suite.T(), err, ErrTitleRequired)
		assert.Nil(suite.T(), recipe)
	})

	suite.Run("TitleTooLong_ShouldReturnError", func() {
		recipe, err := NewRecipe(strings.Repeat("a", maxTitleLength+1))

		assert.ErrorIs(suite.T(), err, ErrTitleTooLong)
		assert.Nil(suite.T(), recipe)
	})
}

// TestApplyDetails tests descriptive attribute updates
func (suite *RecipeTestSuite) TestApplyDetails() {
	suite.Run("CookAndPrep_ShouldDeriveTotalTime", func() {
		// Arrange
		recipe := suite.mustRecipe("Chili")

		// Act
		err := recipe.ApplyDetails(Details{CookTime: intPtr(45), PrepTime: intPtr(15), Category: " Dinner "})

		// Assert
		require.NoError(suite.T(), err)
		require.NotNil(suite.T(), recipe.TotalTime())
		assert.Equal(suite.T(), 60, *recipe.TotalTime())
		assert.Equal(suite.T(), "Dinner", *recipe.Category())
	})

	suite.Run("OnlyCookTime_ShouldUseItAsTotal", func() {
		recipe := suite.mustRecipe("Toast")

		require.NoError(suite.T(), recipe.ApplyDetails(Details{CookTime: intPtr(5)}))

		assert.Equal(suite.T(), 5, *recipe.TotalTime())
	})

	suite.Run("BlankStrings_ShouldClearAttributes", func() {
		recipe := suite.mustRecipe("Soup")
		require.NoError(suite.T(), recipe.ApplyDetails(Details{Cuisine: "French", Author: "Ann"}))

		require.NoError(suite.T(), recipe.ApplyDetails(Details{Cuisine: "  "}))

		assert.Nil(suite.T(), recipe.Cuisine())
		assert.Nil(suite.T(), recipe.Author())
	})

	suite.Run("NegativeCookTime_ShouldReturnError", func() {
		recipe := suite.mustRecipe("Soup")

		err := recipe.ApplyDetails(Details{CookTime: intPtr(-1)})

		assert.ErrorIs(suite.T(), err, ErrInvalidCookTime)
	})

	suite.Run("RatingAboveFive_ShouldReturnError", func() {
		recipe := suite.mustRecipe("Soup")

		err := recipe.ApplyDetails(Details{Ratings: floatPtr(5.1)})

		assert.ErrorIs(suite.T(), err, ErrInvalidRating)
		assert.Nil(suite.T(), recipe.Ratings())
	})
}

// TestIngredients tests ingredient link handling
func (suite *RecipeTestSuite) TestIngredients() {
	suite.Run("DistinctNames_ShouldReplaceList", func() {
		// Arrange
		recipe := suite.mustRecipe("Pancakes")
		links := []RecipeIngredient{
			suite.mustLink("Flour", "1 cup flour", floatPtr(1), "cup"),
			suite.mustLink("milk", "1 cup milk", floatPtr(1), "cup"),
		}

		// Act
		err := recipe.ReplaceIngredients(links)

		// Assert
		require.NoError(suite.T(), err)
		assert.Len(suite.T(), recipe.Ingredients(), 2)
		assert.True(suite.T(), recipe.HasIngredient("FLOUR"))
		assert.False(suite.T(), recipe.HasIngredient("eggs"))
	})

	suite.Run("DuplicateName_ShouldReturnError", func() {
		recipe := suite.mustRecipe("Pancakes")
		links := []RecipeIngredient{
			suite.mustLink("flour", "1 cup flour", nil, ""),
			suite.mustLink("Flour ", "2 tbsp flour", nil, ""),
		}

		err := recipe.ReplaceIngredients(links)

		assert.ErrorIs(suite.T(), err, ErrDuplicateIngredient)
		assert.Empty(suite.T(), recipe.Ingredients())
	})

	suite.Run("ZeroQuantity_ShouldBeRejected", func() {
		ingredient, err := NewIngredient("salt")
		require.NoError(suite.T(), err)

		_, err = NewRecipeIngredient(ingredient, floatPtr(0), "tsp", "0 tsp salt")

		assert.ErrorIs(suite.T(), err, ErrInvalidQuantity)
	})

	suite.Run("BlankRawText_ShouldBeRejected", func() {
		ingredient, err := NewIngredient("salt")
		require.NoError(suite.T(), err)

		_, err = NewRecipeIngredient(ingredient, nil, "", " ")

		assert.ErrorIs(suite.T(), err, ErrRawTextRequired)
	})
}

// TestGeneration tests the instructions lifecycle on the aggregate
func (suite *RecipeTestSuite) TestGeneration() {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	suite.Run("RequestThenSucceed_ShouldStoreText", func() {
		// Arrange
		recipe := suite.mustRecipe("Risotto")

		// Act
		require.NoError(suite.T(), recipe.BeginGeneration(now))
		require.NoError(suite.T(), recipe.CompleteGeneration("1. Stir.", now))

		// Assert
		ai := recipe.AI()
		assert.Equal(suite.T(), AIStatusReady, ai.Status)
		assert.Equal(suite.T(), "1. Stir.", *ai.Text)
		assert.Equal(suite.T(), now, *ai.GeneratedAt)
		assert.Nil(suite.T(), ai.Error)

		events := recipe.Events()
		require.Len(suite.T(), events, 2)
		assert.Equal(suite.T(), "recipe.ai_instructions.requested", events[0].EventName())
		assert.Equal(suite.T(), "recipe.ai_instructions.completed", events[1].EventName())
		assert.Empty(suite.T(), recipe.Events())
	})

	suite.Run("Failure_ShouldKeepPreviousText", func() {
		// Arrange
		recipe := Rehydrate(Snapshot{
			ID:    7,
			Title: "Risotto",
			AI:    AIInstructions{Status: AIStatusPending, Text: stringPtr("old steps")},
		})

		// Act
		err := recipe.FailGeneration("Invalid API key or authentication failed.", now)

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), AIStatusFailed, recipe.AI().Status)
		assert.Equal(suite.T(), "old steps", *recipe.AI().Text)
		assert.Equal(suite.T(), "Invalid API key or authentication failed.", *recipe.AI().Error)
	})

	suite.Run("RetryAfterFailure_ShouldClearError", func() {
		recipe := Rehydrate(Snapshot{
			ID:    7,
			Title: "Risotto",
			AI:    AIInstructions{Status: AIStatusFailed, Error: stringPtr("boom")},
		})

		require.NoError(suite.T(), recipe.BeginGeneration(now))

		assert.Equal(suite.T(), AIStatusPending, recipe.AI().Status)
		assert.Nil(suite.T(), recipe.AI().Error)
	})

	suite.Run("RequestWhileReady_ShouldBeRejected", func() {
		recipe := Rehydrate(Snapshot{ID: 3, Title: "Done", AI: AIInstructions{Status: AIStatusReady}})

		err := recipe.BeginGeneration(now)

		assert.ErrorIs(suite.T(), err, ErrInvalidStatusTransition)
		assert.Equal(suite.T(), AIStatusReady, recipe.AI().Status)
	})

	suite.Run("RehydrateWithoutStatus_ShouldBeIdle", func() {
		recipe := Rehydrate(Snapshot{ID: 1, Title: "Legacy"})

		assert.Equal(suite.T(), AIStatusIdle, recipe.AI().Status)
	})
}

// TestSnapshot tests the persisted form
func (suite *RecipeTestSuite) TestSnapshot() {
	suite.Run("Snapshot_ShouldCarryAssignedID", func() {
		recipe := suite.mustRecipe("Salad")
		require.NoError(suite.T(), recipe.ApplyDetails(Details{PrepTime: intPtr(10)}))

		recipe.AssignID(42)
		recipe.AssignID(43)
		snap := recipe.Snapshot()

		assert.Equal(suite.T(), uint(42), snap.ID)
		assert.Equal(suite.T(), 10, *snap.TotalTime)
		assert.Equal(suite.T(), "Salad", Rehydrate(snap).Title())
	})
}

func TestRecipeTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeTestSuite))
}
