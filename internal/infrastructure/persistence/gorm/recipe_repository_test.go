package gorm_test

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/recipebook/internal/domain/recipe"
	gormrepo "github.com/alchemorsel/recipebook/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/alchemorsel/recipebook/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RecipeRepositoryTestSuite runs the GORM repositories against in-memory SQLite
type RecipeRepositoryTestSuite struct {
	suite.Suite
	ctx         context.Context
	recipes     outbound.RecipeRepository
	ingredients outbound.IngredientRepository
	transactor  outbound.Transactor
}

func (s *RecipeRepositoryTestSuite) SetupTest() {
	db := testutils.NewSQLiteDB(s.T())
	s.ctx = context.Background()
	s.recipes = gormrepo.NewRecipeRepository(db)
	s.ingredients = gormrepo.NewIngredientRepository(db)
	s.transactor = gormrepo.NewTransactor(db)
}

// save stores a recipe whose lines are parsed and linked the way imports do
func (s *RecipeRepositoryTestSuite) save(title string, details recipe.Details, lines ...string) *recipe.Recipe {
	r, err := recipe.NewRecipe(title)
	s.Require().NoError(err)
	s.Require().NoError(r.ApplyDetails(details))

	links := make([]recipe.RecipeIngredient, 0, len(lines))
	for _, line := range lines {
		parsed := recipe.ParseIngredientLine(line)
		ingredient, _, err := s.ingredients.FindOrCreate(s.ctx, parsed.Name)
		s.Require().NoError(err)
		link, err := recipe.NewRecipeIngredient(ingredient, parsed.Quantity, parsed.Unit, parsed.RawText)
		s.Require().NoError(err)
		links = append(links, link)
	}
	s.Require().NoError(r.ReplaceIngredients(links))
	s.Require().NoError(s.recipes.Save(s.ctx, r))
	return r
}

func (s *RecipeRepositoryTestSuite) titles(recipes []*recipe.Recipe) []string {
	out := make([]string, len(recipes))
	for i, r := range recipes {
		out[i] = r.Title()
	}
	return out
}

func (s *RecipeRepositoryTestSuite) TestSave() {
	s.Run("NewRecipe_ShouldAssignIDAndPersistLinks", func() {
		// Arrange
		cook, prep := 20, 10

		// Act
		saved := s.save("Pancakes", recipe.Details{CookTime: &cook, PrepTime: &prep, Category: "Breakfast"},
			"2 cups flour", "1 egg", "pinch of salt")

		// Assert
		require.NotZero(s.T(), saved.ID())
		found, err := s.recipes.FindByID(s.ctx, saved.ID())
		require.NoError(s.T(), err)
		assert.Equal(s.T(), "Pancakes", found.Title())
		require.NotNil(s.T(), found.TotalTime())
		assert.Equal(s.T(), 30, *found.TotalTime())
		require.Len(s.T(), found.Ingredients(), 3)
		assert.Equal(s.T(), "flour", found.Ingredients()[0].IngredientName)
		assert.Equal(s.T(), "cups", found.Ingredients()[0].Unit)
		assert.Equal(s.T(), "pinch of salt", found.Ingredients()[2].RawText)
		assert.Nil(s.T(), found.Ingredients()[2].Quantity)
		assert.Equal(s.T(), recipe.AIStatusIdle, found.AI().Status)
	})

	s.Run("Update_ShouldReplaceLinksAndKeepInstructions", func() {
		// Arrange
		saved := s.save("Toast", recipe.Details{}, "2 slices bread", "1 tbsp butter")
		ok, err := s.recipes.MarkPending(s.ctx, saved.ID())
		require.NoError(s.T(), err)
		require.True(s.T(), ok)
		ok, err = s.recipes.CompleteInstructions(s.ctx, saved.ID(), "Toast it.", time.Now())
		require.NoError(s.T(), err)
		require.True(s.T(), ok)

		// Act
		stale, err := s.recipes.FindByTitle(s.ctx, "Toast")
		require.NoError(s.T(), err)
		butter, _, err := s.ingredients.FindOrCreate(s.ctx, "butter")
		require.NoError(s.T(), err)
		link, err := recipe.NewRecipeIngredient(butter, nil, "", "butter to taste")
		require.NoError(s.T(), err)
		require.NoError(s.T(), stale.ReplaceIngredients([]recipe.RecipeIngredient{link}))
		require.NoError(s.T(), s.recipes.Save(s.ctx, stale))

		// Assert
		found, err := s.recipes.FindByID(s.ctx, saved.ID())
		require.NoError(s.T(), err)
		require.Len(s.T(), found.Ingredients(), 1)
		assert.Equal(s.T(), "butter to taste", found.Ingredients()[0].RawText)
		assert.Equal(s.T(), recipe.AIStatusReady, found.AI().Status)
		require.NotNil(s.T(), found.AI().Text)
		assert.Equal(s.T(), "Toast it.", *found.AI().Text)
	})

	s.Run("InvalidRecipe_ShouldNotPersist", func() {
		// Arrange
		r, err := recipe.NewRecipe("Broken")
		require.NoError(s.T(), err)
		badRating := 7.0
		r = recipe.Rehydrate(recipe.Snapshot{Title: r.Title(), Ratings: &badRating})

		// Act
		err = s.recipes.Save(s.ctx, r)

		// Assert
		assert.ErrorIs(s.T(), err, recipe.ErrInvalidRating)
		_, err = s.recipes.FindByTitle(s.ctx, "Broken")
		assert.ErrorIs(s.T(), err, recipe.ErrRecipeNotFound)
	})
}

func (s *RecipeRepositoryTestSuite) TestFindAndDelete() {
	s.Run("MissingRecipe_ShouldReturnNotFound", func() {
		// Act
		_, err := s.recipes.FindByID(s.ctx, 999)

		// Assert
		assert.ErrorIs(s.T(), err, recipe.ErrRecipeNotFound)
	})

	s.Run("Delete_ShouldRemoveRecipeAndLinks", func() {
		// Arrange
		saved := s.save("Soup", recipe.Details{}, "1 onion")

		// Act
		err := s.recipes.Delete(s.ctx, saved.ID())

		// Assert
		require.NoError(s.T(), err)
		_, err = s.recipes.FindByID(s.ctx, saved.ID())
		assert.ErrorIs(s.T(), err, recipe.ErrRecipeNotFound)
		assert.ErrorIs(s.T(), s.recipes.Delete(s.ctx, saved.ID()), recipe.ErrRecipeNotFound)
	})
}

func (s *RecipeRepositoryTestSuite) TestSearch() {
	s.save("Chicken Curry", recipe.Details{Category: "Dinner", Cuisine: "Indian"}, "1 lb chicken", "2 tbsp curry powder", "1 onion")
	s.save("Garlic Chicken", recipe.Details{Category: "Dinner"}, "1 lb chicken", "3 cloves garlic")
	s.save("Garlic Bread", recipe.Details{Category: "Side"}, "1 loaf bread", "3 cloves garlic", "2 tbsp butter")
	s.save("100% Juice", recipe.Details{Category: "Drinks"}, "2 oranges")

	testCases := []struct {
		name     string
		criteria outbound.SearchCriteria
		expected []string
	}{
		{
			name:     "NoCriteria_ShouldReturnAllByID",
			criteria: outbound.SearchCriteria{},
			expected: []string{"Chicken Curry", "Garlic Chicken", "Garlic Bread", "100% Juice"},
		},
		{
			name:     "MatchAll_ShouldRequireEveryIngredient",
			criteria: outbound.SearchCriteria{Ingredients: []string{"chicken", "garlic"}, MatchAll: true},
			expected: []string{"Garlic Chicken"},
		},
		{
			name:     "MatchAny_ShouldAcceptAnyIngredient",
			criteria: outbound.SearchCriteria{Ingredients: []string{"onion", "butter"}},
			expected: []string{"Chicken Curry", "Garlic Bread"},
		},
		{
			name:     "UnknownIngredient_ShouldReturnNothing",
			criteria: outbound.SearchCriteria{Ingredients: []string{"saffron"}, MatchAll: true},
			expected: []string{},
		},
		{
			name:     "Query_ShouldMatchTitleCaseInsensitively",
			criteria: outbound.SearchCriteria{Query: "BREAD"},
			expected: []string{"Garlic Bread"},
		},
		{
			name:     "Query_ShouldMatchIngredientName",
			criteria: outbound.SearchCriteria{Query: "onion"},
			expected: []string{"Chicken Curry"},
		},
		{
			name:     "Query_ShouldTreatPercentLiterally",
			criteria: outbound.SearchCriteria{Query: "100%"},
			expected: []string{"100% Juice"},
		},
		{
			name:     "Category_ShouldCombineWithIngredients",
			criteria: outbound.SearchCriteria{Category: "Dinner", Ingredients: []string{"garlic"}},
			expected: []string{"Garlic Chicken"},
		},
		{
			name:     "Cuisine_ShouldFilterExactly",
			criteria: outbound.SearchCriteria{Cuisine: "Indian"},
			expected: []string{"Chicken Curry"},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			// Act
			results, total, err := s.recipes.Search(s.ctx, tc.criteria)

			// Assert
			require.NoError(s.T(), err)
			assert.Equal(s.T(), tc.expected, s.titles(results))
			assert.Equal(s.T(), int64(len(tc.expected)), total)
		})
	}

	s.Run("Paging_ShouldReturnSliceAndFullTotal", func() {
		// Act
		results, total, err := s.recipes.Search(s.ctx, outbound.SearchCriteria{Offset: 1, Limit: 2})

		// Assert
		require.NoError(s.T(), err)
		assert.Equal(s.T(), int64(4), total)
		assert.Equal(s.T(), []string{"Garlic Chicken", "Garlic Bread"}, s.titles(results))
	})

	s.Run("OffsetPastEnd_ShouldReturnEmptyPage", func() {
		// Act
		results, total, err := s.recipes.Search(s.ctx, outbound.SearchCriteria{Offset: 12, Limit: 12})

		// Assert
		require.NoError(s.T(), err)
		assert.Equal(s.T(), int64(4), total)
		assert.Empty(s.T(), results)
	})
}

func (s *RecipeRepositoryTestSuite) TestSearchNonASCIITitles() {
	saved := s.save("ÉCLAIR AU CAFÉ", recipe.Details{Category: "Dessert"})
	s.save("Crème Brûlée", recipe.Details{Category: "Dessert"})

	for _, query := range []string{"éclair", "ÉCLAIR", "Café", "au caf"} {
		s.Run("Query_"+query, func() {
			// Act
			results, total, err := s.recipes.Search(s.ctx, outbound.SearchCriteria{Query: query})

			// Assert
			require.NoError(s.T(), err)
			assert.Equal(s.T(), int64(1), total)
			assert.Equal(s.T(), []string{"ÉCLAIR AU CAFÉ"}, s.titles(results))
		})
	}

	s.Run("UppercaseQuery_ShouldMatchLowercaseAccents", func() {
		// Act
		results, _, err := s.recipes.Search(s.ctx, outbound.SearchCriteria{Query: "BRÛLÉE"})

		// Assert
		require.NoError(s.T(), err)
		assert.Equal(s.T(), []string{"Crème Brûlée"}, s.titles(results))
	})

	s.Run("Rename_ShouldRefreshSearchableTitle", func() {
		// Arrange
		found, err := s.recipes.FindByID(s.ctx, saved.ID())
		require.NoError(s.T(), err)
		require.NoError(s.T(), found.UpdateTitle("Éclair Géant"))
		require.NoError(s.T(), s.recipes.Save(s.ctx, found))

		// Act
		renamed, _, err := s.recipes.Search(s.ctx, outbound.SearchCriteria{Query: "GÉANT"})
		require.NoError(s.T(), err)
		old, _, err := s.recipes.Search(s.ctx, outbound.SearchCriteria{Query: "café"})
		require.NoError(s.T(), err)

		// Assert
		assert.Equal(s.T(), []string{"Éclair Géant"}, s.titles(renamed))
		assert.Empty(s.T(), old)
	})
}

func (s *RecipeRepositoryTestSuite) TestSearchNumericFilters() {
	quick, slow := 10, 90
	low, high := 3.0, 4.8
	s.save("Quick Salad", recipe.Details{CookTime: &quick, Ratings: &low})
	s.save("Slow Roast", recipe.Details{CookTime: &slow, Ratings: &high})

	s.Run("MaxTime_ShouldExcludeLongerRecipes", func() {
		// Arrange
		maxTime := 30

		// Act
		results, _, err := s.recipes.Search(s.ctx, outbound.SearchCriteria{MaxTime: &maxTime})

		// Assert
		require.NoError(s.T(), err)
		assert.Equal(s.T(), []string{"Quick Salad"}, s.titles(results))
	})

	s.Run("MinRating_ShouldExcludeLowerRatings", func() {
		// Arrange
		minRating := 4.0

		// Act
		results, _, err := s.recipes.Search(s.ctx, outbound.SearchCriteria{MinRating: &minRating})

		// Assert
		require.NoError(s.T(), err)
		assert.Equal(s.T(), []string{"Slow Roast"}, s.titles(results))
	})

	s.Run("Featured_ShouldOrderByRating", func() {
		// Act
		results, err := s.recipes.FeaturedRecipes(s.ctx, 3)

		// Assert
		require.NoError(s.T(), err)
		assert.Equal(s.T(), []string{"Slow Roast", "Quick Salad"}, s.titles(results))
	})
}

func (s *RecipeRepositoryTestSuite) TestCategoryCounts() {
	s.Run("ShouldOrderByCountThenName", func() {
		// Arrange
		s.save("A", recipe.Details{Category: "Dinner"})
		s.save("B", recipe.Details{Category: "Dinner"})
		s.save("C", recipe.Details{Category: "Breakfast"})
		s.save("D", recipe.Details{Category: "Appetizer"})
		s.save("E", recipe.Details{})

		// Act
		counts, err := s.recipes.CategoryCounts(s.ctx, 2)

		// Assert
		require.NoError(s.T(), err)
		assert.Equal(s.T(), []outbound.CategoryCount{
			{Category: "Dinner", Count: 2},
			{Category: "Appetizer", Count: 1},
		}, counts)
	})
}

func (s *RecipeRepositoryTestSuite) TestInstructionUpdates() {
	s.Run("MarkPending_ShouldSucceedOnce", func() {
		// Arrange
		saved := s.save("Stew", recipe.Details{})

		// Act
		first, err1 := s.recipes.MarkPending(s.ctx, saved.ID())
		second, err2 := s.recipes.MarkPending(s.ctx, saved.ID())

		// Assert
		require.NoError(s.T(), err1)
		require.NoError(s.T(), err2)
		assert.True(s.T(), first)
		assert.False(s.T(), second)
	})

	s.Run("Complete_ShouldRequirePending", func() {
		// Arrange
		saved := s.save("Chili", recipe.Details{})

		// Act
		early, err := s.recipes.CompleteInstructions(s.ctx, saved.ID(), "too soon", time.Now())
		require.NoError(s.T(), err)
		_, err = s.recipes.MarkPending(s.ctx, saved.ID())
		require.NoError(s.T(), err)
		done, err := s.recipes.CompleteInstructions(s.ctx, saved.ID(), "Simmer.", time.Now())
		require.NoError(s.T(), err)

		// Assert
		assert.False(s.T(), early)
		assert.True(s.T(), done)
		found, err := s.recipes.FindByID(s.ctx, saved.ID())
		require.NoError(s.T(), err)
		assert.Equal(s.T(), recipe.AIStatusReady, found.AI().Status)
		assert.Equal(s.T(), "Simmer.", *found.AI().Text)
		assert.NotNil(s.T(), found.AI().GeneratedAt)
		assert.Nil(s.T(), found.AI().Error)
	})

	s.Run("Fail_ShouldRecordErrorAndAllowRetry", func() {
		// Arrange
		saved := s.save("Risotto", recipe.Details{})

		// Act
		notPending, err := s.recipes.FailInstructions(s.ctx, saved.ID(), "ignored")
		require.NoError(s.T(), err)
		_, err = s.recipes.MarkPending(s.ctx, saved.ID())
		require.NoError(s.T(), err)
		failed, err := s.recipes.FailInstructions(s.ctx, saved.ID(), "AI service is temporarily unavailable")
		require.NoError(s.T(), err)
		afterFailure, err := s.recipes.FindByID(s.ctx, saved.ID())
		require.NoError(s.T(), err)
		retried, err := s.recipes.MarkPending(s.ctx, saved.ID())
		require.NoError(s.T(), err)

		// Assert
		assert.False(s.T(), notPending)
		assert.True(s.T(), failed)
		assert.Equal(s.T(), recipe.AIStatusFailed, afterFailure.AI().Status)
		require.NotNil(s.T(), afterFailure.AI().Error)
		assert.Equal(s.T(), "AI service is temporarily unavailable", *afterFailure.AI().Error)
		assert.True(s.T(), retried)
		found, err := s.recipes.FindByID(s.ctx, saved.ID())
		require.NoError(s.T(), err)
		assert.Equal(s.T(), recipe.AIStatusPending, found.AI().Status)
		assert.Nil(s.T(), found.AI().Error)
	})

	s.Run("Ready_ShouldRejectNewRequest", func() {
		// Arrange
		saved := s.save("Paella", recipe.Details{})
		_, err := s.recipes.MarkPending(s.ctx, saved.ID())
		require.NoError(s.T(), err)
		_, err = s.recipes.CompleteInstructions(s.ctx, saved.ID(), "Cook rice.", time.Now())
		require.NoError(s.T(), err)

		// Act
		ok, err := s.recipes.MarkPending(s.ctx, saved.ID())

		// Assert
		require.NoError(s.T(), err)
		assert.False(s.T(), ok)
	})

	s.Run("ReclaimStalePending_ShouldOnlyTakeOldPendingRows", func() {
		// Arrange
		idle := s.save("Gumbo", recipe.Details{})
		pending := s.save("Jambalaya", recipe.Details{})
		_, err := s.recipes.MarkPending(s.ctx, pending.ID())
		require.NoError(s.T(), err)

		// Act
		idleTaken, err := s.recipes.ReclaimStalePending(s.ctx, idle.ID(), time.Now().Add(time.Hour))
		require.NoError(s.T(), err)
		fresh, err := s.recipes.ReclaimStalePending(s.ctx, pending.ID(), time.Now().Add(-time.Hour))
		require.NoError(s.T(), err)
		stale, err := s.recipes.ReclaimStalePending(s.ctx, pending.ID(), time.Now().Add(time.Hour))
		require.NoError(s.T(), err)

		// Assert
		assert.False(s.T(), idleTaken)
		assert.False(s.T(), fresh)
		assert.True(s.T(), stale)
		found, err := s.recipes.FindByID(s.ctx, pending.ID())
		require.NoError(s.T(), err)
		assert.Equal(s.T(), recipe.AIStatusPending, found.AI().Status)
	})
}

func (s *RecipeRepositoryTestSuite) TestTransactor() {
	s.Run("FailedWork_ShouldRollBack", func() {
		// Act
		err := s.transactor.WithinTx(s.ctx, func(ctx context.Context) error {
			if _, _, err := s.ingredients.FindOrCreate(ctx, "saffron"); err != nil {
				return err
			}
			return assert.AnError
		})

		// Assert
		assert.ErrorIs(s.T(), err, assert.AnError)
		names, err := s.ingredients.AllNames(s.ctx)
		require.NoError(s.T(), err)
		assert.NotContains(s.T(), names, "saffron")
	})
}

func TestRecipeRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeRepositoryTestSuite))
}
