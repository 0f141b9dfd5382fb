// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/alchemorsel/recipebook/internal/domain/recipe"
	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockRecipeRepository provides a mock implementation of RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

// FindByID finds a recipe by ID
func (m *MockRecipeRepository) FindByID(ctx context.Context, id uint) (*recipe.Recipe, error) {
	args := m.Called(ctx, id)
	if r, ok := args.Get(0).(*recipe.Recipe); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByTitle finds a recipe by title
func (m *MockRecipeRepository) FindByTitle(ctx context.Context, title string) (*recipe.Recipe, error) {
	args := m.Called(ctx, title)
	if r, ok := args.Get(0).(*recipe.Recipe); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// Save saves a recipe
func (m *MockRecipeRepository) Save(ctx context.Context, r *recipe.Recipe) error {
	return m.Called(ctx, r).Error(0)
}

// Delete deletes a recipe
func (m *MockRecipeRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

// Count counts recipes
func (m *MockRecipeRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Search searches for recipes
func (m *MockRecipeRepository) Search(ctx context.Context, criteria outbound.SearchCriteria) ([]*recipe.Recipe, int64, error) {
	args := m.Called(ctx, criteria)
	recipes, _ := args.Get(0).([]*recipe.Recipe)
	return recipes, args.Get(1).(int64), args.Error(2)
}

// CategoryCounts returns category counts
func (m *MockRecipeRepository) CategoryCounts(ctx context.Context, limit int) ([]outbound.CategoryCount, error) {
	args := m.Called(ctx, limit)
	counts, _ := args.Get(0).([]outbound.CategoryCount)
	return counts, args.Error(1)
}

// FeaturedRecipes returns top rated recipes
func (m *MockRecipeRepository) FeaturedRecipes(ctx context.Context, limit int) ([]*recipe.Recipe, error) {
	args := m.Called(ctx, limit)
	recipes, _ := args.Get(0).([]*recipe.Recipe)
	return recipes, args.Error(1)
}

// MarkPending conditionally marks a recipe pending
func (m *MockRecipeRepository) MarkPending(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// ReclaimStalePending conditionally refreshes a stale pending recipe
func (m *MockRecipeRepository) ReclaimStalePending(ctx context.Context, id uint, cutoff time.Time) (bool, error) {
	args := m.Called(ctx, id, cutoff)
	return args.Bool(0), args.Error(1)
}

// CompleteInstructions conditionally stores instructions
func (m *MockRecipeRepository) CompleteInstructions(ctx context.Context, id uint, text string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, text, at)
	return args.Bool(0), args.Error(1)
}

// FailInstructions conditionally records a failure
func (m *MockRecipeRepository) FailInstructions(ctx context.Context, id uint, message string) (bool, error) {
	args := m.Called(ctx, id, message)
	return args.Bool(0), args.Error(1)
}

// MockIngredientRepository provides a mock implementation of IngredientRepository
type MockIngredientRepository struct {
	mock.Mock
}

// FindOrCreate finds or creates an ingredient
func (m *MockIngredientRepository) FindOrCreate(ctx context.Context, name string) (recipe.Ingredient, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(recipe.Ingredient), args.Bool(1), args.Error(2)
}

// AllNames returns every ingredient name
func (m *MockIngredientRepository) AllNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

// MostUsed returns the most linked ingredient names
func (m *MockIngredientRepository) MostUsed(ctx context.Context, limit int) ([]string, error) {
	args := m.Called(ctx, limit)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

// MockInstructionGenerator provides a mock implementation of InstructionGenerator
type MockInstructionGenerator struct {
	mock.Mock
}

// GenerateInstructions generates instructions
func (m *MockInstructionGenerator) GenerateInstructions(ctx context.Context, req outbound.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockTaskQueue provides a mock implementation of TaskQueue
type MockTaskQueue struct {
	mock.Mock
}

// Enqueue enqueues a task
func (m *MockTaskQueue) Enqueue(ctx context.Context, task outbound.Task) error {
	return m.Called(ctx, task).Error(0)
}

// RecordingNotifier records notifications in memory
type RecordingNotifier struct {
	mu            sync.Mutex
	notifications []outbound.Notification
	Err           error
}

// Notify records n
func (n *RecordingNotifier) Notify(ctx context.Context, notification outbound.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
	return n.Err
}

// Notifications returns a copy of recorded notifications
func (n *RecordingNotifier) Notifications() []outbound.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]outbound.Notification, len(n.notifications))
	copy(out, n.notifications)
	return out
}

// PassthroughTransactor runs work without a transaction
type PassthroughTransactor struct{}

// WithinTx calls fn
func (PassthroughTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockCatalogService provides a mock implementation of CatalogService
type MockCatalogService struct {
	mock.Mock
}

// Search searches the catalog
func (m *MockCatalogService) Search(ctx context.Context, query inbound.SearchQuery) (*inbound.SearchResult, error) {
	args := m.Called(ctx, query)
	result, _ := args.Get(0).(*inbound.SearchResult)
	return result, args.Error(1)
}

// GetRecipe gets a recipe
func (m *MockCatalogService) GetRecipe(ctx context.Context, id uint, scale float64) (*inbound.RecipeDTO, error) {
	args := m.Called(ctx, id, scale)
	dto, _ := args.Get(0).(*inbound.RecipeDTO)
	return dto, args.Error(1)
}

// Home gets the landing page content
func (m *MockCatalogService) Home(ctx context.Context) (*inbound.HomeDTO, error) {
	args := m.Called(ctx)
	home, _ := args.Get(0).(*inbound.HomeDTO)
	return home, args.Error(1)
}

// IngredientNames lists ingredient names
func (m *MockCatalogService) IngredientNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

// PopularCategories lists popular categories
func (m *MockCatalogService) PopularCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	categories, _ := args.Get(0).([]string)
	return categories, args.Error(1)
}

// RefreshPopularCategories recomputes popular categories
func (m *MockCatalogService) RefreshPopularCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	categories, _ := args.Get(0).([]string)
	return categories, args.Error(1)
}

// InvalidatePopularCategories drops the cached categories
func (m *MockCatalogService) InvalidatePopularCategories(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// ClearCaches clears every cache
func (m *MockCatalogService) ClearCaches(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockInstructionService provides a mock implementation of InstructionService
type MockInstructionService struct {
	mock.Mock
}

// RequestInstructions requests generation
func (m *MockInstructionService) RequestInstructions(ctx context.Context, recipeID uint) (*inbound.AIStateDTO, error) {
	args := m.Called(ctx, recipeID)
	state, _ := args.Get(0).(*inbound.AIStateDTO)
	return state, args.Error(1)
}

// GenerateInstructions runs generation
func (m *MockInstructionService) GenerateInstructions(ctx context.Context, recipeID uint) error {
	return m.Called(ctx, recipeID).Error(0)
}

// GetState gets the generation state
func (m *MockInstructionService) GetState(ctx context.Context, recipeID uint) (*inbound.AIStateDTO, error) {
	args := m.Called(ctx, recipeID)
	state, _ := args.Get(0).(*inbound.AIStateDTO)
	return state, args.Error(1)
}
