package container

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/recipebook/internal/infrastructure/ai"
	"github.com/alchemorsel/recipebook/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/recipebook/internal/infrastructure/config"
	"github.com/alchemorsel/recipebook/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "recipebook", Version: "test", Environment: "test", LogLevel: "error", LogFormat: "json"},
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 0, RequestTimeout: 5 * time.Second},
		Database: config.DatabaseConfig{Driver: "sqlite"},
		Cache:    config.CacheConfig{Backend: BackendMemory, DefaultTTL: time.Minute, PopularCategoriesTTL: time.Minute},
		Queue:    config.QueueConfig{Backend: BackendMemory, Workers: 1, BufferSize: 8},
		AI:       config.AIConfig{BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini", MaxTokens: 100},
	}
}

func TestModuleGraphIsValid(t *testing.T) {
	err := fx.ValidateApp(fx.NopLogger, fx.Supply(testConfig()), Module)
	require.NoError(t, err)
}

func TestCoreModuleGraphIsValid(t *testing.T) {
	err := fx.ValidateApp(fx.NopLogger, fx.Supply(testConfig()), CoreModule)
	require.NoError(t, err)
}

func TestModuleStartsAndGeneratesInstructions(t *testing.T) {
	var (
		importer     inbound.ImportService
		catalog      inbound.CatalogService
		instructions inbound.InstructionService
		metrics      outbound.MetricsRecorder
	)

	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(testConfig()),
		Module,
		fx.Populate(&importer, &catalog, &instructions, &metrics),
	)
	app.RequireStart()
	defer app.RequireStop()

	_, isPrometheus := metrics.(*monitoring.Metrics)
	assert.True(t, isPrometheus)

	ctx := context.Background()
	result := importer.ImportRecords(ctx, []inbound.RecipeRecord{{
		Title:       "Porridge",
		Category:    "Breakfast",
		Ingredients: []string{"1 cup oats", "2 cups milk"},
	}})
	require.Equal(t, 1, result.CreatedRecipes)

	found, err := catalog.Search(ctx, inbound.SearchQuery{Query: "porridge", Page: 1})
	require.NoError(t, err)
	require.Len(t, found.Recipes, 1)
	id := found.Recipes[0].ID

	_, err = instructions.RequestInstructions(ctx, id)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		state, err := instructions.GetState(ctx, id)
		return err == nil && state.Status == "ready"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNewInstructionGenerator(t *testing.T) {
	cfg := testConfig()

	generator := NewInstructionGenerator(cfg, zap.NewNop())
	assert.IsType(t, &ai.PlaceholderGenerator{}, generator)

	cfg.AI.APIKey = "sk-test"
	generator = NewInstructionGenerator(cfg, zap.NewNop())
	assert.IsType(t, &openai.Client{}, generator)
}
