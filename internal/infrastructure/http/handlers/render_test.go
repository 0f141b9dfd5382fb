package handlers

import (
	"testing"

	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageURL(t *testing.T) {
	maxTime := 30

	tests := []struct {
		name     string
		query    inbound.SearchQuery
		page     int
		expected string
	}{
		{
			name:     "empty query",
			query:    inbound.SearchQuery{SearchType: inbound.SearchAll},
			page:     2,
			expected: "/recipes?page=2",
		},
		{
			name: "keeps filters",
			query: inbound.SearchQuery{
				Query:          "soup",
				Category:       "Dinner",
				Ingredients:    []string{"tomato", "basil"},
				HasIngredients: true,
				SearchType:     inbound.SearchAny,
				MaxTime:        &maxTime,
			},
			page:     3,
			expected: "/recipes?category=Dinner&ingredients=tomato%2Cbasil&max_time=30&page=3&q=soup&search_type=any",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pageURL(tt.query, tt.page))
		})
	}
}

func TestAIFragment(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	tests := []struct {
		status   string
		expected string
	}{
		{status: "idle", expected: `Click "Ask Alchemist how to cook it" to generate cooking steps`},
		{status: "pending", expected: "Generating AI instructions..."},
		{status: "ready", expected: "Alchemist advice on cooking"},
		{status: "failed", expected: "Failed to generate AI instructions"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			html, err := renderer.AIFragment(inbound.AIStateDTO{RecipeID: 7, Status: tt.status, Instructions: "1. Boil"}, false)

			require.NoError(t, err)
			assert.Contains(t, html, `id="ai_instructions_recipe_7"`)
			assert.Contains(t, html, tt.expected)
		})
	}
}

func TestAIFragment_CardVariant(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	tests := []struct {
		status   string
		expected string
	}{
		{status: "idle", expected: "?from_card=1"},
		{status: "pending", expected: "Generating..."},
		{status: "ready", expected: `href="/recipes/7">Alchemist advice ready`},
		{status: "failed", expected: "?from_card=1"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			html, err := renderer.AIFragment(inbound.AIStateDTO{RecipeID: 7, Status: tt.status}, true)

			require.NoError(t, err)
			assert.Contains(t, html, `<div id="ai_instructions_recipe_7" class="mt-2">`)
			assert.Contains(t, html, tt.expected)
			assert.NotContains(t, html, "Alchemist advice on cooking")
		})
	}
}
