package inbound

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// PageSize is the number of recipes per result page
const PageSize = 12

// MaxPage is the largest page number whose offset fits in an int
const MaxPage = math.MaxInt/PageSize + 1

// SearchType selects how an ingredient list is matched
type SearchType string

const (
	// SearchAll keeps recipes containing every listed ingredient
	SearchAll SearchType = "all"
	// SearchAny keeps recipes containing at least one listed ingredient
	SearchAny SearchType = "any"
)

// SearchQuery defines search parameters.
// HasIngredients distinguishes an absent or empty ingredient filter from one
// such as ", ," or "  " that normalized to nothing, which matches no recipe.
type SearchQuery struct {
	Query          string     `json:"q,omitempty"`
	Category       string     `json:"category,omitempty"`
	Ingredients    []string   `json:"ingredients,omitempty"`
	HasIngredients bool       `json:"-"`
	SearchType     SearchType `json:"search_type"`
	Page           int        `json:"page"`
	Cuisine        string     `json:"cuisine,omitempty"`
	MaxTime        *int       `json:"max_time,omitempty"`
	MinRating      *float64   `json:"min_rating,omitempty"`
}

// ParseSearchType reads a match mode, defaulting to SearchAll
func ParseSearchType(s string) SearchType {
	if SearchType(strings.ToLower(strings.TrimSpace(s))) == SearchAny {
		return SearchAny
	}
	return SearchAll
}

// ParsePage reads a 1-based page number; anything unreadable or below 1 is
// page 1 and anything past MaxPage is MaxPage
func ParsePage(s string) int {
	page, err := strconv.Atoi(strings.TrimSpace(s))
	if errors.Is(err, strconv.ErrRange) && page > 0 {
		return MaxPage
	}
	if err != nil || page < 1 {
		return 1
	}
	return ClampPage(page)
}

// ClampPage bounds a page number to [1, MaxPage]
func ClampPage(page int) int {
	switch {
	case page < 1:
		return 1
	case page > MaxPage:
		return MaxPage
	}
	return page
}

// SplitIngredients splits a comma-separated list into distinct normalized names
func SplitIngredients(s string) []string {
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// DisambiguateNavbarInput treats input with a comma as an ingredient list and
// anything else as a title query
func DisambiguateNavbarInput(s string) (query string, ingredients string) {
	if strings.Contains(s, ",") {
		return "", s
	}
	return s, ""
}

// SearchQueryFromValues builds a query from URL parameters. The navbar
// "search" parameter only applies when neither q nor ingredients is given.
func SearchQueryFromValues(v url.Values) SearchQuery {
	q := SearchQuery{
		Query:      strings.TrimSpace(v.Get("q")),
		Category:   strings.TrimSpace(v.Get("category")),
		Cuisine:    strings.TrimSpace(v.Get("cuisine")),
		SearchType: ParseSearchType(v.Get("search_type")),
		Page:       ParsePage(v.Get("page")),
	}

	raw := v.Get("ingredients")
	hasIngredients := raw != ""

	if search := strings.TrimSpace(v.Get("search")); search != "" && q.Query == "" && !hasIngredients {
		query, list := DisambiguateNavbarInput(search)
		q.Query = strings.TrimSpace(query)
		if list != "" {
			raw, hasIngredients = list, true
		}
	}

	if hasIngredients {
		q.HasIngredients = true
		q.Ingredients = SplitIngredients(raw)
	}

	if n, err := strconv.Atoi(strings.TrimSpace(v.Get("max_time"))); err == nil && n >= 0 {
		q.MaxTime = &n
	}
	if x, err := strconv.ParseFloat(strings.TrimSpace(v.Get("min_rating")), 64); err == nil && x >= 0 {
		q.MinRating = &x
	}
	return q
}
