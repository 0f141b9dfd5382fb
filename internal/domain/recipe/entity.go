// Package recipe contains the core domain logic for the recipe catalog.
// Recipes own their ingredient links and the state of their generated
// cooking instructions.
package recipe

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alchemorsel/recipebook/internal/domain/shared"
)

const maxTitleLength = 255

// Recipe represents the core recipe entity in our domain.
type Recipe struct {
	shared.AggregateRoot

	id uint

	// Basic attributes
	title    string
	cuisine  *string
	category *string
	author   *string
	imageURL *string

	// Timing in minutes
	cookTime  *int
	prepTime  *int
	totalTime *int

	ratings *float64

	ingredients []RecipeIngredient

	// Generated instructions, changed only through the AI transition methods
	ai AIInstructions

	createdAt time.Time
	updatedAt time.Time
}

// Details carries the optional descriptive attributes of a recipe
type Details struct {
	CookTime *int
	PrepTime *int
	Ratings  *float64
	Cuisine  string
	Category string
	Author   string
	ImageURL string
}

// Snapshot is the persisted form of a recipe, used by repositories
type Snapshot struct {
	ID          uint
	Title       string
	CookTime    *int
	PrepTime    *int
	TotalTime   *int
	Ratings     *float64
	Cuisine     *string
	Category    *string
	Author      *string
	ImageURL    *string
	AI          AIInstructions
	Ingredients []RecipeIngredient
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewRecipe creates a new Recipe with validation
func NewRecipe(title string) (*Recipe, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Recipe{
		title:     title,
		ai:        AIInstructions{Status: AIStatusIdle},
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Rehydrate rebuilds a recipe from storage without raising events
func Rehydrate(s Snapshot) *Recipe {
	if s.AI.Status == "" {
		s.AI.Status = AIStatusIdle
	}
	r := &Recipe{
		id:          s.ID,
		title:       s.Title,
		cookTime:    s.CookTime,
		prepTime:    s.PrepTime,
		totalTime:   s.TotalTime,
		ratings:     s.Ratings,
		cuisine:     s.Cuisine,
		category:    s.Category,
		author:      s.Author,
		imageURL:    s.ImageURL,
		ingredients: s.Ingredients,
		ai:          s.AI,
		createdAt:   s.CreatedAt,
		updatedAt:   s.UpdatedAt,
	}
	return r
}

// Snapshot returns the persisted form of the recipe with total time recomputed
func (r *Recipe) Snapshot() Snapshot {
	r.Recompute()
	links := make([]RecipeIngredient, len(r.ingredients))
	copy(links, r.ingredients)
	return Snapshot{
		ID:          r.id,
		Title:       r.title,
		CookTime:    r.cookTime,
		PrepTime:    r.prepTime,
		TotalTime:   r.totalTime,
		Ratings:     r.ratings,
		Cuisine:     r.cuisine,
		Category:    r.category,
		Author:      r.author,
		ImageURL:    r.imageURL,
		AI:          r.ai,
		Ingredients: links,
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
	}
}

// AssignID records the identifier given by the store on first save
func (r *Recipe) AssignID(id uint) {
	if r.id == 0 {
		r.id = id
	}
}

// ID returns the recipe's identifier, zero until persisted
func (r *Recipe) ID() uint {
	return r.id
}

// Title returns the recipe's title
func (r *Recipe) Title() string {
	return r.title
}

// CookTime returns the cooking time in minutes
func (r *Recipe) CookTime() *int {
	return r.cookTime
}

// PrepTime returns the preparation time in minutes
func (r *Recipe) PrepTime() *int {
	return r.prepTime
}

// TotalTime returns cook plus prep time, nil when neither is known
func (r *Recipe) TotalTime() *int {
	return r.totalTime
}

// Ratings returns the rating between 0 and 5
func (r *Recipe) Ratings() *float64 {
	return r.ratings
}

// Cuisine returns the cuisine
func (r *Recipe) Cuisine() *string {
	return r.cuisine
}

// Category returns the category
func (r *Recipe) Category() *string {
	return r.category
}

// Author returns the author
func (r *Recipe) Author() *string {
	return r.author
}

// ImageURL returns the image reference
func (r *Recipe) ImageURL() *string {
	return r.imageURL
}

// Ingredients returns the linked ingredients in authored order
func (r *Recipe) Ingredients() []RecipeIngredient {
	return r.ingredients
}

// AI returns the generated instructions state
func (r *Recipe) AI() AIInstructions {
	return r.ai
}

// CreatedAt returns when the recipe was created
func (r *Recipe) CreatedAt() time.Time {
	return r.createdAt
}

// UpdatedAt returns when the recipe was last updated
func (r *Recipe) UpdatedAt() time.Time {
	return r.updatedAt
}

// UpdateTitle updates the recipe title with validation
func (r *Recipe) UpdateTitle(title string) error {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return err
	}
	r.title = title
	r.touch()
	return nil
}

// ApplyDetails validates and sets every descriptive attribute at once.
// Blank strings clear the attribute.
func (r *Recipe) ApplyDetails(d Details) error {
	if d.CookTime != nil && *d.CookTime < 0 {
		return ErrInvalidCookTime
	}
	if d.PrepTime != nil && *d.PrepTime < 0 {
		return ErrInvalidPrepTime
	}
	if d.Ratings != nil && (*d.Ratings < 0 || *d.Ratings > 5) {
		return ErrInvalidRating
	}

	r.cookTime = d.CookTime
	r.prepTime = d.PrepTime
	r.ratings = d.Ratings
	r.cuisine = optionalString(d.Cuisine)
	r.category = optionalString(d.Category)
	r.author = optionalString(d.Author)
	r.imageURL = optionalString(d.ImageURL)
	r.Recompute()
	r.touch()
	return nil
}

// ReplaceIngredients swaps the full ingredient list. Two links to the same
// ingredient name are rejected.
func (r *Recipe) ReplaceIngredients(links []RecipeIngredient) error {
	seen := make(map[string]struct{}, len(links))
	for _, link := range links {
		if _, dup := seen[link.IngredientName]; dup {
			return ErrDuplicateIngredient
		}
		seen[link.IngredientName] = struct{}{}
	}

	r.ingredients = make([]RecipeIngredient, len(links))
	for i, link := range links {
		link.RecipeID = r.id
		r.ingredients[i] = link
	}
	r.touch()
	return nil
}

// HasIngredient reports whether a normalized ingredient name is linked
func (r *Recipe) HasIngredient(name string) bool {
	name = NormalizeName(name)
	for _, link := range r.ingredients {
		if link.IngredientName == name {
			return true
		}
	}
	return false
}

// Recompute derives total time from cook and prep time
func (r *Recipe) Recompute() {
	if r.cookTime == nil && r.prepTime == nil {
		r.totalTime = nil
		return
	}
	total := 0
	if r.cookTime != nil {
		total += *r.cookTime
	}
	if r.prepTime != nil {
		total += *r.prepTime
	}
	r.totalTime = &total
}

// Validate re-checks every invariant before persistence
func (r *Recipe) Validate() error {
	if err := validateTitle(r.title); err != nil {
		return err
	}
	if r.cookTime != nil && *r.cookTime < 0 {
		return ErrInvalidCookTime
	}
	if r.prepTime != nil && *r.prepTime < 0 {
		return ErrInvalidPrepTime
	}
	if r.ratings != nil && (*r.ratings < 0 || *r.ratings > 5) {
		return ErrInvalidRating
	}
	for _, link := range r.ingredients {
		if link.Quantity != nil && *link.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if strings.TrimSpace(link.RawText) == "" {
			return ErrRawTextRequired
		}
	}
	return nil
}

// MarkImported records that an import created or updated the recipe
func (r *Recipe) MarkImported(created bool) {
	r.AddEvent(RecipeImportedEvent{
		RecipeID:   r.id,
		Title:      r.title,
		Created:    created,
		ImportedAt: time.Now(),
	})
}

// BeginGeneration moves idle or failed instructions to pending and clears the error
func (r *Recipe) BeginGeneration(now time.Time) error {
	next, err := Transition(r.ai.Status, AIEventRequest)
	if err != nil {
		return err
	}
	r.ai.Status = next
	r.ai.Error = nil
	r.updatedAt = now
	r.AddEvent(AIInstructionsRequestedEvent{RecipeID: r.id, RequestedAt: now})
	return nil
}

// CompleteGeneration stores generated text on a pending recipe
func (r *Recipe) CompleteGeneration(text string, now time.Time) error {
	next, err := Transition(r.ai.Status, AIEventSucceed)
	if err != nil {
		return err
	}
	generatedAt := now
	r.ai = AIInstructions{
		Status:      next,
		Text:        &text,
		GeneratedAt: &generatedAt,
	}
	r.updatedAt = now
	r.AddEvent(AIInstructionsCompletedEvent{RecipeID: r.id, CompletedAt: now})
	return nil
}

// FailGeneration records an error on a pending recipe, keeping earlier text
func (r *Recipe) FailGeneration(reason string, now time.Time) error {
	next, err := Transition(r.ai.Status, AIEventFail)
	if err != nil {
		return err
	}
	r.ai.Status = next
	r.ai.Error = &reason
	r.updatedAt = now
	r.AddEvent(AIInstructionsFailedEvent{RecipeID: r.id, Reason: reason, FailedAt: now})
	return nil
}

func (r *Recipe) touch() {
	r.updatedAt = time.Now()
}

func validateTitle(title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
