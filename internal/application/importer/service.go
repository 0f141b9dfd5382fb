// Package importer loads recipes from JSON documents into the catalog
package importer

import (
	"context"
	_ "embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/alchemorsel/recipebook/internal/domain/recipe"
	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/alchemorsel/recipebook/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

//go:embed data/recipes.json
var seedData []byte

var tracer = otel.Tracer("github.com/alchemorsel/recipebook/internal/application/importer")

// CacheInvalidator drops aggregates that an import may have changed
type CacheInvalidator interface {
	InvalidatePopularCategories(ctx context.Context) error
}

// Service implements the import use cases
type Service struct {
	recipes     outbound.RecipeRepository
	ingredients outbound.IngredientRepository
	transactor  outbound.Transactor
	caches      CacheInvalidator
	validate    *validator.Validate
	metrics     outbound.MetricsRecorder
	logger      *zap.Logger
}

// NewService creates a new import service
func NewService(
	recipes outbound.RecipeRepository,
	ingredients outbound.IngredientRepository,
	transactor outbound.Transactor,
	caches CacheInvalidator,
	metrics outbound.MetricsRecorder,
	logger *zap.Logger,
) inbound.ImportService {
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &Service{
		recipes:     recipes,
		ingredients: ingredients,
		transactor:  transactor,
		caches:      caches,
		validate:    newValidator(),
		metrics:     metrics,
		logger:      logger.Named("import-service"),
	}
}

// ImportFile imports a JSON array of recipe records. A missing file or a
// document that is not a JSON array is reported in the result without
// importing anything; an element that does not decode as a record is reported
// by index and the others are still imported.
func (s *Service) ImportFile(ctx context.Context, path string) (*inbound.ImportResult, error) {
	s.logger.Info("Importing recipes from file", zap.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return &inbound.ImportResult{Errors: []string{fmt.Sprintf("File does not exist: %s", path)}}, nil
		}
		return nil, errors.NewImportError(fmt.Sprintf("Failed to read %s", path), err)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return &inbound.ImportResult{Errors: []string{fmt.Sprintf("Invalid JSON format: %s", err.Error())}}, nil
	}

	return s.importBatch(ctx, len(elements), func(i int) (inbound.RecipeRecord, error) {
		var record inbound.RecipeRecord
		if err := json.Unmarshal(elements[i], &record); err != nil {
			return record, fmt.Errorf("malformed record: %w", err)
		}
		return record, nil
	}), nil
}

// ImportRecords imports records one transaction at a time. A failing record is
// rolled back and reported; the rest are still imported.
func (s *Service) ImportRecords(ctx context.Context, records []inbound.RecipeRecord) *inbound.ImportResult {
	return s.importBatch(ctx, len(records), func(i int) (inbound.RecipeRecord, error) {
		return records[i], nil
	})
}

// importBatch imports n records read by index through next
func (s *Service) importBatch(ctx context.Context, n int, next func(i int) (inbound.RecipeRecord, error)) *inbound.ImportResult {
	result := &inbound.ImportResult{Errors: []string{}}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Error importing recipe at index %d: %s", i, err.Error()))
			break
		}

		record, err := next(i)
		if err != nil {
			s.logger.Warn("Skipping undecodable recipe", zap.Int("index", i), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("Error importing recipe at index %d: %s", i, err.Error()))
			continue
		}

		outcome, err := s.importRecord(ctx, i, record)
		if err != nil {
			s.logger.Warn("Recipe import failed",
				zap.Int("index", i),
				zap.String("title", record.Title),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, fmt.Sprintf("Error importing recipe at index %d: %s", i, err.Error()))
			continue
		}

		if outcome.created {
			result.CreatedRecipes++
		} else {
			result.UpdatedRecipes++
		}
		result.CreatedIngredients += outcome.createdIngredients
	}

	if result.Changed() && s.caches != nil {
		if err := s.caches.InvalidatePopularCategories(ctx); err != nil {
			s.logger.Warn("Failed to invalidate popular categories", zap.Error(err))
		}
	}

	s.metrics.RecordImport(result.CreatedRecipes, result.UpdatedRecipes, len(result.Errors))
	s.logger.Info("Import finished",
		zap.Int("created_recipes", result.CreatedRecipes),
		zap.Int("updated_recipes", result.UpdatedRecipes),
		zap.Int("created_ingredients", result.CreatedIngredients),
		zap.Int("errors", len(result.Errors)),
	)
	return result
}

// Seed imports the bundled sample recipes when the catalog is empty
func (s *Service) Seed(ctx context.Context) (*inbound.ImportResult, error) {
	total, err := s.recipes.Count(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("count recipes", err)
	}
	if total > 0 {
		s.logger.Info("Catalog already has recipes, skipping seed", zap.Int64("recipes", total))
		return &inbound.ImportResult{Errors: []string{}}, nil
	}

	var records []inbound.RecipeRecord
	if err := json.Unmarshal(seedData, &records); err != nil {
		return nil, errors.NewImportError("Bundled seed data is invalid", err)
	}
	return s.ImportRecords(ctx, records), nil
}

type recordOutcome struct {
	created            bool
	createdIngredients int
}

func (s *Service) importRecord(ctx context.Context, index int, record inbound.RecipeRecord) (recordOutcome, error) {
	ctx, span := tracer.Start(ctx, "importer.ImportRecord")
	defer span.End()
	span.SetAttributes(attribute.Int("import.index", index), attribute.String("recipe.title", record.Title))

	if err := s.validate.Struct(record); err != nil {
		verr := validationErrors(err)
		span.SetStatus(codes.Error, verr.Error())
		return recordOutcome{}, verr
	}

	var outcome recordOutcome
	var saved *recipe.Recipe
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		outcome = recordOutcome{}

		title := strings.TrimSpace(record.Title)
		r, err := s.recipes.FindByTitle(ctx, title)
		switch {
		case err == nil:
		case stderrors.Is(err, recipe.ErrRecipeNotFound):
			if r, err = recipe.NewRecipe(title); err != nil {
				return err
			}
			outcome.created = true
		default:
			return err
		}

		if err := r.ApplyDetails(recipe.Details{
			CookTime: record.CookTime,
			PrepTime: record.PrepTime,
			Ratings:  record.Ratings,
			Cuisine:  record.Cuisine,
			Category: record.Category,
			Author:   record.Author,
			ImageURL: record.Image,
		}); err != nil {
			return err
		}

		links, created, err := s.linkIngredients(ctx, record.Ingredients)
		if err != nil {
			return err
		}
		outcome.createdIngredients = created

		if err := r.ReplaceIngredients(links); err != nil {
			return err
		}
		if err := s.recipes.Save(ctx, r); err != nil {
			return err
		}
		saved = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return recordOutcome{}, err
	}

	saved.MarkImported(outcome.created)
	for _, event := range saved.Events() {
		s.logger.Debug("Domain event",
			zap.String("event", event.EventName()),
			zap.Uint("recipe_id", saved.ID()),
			zap.Time("occurred_at", event.OccurredAt()),
		)
	}
	return outcome, nil
}

// linkIngredients parses lines into links. Blank lines are skipped and the
// first line naming an ingredient wins.
func (s *Service) linkIngredients(ctx context.Context, lines []string) ([]recipe.RecipeIngredient, int, error) {
	links := make([]recipe.RecipeIngredient, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	created := 0

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		parsed := recipe.ParseIngredientLine(line)
		if parsed.Name == "" {
			continue
		}
		if _, dup := seen[parsed.Name]; dup {
			continue
		}
		seen[parsed.Name] = struct{}{}

		ingredient, isNew, err := s.ingredients.FindOrCreate(ctx, parsed.Name)
		if err != nil {
			return nil, 0, err
		}
		if isNew {
			created++
		}

		link, err := recipe.NewRecipeIngredient(ingredient, parsed.Quantity, parsed.Unit, parsed.RawText)
		if err != nil {
			return nil, 0, err
		}
		links = append(links, link)
	}
	return links, created, nil
}
