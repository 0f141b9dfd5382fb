package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/alchemorsel/recipebook/pkg/errors"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// APIHandlers handles REST API requests
type APIHandlers struct {
	catalog      inbound.CatalogService
	instructions inbound.InstructionService
	logger       *zap.Logger
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(
	catalog inbound.CatalogService,
	instructions inbound.InstructionService,
	logger *zap.Logger,
) *APIHandlers {
	return &APIHandlers{
		catalog:      catalog,
		instructions: instructions,
		logger:       logger.Named("api"),
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ListRecipes handles GET /api/v1/recipes
func (h *APIHandlers) ListRecipes(w http.ResponseWriter, r *http.Request) {
	result, err := h.catalog.Search(r.Context(), inbound.SearchQueryFromValues(r.URL.Query()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    result,
		Message: "Recipes retrieved successfully",
	})
}

// GetRecipe handles GET /api/v1/recipes/{id}
func (h *APIHandlers) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		h.writeError(w, r, errors.NewBadRequestError("invalid recipe id"))
		return
	}

	dto, err := h.catalog.GetRecipe(r.Context(), id, parseScale(r.URL.Query().Get("scale")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    dto,
		Message: "Recipe retrieved successfully",
	})
}

// RequestInstructions handles POST /api/v1/recipes/{id}/ai_instructions
func (h *APIHandlers) RequestInstructions(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		h.writeError(w, r, errors.NewBadRequestError("invalid recipe id"))
		return
	}

	state, err := h.instructions.RequestInstructions(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusAccepted, APIResponse{
		Success: true,
		Data:    state,
		Message: "AI instructions requested",
	})
}

// GetInstructions handles GET /api/v1/recipes/{id}/ai_instructions
func (h *APIHandlers) GetInstructions(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		h.writeError(w, r, errors.NewBadRequestError("invalid recipe id"))
		return
	}

	state, err := h.instructions.GetState(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: state})
}

// ListIngredients handles GET /api/v1/ingredients, filtered by the q prefix
func (h *APIHandlers) ListIngredients(w http.ResponseWriter, r *http.Request) {
	names, err := h.catalog.IngredientNames(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if prefix := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))); prefix != "" {
		filtered := make([]string, 0, len(names))
		for _, name := range names {
			if strings.HasPrefix(name, prefix) {
				filtered = append(filtered, name)
			}
		}
		names = filtered
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			h.writeError(w, r, errors.NewValidationError("limit must be a positive integer"))
			return
		}
		if limit < len(names) {
			names = names[:limit]
		}
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: names})
}

// PopularCategories handles GET /api/v1/categories/popular
func (h *APIHandlers) PopularCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.PopularCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: categories})
}

// RefreshPopularCategories handles POST /api/v1/categories/popular/refresh
func (h *APIHandlers) RefreshPopularCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.RefreshPopularCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    categories,
		Message: "Popular categories cache refreshed",
	})
}

// ClearCaches handles POST /api/v1/caches/clear
func (h *APIHandlers) ClearCaches(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.ClearCaches(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "All caches cleared"})
}

// NotFound answers unknown API paths with a JSON error
func (h *APIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, errors.NewNotFoundError("Endpoint"))
}

func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Wrap(err, "request failed")
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		h.logger.Error("API request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}

	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   errors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context())).Error,
		Message: appErr.Message,
	})
}

func (h *APIHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}
