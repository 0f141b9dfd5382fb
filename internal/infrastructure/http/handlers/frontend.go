// Package handlers provides the HTML and JSON HTTP handlers
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/alchemorsel/recipebook/pkg/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TurboStreamMediaType is the Accept type of partial-update requests
const TurboStreamMediaType = "text/vnd.turbo-stream.html"

// RecipesTarget is the element replaced by search fragments
const RecipesTarget = "recipe_results"

// NoticeRecipeNotFound is shown after redirecting away from a missing recipe
const NoticeRecipeNotFound = "Recipe not found"

// LiveSubscriber upgrades a request to a live update stream
type LiveSubscriber interface {
	ServeWS(w http.ResponseWriter, r *http.Request, topic string)
}

// FrontendHandlers serves the HTML pages and fragments
type FrontendHandlers struct {
	renderer     *Renderer
	catalog      inbound.CatalogService
	instructions inbound.InstructionService
	live         LiveSubscriber
	logger       *zap.Logger
}

// NewFrontendHandlers creates a new frontend handlers instance
func NewFrontendHandlers(
	renderer *Renderer,
	catalog inbound.CatalogService,
	instructions inbound.InstructionService,
	live LiveSubscriber,
	logger *zap.Logger,
) *FrontendHandlers {
	return &FrontendHandlers{
		renderer:     renderer,
		catalog:      catalog,
		instructions: instructions,
		live:         live,
		logger:       logger.Named("frontend"),
	}
}

type fragmentKind int

const (
	fullPage fragmentKind = iota
	htmxFragment
	turboStream
)

func requestKind(r *http.Request) fragmentKind {
	if strings.Contains(r.Header.Get("Accept"), TurboStreamMediaType) {
		return turboStream
	}
	if r.Header.Get("HX-Request") == "true" {
		return htmxFragment
	}
	return fullPage
}

// HandleHome renders the landing page
func (h *FrontendHandlers) HandleHome(w http.ResponseWriter, r *http.Request) {
	home, err := h.catalog.Home(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.renderPage(w, r, "home", PageData{Title: "Home", Data: home})
}

// HandleRecipes renders search results, as a page or as the results fragment.
// It also serves /recipes/search, whose navbar "search" input is read by
// SearchQueryFromValues.
func (h *FrontendHandlers) HandleRecipes(w http.ResponseWriter, r *http.Request) {
	query := inbound.SearchQueryFromValues(r.URL.Query())

	result, err := h.catalog.Search(r.Context(), query)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if kind := requestKind(r); kind != fullPage {
		h.renderFragment(w, r, kind, RecipesTarget, "recipe_results", result)
		return
	}

	h.renderPage(w, r, "recipes", PageData{
		Title:  "Recipes",
		Notice: r.URL.Query().Get("notice"),
		Data:   result,
	})
}

// HandleRecipeDetail renders one recipe, optionally scaled
func (h *FrontendHandlers) HandleRecipeDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		redirectNotFound(w, r)
		return
	}

	dto, err := h.catalog.GetRecipe(r.Context(), id, parseScale(r.URL.Query().Get("scale")))
	if errors.Is(err, errors.CodeRecipeNotFound) {
		redirectNotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.renderPage(w, r, "recipe", PageData{Title: dto.Title, Data: dto})
}

// HandleRecipeModal renders the quick view fragment
func (h *FrontendHandlers) HandleRecipeModal(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		http.Error(w, NoticeRecipeNotFound, http.StatusNotFound)
		return
	}

	dto, err := h.catalog.GetRecipe(r.Context(), id, 1)
	if errors.Is(err, errors.CodeRecipeNotFound) {
		http.Error(w, NoticeRecipeNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.renderFragment(w, r, htmxFragment, "recipe_modal", "recipe_modal", dto)
}

// HandleAskAI requests AI instructions for a recipe
func (h *FrontendHandlers) HandleAskAI(w http.ResponseWriter, r *http.Request) {
	kind := requestKind(r)

	id, ok := recipeID(r)
	if !ok {
		h.askAINotFound(w, r, kind)
		return
	}

	state, err := h.instructions.RequestInstructions(r.Context(), id)
	if errors.Is(err, errors.CodeRecipeNotFound) {
		h.askAINotFound(w, r, kind)
		return
	}
	if err != nil {
		// The recipe was marked failed; show that state
		h.logger.Error("Failed to request AI instructions", zap.Uint("recipe_id", id), zap.Error(err))
		state, err = h.instructions.GetState(r.Context(), id)
		if err != nil {
			h.serverError(w, r, err)
			return
		}
	}

	if kind == fullPage {
		http.Redirect(w, r, fmt.Sprintf("/recipes/%d", id), http.StatusSeeOther)
		return
	}

	card := r.URL.Query().Get("from_card") == "1" || r.PostFormValue("from_card") == "1"
	name := "ai_instructions"
	if card {
		name = "ai_card"
	}
	h.renderFragment(w, r, kind, inbound.InstructionsTarget(id), name, aiViewData{State: *state, Card: card})
}

func (h *FrontendHandlers) askAINotFound(w http.ResponseWriter, r *http.Request, kind fragmentKind) {
	if kind == fullPage {
		redirectNotFound(w, r)
		return
	}
	http.Error(w, NoticeRecipeNotFound, http.StatusNotFound)
}

// HandleLive subscribes to live updates of a recipe
func (h *FrontendHandlers) HandleLive(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.live.ServeWS(w, r, inbound.Topic(id))
}

func (h *FrontendHandlers) renderPage(w http.ResponseWriter, r *http.Request, name string, data PageData) {
	var buf bytes.Buffer
	if err := h.renderer.Page(&buf, name, data); err != nil {
		h.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// renderFragment writes a partial, wrapped in a replace action for turbo
// stream requests
func (h *FrontendHandlers) renderFragment(w http.ResponseWriter, r *http.Request, kind fragmentKind, target, name string, data interface{}) {
	var buf bytes.Buffer
	if kind == turboStream {
		fmt.Fprintf(&buf, `<turbo-stream action="replace" target="%s"><template>`, target)
	}
	if err := h.renderer.Fragment(&buf, name, data); err != nil {
		h.serverError(w, r, err)
		return
	}

	if kind == turboStream {
		buf.WriteString(`</template></turbo-stream>`)
		w.Header().Set("Content-Type", TurboStreamMediaType+"; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	_, _ = buf.WriteTo(w)
}

func (h *FrontendHandlers) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("Request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func redirectNotFound(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/recipes?notice="+url.QueryEscape(NoticeRecipeNotFound), http.StatusSeeOther)
}

func recipeID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parseScale reads a positive scale factor, defaulting to 1
func parseScale(s string) float64 {
	factor, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || factor <= 0 {
		return 1
	}
	return factor
}
