package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/alchemorsel/recipebook/internal/ports/inbound"
)

//go:embed templates
var templatesFS embed.FS

// PageData is the data every full page receives
type PageData struct {
	Title  string
	Notice string
	Data   interface{}
}

type aiViewData struct {
	State inbound.AIStateDTO
	Card  bool
}

// Renderer executes the embedded page and fragment templates
type Renderer struct {
	pages    map[string]*template.Template
	partials *template.Template
}

// NewRenderer parses the embedded templates. Each page is parsed into its own
// clone of the layout so pages can all define "content".
func NewRenderer() (*Renderer, error) {
	base, err := template.New("").Funcs(templateFuncs()).ParseFS(templatesFS, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	pageFiles, err := fs.Glob(templatesFS, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout: %w", err)
		}
		if _, err := clone.ParseFS(templatesFS, file); err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = clone
	}

	return &Renderer{pages: pages, partials: base}, nil
}

// Page renders a full page inside the layout
func (r *Renderer) Page(w io.Writer, name string, data PageData) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// Fragment renders a single partial
func (r *Renderer) Fragment(w io.Writer, name string, data interface{}) error {
	return r.partials.ExecuteTemplate(w, name, data)
}

// AIFragment renders the instructions panel pushed to live subscribers, or
// the result card badge when card is set
func (r *Renderer) AIFragment(state inbound.AIStateDTO, card bool) (string, error) {
	name := "ai_instructions"
	if card {
		name = "ai_card"
	}
	var buf bytes.Buffer
	if err := r.Fragment(&buf, name, aiViewData{State: state, Card: card}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"add":      func(a, b int) int { return a + b },
		"sub":      func(a, b int) int { return a - b },
		"join":     strings.Join,
		"topic":    inbound.Topic,
		"aiTarget": inbound.InstructionsTarget,
		"aiView": func(state inbound.AIStateDTO, card bool) aiViewData {
			return aiViewData{State: state, Card: card}
		},
		"rating": func(r *float64) string {
			if r == nil {
				return ""
			}
			return strconv.FormatFloat(*r, 'f', 1, 64)
		},
		"instructionLines": func(s string) []string {
			var lines []string
			for _, line := range strings.Split(s, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					lines = append(lines, line)
				}
			}
			return lines
		},
		"pageURL": pageURL,
	}
}

// pageURL links to another page of the same search
func pageURL(q inbound.SearchQuery, page int) string {
	v := url.Values{}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Cuisine != "" {
		v.Set("cuisine", q.Cuisine)
	}
	if q.HasIngredients {
		v.Set("ingredients", strings.Join(q.Ingredients, ","))
		v.Set("search_type", string(q.SearchType))
	}
	if q.MaxTime != nil {
		v.Set("max_time", strconv.Itoa(*q.MaxTime))
	}
	if q.MinRating != nil {
		v.Set("min_rating", strconv.FormatFloat(*q.MinRating, 'f', -1, 64))
	}
	v.Set("page", strconv.Itoa(page))
	return "/recipes?" + v.Encode()
}
