// Package importwatch imports recipe documents dropped into a directory
package importwatch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before it is imported
const DefaultDebounce = 250 * time.Millisecond

// AfterImport runs after a file import that changed the catalog
type AfterImport func(ctx context.Context, result *inbound.ImportResult) error

// Option configures a Watcher
type Option func(*Watcher)

// WithAfterImport sets a hook run after each import that changed the catalog
func WithAfterImport(hook AfterImport) Option {
	return func(w *Watcher) { w.afterImport = hook }
}

// Watcher imports *.json files from a directory whenever they are written
type Watcher struct {
	dir         string
	debounce    time.Duration
	importer    inbound.ImportService
	afterImport AfterImport
	logger      *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// New creates a watcher for dir
func New(dir string, debounce time.Duration, importer inbound.ImportService, logger *zap.Logger, opts ...Option) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		dir:      dir,
		debounce: debounce,
		importer: importer,
		logger:   logger.Named("importwatch"),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the directory until ctx is done. Imports already running are
// allowed to finish before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("Watching import directory", zap.String("dir", w.dir))

	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !shouldImport(event) {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

func shouldImport(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".json")
}

// schedule restarts the file's debounce timer
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.timers[path]; exists {
		if timer.Stop() {
			w.wg.Done()
		}
	}

	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.timers[path] == timer {
			delete(w.timers, path)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.importFile(ctx, path)
	})
	w.timers[path] = timer
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	result, err := w.importer.ImportFile(ctx, path)
	if err != nil {
		w.logger.Error("Import failed", zap.String("file", path), zap.Error(err))
		return
	}

	w.logger.Info("Imported file",
		zap.String("file", path),
		zap.Int("created_recipes", result.CreatedRecipes),
		zap.Int("updated_recipes", result.UpdatedRecipes),
		zap.Int("created_ingredients", result.CreatedIngredients),
		zap.Int("errors", len(result.Errors)),
	)
	for _, msg := range result.Errors {
		w.logger.Warn("Import error", zap.String("file", path), zap.String("error", msg))
	}

	if w.afterImport != nil && result.Changed() {
		if err := w.afterImport(ctx, result); err != nil {
			w.logger.Warn("After-import hook failed", zap.String("file", path), zap.Error(err))
		}
	}
}

// stopTimers cancels pending imports and waits for running ones
func (w *Watcher) stopTimers() {
	w.mu.Lock()
	for path, timer := range w.timers {
		if timer.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
}
