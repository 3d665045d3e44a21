package catalogwatch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
)

// EventCatalogFailed is recorded when a changed catalog cannot be loaded.
const EventCatalogFailed = "analytic.catalog.failed"

// Watcher reloads a YAML catalog into a holder whenever the file changes.
// A file that fails to parse or validate leaves the current catalog in
// place.
type Watcher struct {
	path      string
	holder    *analytic.CatalogHolder
	telemetry analytic.Telemetry
	watcher   *fsnotify.Watcher

	mu      sync.Mutex
	reloads int
	closed  bool
}

// New loads the catalog once and starts watching its directory. The
// directory is watched so editors that replace the file are seen.
func New(path string, holder *analytic.CatalogHolder, telemetry analytic.Telemetry) (*Watcher, error) {
	if holder == nil {
		return nil, errors.New("catalogwatch: holder is required")
	}
	cat, err := analytic.ReadCatalog(path)
	if err != nil {
		return nil, err
	}
	holder.Swap(cat)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("catalogwatch: new watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("catalogwatch: watch %s: %w", path, err)
	}
	return &Watcher{
		path:      filepath.Clean(path),
		holder:    holder,
		telemetry: telemetry,
		watcher:   fsw,
	}, nil
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return w.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload(ctx)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.record(ctx, EventCatalogFailed, map[string]any{"path": w.path, "error": err.Error()})
		}
	}
}

// Reloads counts successful reloads after the initial load.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) reload(ctx context.Context) {
	cat, err := analytic.ReadCatalog(w.path)
	if err != nil {
		w.record(ctx, EventCatalogFailed, map[string]any{"path": w.path, "error": err.Error()})
		return
	}
	w.holder.Swap(cat)
	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	w.record(ctx, analytic.EventCatalogReloaded, map[string]any{
		"path":      w.path,
		"platforms": len(cat.Platforms),
		"countries": len(cat.Countries),
	})
}

func (w *Watcher) record(ctx context.Context, event string, payload map[string]any) {
	if w.telemetry != nil {
		w.telemetry.Record(ctx, event, payload)
	}
}
