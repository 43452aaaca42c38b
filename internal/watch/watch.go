// Package watch turns filesystem events on the collections directory into
// per-collection change triggers. It is the change-detection collaborator:
// false positives are fine (they cost a no-op reconciliation), missed
// events are not, so it watches the whole directory and debounces per file
// rather than watching individual files editors replace on save.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches the event bursts editors produce on save.
const DefaultDebounce = 500 * time.Millisecond

// Watcher emits collection names on Triggers when their .xlsx file changes.
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger

	triggers chan string

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce overrides the per-file debounce window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a Watcher over a collections directory.
func New(dir string, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		triggers: make(chan string, 16),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Triggers is the stream of collection names that may have changed.
func (w *Watcher) Triggers() <-chan string {
	return w.triggers
}

// Run watches until ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	defer w.stopTimers()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching collections directory", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := collectionFor(event.Name)
			if name == "" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "err", err)
		}
	}
}

// schedule arms (or re-arms) the debounce timer for one collection.
func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	if t, ok := w.timers[name]; ok {
		t.Stop()
	}
	w.timers[name] = time.AfterFunc(w.debounce, func() { w.fire(name) })
}

// fire delivers one trigger. A full queue re-arms the debounce timer
// instead of dropping; a lost trigger would leave the collection stale
// until its file is next written.
func (w *Watcher) fire(name string) {
	w.mu.Lock()
	delete(w.timers, name)
	w.mu.Unlock()

	select {
	case w.triggers <- name:
		w.logger.Debug("collection change detected", "collection", name)
	default:
		w.logger.Warn("trigger queue full, retrying", "collection", name)
		w.schedule(name)
	}
}

// stopTimers quiesces pending and future timers once Run returns, so a
// full-queue retry cannot re-arm forever after shutdown.
func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	for name, t := range w.timers {
		t.Stop()
		delete(w.timers, name)
	}
}

// collectionFor maps an event path to a collection name, or "" when the
// path is not a collection file (wrong extension, editor lock-temp file).
func collectionFor(path string) string {
	base := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(base), ".xlsx") || strings.HasPrefix(base, "~$") {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
