package gamedata

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads an external game-data file into a Live catalog whenever
// the file changes on disk. Invalid edits are logged and ignored so the last
// good catalog stays in effect.
type Watcher struct {
	path     string
	live     *Live
	logger   *slog.Logger
	onReload func(prev, next *Catalog)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	active  bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger used for reload diagnostics.
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithReloadHook is called after every successful reload with the catalog
// that was replaced and the one now in effect.
func WithReloadHook(fn func(prev, next *Catalog)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// NewWatcher creates a watcher for path feeding live.
func NewWatcher(path string, live *Live, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:   filepath.Clean(path),
		live:   live,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The directory is watched rather than the file so
// editors that save through rename are still picked up.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active {
		w.logger.Debug("Game data watcher already active")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.watcher = watcher
	w.active = true
	go w.loop(ctx, watcher)

	w.logger.Debug("Started game data watcher", "path", w.path)
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
	}
	w.active = false
}

// release closes watcher when it is still the active one. A loop that
// outlives a Stop/Start cycle must not tear down its successor.
func (w *Watcher) release(watcher *fsnotify.Watcher) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != watcher {
		return
	}
	w.watcher.Close()
	w.watcher = nil
	w.active = false
}

func (w *Watcher) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer w.release(watcher)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Game data watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	w.Reload()
}

// Reload parses the file now and swaps it in if valid.
func (w *Watcher) Reload() bool {
	c, err := Load(w.path)
	if err != nil {
		w.logger.Warn("Ignoring invalid game data", "path", w.path, "error", err)
		return false
	}
	prev := w.live.Swap(c)
	w.logger.Info("Reloaded game data", "path", w.path)
	if w.onReload != nil {
		w.onReload(prev, c)
	}
	return true
}
