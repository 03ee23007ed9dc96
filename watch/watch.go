// Package watch re-runs the tangle pipeline when literate documents
// change on disk.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config configures the document watcher.
type Config struct {
	// Root is the directory to watch recursively.
	Root string

	// Debounce is how long to wait for more changes before firing.
	Debounce time.Duration

	// OnChange receives the batch of changed document paths, relative
	// to Root. Deleted files are included; the callback re-derives
	// everything from disk anyway.
	OnChange func(ctx context.Context, paths []string)

	Logger *slog.Logger
}

// Watcher watches a document tree and fires a debounced callback.
type Watcher struct {
	config  Config
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]struct{}
}

// New creates a Watcher over config.Root.
func New(config Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Debounce == 0 {
		config.Debounce = 500 * time.Millisecond
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]struct{}),
	}, nil
}

// Start begins watching. It blocks until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.config.Root); err != nil {
		return err
	}

	w.logger.Info("document watcher started",
		"root", w.config.Root,
		"debounce", w.config.Debounce)

	ticker := time.NewTicker(w.config.Debounce)
	defer ticker.Stop()
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// addWatchesRecursive adds watches to all directories under root,
// skipping hidden ones.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if path != root && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// handleFSEvent accumulates one fsnotify event into the pending set.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if !strings.EqualFold(filepath.Ext(path), ".md") {
		// New directories need their own watch.
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}

	relPath, err := filepath.Rel(w.config.Root, path)
	if err != nil {
		relPath = path
	}

	w.pendingMu.Lock()
	w.pending[relPath] = struct{}{}
	w.pendingMu.Unlock()

	w.logger.Debug("document change detected", "path", relPath, "op", event.Op.String())
}

func (w *Watcher) handleNewDirectory(path string) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("failed to watch new directory", "path", path, "error", err)
	}
}

// flushPending fires the callback with the accumulated batch.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	w.logger.Info("documents changed, rerunning", "count", len(paths))
	w.config.OnChange(ctx, paths)
}
