// Package watcher re-ingests files as they are created or written below a folder.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/projectrag/internal/logger"
	"github.com/custodia-labs/projectrag/internal/walker"
)

// DefaultDebounce is how long a path must stay quiet before it is handled.
const DefaultDebounce = 500 * time.Millisecond

// Handler is called once per settled path. Calls are sequential.
type Handler func(ctx context.Context, path string)

// Watcher watches a folder tree and reports settled file changes.
type Watcher struct {
	root     string
	walker   *walker.Walker
	debounce time.Duration
	handler  Handler
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a changed path is handled.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWalker sets the walker deciding which paths are eligible.
func WithWalker(wk *walker.Walker) Option {
	return func(w *Watcher) {
		if wk != nil {
			w.walker = wk
		}
	}
}

// New creates a watcher for root.
func New(root string, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		root:     filepath.Clean(root),
		walker:   walker.New(),
		debounce: DefaultDebounce,
		handler:  handler,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. Pending changes are flushed first.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}
	logger.Info("Watching %s", w.root)

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.flush(context.WithoutCancel(ctx), pending)
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			path, isDir := w.handleEvent(event)
			if path == "" {
				continue
			}
			if isDir {
				// A new folder may already hold files.
				if err := w.addTree(fsw, path); err != nil {
					logger.Warn("watch %s: %v", path, err)
				}
				w.queueTree(ctx, path, pending)
			} else {
				pending[path] = struct{}{}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.flush(ctx, pending)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// handleEvent returns the path an event refers to when it needs handling.
// Removals, renames and chmod-only events are ignored.
func (w *Watcher) handleEvent(event fsnotify.Event) (path string, isDir bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if !w.walker.Eligible(w.root, event.Name) {
		return "", false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return "", false
	}
	switch {
	case info.IsDir():
		return event.Name, true
	case info.Mode().IsRegular():
		return event.Name, false
	default:
		return "", false
	}
}

func (w *Watcher) flush(ctx context.Context, pending map[string]struct{}) {
	if len(pending) == 0 {
		return
	}
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
		delete(pending, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		logger.Debug("watch: handling %s", p)
		w.handler(ctx, p)
	}
}

// addTree watches dir and every eligible folder below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && !w.walker.Eligible(w.root, path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// queueTree queues the eligible files of a newly created folder.
func (w *Watcher) queueTree(ctx context.Context, dir string, pending map[string]struct{}) {
	files, err := w.walker.Files(ctx, dir)
	if err != nil {
		logger.Warn("scan %s: %v", dir, err)
		return
	}
	for _, f := range files {
		if w.walker.Eligible(w.root, f) {
			pending[f] = struct{}{}
		}
	}
}
