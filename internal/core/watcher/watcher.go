// Package watcher reports structural changes under a directory tree. Only
// directory creation, removal and renames count: the filesystem provider
// sees directories alone, so file writes never change a traversal.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"reggie/internal/shared/observability"
)

type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	debounce    time.Duration
	excludeDirs []glob.Glob
	onChange    func([]string)
	callbackMu  sync.Mutex
	logger      *slog.Logger

	pending   map[string]struct{}
	pendingMu sync.Mutex
	timer     *time.Timer
	closed    bool
}

// NewWatcher calls onChange with the sorted set of changed paths once no new
// event has arrived for debounce. Callbacks never overlap.
func NewWatcher(debounce time.Duration, excludeDirs []string, logger *slog.Logger, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	if logger == nil {
		logger = slog.Default()
	}

	compiled := make([]glob.Glob, 0, len(excludeDirs))
	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:   fsw,
		debounce:    debounce,
		excludeDirs: compiled,
		onChange:    onChange,
		logger:      logger,
		pending:     make(map[string]struct{}),
	}, nil
}

func (w *Watcher) Watch(root string) error {
	if err := w.watchRecursive(root); err != nil {
		return err
	}
	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, mirroring the traversal.
			if path != root {
				w.logger.Debug("skipping unreadable directory", "path", path, "error", err)
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.shouldExcludeDir(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatchEventsTotal.Inc()
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Lstat(event.Name)
		if err != nil || !info.IsDir() || w.shouldExcludeDir(event.Name) {
			return
		}
		if err := w.watchRecursive(event.Name); err != nil {
			w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
		}
		w.scheduleChange(event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if w.shouldExcludeDir(event.Name) {
			return
		}
		w.scheduleChange(event.Name)
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if w.closed {
		return
	}

	w.pending[path] = struct{}{}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}
