// Package watcher observes project folders for filesystem changes and
// invalidates cached folder sizes when footage moves underneath them.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/bakerlabs/baker/pkg/baker/logging"
)

// Invalidator drops a cached folder size. *sizecache.Cache satisfies it.
type Invalidator interface {
	Invalidate(projectPath string) error
}

// Watcher maps filesystem events back to the project folder that owns
// them. Watches are recursive: new subdirectories created under a
// watched project are picked up automatically.
type Watcher struct {
	cache   Invalidator
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	projects map[string]bool // registered project roots
	paths    map[string]bool // directories with active watches
	closed   bool
}

// New creates a Watcher. cache may be nil when size caching is off.
func New(cache Invalidator) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		cache:    cache,
		watcher:  fsw,
		projects: make(map[string]bool),
		paths:    make(map[string]bool),
	}, nil
}

// Watch registers a project folder and watches it recursively.
// Symlinks are not followed.
func (w *Watcher) Watch(projectPath string) error {
	root, err := filepath.Abs(projectPath)
	if err != nil {
		return err
	}
	info, err := os.Lstat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	w.mu.Lock()
	w.projects[root] = true
	w.mu.Unlock()

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // Skip entries with errors
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			return w.addWatch(path)
		}
		return nil
	})
}

// Unwatch removes a project folder and all its watches.
func (w *Watcher) Unwatch(projectPath string) {
	root, err := filepath.Abs(projectPath)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	delete(w.projects, root)
	for path := range w.paths {
		if path == root || isSubPath(path, root) {
			_ = w.watcher.Remove(path)
			delete(w.paths, path)
		}
	}
}

// Projects returns the registered project roots, sorted.
func (w *Watcher) Projects() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.projects))
	for root := range w.projects {
		out = append(out, root)
	}
	sort.Strings(out)
	return out
}

// Run drives the event loop until the context is cancelled. onChange is
// called with the owning project root for every event under a
// registered project; it may be nil.
func (w *Watcher) Run(ctx context.Context, onChange func(projectPath string)) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, onChange)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get("watcher").Error("watcher error", "error", err)
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.paths = make(map[string]bool)
	return w.watcher.Close()
}

// handleEvent maintains the watch set and invalidates the owning
// project's cached size.
func (w *Watcher) handleEvent(event fsnotify.Event, onChange func(string)) {
	switch {
	case event.Op&fsnotify.Create != 0:
		w.handleCreate(event.Name)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.dropWatches(event.Name)
	}

	root, ok := w.owningProject(event.Name)
	if !ok {
		return
	}

	if w.cache != nil {
		if err := w.cache.Invalidate(root); err != nil {
			logging.Get("watcher").Warn("size invalidation failed", "project", root, "error", err)
		}
	}
	if onChange != nil {
		onChange(root)
	}
}

// handleCreate watches directories created under a project, including
// whole subtrees moved in at once.
func (w *Watcher) handleCreate(path string) {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&fs.ModeSymlink != 0 || !info.IsDir() {
		return
	}

	_ = w.addWatch(path)
	_ = filepath.WalkDir(path, func(subpath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // Skip entries with errors
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() && subpath != path {
			_ = w.addWatch(subpath)
		}
		return nil
	})
}

// dropWatches removes watches for a deleted or renamed path.
func (w *Watcher) dropWatches(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.paths[path] {
		_ = w.watcher.Remove(path)
		delete(w.paths, path)
	}
	for child := range w.paths {
		if isSubPath(child, path) {
			_ = w.watcher.Remove(child)
			delete(w.paths, child)
		}
	}
}

// addWatch adds a single directory watch.
func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}
	if err := w.watcher.Add(path); err != nil {
		logging.Get("watcher").Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.paths[path] = true
	return nil
}

// owningProject resolves an event path to its registered project root.
func (w *Watcher) owningProject(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for root := range w.projects {
		if path == root || isSubPath(path, root) {
			return root, true
		}
	}
	return "", false
}

// isSubPath checks if path is under parent directory.
func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
