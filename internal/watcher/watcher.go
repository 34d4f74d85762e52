// Package watcher reports filesystem changes under the watched project
// roots in debounced batches.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"starterkit/internal/logging"
)

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

// Event represents a file system event
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// ChangeHandler is called with each debounced batch of events
type ChangeHandler func(events []Event)

// Config contains watcher configuration
type Config struct {
	DebounceMs     int      `json:"debounceMs" mapstructure:"debounceMs"`
	IgnorePatterns []string `json:"ignorePatterns" mapstructure:"ignorePatterns"`
}

// DefaultConfig returns the default watcher configuration
func DefaultConfig() Config {
	return Config{
		DebounceMs: 500,
		IgnorePatterns: []string{
			"*.log",
			"*.tmp",
			"*.swp",
			".git/**",
			".starterkit/**",
			"node_modules/**",
			"vendor/**",
			"storage/**",
		},
	}
}

// Watcher watches project trees for changes
type Watcher struct {
	config  Config
	logger  *logging.Logger
	handler ChangeHandler
	fsw     *fsnotify.Watcher
	batch   *BatchDebouncer

	mu    sync.RWMutex
	roots []string
	dirs  map[string]bool
}

// New creates a watcher. Nothing is watched until Watch is called.
func New(config Config, logger *logging.Logger, handler ChangeHandler) (*Watcher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		config:  config,
		logger:  logger,
		handler: handler,
		fsw:     fsw,
		dirs:    make(map[string]bool),
	}
	w.batch = NewBatchDebouncer(time.Duration(config.DebounceMs)*time.Millisecond, w.emit)
	return w, nil
}

// Watch adds root and every non-ignored directory below it.
func (w *Watcher) Watch(root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.roots = append(w.roots, root)
	w.mu.Unlock()

	if err := w.addTree(root); err != nil {
		return err
	}

	w.logger.Info("Watching project", map[string]interface{}{
		"path":        root,
		"directories": len(w.WatchedDirs()),
	})
	return nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subtrees are skipped, the root must be readable
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.IsIgnored(w.relative(path)) {
			return filepath.SkipDir
		}
		return w.addDir(path)
	})
}

func (w *Watcher) addDir(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dirs[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		return err
	}
	w.dirs[path] = true
	return nil
}

// Run dispatches events until ctx is done, then closes the watcher.
// Pending events are emitted before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.batch.Flush()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("Failed to close watcher", map[string]interface{}{"error": err.Error()})
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// lost events; report the roots as modified so the handler resyncs
				for _, root := range w.Roots() {
					w.batch.Add(Event{Type: EventModify, Path: root, Timestamp: time.Now()})
				}
				continue
			}
			w.logger.Warn("Watcher error", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if w.IsIgnored(w.relative(ev.Name)) {
		return
	}

	var typ EventType
	switch {
	case ev.Has(fsnotify.Create):
		typ = EventCreate
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Debug("Failed to watch new directory", map[string]interface{}{
					"path":  ev.Name,
					"error": err.Error(),
				})
			}
		}
	case ev.Has(fsnotify.Write):
		typ = EventModify
	case ev.Has(fsnotify.Remove):
		typ = EventDelete
		w.forget(ev.Name)
	case ev.Has(fsnotify.Rename):
		typ = EventRename
		w.forget(ev.Name)
	default:
		return
	}

	w.batch.Add(Event{Type: typ, Path: ev.Name, Timestamp: time.Now()})
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.dirs, path)
}

func (w *Watcher) emit(events []Event) {
	w.logger.Debug("Changes detected", map[string]interface{}{
		"eventCount": len(events),
	})
	if w.handler != nil {
		w.handler(events)
	}
}

// relative returns path relative to the watched root containing it, in
// slash form.
func (w *Watcher) relative(path string) string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, root := range w.roots {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

// IsIgnored checks if a root-relative path matches ignore patterns
func (w *Watcher) IsIgnored(path string) bool {
	for _, pattern := range w.config.IgnorePatterns {
		matched, _ := filepath.Match(pattern, filepath.Base(path))
		if matched {
			return true
		}

		// prefix/** matches the prefix directory and everything below it
		if strings.Contains(pattern, "**") {
			parts := strings.Split(pattern, "**")
			if len(parts) == 2 {
				prefix := strings.TrimSuffix(parts[0], "/")
				if (path == prefix || strings.HasPrefix(path, prefix+"/")) &&
					(parts[1] == "" || strings.HasSuffix(path, strings.TrimPrefix(parts[1], "/"))) {
					return true
				}
			}
		}
	}
	return false
}

// Roots returns the watched project roots
func (w *Watcher) Roots() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.roots...)
}

// WatchedDirs returns every watched directory, sorted
func (w *Watcher) WatchedDirs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	dirs := make([]string, 0, len(w.dirs))
	for path := range w.dirs {
		dirs = append(dirs, path)
	}
	sort.Strings(dirs)
	return dirs
}

// Stats returns watcher statistics
func (w *Watcher) Stats() map[string]interface{} {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return map[string]interface{}{
		"roots":          len(w.roots),
		"watchedDirs":    len(w.dirs),
		"debounceMs":     w.config.DebounceMs,
		"ignorePatterns": len(w.config.IgnorePatterns),
		"pendingEvents":  w.batch.EventCount(),
	}
}
