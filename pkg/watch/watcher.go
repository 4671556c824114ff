// Package watch re-runs extraction when a library's sources change.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before a rescan.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Ignore holds extra doublestar patterns matched against paths relative
	// to the root. node_modules, .git and dist are always ignored.
	Ignore []string
}

// RescanFunc is called after a debounced batch of changes with the changed
// paths, sorted. Calls never overlap.
type RescanFunc func(changed []string)

// Watcher watches a library root and its subdirectories.
//
// Any change to a TypeScript or JavaScript source starts the debounce
// timer; further changes restart it. When it fires, the batch of changed
// paths is handed to the RescanFunc. Rescans are full, not incremental.
type Watcher struct {
	watcher *fsnotify.Watcher
	root    string
	rescan  RescanFunc
	opts    Options
	logger  *slog.Logger

	// Debouncing
	pendingMu sync.Mutex
	pending   map[string]struct{}
	timer     *time.Timer

	rescanMu sync.Mutex
	rescans  int

	// Lifecycle
	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex
	done     chan struct{}
}

// New creates a watcher for root. Call Start to begin watching.
func New(root string, rescan RescanFunc, opts Options, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	for _, p := range opts.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern: %s", p)
		}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		watcher:  w,
		root:     abs,
		rescan:   rescan,
		opts:     opts,
		logger:   logger,
		pending:  make(map[string]struct{}),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start adds watches for the root and its subdirectories and starts the
// event loop in the background.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return errors.New("watcher already stopped")
	}
	w.mu.Unlock()

	if err := w.watcher.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	if err := w.addTree(w.root); err != nil {
		return err
	}

	w.logger.Info("watching library", "root", w.root, "debounce_ms", w.opts.Debounce.Milliseconds())
	go w.eventLoop()
	return nil
}

// addTree watches dir's subdirectories, skipping ignored ones.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() || path == w.root {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Stop stops watching and cancels a pending rescan. It is idempotent and
// waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopChan)
	w.mu.Unlock()

	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	err := w.watcher.Close()
	w.logger.Info("watcher stopped")
	return err
}

// Done is closed when the event loop exits.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// Rescans returns how many rescans have completed.
func (w *Watcher) Rescans() int {
	w.rescanMu.Lock()
	defer w.rescanMu.Unlock()
	return w.rescans
}

func (w *Watcher) eventLoop() {
	defer close(w.done)
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.ignored(event.Name) {
		return
	}

	// New directories (a component added) need their own watch. Files are
	// already covered by their parent directory's watch.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err == nil {
				_ = w.addTree(event.Name)
			}
			return
		}
	}

	if !IsSourceFile(event.Name) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.logger.Debug("source changed", "op", event.Op.String(), "file", event.Name)
	w.schedule(event.Name)
}

// schedule records path and restarts the debounce timer.
func (w *Watcher) schedule(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, w.fire)
}

func (w *Watcher) fire() {
	w.pendingMu.Lock()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	w.pendingMu.Unlock()

	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)

	w.rescanMu.Lock()
	defer w.rescanMu.Unlock()

	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}

	start := time.Now()
	w.rescan(changed)
	w.rescans++
	w.logger.Info("rescan complete", "changed", len(changed), "ms", time.Since(start).Milliseconds())
}

// ignored reports whether path is under an always-ignored directory or
// matches an ignore pattern.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		switch part {
		case "node_modules", ".git", "dist":
			return true
		}
	}
	for _, p := range w.opts.Ignore {
		if m, _ := doublestar.Match(p, rel); m {
			return true
		}
	}
	return false
}

// IsSourceFile reports whether a change to path can affect extraction.
func IsSourceFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".mts", ".cts", ".js", ".jsx":
		return true
	}
	return false
}
