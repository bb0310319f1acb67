// Package watcher re-runs work when scenario scripts change on disk.
package watcher

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher calls a handler for each changed script, collapsing bursts of
// writes into one call per path
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	paths   map[string]struct{}
	pending map[string]*time.Timer
}

// New creates a watcher. A nil logger uses log.Default.
func New(debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		fs:       fs,
		debounce: debounce,
		logger:   logger,
		paths:    make(map[string]struct{}),
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Add registers scripts. Their parent directories are watched so that
// editors replacing the file by rename are still noticed.
func (w *Watcher) Add(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		if err := w.fs.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", abs, err)
		}
		w.paths[abs] = struct{}{}
	}
	return nil
}

// Run delivers change notifications to handle until ctx is done or the
// watcher is closed. handle is never called concurrently for the same path.
func (w *Watcher) Run(ctx context.Context, handle func(path string)) error {
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(event.Name, handle)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("watcher: %v", err)
		}
	}
}

func (w *Watcher) schedule(name string, handle func(string)) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[abs]; !ok {
		return
	}
	if timer, ok := w.pending[abs]; ok {
		timer.Stop()
	}
	w.pending[abs] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, abs)
		w.mu.Unlock()
		handle(abs)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// Close releases the underlying notifier
func (w *Watcher) Close() error {
	return w.fs.Close()
}
