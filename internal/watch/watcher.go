// Package watch reloads the in-memory dataset when its cache file changes on disk,
// for example after another process refreshed it.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gsabyss/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc is called once a watched file has settled.
type ChangeFunc func(ctx context.Context, path string)

// FileWatcher watches a set of files by watching their directories. Atomic replaces
// (write to temp, rename over) show up as create events on the target name.
type FileWatcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	files       map[string]bool // cleaned absolute paths
	onChange    ChangeFunc
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Reloads       int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
}

// New creates a watcher for files. onChange runs on the watcher goroutine.
func New(onChange ChangeFunc, files ...string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:     watcher,
		files:       make(map[string]bool, len(files)),
		onChange:    onChange,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond, // Debounce rapid saves
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		fw.files[filepath.Clean(abs)] = true
	}
	return fw, nil
}

// SetDebounce changes how long a file must be quiet before onChange runs.
func (fw *FileWatcher) SetDebounce(d time.Duration) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.debounceDur = d
}

// Start begins watching. It does not block.
func (fw *FileWatcher) Start(ctx context.Context) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = true
	fw.mu.Unlock()

	dirs := make(map[string]bool)
	for f := range fw.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logging.WatchWarn("failed to create watched dir %s: %v (continuing anyway)", dir, err)
		}
		if err := fw.watcher.Add(dir); err != nil {
			logging.WatchWarn("initial watch failed for %s: %v", dir, err)
			continue
		}
		logging.Watch("watching directory: %s", dir)
	}

	go fw.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (fw *FileWatcher) Stop() {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return
	}
	fw.running = false
	fw.mu.Unlock()

	close(fw.stopCh)
	<-fw.doneCh

	if err := fw.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("error closing watcher: %v", err)
	}
	logging.Watch("watcher stopped")
}

func (fw *FileWatcher) run(ctx context.Context) {
	defer close(fw.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("context cancelled")
			return

		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("watcher error: %v", err)
			fw.mu.Lock()
			fw.stats.Errors++
			fw.mu.Unlock()

		case <-debounceTicker.C:
			fw.processDebouncedEvents(ctx)
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if !fw.files[path] {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	default:
		return // removals and chmod leave the loaded data in place
	}

	fw.mu.Lock()
	fw.stats.Events++
	fw.stats.LastEventTime = time.Now()
	fw.stats.LastEventPath = path
	fw.stats.LastEventType = eventType
	fw.debounceMap[path] = time.Now()
	fw.mu.Unlock()

	logging.Get(logging.CategoryWatch).Debug("%s event for %s", eventType, path)
}

func (fw *FileWatcher) processDebouncedEvents(ctx context.Context) {
	fw.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range fw.debounceMap {
		if now.Sub(at) >= fw.debounceDur {
			settled = append(settled, path)
			delete(fw.debounceMap, path)
		}
	}
	fw.stats.Reloads += len(settled)
	fw.mu.Unlock()

	for _, path := range settled {
		logging.Watch("file settled, reloading: %s", path)
		fw.onChange(ctx, path)
	}
}

// GetStats returns the current watcher statistics.
func (fw *FileWatcher) GetStats() Stats {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.stats
}

// IsWatching returns true if the watcher is currently running.
func (fw *FileWatcher) IsWatching() bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.running
}
