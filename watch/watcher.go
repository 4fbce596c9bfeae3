// Package watch reruns card generation when its inputs change.
package watch

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config configures the file watcher.
type Config struct {
	// Paths are files or doublestar patterns to watch.
	Paths []string

	// DebounceDelay is how long to wait for more changes before reporting.
	DebounceDelay time.Duration

	// Logger for logging events.
	Logger *slog.Logger
}

// Event reports a settled batch of changes.
type Event struct {
	// Paths are the changed files, sorted.
	Paths []string
}

// Watcher watches card inputs and emits debounced change events.
type Watcher struct {
	config   Config
	patterns []string
	recurse  bool
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	events   chan Event
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWatcher creates a watcher for config.Paths.
func NewWatcher(config Config) (*Watcher, error) {
	patterns, err := absPatterns(config.Paths)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	debounce := config.DebounceDelay
	if debounce == 0 {
		debounce = 200 * time.Millisecond
	}

	return &Watcher{
		config:   config,
		patterns: patterns,
		recurse:  slices.ContainsFunc(patterns, func(p string) bool { return strings.Contains(p, "**") }),
		watcher:  fsw,
		logger:   logger,
		debounce: debounce,
		pending:  make(map[string]fsnotify.Op),
		events:   make(chan Event, 16),
	}, nil
}

// Events returns the channel of change events. It is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start adds the watches and begins processing file system events.
func (w *Watcher) Start(ctx context.Context) error {
	dirs, err := watchDirs(w.patterns)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := w.watcher.Add(d); err != nil {
			return err
		}
		w.logger.Debug("Watching directory", "path", d)
	}

	w.wg.Add(1)
	go w.processEvents(ctx)

	w.logger.Info("File watcher started",
		"paths", strings.Join(w.config.Paths, ","),
		"debounce", w.debounce)

	return nil
}

// Stop stops the watcher and closes the event channel.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.watcher.Close()
		w.wg.Wait()
		close(w.events)
	})
	return err
}

// Run starts the watcher and calls fn for every change until ctx is done.
// Errors from fn are logged and do not stop the watch.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context, Event) error) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.events:
			if !ok {
				return nil
			}
			w.logger.Info("Inputs changed", "paths", strings.Join(ev.Paths, ","))
			if err := fn(ctx, ev); err != nil {
				w.logger.Error("Regeneration failed", "error", err)
			}
		}
	}
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	// Recursive patterns pick up directories created after Start.
	if w.recurse && event.Has(fsnotify.Create) && isDir(event.Name) && !skipDir(event.Name) {
		if err := w.watcher.Add(event.Name); err != nil {
			w.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
		}
		return
	}

	if !matches(w.patterns, event.Name) {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected", "path", event.Name, "op", event.Op.String())
}

// flushPending reports the changes accumulated since the last tick.
func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	sort.Strings(paths)
	select {
	case w.events <- Event{Paths: paths}:
	default:
		w.logger.Warn("Event channel full, dropping change", "paths", strings.Join(paths, ","))
	}
}
