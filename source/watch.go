package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Files are the local input files to watch.
	Files []string
	// DebounceDelay collects bursts of writes into one event. Defaults to 500ms.
	DebounceDelay time.Duration
	Logger        *slog.Logger
}

// ChangeEvent lists the watched files modified since the previous event.
type ChangeEvent struct {
	Files []string
	At    time.Time
}

// Watcher reports changes to local input files. Spreadsheet editors usually
// replace a file on save, so the parent directories are watched and events
// are filtered by file name.
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	files   map[string]bool

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	events chan ChangeEvent
}

// NewWatcher creates a watcher for the configured files.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if len(config.Files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay == 0 {
		config.DebounceDelay = 500 * time.Millisecond
	}

	files := make(map[string]bool, len(config.Files))
	for _, f := range config.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		files[abs] = true
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		files:   files,
		pending: make(map[string]fsnotify.Op),
		events:  make(chan ChangeEvent, 8),
	}, nil
}

// Events returns the channel of change events. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan ChangeEvent {
	return w.events
}

// Start adds the watches and processes events until ctx is done. If a
// watch cannot be added the watcher is closed and Events is closed.
func (w *Watcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			w.watcher.Close()
			close(w.events)
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.logger.Debug("Watching directory", "path", dir)
	}

	go w.processEvents(ctx)

	w.logger.Info("Input watcher started",
		"files", len(w.files),
		"debounce", w.config.DebounceDelay)
	return nil
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()
	defer close(w.events)
	defer w.watcher.Close()

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
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	path, err := filepath.Abs(event.Name)
	if err != nil || !w.files[path] {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Input change detected", "path", path, "op", event.Op.String())
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	files := make([]string, 0, len(w.pending))
	for path := range w.pending {
		files = append(files, path)
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	sort.Strings(files)
	select {
	case w.events <- ChangeEvent{Files: files, At: time.Now()}:
	case <-ctx.Done():
	}
}
