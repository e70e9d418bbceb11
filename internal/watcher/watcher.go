// Package watcher reports debounced changes below a directory tree. The server
// uses it to rescan the logo directory while it runs.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codecraftpk/craftsite/internal/errors"
	"github.com/codecraftpk/craftsite/internal/logging"
	"github.com/codecraftpk/craftsite/internal/logos"
	"github.com/codecraftpk/craftsite/internal/schedule"
)

// DefaultDebounce groups the bursts editors and copy tools produce.
const DefaultDebounce = 300 * time.Millisecond

// FileWatcher watches a tree and hands batches of changes to its handlers.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	logger    logging.Logger
	filters   []FileFilter
	handlers  []ChangeHandler
	mutex     sync.RWMutex
}

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type    EventType
	Path    string
	IsDir   bool
	ModTime time.Time
	Size    int64
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter determines if a file should be reported.
type FileFilter func(path string) bool

// ChangeHandler handles one debounced batch.
type ChangeHandler func(ctx context.Context, events []ChangeEvent) error

// NewFileWatcher creates a watcher whose batches close debounceDelay after
// the last change, measured on clock.
func NewFileWatcher(clock schedule.Clock, debounceDelay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeAssetDiscovery, "failed to create file watcher", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if debounceDelay <= 0 {
		debounceDelay = DefaultDebounce
	}

	return &FileWatcher{
		watcher:   w,
		debouncer: NewDebouncer(clock, debounceDelay, 10),
		logger:    logger.WithComponent("watcher"),
	}, nil
}

// AddFilter adds a file filter. Every filter must accept a file for it to be
// reported; directories bypass the filters.
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler adds a change handler
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddRecursive watches root and every directory below it.
func (fw *FileWatcher) AddRecursive(root string) error {
	cleanRoot, err := validatePath(root)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidPath, err.Error())
	}

	return filepath.WalkDir(cleanRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != cleanRoot && isHidden(path) {
			return filepath.SkipDir
		}
		return fw.watcher.Add(path)
	})
}

// validatePath cleans path and rejects traversal and non-directories.
func validatePath(path string) (string, error) {
	if strings.Contains(filepath.ToSlash(path), "../") || strings.HasSuffix(path, "..") {
		return "", fmt.Errorf("path contains directory traversal: %s", path)
	}
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return "", fmt.Errorf("cannot watch %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", path)
	}
	return cleanPath, nil
}

// Run processes events until ctx ends, then closes the watcher.
func (fw *FileWatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fw.processEvents(ctx)
	}()

	fw.watchLoop(ctx)
	fw.debouncer.Stop()
	err := fw.watcher.Close()
	wg.Wait()
	return err
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(ctx, event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "File watcher error")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	info, statErr := os.Stat(event.Name)
	isDir := statErr == nil && info.IsDir()

	if isDir {
		if isHidden(event.Name) {
			return
		}
		if event.Op.Has(fsnotify.Create) {
			if err := fw.AddRecursive(event.Name); err != nil {
				fw.logger.Warn(ctx, err, "Failed to watch new directory", "path", event.Name)
			}
		}
	} else {
		fw.mutex.RLock()
		filters := fw.filters
		fw.mutex.RUnlock()
		for _, filter := range filters {
			if !filter(event.Name) {
				return
			}
		}
	}

	change := ChangeEvent{Type: eventType(event.Op), Path: event.Name, IsDir: isDir}
	if statErr == nil {
		change.ModTime = info.ModTime()
		change.Size = info.Size()
	}
	fw.debouncer.Add(change)
}

func eventType(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create):
		return EventTypeCreated
	case op.Has(fsnotify.Write):
		return EventTypeModified
	case op.Has(fsnotify.Remove):
		return EventTypeDeleted
	case op.Has(fsnotify.Rename):
		return EventTypeRenamed
	default:
		return EventTypeModified
	}
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-fw.debouncer.Output():
			fw.mutex.RLock()
			handlers := fw.handlers
			fw.mutex.RUnlock()

			for _, handler := range handlers {
				if err := handler(ctx, events); err != nil {
					fw.logger.Warn(ctx, err, "File watcher handler error", "events", len(events))
				}
			}
		}
	}
}

// Debouncer groups rapid changes into one batch per quiet period.
type Debouncer struct {
	clock   schedule.Clock
	delay   time.Duration
	output  chan []ChangeEvent
	mutex   sync.Mutex
	timer   schedule.Handle
	pending map[string]ChangeEvent
}

// NewDebouncer creates a debouncer that buffers up to backlog batches.
func NewDebouncer(clock schedule.Clock, delay time.Duration, backlog int) *Debouncer {
	if clock == nil {
		clock = schedule.Real()
	}
	return &Debouncer{
		clock:   clock,
		delay:   delay,
		output:  make(chan []ChangeEvent, backlog),
		pending: make(map[string]ChangeEvent),
	}
}

// Output delivers the batches.
func (d *Debouncer) Output() <-chan []ChangeEvent {
	return d.output
}

// Add records event and restarts the quiet period. A later event for the
// same path replaces an earlier one.
func (d *Debouncer) Add(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending[event.Path] = event
	schedule.Stop(d.timer)
	d.timer = d.clock.After(d.delay, d.flush)
}

// Stop drops any pending batch.
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	schedule.Stop(d.timer)
	d.timer = nil
	d.pending = make(map[string]ChangeEvent)
}

func (d *Debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.timer = nil
	if len(d.pending) == 0 {
		return
	}

	events := make([]ChangeEvent, 0, len(d.pending))
	for _, event := range d.pending {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	d.pending = make(map[string]ChangeEvent)

	// A full backlog already holds a batch that will trigger the same work.
	select {
	case d.output <- events:
	default:
	}
}

// ImageFilter accepts logo image files.
func ImageFilter(path string) bool {
	return logos.IsImage(path)
}

// NoHiddenFilter rejects dot files such as editor swap files.
func NoHiddenFilter(path string) bool {
	return !isHidden(path)
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// Close releases the watcher without running it.
func (fw *FileWatcher) Close() error {
	fw.debouncer.Stop()
	return fw.watcher.Close()
}
