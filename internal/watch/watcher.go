// Package watch delivers "something changed under directory D" events.
//
// The scheduler depends only on the Source and Subscription interfaces; the
// fsnotify-backed FileWatcher is the production implementation.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/nbake/nbake/internal/vcs"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	// OpChanged indicates an existing entry was modified.
	OpChanged EventOp = iota
	// OpCreated indicates a new entry was created.
	OpCreated
	// OpDeleted indicates an entry was removed.
	OpDeleted
	// OpRenamed indicates an entry was renamed or moved away.
	OpRenamed
)

// String returns a human-readable representation of the operation.
func (op EventOp) String() string {
	switch op {
	case OpChanged:
		return "changed"
	case OpCreated:
		return "created"
	case OpDeleted:
		return "deleted"
	case OpRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Event is a change observed under a watched directory.
type Event struct {
	// Root is the watched directory the event belongs to.
	Root string
	// Path is the absolute path of the entry that changed.
	Path string
	// Op is the operation that occurred.
	Op EventOp
}

// Subscription is an active watch on one directory tree.
type Subscription interface {
	// Events is closed when the subscription is closed.
	Events() <-chan Event
	// Errors is closed when the subscription is closed.
	Errors() <-chan error
	// Close stops delivery and releases the watch.
	Close() error
}

// Source creates subscriptions.
type Source interface {
	Subscribe(dir string) (Subscription, error)
}

// FSSource is the fsnotify-backed Source.
type FSSource struct{}

// Subscribe starts a FileWatcher on dir.
func (FSSource) Subscribe(dir string) (Subscription, error) {
	fw, err := NewFileWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Start(dir); err != nil {
		_ = fw.Stop()
		return nil, err
	}
	return fw, nil
}

// FileWatcher watches a directory tree for changes.
// Subdirectories are watched too, including ones created after Start.
// Anything inside the repository metadata directory is ignored.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	events  chan Event
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	stopped bool
	root    string
}

// NewFileWatcher creates a new FileWatcher instance.
// The watcher must be started with Start() before it will emit events.
func NewFileWatcher() (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching root and every directory below it.
func (fw *FileWatcher) Start(root string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return fmt.Errorf("watcher already running")
	}
	if fw.stopped {
		return fmt.Errorf("watcher already stopped")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	fw.root = abs

	if err := fw.addTree(abs); err != nil {
		return fmt.Errorf("failed to watch %s: %w", abs, err)
	}

	fw.running = true
	fw.wg.Add(1)
	go fw.processEvents()

	return nil
}

// Stop stops watching for file system events and cleans up resources.
// It blocks until the event processing goroutine has exited.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if fw.stopped {
		fw.mu.Unlock()
		return nil
	}
	wasRunning := fw.running
	fw.running = false
	fw.stopped = true
	fw.mu.Unlock()

	// Signal shutdown
	close(fw.done)

	// Close the underlying watcher (this will unblock the event loop)
	err := fw.watcher.Close()

	// Wait for event processing to finish
	if wasRunning {
		fw.wg.Wait()
	}

	// Close channels
	close(fw.events)
	close(fw.errors)

	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// Close implements Subscription.
func (fw *FileWatcher) Close() error {
	return fw.Stop()
}

// Events returns the channel that emits Event notifications.
// This channel is closed when the watcher is stopped.
func (fw *FileWatcher) Events() <-chan Event {
	return fw.events
}

// Errors returns the channel that emits error notifications.
// This channel is closed when the watcher is stopped.
func (fw *FileWatcher) Errors() <-chan error {
	return fw.errors
}

// IsRunning returns true if the watcher is currently running.
func (fw *FileWatcher) IsRunning() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.running
}

// addTree adds dir and all its subdirectories, skipping metadata directories.
func (fw *FileWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// The root must be watchable; vanished subdirectories are not fatal.
			if p == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if vcs.IsIgnoredPath(p) {
			return filepath.SkipDir
		}
		return fw.watcher.Add(p)
	})
}

// processEvents is the main event loop that converts fsnotify events.
func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			ev, ok := fw.convertEvent(event)
			if !ok {
				continue
			}

			// New directories need their own watches.
			if ev.Op == OpCreated {
				if info, err := os.Stat(ev.Path); err == nil && info.IsDir() {
					if err := fw.addTree(ev.Path); err != nil {
						fw.sendError(err)
					}
				}
			}

			select {
			case fw.events <- ev:
			case <-fw.done:
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.sendError(err)
		}
	}
}

// sendError delivers err without blocking event processing; errors are
// dropped when nobody is draining the channel.
func (fw *FileWatcher) sendError(err error) {
	if errors.Is(err, fsnotify.ErrClosed) {
		return
	}
	select {
	case fw.errors <- err:
	default:
	}
}

// convertEvent converts an fsnotify event to an Event.
// Returns (Event{}, false) if the event should be ignored.
func (fw *FileWatcher) convertEvent(event fsnotify.Event) (Event, bool) {
	if vcs.IsIgnoredPath(event.Name) {
		return Event{}, false
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreated
	case event.Has(fsnotify.Write):
		op = OpChanged
	case event.Has(fsnotify.Remove):
		op = OpDeleted
	case event.Has(fsnotify.Rename):
		op = OpRenamed
	default:
		// Ignore chmod and other events
		return Event{}, false
	}

	return Event{Root: fw.root, Path: event.Name, Op: op}, true
}
