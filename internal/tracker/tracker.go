// Package tracker implements the per-directory dirty/clean state machine.
//
// A PathTracker starts Clean. Any change event moves it to Dirty and stamps
// the event time; further events refresh the stamp. Once the tracker has been
// quiet for longer than its quiet period it becomes eligible for a commit, and
// finishing that commit (successfully or not) returns it to Clean.
//
// All methods are safe for concurrent use. Event delivery and evaluation run
// on different goroutines and may interleave arbitrarily.
package tracker

import (
	"sync"
	"time"
)

// State is the tracker state.
type State int

const (
	// Clean means no change has been observed since the last commit attempt.
	Clean State = iota
	// Dirty means at least one change is waiting to be committed.
	Dirty
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of a tracker's state.
type Snapshot struct {
	Path        string
	State       State
	LastEvent   time.Time
	QuietPeriod time.Duration
}

// PathTracker tracks change activity for one watched directory.
type PathTracker struct {
	path        string
	quietPeriod time.Duration

	mu        sync.Mutex
	dirty     bool
	lastEvent time.Time
}

// New creates a Clean tracker for path. The quiet period is fixed for the
// tracker's lifetime.
func New(path string, quietPeriod time.Duration) *PathTracker {
	return &PathTracker{path: path, quietPeriod: quietPeriod}
}

// Path returns the tracked directory.
func (t *PathTracker) Path() string {
	return t.path
}

// QuietPeriod returns the minimum quiet time before a commit.
func (t *PathTracker) QuietPeriod() time.Duration {
	return t.quietPeriod
}

// MarkDirty records a change observed at now. It reports whether the tracker
// was Clean before the call, i.e. whether a new dirty episode started.
func (t *PathTracker) MarkDirty(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	started := !t.dirty
	t.dirty = true
	t.lastEvent = now
	return started
}

// Eligible reports whether the tracker is Dirty and has been quiet for longer
// than its quiet period at now. When eligible it also returns the event stamp
// that must be passed to Clear once the commit attempt completes.
func (t *PathTracker) Eligible(now time.Time) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.dirty {
		return time.Time{}, false
	}
	if now.Sub(t.lastEvent) <= t.quietPeriod {
		return time.Time{}, false
	}
	return t.lastEvent, true
}

// PendingStamp returns the current event stamp if the tracker is Dirty,
// regardless of the quiet period. Used for the final commit on shutdown.
func (t *PathTracker) PendingStamp() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.dirty {
		return time.Time{}, false
	}
	return t.lastEvent, true
}

// Clear returns the tracker to Clean if no event arrived after stamp.
// If an event arrived while the commit was running, the tracker stays Dirty
// so the new changes get their own commit. It reports whether it cleared.
func (t *PathTracker) Clear(stamp time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.dirty || !t.lastEvent.Equal(stamp) {
		return false
	}
	t.dirty = false
	return true
}

// State returns the current state.
func (t *PathTracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dirty {
		return Dirty
	}
	return Clean
}

// Snapshot returns a copy of the tracker's state.
func (t *PathTracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		Path:        t.path,
		State:       Clean,
		LastEvent:   t.lastEvent,
		QuietPeriod: t.quietPeriod,
	}
	if t.dirty {
		s.State = Dirty
	}
	return s
}
