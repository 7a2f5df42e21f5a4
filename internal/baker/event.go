package baker

import "time"

// EventType identifies what an Event reports.
type EventType string

const (
	// EventTrackerDirty is emitted when a Clean tracker sees its first change.
	EventTrackerDirty EventType = "tracker_dirty"
	// EventCommit is emitted after every commit attempt.
	EventCommit EventType = "commit"
)

// Outcome is the result of a commit attempt.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeNothing   Outcome = "nothing"
	OutcomeFailed    Outcome = "failed"
)

// Event describes scheduler activity for one target.
type Event struct {
	Type EventType
	Path string
	Time time.Time

	// Commit events only
	Outcome  Outcome
	Duration time.Duration
	Head     string
	Err      error
}

// Observer receives scheduler events. Observe is called synchronously from
// the scheduler's goroutines and must not block for long.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) {
	f(ev)
}
