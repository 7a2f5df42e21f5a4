package baker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/nbake/nbake/internal/bootstrap"
	"github.com/nbake/nbake/internal/config"
	"github.com/nbake/nbake/internal/tracker"
	"github.com/nbake/nbake/internal/vcs"
	"github.com/nbake/nbake/internal/vcs/git"
	"github.com/nbake/nbake/internal/watch"
)

var (
	// ErrAlreadyRunning is returned by Start on a running Baker.
	ErrAlreadyRunning = errors.New("baker already running")

	// ErrTrackerNotFound indicates a path with no registered tracker.
	ErrTrackerNotFound = errors.New("no tracker for path")
)

// Config holds configuration for the Baker.
type Config struct {
	// Logger for scheduler activity
	Logger *log.Logger

	// Verbose logs every change notification and no-op commit
	Verbose bool

	// Observers receive tracker and commit events
	Observers []Observer

	// Now returns the current time; tests replace it with a fake clock
	Now func() time.Time
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Logger: log.New(os.Stderr, "[baker] ", log.LstdFlags),
		Now:    time.Now,
	}
}

// target is one registered directory and everything the Baker runs for it.
type target struct {
	cfg     config.TargetConfig
	tracker *tracker.PathTracker
	sub     watch.Subscription
}

// Baker schedules debounced commits for a set of directories.
type Baker struct {
	runner       vcs.Runner
	source       watch.Source
	bootstrapper *bootstrap.Bootstrapper
	config       *Config

	// commitMu serializes commits across all targets
	commitMu sync.Mutex

	mu      sync.RWMutex
	targets map[string]*target // path -> target
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Baker that runs git through runner and receives changes from
// source. A nil config uses DefaultConfig.
func New(runner vcs.Runner, source watch.Source, config *Config) *Baker {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Baker{
		runner:       runner,
		source:       source,
		bootstrapper: bootstrap.New(runner),
		config:       config,
		targets:      make(map[string]*target),
	}
}

// Start prepares every target and begins watching and scheduling.
//
// For each target it resolves settings against global, bootstraps the
// repository and subscribes to changes. A target that fails any of these
// steps is logged and skipped. Check tickers start after all targets are
// prepared. Start returns once all
// targets are set up; use Stop to shut down.
func (b *Baker) Start(ctx context.Context, targets []config.Target, global config.Settings) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	resolver := config.NewResolver(global)
	b.targets = make(map[string]*target, len(targets))

	for i := range targets {
		tc := resolver.TargetConfig(&targets[i])

		if _, exists := b.targets[tc.Path]; exists {
			b.config.Logger.Printf("Skipping %s: %v", tc.Path, config.ErrDuplicateTarget)
			continue
		}

		tg, err := b.prepare(runCtx, tc)
		if err != nil {
			b.config.Logger.Printf("Skipping %s: %v", tc.Path, err)
			continue
		}
		b.targets[tc.Path] = tg
	}

	// Scheduling starts only once every target is bootstrapped.
	for _, tg := range b.sortedTargets() {
		b.wg.Add(2)
		go b.watchEvents(runCtx, tg)
		go b.schedule(runCtx, tg)

		b.config.Logger.Printf("Watching %s (check every %s, quiet period %s)",
			tg.tracker.Path(), tg.cfg.CheckInterval, tg.tracker.QuietPeriod())
	}

	if len(b.targets) == 0 {
		b.config.Logger.Println("Warning: no targets started")
	}

	b.running = true
	b.cancel = cancel
	return nil
}

// prepare bootstraps and subscribes one target. Bootstrap holds the commit
// lock like every other git invocation.
func (b *Baker) prepare(ctx context.Context, tc config.TargetConfig) (*target, error) {
	b.commitMu.Lock()
	res, err := b.bootstrapper.EnsureInitialized(ctx, tc)
	b.commitMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("bootstrap failed: %w", err)
	}
	if res.Initialized {
		b.config.Logger.Printf("Initialized repository in %s", tc.Path)
	}
	if res.IgnoreFileCreated {
		b.config.Logger.Printf("Created %s in %s", bootstrap.IgnoreFileName, tc.Path)
	}

	sub, err := b.source.Subscribe(tc.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to watch: %w", err)
	}

	return &target{
		cfg:     tc,
		tracker: tracker.New(tc.Path, tc.QuietPeriod),
		sub:     sub,
	}, nil
}

// Run starts the Baker and blocks until ctx is cancelled, then stops it.
func (b *Baker) Run(ctx context.Context, targets []config.Target, global config.Settings) error {
	if err := b.Start(ctx, targets, global); err != nil {
		return err
	}

	<-ctx.Done()
	b.config.Logger.Println("Shutdown signal received")
	return b.Stop()
}

// Stop cancels all tickers and subscriptions, then commits every tracker that
// is still Dirty. It blocks until those final commits are done.
func (b *Baker) Stop() error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	cancel := b.cancel
	targets := b.sortedTargets()
	b.mu.Unlock()

	b.config.Logger.Println("Stopping baker")

	// Signal shutdown
	cancel()

	for _, tg := range targets {
		if err := tg.sub.Close(); err != nil {
			b.config.Logger.Printf("Error closing watch on %s: %v", tg.cfg.Path, err)
		}
	}

	// Wait for goroutines to finish
	b.wg.Wait()

	for _, tg := range targets {
		stamp, dirty := tg.tracker.PendingStamp()
		if !dirty {
			continue
		}
		b.config.Logger.Printf("Final commit for %s", tg.tracker.Path())
		b.attempt(context.Background(), tg, stamp)
	}

	b.config.Logger.Println("Baker stopped")
	return nil
}

// IsRunning reports whether Start has been called without a matching Stop.
func (b *Baker) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

// Trackers returns a snapshot of every registered tracker, sorted by path.
func (b *Baker) Trackers() []tracker.Snapshot {
	b.mu.RLock()
	targets := b.sortedTargets()
	b.mu.RUnlock()

	out := make([]tracker.Snapshot, 0, len(targets))
	for _, tg := range targets {
		out = append(out, tg.tracker.Snapshot())
	}
	return out
}

// Evaluate commits path if its tracker is Dirty and has been quiet for longer
// than its quiet period. It reports whether a commit was attempted.
func (b *Baker) Evaluate(ctx context.Context, path string) (bool, error) {
	tg, err := b.lookup(path)
	if err != nil {
		return false, err
	}
	return b.evaluate(ctx, tg), nil
}

// Commit stages and commits everything in path under the global commit lock.
// The tracker is left untouched. The returned error is the commit failure,
// if any; a clean tree is not a failure.
func (b *Baker) Commit(ctx context.Context, path string) (Event, error) {
	tg, err := b.lookup(path)
	if err != nil {
		return Event{}, err
	}
	ev := b.commit(ctx, tg)
	b.notify(ev)
	return ev, ev.Err
}

func (b *Baker) lookup(path string) (*target, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tg, ok := b.targets[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrTrackerNotFound)
	}
	return tg, nil
}

// sortedTargets must be called with b.mu held.
func (b *Baker) sortedTargets() []*target {
	out := make([]*target, 0, len(b.targets))
	for _, tg := range b.targets {
		out = append(out, tg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].cfg.Path < out[j].cfg.Path
	})
	return out
}

// watchEvents drains one target's subscription into its tracker.
func (b *Baker) watchEvents(ctx context.Context, tg *target) {
	defer b.wg.Done()

	errs := tg.sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-tg.sub.Events():
			if !ok {
				return
			}
			b.handleEvent(ev)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			b.config.Logger.Printf("Watch error on %s: %v", tg.cfg.Path, err)
		}
	}
}

// handleEvent marks the tracker registered for the event's root dirty.
func (b *Baker) handleEvent(ev watch.Event) {
	tg, err := b.lookup(ev.Root)
	if err != nil {
		b.config.Logger.Printf("Ignoring %s event for %s: %v", ev.Op, ev.Path, err)
		return
	}

	now := b.config.Now()
	if b.config.Verbose {
		b.config.Logger.Printf("File event: %s %s", ev.Op, ev.Path)
	}
	if tg.tracker.MarkDirty(now) {
		b.notify(Event{Type: EventTrackerDirty, Path: tg.tracker.Path(), Time: now})
	}
}

// schedule evaluates one target on every tick of its check interval.
func (b *Baker) schedule(ctx context.Context, tg *target) {
	defer b.wg.Done()

	ticker := time.NewTicker(tg.cfg.CheckInterval)
	defer ticker.Stop()

	// A commit already running when Stop is called must not be cut short.
	commitCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			b.evaluate(commitCtx, tg)
		}
	}
}

func (b *Baker) evaluate(ctx context.Context, tg *target) bool {
	stamp, ok := tg.tracker.Eligible(b.config.Now())
	if !ok {
		return false
	}
	b.attempt(ctx, tg, stamp)
	return true
}

// attempt commits tg and clears its tracker for the episode ending at stamp.
// Success and failure both clear; an event that arrived during the commit
// keeps the tracker Dirty.
func (b *Baker) attempt(ctx context.Context, tg *target, stamp time.Time) {
	ev := b.commit(ctx, tg)
	if !tg.tracker.Clear(stamp) && b.config.Verbose {
		b.config.Logger.Printf("Changes arrived in %s during commit", tg.cfg.Path)
	}
	b.notify(ev)
}

// commit runs add and commit for tg while holding the global commit lock.
func (b *Baker) commit(ctx context.Context, tg *target) Event {
	b.commitMu.Lock()
	defer b.commitMu.Unlock()

	ev := Event{Type: EventCommit, Path: tg.cfg.Path, Time: b.config.Now()}
	start := time.Now()

	g := git.New(b.runner, tg.cfg.Path)
	err := g.AddAll(ctx)
	if err == nil {
		err = g.CommitAll(ctx, tg.cfg.CommitMessage)
	}

	switch {
	case err == nil:
		ev.Outcome = OutcomeCommitted
		head, herr := g.Head()
		if herr != nil && b.config.Verbose {
			b.config.Logger.Printf("Could not read HEAD in %s: %v", tg.cfg.Path, herr)
		}
		ev.Head = head
		b.config.Logger.Printf("Committed %s %s", tg.cfg.Path, shortHash(head))

	case errors.Is(err, vcs.ErrNothingToCommit):
		ev.Outcome = OutcomeNothing
		if b.config.Verbose {
			b.config.Logger.Printf("Nothing to commit in %s", tg.cfg.Path)
		}

	default:
		ev.Outcome = OutcomeFailed
		ev.Err = err
		if vcs.IsFatal(err) {
			b.config.Logger.Printf("Error: cannot run git for %s (check gitPath): %v", tg.cfg.Path, err)
		} else {
			b.config.Logger.Printf("Commit failed for %s: %v", tg.cfg.Path, err)
		}
	}

	ev.Duration = time.Since(start)
	return ev
}

func (b *Baker) notify(ev Event) {
	for _, o := range b.config.Observers {
		o.Observe(ev)
	}
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
