// Package baker provides the change scheduler that turns filesystem activity
// into debounced commits.
//
// # Architecture
//
// For every configured target the Baker owns:
//
//   - a tracker.PathTracker holding the Clean/Dirty state and last event time
//   - a goroutine draining the target's watch.Subscription
//   - a goroutine driving a ticker at the target's check interval
//
// Each tick evaluates the tracker. Once it has been quiet for longer than its
// quiet period, the Baker stages and commits everything in the target through
// the vcs.Runner, then clears the tracker. Commits are serialized across all
// targets by a single lock.
//
// # Usage
//
//	runner := vcs.NewExecRunner("git", 5*time.Second)
//	b := baker.New(runner, watch.FSSource{}, baker.DefaultConfig())
//
//	if err := b.Start(ctx, doc.Targets, doc.Settings); err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Stop()
//
// Run combines the two and blocks until ctx is cancelled.
//
// # Shutdown
//
// Stop cancels every ticker, closes every subscription and then gives each
// tracker that is still Dirty one final synchronous commit.
package baker
