// Package vcs runs version-control commands on behalf of nbake.
//
// nbake never implements version-control semantics itself. It shells out to
// an external binary (git) through a Runner, always passing the working
// directory explicitly so the process-wide current directory is never
// touched.
//
// # Usage
//
//	r := vcs.NewExecRunner("git", 5*time.Second)
//	res, err := r.Run(ctx, "/home/me/notes", "status", "--porcelain")
//	if errors.Is(err, vcs.ErrTimeout) {
//	    // the process is still running; nbake stopped waiting for it
//	}
//
// # Implementations
//
//   - internal/vcs/git: git verbs (init, identity, add, commit, head) on top of a Runner
package vcs

import (
	"context"
	"time"
)

// MetadataDir is the reserved subdirectory that marks a directory as being
// under version control.
const MetadataDir = ".git"

// Result describes one finished (or abandoned) command invocation.
type Result struct {
	// ExitCode is the process exit code, or -1 when the process did not exit
	// within the wait budget or could not be started.
	ExitCode int

	// Exited is true when the process finished before the wait budget ran out.
	Exited bool

	// Duration is how long nbake waited for the command.
	Duration time.Duration

	// Output is the combined stdout and stderr captured so far.
	Output []byte
}

// Runner executes a version-control command in a working directory.
//
// Run returns a non-nil error when the command could not be started, exited
// non-zero, or did not exit within the runner's wait budget (ErrTimeout).
// The Result is populated in every case.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, dir string, args ...string) (Result, error)

// Run calls f(ctx, dir, args...).
func (f RunnerFunc) Run(ctx context.Context, dir string, args ...string) (Result, error) {
	return f(ctx, dir, args...)
}
