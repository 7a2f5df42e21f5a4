// Package git provides the git verbs nbake needs on top of a vcs.Runner.
//
// Every verb runs against a single working directory passed explicitly to
// the runner. Read-only inspection (the HEAD commit) goes through go-git so
// it needs no external process.
package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/nbake/nbake/internal/vcs"
)

// Git runs git commands in one directory.
type Git struct {
	runner vcs.Runner

	// dir is the repository working directory
	dir string
}

// New creates a Git for dir using runner to execute commands.
func New(runner vcs.Runner, dir string) *Git {
	return &Git{runner: runner, dir: dir}
}

// IsInVCS returns true if the directory already holds a repository.
func (g *Git) IsInVCS() bool {
	return vcs.IsUnderVersionControl(g.dir)
}

// Exec executes a raw git command
func (g *Git) Exec(ctx context.Context, args ...string) (vcs.Result, error) {
	res, err := g.runner.Run(ctx, g.dir, args...)
	if err != nil {
		return res, fmt.Errorf("git %s in %s: %w", strings.Join(args, " "), g.dir, err)
	}
	return res, nil
}
