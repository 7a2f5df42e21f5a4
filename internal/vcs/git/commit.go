package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/nbake/nbake/internal/vcs"
)

// AddAll stages every change in the working directory.
func (g *Git) AddAll(ctx context.Context) error {
	_, err := g.Exec(ctx, "add", ".")
	return err
}

// CommitAll commits all tracked changes with message.
// It returns vcs.ErrNothingToCommit when the tree is clean.
func (g *Git) CommitAll(ctx context.Context, message string) error {
	if message == "" {
		return fmt.Errorf("commit message is required")
	}

	res, err := g.Exec(ctx, "commit", "-a", "-m", message)
	if err != nil && res.Exited && nothingToCommit(res.Output) {
		return fmt.Errorf("%s: %w", g.dir, vcs.ErrNothingToCommit)
	}
	return err
}

// nothingToCommit recognizes git's clean-tree messages, e.g.
// "nothing to commit, working tree clean".
func nothingToCommit(output []byte) bool {
	for _, line := range vcs.ParseLines(output) {
		if strings.HasPrefix(line, "nothing to commit") ||
			strings.HasPrefix(line, "nothing added to commit") ||
			strings.HasPrefix(line, "no changes added to commit") {
			return true
		}
	}
	return false
}
