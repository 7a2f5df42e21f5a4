// Package bootstrap makes sure a watched directory is a git repository before
// nbake starts tracking it.
package bootstrap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nbake/nbake/internal/config"
	"github.com/nbake/nbake/internal/vcs"
	"github.com/nbake/nbake/internal/vcs/git"
)

// IgnoreFileName is the ignore-list artifact created at the target root.
const IgnoreFileName = ".gitignore"

// Result reports what EnsureInitialized did.
type Result struct {
	// Initialized is true when a new repository was created.
	Initialized bool

	// IgnoreFileCreated is true when the ignore file was written.
	IgnoreFileCreated bool
}

// Bootstrapper prepares target directories. It is safe to call repeatedly on
// the same directory: init runs only when metadata is missing, identity
// configuration is idempotent and an existing ignore file is never touched.
type Bootstrapper struct {
	runner vcs.Runner
}

// New returns a Bootstrapper that runs git through runner.
func New(runner vcs.Runner) *Bootstrapper {
	return &Bootstrapper{runner: runner}
}

// EnsureInitialized prepares tc.Path for tracking.
func (b *Bootstrapper) EnsureInitialized(ctx context.Context, tc config.TargetConfig) (Result, error) {
	var res Result

	info, err := os.Stat(tc.Path)
	if err != nil {
		return res, fmt.Errorf("target %s: %w", tc.Path, err)
	}
	if !info.IsDir() {
		return res, fmt.Errorf("target %s: not a directory", tc.Path)
	}

	g := git.New(b.runner, tc.Path)

	if !g.IsInVCS() {
		if err := g.Init(ctx); err != nil {
			return res, err
		}
		res.Initialized = true
	}

	if err := g.SetIdentity(ctx, tc.UserName, tc.UserEmail); err != nil {
		return res, err
	}

	created, err := WriteIgnoreFile(tc.Path, tc.IgnorePatterns)
	if err != nil {
		return res, err
	}
	res.IgnoreFileCreated = created

	return res, nil
}

// WriteIgnoreFile creates dir/.gitignore with one pattern per line.
// It reports false and leaves the file alone if it already exists.
func WriteIgnoreFile(dir string, patterns []string) (bool, error) {
	path := filepath.Join(dir, IgnoreFileName)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	for _, p := range patterns {
		if _, err := fmt.Fprintln(w, p); err != nil {
			_ = f.Close()
			return false, fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to close %s: %w", path, err)
	}

	return true, nil
}
