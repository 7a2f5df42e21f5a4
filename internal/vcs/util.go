package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ===================
// Command Execution
// ===================

// ExecRunner runs commands with os/exec.
//
// It waits until the process exits or Timeout elapses, whichever comes first.
// On timeout it returns ErrTimeout and leaves the process running; a
// background goroutine reaps it when it eventually exits.
type ExecRunner struct {
	// Path is the executable to run (e.g. "git" or "/usr/bin/git").
	Path string

	// Timeout is the wait budget per invocation. Zero or negative waits forever.
	Timeout time.Duration
}

// NewExecRunner returns a runner for the given executable and wait budget.
func NewExecRunner(path string, timeout time.Duration) *ExecRunner {
	return &ExecRunner{Path: path, Timeout: timeout}
}

// Run executes the runner's executable with args in dir.
//
// Example:
//
//	res, err := r.Run(ctx, repoRoot, "commit", "-a", "-m", "autosave")
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) (Result, error) {
	res := Result{ExitCode: -1}
	if dir == "" {
		return res, fmt.Errorf("%s: working directory is required", r.Path)
	}

	// exec.CommandContext would kill the process on timeout. Commits must be
	// left to finish, so the wait is bounded by hand instead.
	cmd := exec.Command(r.Path, args...)
	cmd.Dir = dir

	var out syncBuffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return res, fmt.Errorf("%w: %s: %v", ErrVCSNotAvailable, r.Path, err)
		}
		return res, fmt.Errorf("failed to start %s: %w", r.Path, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var deadline <-chan time.Time
	if r.Timeout > 0 {
		timer := time.NewTimer(r.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case err := <-done:
		res.Duration = time.Since(start)
		res.Exited = true
		res.ExitCode = GetExitCode(err)
		res.Output = out.Bytes()
		if err != nil {
			if IsExitError(err) {
				return res, fmt.Errorf("%w: %s %s: exit status %d: %s",
					ErrCommandFailed, r.Path, strings.Join(args, " "), res.ExitCode, TrimOutput(res.Output))
			}
			return res, fmt.Errorf("%s %s: %w", r.Path, strings.Join(args, " "), err)
		}
		return res, nil

	case <-deadline:
		res.Duration = time.Since(start)
		res.Output = out.Bytes()
		return res, fmt.Errorf("%w: %s %s did not exit within %v",
			ErrTimeout, r.Path, strings.Join(args, " "), r.Timeout)

	case <-ctx.Done():
		res.Duration = time.Since(start)
		res.Output = out.Bytes()
		return res, fmt.Errorf("%s %s: %w", r.Path, strings.Join(args, " "), ctx.Err())
	}
}

// syncBuffer is a bytes.Buffer that may be read while the abandoned process
// is still writing to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Bytes returns a copy of the buffered output.
func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

// ===================
// Output Parsing Utilities
// ===================

// ParseLines splits command output into non-empty lines.
func ParseLines(output []byte) []string {
	if len(output) == 0 {
		return nil
	}

	lines := strings.Split(string(output), "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}

	return result
}

// TrimOutput trims whitespace and trailing newlines from command output.
func TrimOutput(output []byte) string {
	return strings.TrimSpace(string(output))
}

// ===================
// Error Utilities
// ===================

// IsExitError returns true if the error is an exit error with non-zero status.
func IsExitError(err error) bool {
	if err == nil {
		return false
	}
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// GetExitCode returns the exit code from an error, or -1 if not an exit error.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}
