package vcs

import "errors"

// Common errors returned by VCS operations.
//
// These errors can be checked using errors.Is() for proper error handling:
//
//	if errors.Is(err, vcs.ErrTimeout) {
//	    // the command may still be running in the background
//	}
var (
	// ErrNotInVCS is returned when the operation requires a repository
	// but the directory has no version-control metadata.
	ErrNotInVCS = errors.New("not in a VCS repository")

	// ErrVCSNotAvailable is returned when the configured VCS binary
	// is not installed or not in PATH.
	ErrVCSNotAvailable = errors.New("VCS binary not available")

	// ErrCommandFailed is returned when a command exits with a non-zero status.
	ErrCommandFailed = errors.New("command failed")

	// ErrNothingToCommit is returned by commit when the working tree has no
	// changes relative to HEAD.
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrTimeout is returned when a VCS command does not exit within its
	// wait budget. The process is not killed.
	ErrTimeout = errors.New("operation timed out")
)

// IsFatal returns true if the error indicates a non-recoverable state
// that requires manual intervention.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	// Binary not available means we can't execute commands
	if errors.Is(err, ErrVCSNotAvailable) {
		return true
	}

	return false
}
