package config

import (
	"strings"
	"time"
)

// TargetConfig is a target's settings resolved once at load time.
// It does not change for the lifetime of the target's tracker.
type TargetConfig struct {
	Path           string
	CheckInterval  time.Duration
	QuietPeriod    time.Duration
	UserName       string
	UserEmail      string
	IgnorePatterns []string
	CommitMessage  string
	Remotes        map[string]Repository
}

// TargetConfig resolves every per-target setting for t. The path is made
// absolute and cleaned.
func (r *Resolver) TargetConfig(t *Target) TargetConfig {
	return TargetConfig{
		Path:           canonicalPath(t.Path),
		CheckInterval:  ResolveDuration(r, t, KeyCheckInterval, DefaultCheckInterval),
		QuietPeriod:    ResolveDuration(r, t, KeyQuietPeriod, DefaultQuietPeriod),
		UserName:       Resolve(r, t, KeyUserName, ""),
		UserEmail:      Resolve(r, t, KeyUserEmail, ""),
		IgnorePatterns: SplitList(Resolve(r, t, KeyIgnoreList, "")),
		CommitMessage:  Resolve(r, t, KeyCommitMessage, DefaultCommitMessage),
		Remotes:        t.Remotes,
	}
}

// GitPath returns the git executable. It is a global-only setting.
func (r *Resolver) GitPath() string {
	return Resolve(r, nil, KeyGitPath, DefaultGitPath)
}

// CommandTimeout returns the wait budget for one external command.
func (r *Resolver) CommandTimeout() time.Duration {
	return ResolveDuration(r, nil, KeyCommandTimeout, DefaultCommandTimeout)
}

// SplitList splits a comma-separated setting, trimming entries and dropping
// empty ones. Order is preserved.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
