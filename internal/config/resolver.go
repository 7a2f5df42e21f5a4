package config

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Setting keys understood by nbake.
const (
	KeyCheckInterval  = "commitCheckTimerPeriodMs"
	KeyQuietPeriod    = "quietPeriodMs"
	KeyUserName       = "userId"
	KeyUserEmail      = "email"
	KeyIgnoreList     = "ignoreList"
	KeyCommitMessage  = "commitMessage"
	KeyGitPath        = "gitPath"
	KeyCommandTimeout = "commandTimeoutMs"
)

// Defaults applied when a key is absent at every level.
const (
	DefaultCheckInterval  = 10 * time.Second
	DefaultQuietPeriod    = 10 * time.Second
	DefaultCommandTimeout = 5 * time.Second
	DefaultCommitMessage  = "NBake commit"
	DefaultGitPath        = "git"
)

// Value is the set of types a setting can be resolved to.
type Value interface {
	string | int | int64 | float64 | bool
}

// Resolver looks settings up on a target first, then in the global settings.
// It never mutates either mapping and is safe for concurrent use.
type Resolver struct {
	global Settings
}

// NewResolver returns a resolver backed by the given global settings.
// A nil mapping behaves like an empty one.
func NewResolver(global Settings) *Resolver {
	return &Resolver{global: global}
}

// Lookup returns the first non-empty raw value for key, checking the target
// (if non-nil) and then the global settings.
func (r *Resolver) Lookup(target *Target, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if target != nil {
		if v, ok := target.Settings[key]; ok && v != "" {
			return v, true
		}
	}
	if r != nil {
		if v, ok := r.global[key]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Resolve returns the setting for key converted to T, or def when the key is
// absent, empty at every level, or not convertible to T. A conversion failure
// does not fall through to the global value.
func Resolve[T Value](r *Resolver, target *Target, key string, def T) T {
	raw, ok := r.Lookup(target, key)
	if !ok {
		return def
	}
	v, ok := convert[T](raw)
	if !ok {
		return def
	}
	return v
}

// maxMillis is the largest millisecond count a time.Duration can hold.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

// ResolveDuration resolves a millisecond setting into a time.Duration.
// Values with a unit suffix ("1500ms", "2s") are accepted as well. Values that
// are not positive or do not fit a time.Duration resolve to def.
func ResolveDuration(r *Resolver, target *Target, key string, def time.Duration) time.Duration {
	raw, ok := r.Lookup(target, key)
	if !ok {
		return def
	}
	raw = strings.TrimSpace(raw)
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if ms <= 0 || ms > maxMillis {
			return def
		}
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return def
}

// canonicalPath returns the absolute, cleaned form of a target path, which is
// how change sources report a target's root.
func canonicalPath(p string) string {
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func convert[T Value](raw string) (T, bool) {
	var zero T
	var out any
	switch any(zero).(type) {
	case string:
		out = raw
	case int:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return zero, false
		}
		out = n
	case int64:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return zero, false
		}
		out = n
	case float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return zero, false
		}
		out = f
	case bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return zero, false
		}
		out = b
	default:
		return zero, false
	}
	v, ok := out.(T)
	return v, ok
}
