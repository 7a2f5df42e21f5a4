// Package config holds the nbake data model (targets, remotes, settings) and
// loads it from a YAML or TOML settings document.
//
// A document has a global settings mapping and a list of targets:
//
//	settings:
//	  gitPath: /usr/bin/git
//	targets:
//	  - path: /home/me/notes
//	    settings:
//	      userId: me
//	      email: me@example.com
//	      ignoreList: "*.tmp,*.bak"
//	    remotes:
//	      origin:
//	        uri: https://example.com/notes.git
//	        autoPush: false
//
// Setting values are always strings once loaded. Typed access goes through
// Resolver, which applies the target → global → default fallback order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigMissing is returned when the settings document does not exist
	// or cannot be read. The scheduler cannot start without it.
	ErrConfigMissing = errors.New("configuration document not found")

	// ErrDuplicateTarget is returned when two targets resolve to the same path.
	ErrDuplicateTarget = errors.New("duplicate target path")

	// ErrUnsupportedFormat is returned for document extensions other than
	// .yaml, .yml and .toml.
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
)

// Settings maps setting keys to raw string values.
type Settings map[string]string

// Repository is a named remote endpoint declared for a target.
type Repository struct {
	Name     string
	URI      *url.URL
	AutoPush bool
}

// Target is one watched directory with its own settings and remotes.
type Target struct {
	// Path is the absolute, cleaned directory path. It identifies the target.
	Path     string
	Settings Settings
	Remotes  map[string]Repository
}

// RemoteNames returns the remote names in sorted order.
func (t *Target) RemoteNames() []string {
	names := make([]string, 0, len(t.Remotes))
	for name := range t.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Document is a parsed settings document.
type Document struct {
	Settings Settings
	Targets  []Target
}

type rawRemote struct {
	URI      string `yaml:"uri" toml:"uri"`
	AutoPush bool   `yaml:"autoPush" toml:"autoPush"`
}

type rawTarget struct {
	Path     string               `yaml:"path" toml:"path"`
	Settings map[string]any       `yaml:"settings" toml:"settings"`
	Remotes  map[string]rawRemote `yaml:"remotes" toml:"remotes"`
}

type rawDocument struct {
	Settings map[string]any `yaml:"settings" toml:"settings"`
	Targets  []rawTarget    `yaml:"targets" toml:"targets"`
}

// Load reads and parses the settings document at path.
// The format is chosen by file extension.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigMissing, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigMissing, err)
	}

	var raw rawDocument
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	// Relative target paths are resolved against the document's directory.
	return raw.build(filepath.Dir(path))
}

func (raw *rawDocument) build(baseDir string) (*Document, error) {
	doc := &Document{
		Settings: normalizeSettings(raw.Settings),
		Targets:  make([]Target, 0, len(raw.Targets)),
	}

	seen := make(map[string]bool, len(raw.Targets))
	for i, rt := range raw.Targets {
		p := strings.TrimSpace(rt.Path)
		if p == "" {
			return nil, fmt.Errorf("target %d: path is required", i)
		}
		p = expandHome(p)
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("target %d: %w", i, err)
		}
		if seen[abs] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTarget, abs)
		}
		seen[abs] = true

		remotes := make(map[string]Repository, len(rt.Remotes))
		for name, rr := range rt.Remotes {
			u, err := url.Parse(rr.URI)
			if err != nil {
				return nil, fmt.Errorf("target %s: remote %s: invalid uri: %w", abs, name, err)
			}
			remotes[name] = Repository{Name: name, URI: u, AutoPush: rr.AutoPush}
		}

		doc.Targets = append(doc.Targets, Target{
			Path:     abs,
			Settings: normalizeSettings(rt.Settings),
			Remotes:  remotes,
		})
	}

	return doc, nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}

// normalizeSettings turns decoded scalars into their string form so that
// `commitCheckTimerPeriodMs: 5000` and `commitCheckTimerPeriodMs: "5000"`
// load identically.
func normalizeSettings(in map[string]any) Settings {
	out := make(Settings, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
