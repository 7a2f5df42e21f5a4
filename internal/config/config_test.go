package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "nbake.yaml", `
settings:
  gitPath: /usr/bin/git
  commitCheckTimerPeriodMs: 5000
targets:
  - path: /srv/notes
    settings:
      userId: me
      email: me@example.com
      ignoreList: "*.tmp,*.bak"
    remotes:
      origin:
        uri: https://example.com/notes.git
        autoPush: true
  - path: docs
`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if got := doc.Settings[KeyCheckInterval]; got != "5000" {
		t.Errorf("numeric setting normalized to %q, want \"5000\"", got)
	}
	if got := doc.Settings[KeyGitPath]; got != "/usr/bin/git" {
		t.Errorf("gitPath = %q", got)
	}

	if len(doc.Targets) != 2 {
		t.Fatalf("Expected 2 targets, got %d", len(doc.Targets))
	}

	notes := doc.Targets[0]
	if notes.Path != filepath.Clean("/srv/notes") {
		t.Errorf("Path = %q", notes.Path)
	}
	if notes.Settings[KeyUserName] != "me" {
		t.Errorf("userId = %q", notes.Settings[KeyUserName])
	}
	origin, ok := notes.Remotes["origin"]
	if !ok {
		t.Fatal("origin remote missing")
	}
	if origin.Name != "origin" || !origin.AutoPush || origin.URI.Host != "example.com" {
		t.Errorf("unexpected remote: %+v", origin)
	}

	docs := doc.Targets[1]
	if docs.Path != filepath.Join(dir, "docs") {
		t.Errorf("relative path resolved to %q, want %q", docs.Path, filepath.Join(dir, "docs"))
	}
	if len(docs.Remotes) != 0 {
		t.Errorf("Expected no remotes, got %d", len(docs.Remotes))
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "nbake.toml", `
[settings]
quietPeriodMs = 20000

[[targets]]
path = "/srv/site"

[targets.settings]
commitMessage = "site autosave"

[targets.remotes.backup]
uri = "ssh://backup.example.com/site.git"
autoPush = false
`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if got := doc.Settings[KeyQuietPeriod]; got != "20000" {
		t.Errorf("quietPeriodMs = %q, want 20000", got)
	}
	if len(doc.Targets) != 1 {
		t.Fatalf("Expected 1 target, got %d", len(doc.Targets))
	}
	site := doc.Targets[0]
	if site.Settings[KeyCommitMessage] != "site autosave" {
		t.Errorf("commitMessage = %q", site.Settings[KeyCommitMessage])
	}
	if names := site.RemoteNames(); len(names) != 1 || names[0] != "backup" {
		t.Errorf("RemoteNames() = %v", names)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, ErrConfigMissing) {
		t.Errorf("missing file: got %v, want ErrConfigMissing", err)
	}

	ini := writeFile(t, dir, "nbake.ini", "x=1")
	if _, err := Load(ini); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ini file: got %v, want ErrUnsupportedFormat", err)
	}

	dup := writeFile(t, dir, "dup.yaml", `
targets:
  - path: /srv/a
  - path: /srv/a/
`)
	if _, err := Load(dup); !errors.Is(err, ErrDuplicateTarget) {
		t.Errorf("duplicate targets: got %v, want ErrDuplicateTarget", err)
	}

	noPath := writeFile(t, dir, "nopath.yaml", `
targets:
  - settings: {userId: x}
`)
	if _, err := Load(noPath); err == nil {
		t.Error("target without path should fail")
	}

	broken := writeFile(t, dir, "broken.yaml", "targets: [")
	if _, err := Load(broken); err == nil {
		t.Error("malformed yaml should fail")
	}
}

func TestLoadExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeFile(t, t.TempDir(), "nbake.yaml", `
targets:
  - path: ~/notes
`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if want := filepath.Join(home, "notes"); doc.Targets[0].Path != want {
		t.Errorf("Path = %q, want %q", doc.Targets[0].Path, want)
	}
}
