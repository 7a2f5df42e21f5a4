package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/nbake/nbake/internal/config"
	"github.com/nbake/nbake/internal/vcs"
)

// fakeGit behaves like git for the commands bootstrap issues: "init" creates
// the metadata directory.
type fakeGit struct {
	mu    sync.Mutex
	calls [][]string
	fail  string
}

func (f *fakeGit) Run(_ context.Context, dir string, args ...string) (vcs.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, args)
	if args[0] == f.fail {
		return vcs.Result{Exited: true, ExitCode: 128}, vcs.ErrCommandFailed
	}
	if args[0] == "init" {
		if err := os.MkdirAll(filepath.Join(dir, vcs.MetadataDir), 0755); err != nil {
			return vcs.Result{}, err
		}
	}
	return vcs.Result{Exited: true}, nil
}

func (f *fakeGit) count(verb string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if c[0] == verb {
			n++
		}
	}
	return n
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestEnsureInitializedFreshDirectory(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeGit{}
	b := New(runner)

	tc := config.TargetConfig{
		Path:           dir,
		UserName:       "Ada",
		UserEmail:      "ada@example.com",
		IgnorePatterns: []string{"*.tmp", "build/", "*.bak"},
	}

	res, err := b.EnsureInitialized(context.Background(), tc)
	if err != nil {
		t.Fatalf("EnsureInitialized() failed: %v", err)
	}
	if !res.Initialized || !res.IgnoreFileCreated {
		t.Errorf("Result = %+v, want both true", res)
	}

	if n := runner.count("init"); n != 1 {
		t.Errorf("init ran %d times, want 1", n)
	}
	if n := runner.count("config"); n != 2 {
		t.Errorf("config ran %d times, want 2", n)
	}

	got := readLines(t, filepath.Join(dir, IgnoreFileName))
	if !reflect.DeepEqual(got, tc.IgnorePatterns) {
		t.Errorf("ignore file lines = %v, want %v", got, tc.IgnorePatterns)
	}
}

func TestEnsureInitializedIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeGit{}
	b := New(runner)
	ctx := context.Background()

	tc := config.TargetConfig{Path: dir, IgnorePatterns: []string{"*.tmp"}}
	if _, err := b.EnsureInitialized(ctx, tc); err != nil {
		t.Fatalf("first EnsureInitialized() failed: %v", err)
	}

	// The user edits the ignore file; a restart must keep their edits.
	ignorePath := filepath.Join(dir, IgnoreFileName)
	if err := os.WriteFile(ignorePath, []byte("custom\n"), 0644); err != nil {
		t.Fatalf("Failed to edit ignore file: %v", err)
	}

	tc.IgnorePatterns = []string{"*.other"}
	res, err := b.EnsureInitialized(ctx, tc)
	if err != nil {
		t.Fatalf("second EnsureInitialized() failed: %v", err)
	}
	if res.Initialized || res.IgnoreFileCreated {
		t.Errorf("second run Result = %+v, want no-op", res)
	}
	if n := runner.count("init"); n != 1 {
		t.Errorf("init ran %d times across two starts, want 1", n)
	}
	if got := readLines(t, ignorePath); !reflect.DeepEqual(got, []string{"custom"}) {
		t.Errorf("ignore file overwritten: %v", got)
	}
}

func TestEnsureInitializedExistingRepository(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatalf("Failed to create .git: %v", err)
	}
	runner := &fakeGit{}

	res, err := New(runner).EnsureInitialized(context.Background(), config.TargetConfig{Path: dir})
	if err != nil {
		t.Fatalf("EnsureInitialized() failed: %v", err)
	}
	if res.Initialized {
		t.Error("existing repository must not be re-initialized")
	}
	if n := runner.count("init"); n != 0 {
		t.Errorf("init ran %d times, want 0", n)
	}
	if n := runner.count("config"); n != 0 {
		t.Errorf("config ran %d times with empty identity, want 0", n)
	}
}

func TestEnsureInitializedErrors(t *testing.T) {
	ctx := context.Background()

	missing := filepath.Join(t.TempDir(), "missing")
	if _, err := New(&fakeGit{}).EnsureInitialized(ctx, config.TargetConfig{Path: missing}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing dir: got %v, want ErrNotExist", err)
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(&fakeGit{}).EnsureInitialized(ctx, config.TargetConfig{Path: file}); err == nil {
		t.Error("file target should fail")
	}

	dir := t.TempDir()
	runner := &fakeGit{fail: "init"}
	if _, err := New(runner).EnsureInitialized(ctx, config.TargetConfig{Path: dir}); !errors.Is(err, vcs.ErrCommandFailed) {
		t.Errorf("failed init: got %v, want ErrCommandFailed", err)
	}
	if _, err := os.Stat(filepath.Join(dir, IgnoreFileName)); !os.IsNotExist(err) {
		t.Error("ignore file should not be written when init fails")
	}
}

func TestWriteIgnoreFileEmptyList(t *testing.T) {
	dir := t.TempDir()

	created, err := WriteIgnoreFile(dir, nil)
	if err != nil {
		t.Fatalf("WriteIgnoreFile() failed: %v", err)
	}
	if !created {
		t.Error("expected file to be created")
	}
	info, err := os.Stat(filepath.Join(dir, IgnoreFileName))
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("empty pattern list wrote %d bytes", info.Size())
	}
}
