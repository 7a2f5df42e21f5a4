package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/nbake/nbake/internal/baker"
	"github.com/nbake/nbake/internal/config"
	"github.com/nbake/nbake/internal/journal"
)

func TestJournalObserverRecordsCommits(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("journal.Open() failed: %v", err)
	}
	defer j.Close()

	o := &journalObserver{journal: j, logger: log.New(io.Discard, "", 0)}
	at := time.Date(2024, 3, 1, 9, 0, 11, 0, time.UTC)

	o.Observe(baker.Event{Type: baker.EventTrackerDirty, Path: "/work/notes", Time: at})
	o.Observe(baker.Event{Type: baker.EventCommit, Path: "/work/notes", Time: at, Outcome: baker.OutcomeCommitted, Head: "0123456789abcdef"})
	o.Observe(baker.Event{Type: baker.EventCommit, Path: "/work/notes", Time: at.Add(time.Second), Outcome: baker.OutcomeFailed, Err: errors.New("exit status 128")})

	entries, err := j.Recent(context.Background(), "/work/notes", 0)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (dirty events are not journaled)", len(entries))
	}
	if entries[0].Outcome != "failed" || entries[0].Error != "exit status 128" {
		t.Errorf("newest entry = %+v", entries[0])
	}
	if entries[1].Head != "0123456789abcdef" {
		t.Errorf("Head = %q", entries[1].Head)
	}
}

func TestServiceArguments(t *testing.T) {
	tests := []struct {
		name string
		opts options
		want []string
	}{
		{
			name: "minimal",
			opts: options{ConfigPath: "/etc/nbake.yaml", ServiceName: "nbake"},
			want: []string{"run", "--config", "/etc/nbake.yaml", "--journal", "", "--service-name", "nbake"},
		},
		{
			name: "everything",
			opts: options{
				ConfigPath:    "/etc/nbake.yaml",
				JournalPath:   "/var/lib/nbake/journal.db",
				LogFile:       "/var/log/nbake.log",
				DashboardPort: 8321,
				Verbose:       true,
				ServiceName:   "nbake-notes",
			},
			want: []string{
				"run", "--config", "/etc/nbake.yaml", "--journal", "/var/lib/nbake/journal.db",
				"--log-file", "/var/log/nbake.log",
				"--dashboard-port", "8321",
				"--verbose",
				"--service-name", "nbake-notes",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serviceArguments(tt.opts); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("serviceArguments() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewAppRequiresConfig(t *testing.T) {
	_, err := newApp(options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	if !errors.Is(err, config.ErrConfigMissing) {
		t.Errorf("newApp() = %v, want ErrConfigMissing", err)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := map[string]string{
		"~":           home,
		"~/notes":     filepath.Join(home, "notes"),
		"/abs/path":   "/abs/path",
		"rel/~/thing": "rel/~/thing",
		"":            "",
	}
	for in, want := range tests {
		if got := expandHome(in); got != want {
			t.Errorf("expandHome(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCapitalize(t *testing.T) {
	if got := capitalize("uninstall"); got != "Uninstall" {
		t.Errorf("capitalize() = %q", got)
	}
	if got := capitalize(""); got != "" {
		t.Errorf("capitalize(\"\") = %q", got)
	}
}

func TestAppServesStatusOnceStarted(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "nbake.yaml")
	doc := "settings:\n  gitPath: " + filepath.Join(dir, "no-such-git") + "\ntargets:\n  - path: " + filepath.Join(dir, "notes") + "\n"
	if err := os.WriteFile(cfgPath, []byte(doc), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() failed: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	a, err := newApp(options{ConfigPath: cfgPath, DashboardPort: port})
	if err != nil {
		t.Fatalf("newApp() failed: %v", err)
	}
	defer a.Close()

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer a.Stop()

	if a.dash == nil {
		t.Fatal("dashboard was not started")
	}
	resp, err := http.Get("http://" + a.dash.GetAddr() + "/status")
	if err != nil {
		t.Fatalf("GET /status failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /status = %d, want 200", resp.StatusCode)
	}
}
