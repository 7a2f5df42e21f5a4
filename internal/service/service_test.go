package service

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/kardianos/service"
)

type fakeApp struct {
	mu       sync.Mutex
	starts   int
	stops    int
	startErr error
	delay    time.Duration
	ctx      context.Context
}

func (a *fakeApp) Start(ctx context.Context) error {
	time.Sleep(a.delay)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.starts++
	a.ctx = ctx
	return a.startErr
}

func (a *fakeApp) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stops++
	return nil
}

func testProgram(app Lifecycle) *Program {
	return &Program{app: app, logger: log.New(io.Discard, "", 0)}
}

func TestProgramStartStop(t *testing.T) {
	app := &fakeApp{delay: 20 * time.Millisecond}
	prg := testProgram(app)

	if err := prg.Start(nil); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := prg.Start(nil); err == nil {
		t.Error("second Start() should fail")
	}

	// Stop right away: it must wait for the slow startup before stopping.
	if err := prg.Stop(nil); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	app.mu.Lock()
	defer app.mu.Unlock()
	if app.starts != 1 || app.stops != 1 {
		t.Errorf("starts=%d stops=%d, want 1/1", app.starts, app.stops)
	}
	if app.ctx.Err() == nil {
		t.Error("start context should be cancelled after Stop")
	}
}

func TestProgramStopWithoutStart(t *testing.T) {
	app := &fakeApp{}
	if err := testProgram(app).Stop(nil); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if app.stops != 0 {
		t.Error("Stop() without Start should not stop the app")
	}
}

func TestProgramStartErrorIsLogged(t *testing.T) {
	app := &fakeApp{startErr: errors.New("no targets")}
	prg := testProgram(app)

	if err := prg.Start(nil); err != nil {
		t.Fatalf("Start() should not surface app errors: %v", err)
	}
	if err := prg.Stop(nil); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status service.Status
		want   string
	}{
		{service.StatusRunning, "running"},
		{service.StatusStopped, "stopped"},
		{service.StatusUnknown, "unknown"},
	}
	for _, tt := range tests {
		if got := StatusString(tt.status); got != tt.want {
			t.Errorf("StatusString(%v) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestNewAndActions(t *testing.T) {
	svc, prg, err := New(&fakeApp{}, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if svc == nil || prg == nil {
		t.Fatal("New() returned nil")
	}

	want := map[string]bool{"start": true, "stop": true, "restart": true, "install": true, "uninstall": true}
	if len(Actions) != len(want) {
		t.Fatalf("Actions = %v", Actions)
	}
	for _, a := range Actions {
		if !want[a] {
			t.Errorf("unexpected action %q", a)
		}
	}
}
