// Package service runs nbake under the host's service manager (systemd,
// launchd or the Windows service control manager) and also in the console.
package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/kardianos/service"
)

// Actions accepted by Control.
var Actions = service.ControlAction[:]

// Lifecycle is the application the service host drives.
// Start must not block past setup; Stop blocks until shutdown is complete.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop() error
}

// Config describes the installed service.
type Config struct {
	Name        string
	DisplayName string
	Description string

	// Arguments are passed to the executable when the service manager starts it
	Arguments []string

	Logger *log.Logger
}

// DefaultConfig returns the service definition used by `nbake service`.
func DefaultConfig() *Config {
	return &Config{
		Name:        "nbake",
		DisplayName: "NBake",
		Description: "Commits changes in watched directories after a quiet period",
		Arguments:   []string{"run"},
		Logger:      log.New(os.Stderr, "[service] ", log.LstdFlags),
	}
}

// Program implements service.Interface on top of a Lifecycle.
type Program struct {
	app    Lifecycle
	logger *log.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	started chan struct{}
}

// Start launches the application. It does not block.
func (p *Program) Start(_ service.Service) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started != nil {
		return fmt.Errorf("already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	p.cancel = cancel
	p.started = started

	go func() {
		defer close(started)
		if err := p.app.Start(ctx); err != nil {
			p.logger.Printf("Failed to start: %v", err)
		}
	}()
	return nil
}

// Stop waits for startup to finish, then stops the application.
func (p *Program) Stop(_ service.Service) error {
	p.mu.Lock()
	cancel, started := p.cancel, p.started
	p.cancel, p.started = nil, nil
	p.mu.Unlock()

	if started == nil {
		return nil
	}

	cancel()
	<-started
	return p.app.Stop()
}

// New wraps app in a service described by config.
func New(app Lifecycle, config *Config) (service.Service, *Program, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}

	prg := &Program{app: app, logger: config.Logger}
	svc, err := service.New(prg, &service.Config{
		Name:        config.Name,
		DisplayName: config.DisplayName,
		Description: config.Description,
		Arguments:   config.Arguments,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, prg, nil
}

// Control runs a service manager action: start, stop, restart, install or
// uninstall.
func Control(svc service.Service, action string) error {
	if err := service.Control(svc, action); err != nil {
		return fmt.Errorf("failed to %s service: %w", action, err)
	}
	return nil
}

// Status reports the installed service's state as text.
func Status(svc service.Service) (string, error) {
	status, err := svc.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get service status: %w", err)
	}
	return StatusString(status), nil
}

// StatusString names a service status.
func StatusString(s service.Status) string {
	switch s {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Interactive reports whether the process runs in a terminal rather than
// under a service manager.
func Interactive() bool {
	return service.Interactive()
}
