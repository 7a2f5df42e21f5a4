package main

import (
	"context"
	"fmt"
	"log"

	"github.com/nbake/nbake/internal/baker"
	"github.com/nbake/nbake/internal/config"
	"github.com/nbake/nbake/internal/dashboard"
	"github.com/nbake/nbake/internal/journal"
	"github.com/nbake/nbake/internal/logging"
	"github.com/nbake/nbake/internal/tracker"
	"github.com/nbake/nbake/internal/vcs"
	"github.com/nbake/nbake/internal/watch"
)

// app wires the scheduler to its collaborators. It implements
// service.Lifecycle.
type app struct {
	opts   options
	doc    *config.Document
	out    *logging.Output
	logger *log.Logger

	baker   *baker.Baker
	journal *journal.Journal
	dash    *dashboard.Server
}

// newApp loads the configuration document and opens logging. Nothing is
// watched until Start.
func newApp(opts options) (*app, error) {
	doc, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	out, err := logging.Open(logging.Options{File: opts.LogFile})
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &app{
		opts:   opts,
		doc:    doc,
		out:    out,
		logger: out.Logger("nbake"),
	}, nil
}

// Start opens the journal and dashboard, if enabled, and starts the baker.
func (a *app) Start(ctx context.Context) error {
	resolver := config.NewResolver(a.doc.Settings)
	runner := vcs.NewExecRunner(resolver.GitPath(), resolver.CommandTimeout())

	cfg := baker.DefaultConfig()
	cfg.Logger = a.out.Logger("baker")
	cfg.Verbose = a.opts.Verbose

	if a.opts.JournalPath != "" {
		j, err := journal.Open(a.opts.JournalPath)
		if err != nil {
			a.logger.Printf("Warning: journal disabled: %v", err)
		} else {
			a.journal = j
			cfg.Observers = append(cfg.Observers, &journalObserver{journal: j, logger: a.logger})
		}
	}

	// The status callback reads the baker, so the server starts serving only
	// after the baker exists.
	var b *baker.Baker
	var srv *dashboard.Server
	if a.opts.DashboardPort > 0 {
		srv = dashboard.NewServer(&dashboard.Config{
			Host:   "127.0.0.1",
			Port:   a.opts.DashboardPort,
			Status: func() []tracker.Snapshot { return b.Trackers() },
			Logger: a.out.Logger("dashboard"),
		})
		cfg.Observers = append(cfg.Observers, dashboard.NewHandler(srv, a.out.Logger("dashboard")))
	}

	b = baker.New(runner, watch.FSSource{}, cfg)
	a.baker = b

	if srv != nil {
		if err := srv.Start(); err != nil {
			a.logger.Printf("Warning: dashboard disabled: %v", err)
			// A stopped server drops broadcasts.
			_ = srv.Stop()
		} else {
			a.dash = srv
		}
	}

	return b.Start(ctx, a.doc.Targets, a.doc.Settings)
}

// Stop stops the baker, which makes the final commits, then the dashboard
// and journal.
func (a *app) Stop() error {
	var firstErr error
	if a.baker != nil {
		firstErr = a.baker.Stop()
	}
	if a.dash != nil {
		if err := a.dash.Stop(); err != nil {
			a.logger.Printf("Error stopping dashboard: %v", err)
		}
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Printf("Error closing journal: %v", err)
		}
	}
	return firstErr
}

// Close releases the log file.
func (a *app) Close() error {
	return a.out.Close()
}
