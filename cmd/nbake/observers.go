package main

import (
	"context"
	"log"
	"time"

	"github.com/nbake/nbake/internal/baker"
	"github.com/nbake/nbake/internal/journal"
)

// journalObserver records every commit attempt in the journal.
type journalObserver struct {
	journal *journal.Journal
	logger  *log.Logger
}

func (o *journalObserver) Observe(ev baker.Event) {
	if ev.Type != baker.EventCommit {
		return
	}

	e := journal.Entry{
		Path:      ev.Path,
		StartedAt: ev.Time,
		Duration:  ev.Duration,
		Outcome:   string(ev.Outcome),
		Head:      ev.Head,
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := o.journal.Record(ctx, e); err != nil {
		o.logger.Printf("Warning: %v", err)
	}
}
