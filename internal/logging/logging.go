// Package logging builds the loggers nbake components write to.
//
// Every component gets a standard *log.Logger with its own prefix. Output
// goes to stderr and, when a log file is configured, to a size-rotated file.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configure the log output.
type Options struct {
	// File is the log file path. Empty disables file output.
	File string

	// MaxSizeMB is the size at which the file is rotated (default 10)
	MaxSizeMB int

	// MaxBackups is the number of rotated files kept (default 3)
	MaxBackups int

	// MaxAgeDays removes rotated files older than this many days (0 keeps all)
	MaxAgeDays int

	// Quiet suppresses stderr output; used when running as a service.
	Quiet bool
}

// Output is an open log destination.
type Output struct {
	w    io.Writer
	file *lumberjack.Logger
}

// Open creates the log output described by opts.
func Open(opts Options) (*Output, error) {
	var writers []io.Writer
	if !opts.Quiet {
		writers = append(writers, os.Stderr)
	}

	out := &Output{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, err
		}
		out.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     opts.MaxAgeDays,
		}
		writers = append(writers, out.file)
	}

	switch len(writers) {
	case 0:
		out.w = io.Discard
	case 1:
		out.w = writers[0]
	default:
		out.w = io.MultiWriter(writers...)
	}
	return out, nil
}

// Writer returns the underlying writer.
func (o *Output) Writer() io.Writer {
	return o.w
}

// Logger returns a logger whose lines start with "[component] ".
func (o *Output) Logger(component string) *log.Logger {
	return log.New(o.w, "["+component+"] ", log.LstdFlags)
}

// Close closes the log file, if any.
func (o *Output) Close() error {
	if o.file == nil {
		return nil
	}
	return o.file.Close()
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
