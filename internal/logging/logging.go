// Package logging provides the Logger used across taskctl, backed by
// charmbracelet/log.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the structured logger interface. Key-value pairs follow the message.
type Logger interface {
	Debug(interface{}, ...interface{})
	Info(interface{}, ...interface{})
	Warn(interface{}, ...interface{})
	Error(interface{}, ...interface{})

	// SetOutput redirects subsequent log lines.
	SetOutput(io.Writer)
}

// Options configures New.
type Options struct {
	Writer io.Writer
	Level  string
	Prefix string
}

// New creates a charm logger. Unknown levels fall back to warn.
func New(opts Options) Logger {
	var w io.Writer = os.Stderr
	if opts.Writer != nil {
		w = opts.Writer
	}

	lvl, err := log.ParseLevel(opts.Level)
	if err != nil {
		lvl = log.WarnLevel
	}

	return log.NewWithOptions(w, log.Options{
		Level:  lvl,
		Prefix: opts.Prefix,
	})
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
