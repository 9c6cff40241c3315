// Package logging builds the structured loggers used across trackflyer.
package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

const timeFormat = "15:04:05"

// New returns a console logger writing to w at the given level name
// ("debug", "info", "warn", "error"). Unknown names fall back to info.
func New(level string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	lvl := log.ParseLevel(level)
	if level == "" {
		lvl = log.InfoLevel
	}

	return &log.Logger{
		Level:      lvl,
		TimeFormat: timeFormat,
		Writer: &log.ConsoleWriter{
			Writer:      w,
			ColorOutput: false,
			QuoteString: true,
		},
	}
}

// Discard returns a logger that drops every entry.
func Discard() *log.Logger {
	return &log.Logger{
		Level:  log.ErrorLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}

// OrDiscard returns l, or a discard logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
