package download

import (
	"strings"

	"github.com/handiism/trackflyer/internal/logging"
	"github.com/phuslu/log"
)

// Sink displays the rendered summary. Render is called after every
// observable change, never concurrently.
type Sink interface {
	Render(summary string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(summary string)

// Render calls f(summary).
func (f SinkFunc) Render(summary string) {
	f(summary)
}

// LogSink logs each distinct summary at info level. Progress updates that do
// not change the text are dropped.
type LogSink struct {
	logger *log.Logger
	last   string
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logging.OrDiscard(logger)}
}

func (s *LogSink) Render(summary string) {
	if summary == s.last {
		return
	}
	s.last = summary

	header, rest, _ := strings.Cut(summary, "\n")
	var lines []string
	for line := range strings.SplitSeq(rest, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	s.logger.Info().Strs("lines", lines).Msg(header)
}

// Sinks fans a summary out to several sinks in order.
type Sinks []Sink

func (ss Sinks) Render(summary string) {
	for _, s := range ss {
		s.Render(summary)
	}
}
