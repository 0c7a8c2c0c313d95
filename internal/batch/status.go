package batch

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"ddsforge/internal/stage"
)

// StatusWriter emits status stream lines. Each event is written with a
// single Write call so lines never interleave.
type StatusWriter struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

// NewStatusWriter wraps w. A nil w discards output.
func NewStatusWriter(w io.Writer) *StatusWriter {
	if w == nil {
		w = io.Discard
	}
	return &StatusWriter{w: w}
}

// Err returns the first write error, if any. Write failures never stop a run.
func (s *StatusWriter) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *StatusWriter) emit(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	line = strings.NewReplacer("\r", " ", "\n", " ").Replace(line) + "\n"
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, line); err != nil && s.err == nil {
		s.err = err
	}
}

// Start announces the number of jobs in the run.
func (s *StatusWriter) Start(total int) { s.emit("BATCH_START:%d", total) }

// Acceleration reports whether the codec context runs accelerated.
func (s *StatusWriter) Acceleration(enabled bool) {
	if enabled {
		s.emit("CUDA:enabled")
		return
	}
	s.emit("CUDA:disabled")
}

// OK reports a successful job. index is 1-based.
func (s *StatusWriter) OK(index, total int, input string, o stage.Outcome) {
	s.emit("OK:%d/%d:%s:%dx%d->%dx%d:%s:%d",
		index, total, input,
		o.OriginalWidth, o.OriginalHeight, o.Width, o.Height,
		o.Format, o.MipCount)
}

// Fail reports a failed job. index is 1-based.
func (s *StatusWriter) Fail(index, total int, input, reason string) {
	s.emit("FAIL:%d/%d:%s:%s", index, total, input, reason)
}

// End reports the run totals.
func (s *StatusWriter) End(ok, failed int) { s.emit("BATCH_END:%d:%d", ok, failed) }

// Error reports a run-fatal error.
func (s *StatusWriter) Error(message string) { s.emit("ERROR:%s", message) }
