// Package logging assembles the structured slog loggers used by ddsforge.
//
// It owns the console and JSON handlers, fans records out to the terminal and
// the per-run log file, and exposes context-aware helpers so pipeline code
// automatically tags log lines with run IDs, job indexes, and stage names.
// A no-op logger is provided for tests and wiring code that cannot fail.
//
// The machine-read status stream is not a log; see package batch.
package logging
