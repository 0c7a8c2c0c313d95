package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ddsforge/internal/logging"
	"ddsforge/internal/services"
	"ddsforge/internal/texture"
)

func TestNewWritesJSONRunLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "run.log")

	logger, closeLog, err := logging.New(logging.Options{Format: "console", Output: io.Discard, FilePath: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("run started", logging.String("k", "v"))
	if err := closeLog(); err != nil {
		t.Fatalf("close run log: %v", err)
	}
	if err := closeLog(); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("second close = %v, want os.ErrClosed", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("log file line is not JSON: %v (%q)", err, content)
	}
	if record["msg"] != "run started" || record["k"] != "v" || record["level"] != "info" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "console", Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(logger, "batch").Info("message without source", logging.Int("jobs", 2))

	line := buf.String()
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", line)
	}
	for _, want := range []string{"INFO", "batch: message without source", "jobs=2"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be rendered as a prefix, got %q", line)
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "console", Level: "debug", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with source")
	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected source information in debug logs, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLog, err := logging.New(logging.Options{Format: "console", Level: "invalid", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := closeLog(); err != nil {
		t.Fatalf("close without log file: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-xyz")
	ctx = services.WithJobIndex(ctx, 3)
	ctx = services.WithStage(ctx, "transcode")

	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldRunID] != "run-xyz" {
		t.Fatalf("run_id = %v", record[logging.FieldRunID])
	}
	if record[logging.FieldJobIndex] != float64(3) {
		t.Fatalf("job_index = %v", record[logging.FieldJobIndex])
	}
	if record[logging.FieldStage] != "transcode" {
		t.Fatalf("stage = %v", record[logging.FieldStage])
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "patch skipped", "legacy_patch_skipped", logging.String(logging.FieldImpact, "header left as written"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "legacy_patch_skipped" {
		t.Fatalf("event_type = %v", record[logging.FieldEventType])
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
	if record[logging.FieldImpact] != "header left as written" {
		t.Fatalf("impact = %v", record[logging.FieldImpact])
	}
}

func TestFanoutRespectsPerHandlerLevel(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "fan.log")
	logger, closeLog, err := logging.New(logging.Options{Format: "console", Level: "warn", Output: &console, FilePath: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = closeLog() })
	logger.Info("dropped")
	logger.Warn("kept")

	file, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	for name, out := range map[string]string{"console": console.String(), "file": string(file)} {
		if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
			t.Fatalf("%s output %q", name, out)
		}
	}
}

func TestRunLogPath(t *testing.T) {
	started := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := logging.RunLogPath("/var/log/ddsforge", "0123456789abcdef", started)
	want := "/var/log/ddsforge/ddsforge-20260304T050607Z-01234567.log"
	if got != want {
		t.Fatalf("RunLogPath = %q, want %q", got, want)
	}
	if ok, _ := filepath.Match(logging.RunLogPattern, filepath.Base(got)); !ok {
		t.Fatalf("%q does not match %q", got, logging.RunLogPattern)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "ddsforge-old.log")
	current := filepath.Join(dir, "ddsforge-current.log")
	fresh := filepath.Join(dir, "ddsforge-fresh.log")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, current, fresh, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	stale := time.Now().AddDate(0, 0, -30)
	for _, p := range []string{old, current, other} {
		if err := os.Chtimes(p, stale, stale); err != nil {
			t.Fatal(err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), dir, logging.RunLogPattern, 7, current)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("expected old log removed")
	}
	for _, p := range []string{current, fresh, other} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}

	if n := logging.CleanupOldLogs(nil, dir, logging.RunLogPattern, 0); n != 0 {
		t.Fatalf("retention 0 removed %d files", n)
	}
}

func TestJSONRunLogRendersDurationsAndNames(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("job transcoded",
		logging.Duration("elapsed", 1500*time.Millisecond),
		logging.Any("format", texture.BC5),
		logging.Error(errors.New("disk full")),
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record["elapsed_ms"] != float64(1500) {
		t.Fatalf("elapsed_ms = %v (record %v)", record["elapsed_ms"], record)
	}
	if _, ok := record["elapsed"]; ok {
		t.Fatalf("raw elapsed key should be replaced: %v", record)
	}
	if record["format"] != "BC5" {
		t.Fatalf("format = %v", record["format"])
	}
	if record["error"] != "disk full" {
		t.Fatalf("error = %v", record["error"])
	}
	ts, _ := record["ts"].(string)
	if _, err := time.Parse("2006-01-02T15:04:05.000Z07:00", ts); err != nil {
		t.Fatalf("ts %q: %v", ts, err)
	}
}
