package batchrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"ddsforge/internal/batch"
	"ddsforge/internal/config"
	"ddsforge/internal/history"
	"ddsforge/internal/logging"
	"ddsforge/internal/manifest"
	"ddsforge/internal/preflight"
	"ddsforge/internal/services"
	"ddsforge/internal/texture"
)

// CurrentLogName is the pointer to the newest run log inside the log directory.
const CurrentLogName = "ddsforge.log"

// Options configures one invocation.
type Options struct {
	// ManifestPath is read when Jobs is empty.
	ManifestPath string
	// Jobs bypasses the manifest, e.g. for single-job compress.
	Jobs []texture.Job
	// Source labels the run in history; defaults to ManifestPath.
	Source   string
	LogLevel string
	// Status receives the status stream; defaults to stderr.
	Status io.Writer
	// Console receives human log output; defaults to stdout.
	Console io.Writer
	// Now is used for the run log name and history timestamps.
	Now func() time.Time
}

// Result is what the CLI needs to choose an exit code.
type Result struct {
	Summary batch.Summary
	LogPath string
}

// Run executes a batch for cfg. A nil error with Summary.Failed > 0 means the
// run completed with failed jobs.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) (Result, error) {
	if cfg == nil {
		return Result{}, fmt.Errorf("config is required")
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	status := batch.NewStatusWriter(opts.Status)

	ctx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := uuid.NewString()
	logPath := logging.RunLogPath(cfg.Paths.LogDir, runID, opts.Now())
	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	base, closeLog, err := logging.New(logging.Options{
		Level:    level,
		Format:   cfg.Logging.Format,
		Output:   opts.Console,
		FilePath: logPath,
	})
	if err != nil {
		status.Error("Failed to initialize logging: " + err.Error())
		return Result{}, services.Wrap(services.ErrConfiguration, "run", "init logger", "Failed to initialize logging", err)
	}
	defer func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "ddsforge: close run log %s: %v\n", logPath, err)
		}
	}()
	result := Result{LogPath: logPath}
	ctx = services.WithRunID(ctx, runID)
	logger := logging.NewComponentLogger(base, "run")

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		logger.Warn("log pointer update failed",
			logging.String(logging.FieldEventType, "log_pointer_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, CurrentLogName+" points at an older run"),
		)
	}
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, logging.RunLogPattern, cfg.Logging.RetentionDays, logPath)
	logSettingsSnapshot(logging.WithContext(ctx, logger), cfg, opts)

	lock, err := acquireLock(cfg.LockPath())
	if err != nil {
		message := "Failed to acquire run lock: " + err.Error()
		if errors.Is(err, ErrLocked) {
			message = "Another batch is already running"
		}
		status.Error(message)
		return result, services.Wrap(services.ErrConfiguration, "run", "lock", message, err)
	}
	defer func() {
		if err := lock.release(); err != nil {
			logger.Warn("run lock release failed",
				logging.String(logging.FieldEventType, "lock_release_failed"),
				logging.Error(err),
				logging.String(logging.FieldImpact, "lock file stays locked until this process exits"),
			)
		}
	}()

	jobs := opts.Jobs
	source := opts.Source
	if len(jobs) == 0 {
		if source == "" {
			source = opts.ManifestPath
		}
		m, err := manifest.Load(opts.ManifestPath)
		if err != nil {
			status.Error(services.Reason(err))
			return result, err
		}
		for _, line := range m.Skipped {
			logger.Debug("manifest line skipped",
				logging.String(logging.FieldEventType, "manifest_line_skipped"),
				logging.String("manifest", opts.ManifestPath),
				logging.Int("line", line),
			)
		}
		jobs = m.Jobs
	}

	var recorder batch.Recorder
	if cfg.History.Enabled {
		store, err := history.Open(cfg)
		if err != nil {
			logging.WarnWithContext(logger, "history database unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run `ddsforge check` or remove the history database"),
				logging.String(logging.FieldImpact, "this run is not recorded in history"),
			)
		} else {
			defer store.Close()
			recorder = store
			pruneHistory(ctx, logger, store, cfg.History.RetentionDays, opts.Now())
		}
	}

	driver := batch.NewDriver(batch.Options{
		Backend:  cfg.Codec.Backend,
		Settings: preflight.CodecSettings(cfg),
		Status:   opts.Status,
		Logger:   base,
		Recorder: recorder,
		Source:   source,
		RunID:    runID,
		Now:      opts.Now,
	})
	summary, err := driver.Run(ctx, jobs)
	result.Summary = summary
	if err != nil {
		return result, err
	}
	if errors.Is(ctx.Err(), context.Canceled) && cmdCtx.Err() == nil {
		logger.Warn("run interrupted by signal",
			logging.String(logging.FieldEventType, "run_interrupted"),
			logging.Int("failed", summary.Failed),
		)
	}
	return result, nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, CurrentLogName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func logSettingsSnapshot(logger *slog.Logger, cfg *config.Config, opts Options) {
	logger.Info("settings snapshot",
		logging.String(logging.FieldEventType, "settings_snapshot"),
		logging.String("backend", cfg.Codec.Backend),
		logging.Bool("cpu_only", cfg.ForceCPU()),
		logging.String("quality", cfg.Codec.Quality),
		logging.Bool("history_enabled", cfg.History.Enabled),
		logging.String("manifest", opts.ManifestPath),
		logging.Int("inline_jobs", len(opts.Jobs)),
	)
}

func pruneHistory(ctx context.Context, logger *slog.Logger, store *history.Store, retentionDays int, now time.Time) {
	if retentionDays <= 0 {
		return
	}
	removed, err := store.Prune(ctx, now.AddDate(0, 0, -retentionDays))
	if err != nil {
		logging.WarnWithContext(logger, "history prune failed", "history_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "old runs remain in the history database"),
		)
		return
	}
	if removed > 0 {
		logger.Info("history pruned",
			logging.String(logging.FieldEventType, "history_pruned"),
			logging.Int64("runs_removed", removed),
			logging.Int("retention_days", retentionDays),
		)
	}
}
