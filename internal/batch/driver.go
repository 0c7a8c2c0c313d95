package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"ddsforge/internal/codec"
	"ddsforge/internal/logging"
	"ddsforge/internal/services"
	"ddsforge/internal/stage"
	"ddsforge/internal/texture"
	"ddsforge/internal/transcode"
)

// Messages for run-fatal ERROR lines.
const (
	MessageNoJobs    = "No valid jobs found in batch file"
	MessageCancelled = "Batch cancelled"
)

// HandlerFactory builds the per-job stage for an open codec context.
type HandlerFactory func(codec.Context, *slog.Logger) stage.Handler

// Options configures a Driver.
type Options struct {
	// Backend is the registered codec name.
	Backend  string
	Settings codec.Settings
	// Status receives the status stream; typically stderr.
	Status   io.Writer
	Logger   *slog.Logger
	Recorder Recorder
	// Source labels the run in history, e.g. the manifest path.
	Source string
	// RunID overrides the generated run identifier.
	RunID string
	// NewHandler defaults to the transcode stage.
	NewHandler HandlerFactory
	Now        func() time.Time
}

// Driver runs batches of jobs.
type Driver struct {
	opts   Options
	status *StatusWriter
	logger *slog.Logger
}

// NewDriver builds a Driver from opts.
func NewDriver(opts Options) *Driver {
	if opts.NewHandler == nil {
		opts.NewHandler = func(c codec.Context, logger *slog.Logger) stage.Handler {
			return transcode.New(c, logger)
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Driver{
		opts:   opts,
		status: NewStatusWriter(opts.Status),
		logger: logging.NewComponentLogger(opts.Logger, "batch"),
	}
}

// RunID returns the identifier the next Run will use, generating one if the
// options did not supply it.
func (d *Driver) RunID() string {
	if d.opts.RunID == "" {
		d.opts.RunID = uuid.NewString()
	}
	return d.opts.RunID
}

// Run processes jobs sequentially. It returns an error only for run-fatal
// conditions; per-job failures are reported in the Summary.
func (d *Driver) Run(ctx context.Context, jobs []texture.Job) (Summary, error) {
	runID := d.RunID()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, d.logger)

	summary := Summary{RunID: runID, Source: d.opts.Source, Started: d.opts.Now()}
	if len(jobs) == 0 {
		d.status.Error(MessageNoJobs)
		return summary, services.Wrap(services.ErrManifest, "batch", "run", MessageNoJobs, nil)
	}

	cc, err := codec.Open(d.opts.Backend, d.opts.Settings)
	if err != nil {
		d.status.Error("Failed to initialize texture codec: " + err.Error())
		return summary, services.Wrap(services.ErrConfiguration, "batch", "open codec", "Failed to initialize texture codec", err)
	}
	defer func() {
		if err := cc.Close(); err != nil {
			logging.WarnWithContext(logger, "codec context close failed", "codec_close_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "accelerator resources released at process exit"),
			)
		}
	}()

	handler := d.opts.NewHandler(cc, d.opts.Logger)
	if h := handler.HealthCheck(ctx); !h.Ready {
		d.status.Error("Texture codec not ready: " + h.Detail)
		return summary, services.Wrap(services.ErrConfiguration, "batch", "health check", "Texture codec not ready", errors.New(h.Detail))
	}

	summary.Accelerated = cc.AccelerationEnabled()
	total := len(jobs)
	d.status.Start(total)
	d.status.Acceleration(summary.Accelerated)
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("jobs", total),
		logging.Bool("accelerated", summary.Accelerated),
		logging.String("quality", d.opts.Settings.Quality.String()),
		logging.String("source", d.opts.Source),
	)
	d.record(ctx, logger, "begin run", func() error {
		return d.recorder().BeginRun(ctx, RunInfo{
			ID:          runID,
			Source:      d.opts.Source,
			Started:     summary.Started,
			Total:       total,
			Accelerated: summary.Accelerated,
			Quality:     d.opts.Settings.Quality.String(),
		})
	})

	summary.Results = make([]JobResult, 0, total)
	for i, job := range jobs {
		index := i + 1
		jobCtx := services.WithJobIndex(ctx, index)
		result := JobResult{Index: index, Total: total, Job: job}

		started := d.opts.Now()
		if ctx.Err() != nil {
			result.Err = services.Wrap(services.ErrValidation, "batch", "run", MessageCancelled, ctx.Err())
		} else {
			result.Outcome, result.Err = d.runJob(jobCtx, handler, job)
		}
		result.Duration = d.opts.Now().Sub(started)

		jobLogger := logging.WithContext(jobCtx, d.logger)
		if result.Err != nil {
			result.Status = StatusFailed
			result.Reason = services.Reason(result.Err)
			summary.Failed++
			d.status.Fail(index, total, job.InputPath, result.Reason)
			attrs := []logging.Attr{
				logging.String("input", job.InputPath),
				logging.String("output", job.OutputPath),
				logging.Int("manifest_line", job.Line),
				logging.Error(result.Err),
			}
			if services.IsJobFailure(result.Err) {
				logging.WarnWithContext(jobLogger, "job failed", "job_failed", append(attrs,
					logging.String(logging.FieldErrorHint, "inspect the input with `ddsforge inspect`"),
					logging.String(logging.FieldImpact, "output not produced; remaining jobs continue"),
				)...)
			} else {
				logging.ErrorWithContext(jobLogger, "job aborted", "job_aborted", attrs...)
			}
		} else {
			result.Status = StatusOK
			summary.Succeeded++
			d.status.OK(index, total, job.InputPath, result.Outcome)
			jobLogger.Info("job complete",
				logging.String(logging.FieldEventType, "job_complete"),
				logging.String("input", job.InputPath),
				logging.Bool("in_place", job.InPlace()),
				logging.String("format", result.Outcome.Format.String()),
				logging.Int("mips", result.Outcome.MipCount),
				logging.Duration("elapsed", result.Duration),
			)
		}
		summary.Results = append(summary.Results, result)
		d.record(jobCtx, jobLogger, "record job", func() error {
			return d.recorder().RecordJob(jobCtx, runID, result)
		})
	}

	summary.Finished = d.opts.Now()
	d.status.End(summary.Succeeded, summary.Failed)
	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_end"),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Finished.Sub(summary.Started)),
	)
	d.record(ctx, logger, "finish run", func() error {
		return d.recorder().FinishRun(ctx, summary)
	})
	if err := d.status.Err(); err != nil {
		logging.WarnWithContext(logger, "status stream write failed", "status_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "consumers of the status stream missed events"),
		)
	}
	return summary, nil
}

// runJob isolates a single job, converting panics into job failures.
func (d *Driver) runJob(ctx context.Context, handler stage.Handler, job texture.Job) (outcome stage.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logging.WithContext(ctx, d.logger), "job panicked", "job_panic",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
			outcome = stage.Outcome{}
			err = services.Wrap(services.ErrCompress, "batch", "run job", "Internal error", fmt.Errorf("panic: %v", r))
		}
	}()
	return handler.Execute(ctx, job)
}

func (d *Driver) recorder() Recorder {
	if d.opts.Recorder == nil {
		return nopRecorder{}
	}
	return d.opts.Recorder
}

func (d *Driver) record(_ context.Context, logger *slog.Logger, op string, fn func() error) {
	if err := fn(); err != nil {
		logging.WarnWithContext(logger, "run history "+op+" failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path permissions or disable [history]"),
			logging.String(logging.FieldImpact, "run not fully recorded in history"),
		)
	}
}

type nopRecorder struct{}

func (nopRecorder) BeginRun(context.Context, RunInfo) error           { return nil }
func (nopRecorder) RecordJob(context.Context, string, JobResult) error { return nil }
func (nopRecorder) FinishRun(context.Context, Summary) error           { return nil }
