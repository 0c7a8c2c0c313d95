package batch

import (
	"context"
	"time"

	"ddsforge/internal/stage"
	"ddsforge/internal/texture"
)

// Status values recorded for jobs.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// RunInfo identifies a run when it starts.
type RunInfo struct {
	ID          string
	Source      string
	Started     time.Time
	Total       int
	Accelerated bool
	Quality     string
}

// JobResult is emitted once per job and never mutated afterwards.
type JobResult struct {
	Index    int
	Total    int
	Job      texture.Job
	Status   string
	Reason   string
	Err      error
	Outcome  stage.Outcome
	Duration time.Duration
}

// Summary describes a finished run.
type Summary struct {
	RunID       string
	Source      string
	Started     time.Time
	Finished    time.Time
	Accelerated bool
	Succeeded   int
	Failed      int
	Results     []JobResult
}

// Recorder persists run history. Recorder errors are logged by the driver
// and never affect the run.
type Recorder interface {
	BeginRun(ctx context.Context, run RunInfo) error
	RecordJob(ctx context.Context, runID string, result JobResult) error
	FinishRun(ctx context.Context, summary Summary) error
}
