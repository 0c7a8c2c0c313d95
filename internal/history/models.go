package history

import "time"

// Run is a stored batch run.
type Run struct {
	ID          string
	Source      string
	StartedAt   time.Time
	FinishedAt  time.Time
	Total       int
	Succeeded   int
	Failed      int
	Accelerated bool
	Quality     string
}

// Finished reports whether the run recorded its end.
func (r Run) Finished() bool { return !r.FinishedAt.IsZero() }

// JobRecord is a stored per-job result.
type JobRecord struct {
	RunID          string
	Index          int
	ManifestLine   int
	InputPath      string
	OutputPath     string
	MaxExtent      int
	Format         string
	Hint           string
	Status         string
	Reason         string
	OriginalWidth  int
	OriginalHeight int
	Width          int
	Height         int
	MipCount       int
	SRGB           bool
	Patched        bool
	Duration       time.Duration
}
