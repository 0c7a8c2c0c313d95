package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ddsforge/internal/batch"
)

var _ batch.Recorder = (*Store)(nil)

// ErrRunNotFound is returned when a run ID has no stored row.
var ErrRunNotFound = errors.New("run not found")

// BeginRun inserts the run row.
func (s *Store) BeginRun(ctx context.Context, run batch.RunInfo) error {
	err := s.exec(ctx,
		`INSERT INTO runs (id, source, started_at, total, accelerated, quality) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, formatTime(run.Started), run.Total, boolInt(run.Accelerated), run.Quality,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// RecordJob stores one job result. Recording the same index twice replaces it.
func (s *Store) RecordJob(ctx context.Context, runID string, result batch.JobResult) error {
	o := result.Outcome
	format := result.Job.Format.String()
	if result.Status == batch.StatusOK {
		format = o.Format.String()
	}
	err := s.exec(ctx, `INSERT OR REPLACE INTO job_results (
			run_id, job_index, manifest_line, input_path, output_path, max_extent, format, hint,
			status, reason, original_width, original_height, width, height, mip_count, srgb, patched, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, result.Index, result.Job.Line, result.Job.InputPath, result.Job.OutputPath, result.Job.MaxExtent,
		format, result.Job.Hint.String(), result.Status, result.Reason,
		o.OriginalWidth, o.OriginalHeight, o.Width, o.Height, o.MipCount,
		boolInt(o.SRGB), boolInt(o.Patched), result.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert job %d for run %s: %w", result.Index, runID, err)
	}
	return nil
}

// FinishRun stores the final counts of a run.
func (s *Store) FinishRun(ctx context.Context, summary batch.Summary) error {
	err := s.exec(ctx,
		`UPDATE runs SET finished_at = ?, succeeded = ?, failed = ? WHERE id = ?`,
		nullableTime(summary.Finished), summary.Succeeded, summary.Failed, summary.RunID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", summary.RunID, err)
	}
	return nil
}

const runColumns = `id, source, started_at, finished_at, total, succeeded, failed, accelerated, quality`

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run by ID, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// RunJobs returns the jobs of a run in manifest order.
func (s *Store) RunJobs(ctx context.Context, runID string) ([]JobRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
			run_id, job_index, manifest_line, input_path, output_path, max_extent, format, hint,
			status, reason, original_width, original_height, width, height, mip_count, srgb, patched, duration_ms
		FROM job_results WHERE run_id = ? ORDER BY job_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("list jobs for run %s: %w", runID, err)
	}
	defer rows.Close()

	var jobs []JobRecord
	for rows.Next() {
		var (
			j             JobRecord
			srgb, patched int
			durationMS    int64
		)
		if err := rows.Scan(
			&j.RunID, &j.Index, &j.ManifestLine, &j.InputPath, &j.OutputPath, &j.MaxExtent, &j.Format, &j.Hint,
			&j.Status, &j.Reason, &j.OriginalWidth, &j.OriginalHeight, &j.Width, &j.Height, &j.MipCount,
			&srgb, &patched, &durationMS,
		); err != nil {
			return nil, err
		}
		j.SRGB = srgb != 0
		j.Patched = patched != 0
		j.Duration = time.Duration(durationMS) * time.Millisecond
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Prune deletes runs that started before cutoff along with their jobs.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, formatTime(cutoff))
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run         Run
		started     string
		finished    sql.NullString
		accelerated int
	)
	if err := row.Scan(&run.ID, &run.Source, &started, &finished, &run.Total,
		&run.Succeeded, &run.Failed, &accelerated, &run.Quality); err != nil {
		return Run{}, err
	}
	t, err := parseTime(started)
	if err != nil {
		return Run{}, fmt.Errorf("run %s started_at: %w", run.ID, err)
	}
	run.StartedAt = t
	if finished.Valid {
		if t, err := parseTime(finished.String); err == nil {
			run.FinishedAt = t
		}
	}
	run.Accelerated = accelerated != 0
	return run, nil
}
