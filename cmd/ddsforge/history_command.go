package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ddsforge/internal/batch"
	"ddsforge/internal/classify"
	"ddsforge/internal/history"
	"ddsforge/internal/manifest"
	"ddsforge/internal/texture"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent batch runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						shortRunID(r.ID),
						r.StartedAt.Local().Format("2006-01-02 15:04:05"),
						runDuration(r),
						strconv.Itoa(r.Total),
						strconv.Itoa(r.Succeeded),
						strconv.Itoa(r.Failed),
						yesNo(r.Accelerated),
						r.Source,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{textCol("Run"), textCol("Started"), numberCol("Duration"), numberCol("Jobs"), numberCol("OK"), numberCol("Failed"), textCol("Accel"), textCol("Source")},
					rows,
				))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 for all)")

	historyCmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the jobs of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, err := resolveRun(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				jobs, err := store.RunJobs(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.Source)
				fmt.Fprintf(out, "Started %s, %d ok, %d failed, accelerated: %s, quality: %s\n",
					run.StartedAt.Local().Format(time.RFC3339), run.Succeeded, run.Failed, yesNo(run.Accelerated), run.Quality)
				rows := make([][]string, 0, len(jobs))
				for _, j := range jobs {
					result := "OK"
					extent := fmt.Sprintf("%dx%d->%dx%d", j.OriginalWidth, j.OriginalHeight, j.Width, j.Height)
					if j.Status != batch.StatusOK {
						result = "FAIL: " + j.Reason
						extent = ""
					}
					rows = append(rows, []string{
						strconv.Itoa(j.Index),
						j.InputPath,
						j.Format,
						extent,
						strconv.Itoa(j.MipCount),
						j.Duration.Round(time.Millisecond).String(),
						result,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{numberCol("#"), pathCol("Input"), textCol("Format"), numberCol("Extent"), numberCol("Mips"), numberCol("Time"), textCol("Result")},
					rows,
					"", pluralize(len(jobs), "job"), "", "", "", "", fmt.Sprintf("%d ok, %d failed", run.Succeeded, run.Failed),
				))
				return nil
			})
		},
	})

	var all bool
	exportCmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Print a batch file that re-runs the failed jobs of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, err := resolveRun(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				jobs, err := store.RunJobs(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "# exported from run %s (%s)\n", run.ID, run.Source)
				for _, j := range jobs {
					if !all && j.Status == batch.StatusOK {
						continue
					}
					fmt.Fprintln(out, manifest.FormatLine(jobFromRecord(j)))
				}
				return nil
			})
		},
	}
	exportCmd.Flags().BoolVar(&all, "all", false, "Include jobs that succeeded")
	historyCmd.AddCommand(exportCmd)

	return historyCmd
}

func jobFromRecord(j history.JobRecord) texture.Job {
	return texture.Job{
		InputPath:  j.InputPath,
		OutputPath: j.OutputPath,
		MaxExtent:  j.MaxExtent,
		Format:     classify.ResolveTargetFormat(j.Format),
		Hint:       manifest.ParseHint(j.Hint),
	}
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.New("run history is disabled ([history] enabled = false)")
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// resolveRun accepts a full run ID or a unique prefix of one.
func resolveRun(ctx context.Context, store *history.Store, id string) (history.Run, error) {
	id = strings.TrimSpace(id)
	run, err := store.GetRun(ctx, id)
	if err == nil || !errors.Is(err, history.ErrRunNotFound) {
		return run, err
	}
	runs, listErr := store.ListRuns(ctx, 0)
	if listErr != nil {
		return history.Run{}, listErr
	}
	var matches []history.Run
	for _, r := range runs {
		if strings.HasPrefix(r.ID, id) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return history.Run{}, err
	case 1:
		return matches[0], nil
	default:
		return history.Run{}, fmt.Errorf("run prefix %q is ambiguous (%d matches)", id, len(matches))
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runDuration(r history.Run) string {
	if !r.Finished() {
		return "unfinished"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}
