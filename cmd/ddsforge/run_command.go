package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ddsforge/internal/batchrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "run <batch-file>",
		Short: "Transcode every job listed in a batch file",
		Long: `Run reads a batch file of lines shaped like

  input|output|maxExtent|format[|colorspaceHint]

and transcodes each job in order. Progress is written to stderr as
BATCH_START, OK, FAIL and BATCH_END lines. The exit status is non-zero when
the batch could not start or any job failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			res, err := batchrun.Run(cmd.Context(), cfg, batchrun.Options{
				ManifestPath: args[0],
				LogLevel:     logLevel,
				Status:       cmd.ErrOrStderr(),
				Console:      cmd.OutOrStdout(),
			})
			return runExitError(res, err)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for this run")
	return cmd
}

func runExitError(res batchrun.Result, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %w", errReported, err)
	}
	if res.Summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d jobs failed", errReported, res.Summary.Failed, len(res.Summary.Results))
	}
	return nil
}
