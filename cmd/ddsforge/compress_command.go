package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ddsforge/internal/batchrun"
	"ddsforge/internal/classify"
	"ddsforge/internal/manifest"
	"ddsforge/internal/texture"
)

func newCompressCommand(ctx *commandContext) *cobra.Command {
	var hint string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "compress <input> <output> <maxExtent> [format]",
		Short: "Transcode a single DDS file",
		Long: `Compress runs one job through the same pipeline as a batch. maxExtent
must be between 1 and 16384. format is one of bc1, bc3, bc4, bc5, bc6, bc7;
when omitted, batch.default_format from the configuration is used.`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			maxExtent, err := parseMaxExtent(args[2])
			if err != nil {
				return err
			}
			format := cfg.Batch.DefaultFormat
			if len(args) == 4 {
				format = args[3]
			}
			job := texture.Job{
				InputPath:  args[0],
				OutputPath: args[1],
				MaxExtent:  maxExtent,
				Format:     classify.ResolveTargetFormat(format),
				Hint:       manifest.ParseHint(hint),
			}
			res, err := batchrun.Run(cmd.Context(), cfg, batchrun.Options{
				Jobs:     []texture.Job{job},
				Source:   "compress " + job.InputPath,
				LogLevel: logLevel,
				Status:   cmd.ErrOrStderr(),
				Console:  cmd.OutOrStdout(),
			})
			return runExitError(res, err)
		},
	}

	cmd.Flags().StringVar(&hint, "hint", "auto", "Colorspace hint for untagged inputs: auto, linear or srgb")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for this run")
	return cmd
}

func parseMaxExtent(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("maxExtent %q is not an integer", value)
	}
	if n < 1 || n > texture.MaxMipExtent {
		return 0, fmt.Errorf("maxExtent must be between 1 and %d, got %d", texture.MaxMipExtent, n)
	}
	return n, nil
}
