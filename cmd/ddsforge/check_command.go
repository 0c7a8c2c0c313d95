package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ddsforge/internal/codec"
	"ddsforge/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify directories, codec backend and history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			if strings.TrimSpace(manifestPath) != "" {
				results = append(results, preflight.CheckManifest(manifestPath))
			}

			settings := preflight.CodecSettings(cfg)
			configuration := checkSection{title: "Configuration"}
			configLine := checkLine{label: "Config file", state: checkPass, detail: ctx.configPath}
			if !ctx.configSeen {
				configLine.state = checkNote
				configLine.detail += " (not found, using defaults)"
			}
			configuration.lines = append(configuration.lines,
				configLine,
				checkLine{label: "Compiled backends", state: checkNote, detail: strings.Join(codec.Backends(), ", ")},
				checkLine{label: "Quality", state: checkNote, detail: settings.Quality.String()},
			)
			accel := checkLine{label: "Accelerator", state: checkNote, detail: "requested"}
			if settings.ForceNonAccelerated {
				accel = checkLine{label: "Accelerator", state: checkSkip, detail: "disabled (CPU-only mode)"}
			}
			configuration.lines = append(configuration.lines, accel)

			checks := checkSection{title: "Checks"}
			for _, r := range results {
				checks.lines = append(checks.lines, checkLineFromResult(r))
			}
			if !cfg.History.Enabled {
				checks.lines = append(checks.lines, checkLine{label: "History database", state: checkSkip, detail: "history.enabled is false"})
			}
			renderCheckReport(out, []checkSection{configuration, checks}, colorize)

			if failed := preflight.Failed(results); len(failed) > 0 {
				return errors.New(pluralize(len(failed), "check") + " failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Also validate this batch file")
	return cmd
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
