package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ddsforge/internal/dds"
)

func newPatchCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "patch <file.dds>...",
		Short: "Rewrite DDS headers for legacy readers",
		Long: `Patch applies the legacy header corrections to files written by other
tools: the linear-size flag and value, depth 1, zeroed reserved words and,
for DX10 files, zeroed misc flags 2. Geometry comes from each file's own
header. Patching is idempotent.`,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var failed int
			for _, path := range args {
				if err := patchOne(out, path, dryRun); err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d files not patched", errReported, failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report changes without writing")
	return cmd
}

func patchOne(out io.Writer, path string, dryRun bool) error {
	info, err := inspectFile(path)
	if err != nil {
		return err
	}
	g, err := dds.GeometryFromHeader(info.header)
	if err != nil {
		return err
	}
	var changes []dds.FieldChange
	if dryRun {
		changes = dds.PatchBytes(bytes.Clone(info.prefix), g)
	} else {
		changes, err = dds.PatchFile(path, g)
		if err != nil {
			return err
		}
	}

	verb := "patched"
	if dryRun {
		verb = "would patch"
	}
	if len(changes) == 0 {
		fmt.Fprintf(out, "%s: already legacy compatible\n", path)
		return nil
	}
	fmt.Fprintf(out, "%s: %s %d words\n", path, verb, len(changes))
	for _, c := range changes {
		fmt.Fprintf(out, "  %-22s @%-3d 0x%08X -> 0x%08X\n", c.Field, c.Offset, c.Old, c.New)
	}
	return nil
}
