package main

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ddsforge/internal/classify"
	"ddsforge/internal/dds"
)

type inspection struct {
	path   string
	prefix []byte
	header dds.Header
}

func inspectFile(path string) (inspection, error) {
	prefix, err := dds.ReadPrefix(path)
	if err != nil {
		return inspection{}, err
	}
	h, err := dds.ParseHeader(bytes.NewReader(prefix))
	if err != nil {
		return inspection{}, fmt.Errorf("%s: %w", path, err)
	}
	return inspection{path: path, prefix: prefix, header: h}, nil
}

// pendingChanges reports what the legacy patch would rewrite, without
// touching the file. ok is false when the format cannot be patched.
func (i inspection) pendingChanges() ([]dds.FieldChange, bool) {
	g, err := dds.GeometryFromHeader(i.header)
	if err != nil {
		return nil, false
	}
	buf := bytes.Clone(i.prefix)
	return dds.PatchBytes(buf, g), true
}

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "inspect <file.dds>...",
		Short:       "Show DDS header fields",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(args))
			var firstErr error
			for _, path := range args {
				info, err := inspectFile(path)
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					rows = append(rows, []string{path, "error", "", "", "", "", err.Error()})
					continue
				}
				h := info.header
				container := "legacy"
				srgb := "-"
				if h.Extended {
					container = "DX10"
					srgb = yesNo(classify.IsSRGBFormatCode(h.DXGIFormat))
				}
				legacy := "n/a"
				if changes, ok := info.pendingChanges(); ok {
					legacy = "ready"
					if len(changes) > 0 {
						legacy = fmt.Sprintf("needs patch (%d words)", len(changes))
					}
				}
				rows = append(rows, []string{
					path,
					h.Format,
					fmt.Sprintf("%dx%d", h.Width, h.Height),
					strconv.FormatUint(uint64(h.MipMapCount), 10),
					container,
					srgb,
					legacy,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{pathCol("File"), textCol("Format"), numberCol("Extent"), numberCol("Mips"), textCol("Container"), textCol("sRGB"), textCol("Legacy header")},
				rows,
			))
			return firstErr
		},
	}
}
