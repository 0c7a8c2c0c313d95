// Package manifest parses batch job manifests.
//
// A manifest holds one job per line:
//
//	input|output|maxExtent|format[|colorspaceHint]
//
// Blank lines and lines starting with '#' are ignored. A line becomes a job
// only when both paths are non-empty and maxExtent is a positive integer;
// anything else is dropped without failing the parse. Paths are kept byte for
// byte while the numeric, format and hint fields are trimmed. The format name
// goes through classify.ResolveTargetFormat, so unknown names become BC7.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"ddsforge/internal/classify"
	"ddsforge/internal/services"
	"ddsforge/internal/texture"
)

const (
	// Delimiter separates the fields of a job line.
	Delimiter = "|"
	// CommentPrefix starts a comment line.
	CommentPrefix = "#"

	maxLineBytes = 1 << 20
)

// Manifest is the result of parsing a job manifest.
type Manifest struct {
	Jobs []texture.Job
	// Skipped lists the 1-based line numbers of dropped job lines.
	Skipped []int
}

// Load opens and parses the manifest at path.
func Load(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Manifest{}, services.Wrap(services.ErrManifest, "manifest", "open", "Failed to open batch file: "+path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a manifest from r. It only fails when r cannot be read.
func Parse(r io.Reader) (Manifest, error) {
	var m Manifest
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, CommentPrefix) {
			continue
		}
		job, ok := ParseLine(line)
		if !ok {
			m.Skipped = append(m.Skipped, lineNo)
			continue
		}
		job.Line = lineNo
		m.Jobs = append(m.Jobs, job)
	}
	if err := scanner.Err(); err != nil {
		return m, services.Wrap(services.ErrManifest, "manifest", "read", "Failed to read batch file", err)
	}
	return m, nil
}

// ParseLine converts a single job line. It reports false for lines that do
// not describe a job.
func ParseLine(line string) (texture.Job, bool) {
	fields := strings.Split(strings.TrimRight(line, "\r"), Delimiter)
	field := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	job := texture.Job{
		InputPath:  field(0),
		OutputPath: field(1),
		Format:     classify.ResolveTargetFormat(field(3)),
		Hint:       ParseHint(field(4)),
	}
	if job.InputPath == "" || job.OutputPath == "" {
		return texture.Job{}, false
	}
	extent, err := strconv.Atoi(strings.TrimSpace(field(2)))
	if err != nil || extent <= 0 {
		return texture.Job{}, false
	}
	job.MaxExtent = extent
	return job, true
}

// ParseHint maps the optional hint field. Empty and unknown values mean auto.
func ParseHint(value string) texture.ColorspaceHint {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "srgb":
		return texture.HintForceSRGB
	case "0", "linear":
		return texture.HintForceLinear
	default:
		return texture.HintAuto
	}
}

// FormatLine renders job as a manifest line.
func FormatLine(job texture.Job) string {
	hint := "-1"
	switch job.Hint {
	case texture.HintForceSRGB:
		hint = "1"
	case texture.HintForceLinear:
		hint = "0"
	}
	return fmt.Sprintf("%s|%s|%d|%s|%s", job.InputPath, job.OutputPath, job.MaxExtent, strings.ToLower(job.Format.String()), hint)
}
