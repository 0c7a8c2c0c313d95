package texture

import "path/filepath"

// Job describes one input texture and the single output file it produces.
type Job struct {
	InputPath  string
	OutputPath string
	MaxExtent  int
	Format     BlockFormat
	Hint       ColorspaceHint
	// Line is the 1-based manifest line the job came from, or 0.
	Line int
}

// InPlace reports whether the job overwrites its own input.
func (j Job) InPlace() bool {
	return filepath.Clean(j.InputPath) == filepath.Clean(j.OutputPath)
}
