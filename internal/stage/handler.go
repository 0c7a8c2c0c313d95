package stage

import (
	"context"

	"ddsforge/internal/texture"
)

// Outcome describes a successfully transcoded job.
type Outcome struct {
	OriginalWidth  int
	OriginalHeight int
	Width          int
	Height         int
	Format         texture.BlockFormat
	MipCount       int
	SRGB           bool
	Accelerated    bool
	// Patched is false when the legacy header patch was skipped.
	Patched bool
}

// Handler describes the contract the batch driver needs from the per-job stage.
type Handler interface {
	Execute(context.Context, texture.Job) (Outcome, error)
	HealthCheck(context.Context) Health
}
