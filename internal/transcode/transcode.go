// Package transcode implements the per-job pipeline: load, classify the
// output colorspace, optionally accelerate, resize, write the header, build
// the full mip chain, compress it in one batch, and patch the legacy header.
package transcode

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ddsforge/internal/classify"
	"ddsforge/internal/codec"
	"ddsforge/internal/dds"
	"ddsforge/internal/logging"
	"ddsforge/internal/services"
	"ddsforge/internal/stage"
	"ddsforge/internal/texture"
)

// StageName tags logs and errors produced by this package.
const StageName = "transcode"

// User-facing failure reasons carried on FAIL status lines.
const (
	ReasonLoad     = "Failed to load DDS file"
	ReasonHeader   = "Failed to write DDS header"
	ReasonResize   = "Resize failed"
	ReasonMipmap   = "Mipmap generation failed"
	ReasonCompress = "Compression failed"
	ReasonFinalize = "Failed to write DDS file"
)

// Stage transcodes one job at a time against a shared codec context.
type Stage struct {
	codec  codec.Context
	logger *slog.Logger
}

// New builds a Stage. The codec context is borrowed, not owned.
func New(c codec.Context, logger *slog.Logger) *Stage {
	return &Stage{codec: c, logger: logging.NewComponentLogger(logger, StageName)}
}

// HealthCheck reports whether a codec context is attached.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	if s.codec == nil {
		return stage.Unhealthy(StageName, "codec context not open")
	}
	if !s.codec.AccelerationEnabled() {
		return stage.Health{Name: StageName, Ready: true, Detail: "cpu compression"}
	}
	return stage.Health{Name: StageName, Ready: true, Detail: "accelerated compression"}
}

// Execute runs the pipeline for job. Every surface obtained from the codec is
// released before it returns. A skipped legacy patch is logged, not returned.
func (s *Stage) Execute(ctx context.Context, job texture.Job) (stage.Outcome, error) {
	ctx = services.WithStage(ctx, StageName)
	logger := logging.WithContext(ctx, s.logger)
	started := time.Now()

	var surfaces []codec.Surface
	defer func() {
		for _, surf := range surfaces {
			surf.Close()
		}
	}()

	top, err := s.codec.Load(job.InputPath)
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrLoad, StageName, "load", ReasonLoad, err)
	}
	surfaces = append(surfaces, top)

	// The output may be the input; read its header before anything truncates it.
	srgb := classify.ResolveOutputColorspace(job.InputPath, job.Hint)

	outcome := stage.Outcome{
		OriginalWidth:  top.Width(),
		OriginalHeight: top.Height(),
		Format:         job.Format,
		SRGB:           srgb,
		Accelerated:    s.codec.AccelerationEnabled(),
	}

	s.codec.Accelerate(top)

	if max(outcome.OriginalWidth, outcome.OriginalHeight) > job.MaxExtent {
		if err := s.codec.Resize(top, job.MaxExtent); err != nil {
			return stage.Outcome{}, services.Wrap(services.ErrCompress, StageName, "resize", ReasonResize, err)
		}
		logger.Debug("surface resized",
			logging.Int("max_extent", job.MaxExtent),
			logging.String("from", fmt.Sprintf("%dx%d", outcome.OriginalWidth, outcome.OriginalHeight)),
			logging.String("to", fmt.Sprintf("%dx%d", top.Width(), top.Height())),
		)
	}
	outcome.Width, outcome.Height = top.Width(), top.Height()
	outcome.MipCount = texture.MipCount(outcome.Width, outcome.Height)

	out, err := s.codec.CreateOutput(codec.OutputSpec{Path: job.OutputPath, Format: job.Format, SRGB: srgb})
	if err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrWrite, StageName, "create output", ReasonHeader, err)
	}
	outClosed := false
	defer func() {
		if !outClosed {
			_ = out.Close()
		}
	}()

	if err := out.WriteHeader(top, outcome.MipCount); err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrWrite, StageName, "write header", ReasonHeader, err)
	}

	records := make([]codec.BatchRecord, 0, outcome.MipCount)
	records = append(records, codec.BatchRecord{Surface: top, Face: 0, Level: 0})
	prev := top
	for level := 1; level < outcome.MipCount; level++ {
		next, err := s.codec.NextMip(prev)
		if err != nil {
			return stage.Outcome{}, services.Wrap(services.ErrCompress, StageName, "build mip chain", ReasonMipmap,
				fmt.Errorf("level %d: %w", level, err))
		}
		surfaces = append(surfaces, next)
		wantW, wantH := texture.MipExtent(outcome.Width, outcome.Height, level)
		if next.Width() != wantW || next.Height() != wantH {
			return stage.Outcome{}, services.Wrap(services.ErrCompress, StageName, "build mip chain", ReasonMipmap,
				fmt.Errorf("level %d is %dx%d, expected %dx%d", level, next.Width(), next.Height(), wantW, wantH))
		}
		records = append(records, codec.BatchRecord{Surface: next, Face: 0, Level: level})
		prev = next
	}

	if err := out.CompressBatch(records); err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrCompress, StageName, "compress", ReasonCompress, err)
	}
	outClosed = true
	if err := out.Close(); err != nil {
		return stage.Outcome{}, services.Wrap(services.ErrWrite, StageName, "close output", ReasonFinalize, err)
	}

	geometry := dds.Geometry{Width: outcome.Width, Height: outcome.Height, Format: job.Format}
	changes, err := dds.PatchFile(job.OutputPath, geometry)
	if err != nil {
		logging.WarnWithContext(logger, "legacy header patch skipped", "legacy_patch_skipped",
			logging.String("output", job.OutputPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `ddsforge patch` on the output once it is writable"),
			logging.String(logging.FieldImpact, "strict legacy readers may reject the file"),
		)
	} else {
		outcome.Patched = true
		logger.Debug("legacy header patched",
			logging.String("output", job.OutputPath),
			logging.Int("words_changed", len(changes)),
		)
	}

	logger.Debug("job transcoded",
		logging.String("input", job.InputPath),
		logging.String("format", job.Format.String()),
		logging.Bool("srgb", srgb),
		logging.Int("mips", outcome.MipCount),
		logging.Duration("elapsed", time.Since(started)),
	)
	return outcome, nil
}
