package codec

import (
	"fmt"
	"strings"

	"ddsforge/internal/texture"
)

// Quality is the codec's speed versus fidelity tier.
type Quality int

const (
	QualityFastest Quality = iota
	QualityNormal
	QualityProduction
	QualityHighest
)

func (q Quality) String() string {
	switch q {
	case QualityFastest:
		return "fastest"
	case QualityNormal:
		return "normal"
	case QualityProduction:
		return "production"
	case QualityHighest:
		return "highest"
	default:
		return fmt.Sprintf("quality(%d)", int(q))
	}
}

// ParseQuality maps a tier name to a Quality. Matching is case-insensitive.
func ParseQuality(name string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fastest":
		return QualityFastest, nil
	case "", "normal":
		return QualityNormal, nil
	case "production":
		return QualityProduction, nil
	case "highest":
		return QualityHighest, nil
	default:
		return QualityNormal, fmt.Errorf("unknown quality tier %q", name)
	}
}

// Settings is the explicit configuration a codec context is opened with.
type Settings struct {
	ForceNonAccelerated bool
	Quality             Quality
}

// Surface is an in-memory image owned by the codec.
type Surface interface {
	Width() int
	Height() int
	// Close releases the surface. Calling it more than once is a no-op.
	Close()
}

// OutputSpec describes one output container.
type OutputSpec struct {
	Path   string
	Format texture.BlockFormat
	SRGB   bool
}

// BatchRecord is one level of one face queued for compression.
type BatchRecord struct {
	Surface Surface
	Face    int
	Level   int
}

// Output is an open output container. The header is written before any
// compressed level.
type Output interface {
	WriteHeader(top Surface, mipCount int) error
	// CompressBatch compresses every record in one call. It either writes all
	// levels or fails as a whole.
	CompressBatch(records []BatchRecord) error
	Close() error
}

// Context is one codec execution context, shared by every job of a run.
type Context interface {
	// AccelerationEnabled reports whether work runs on an accelerator.
	AccelerationEnabled() bool
	Load(path string) (Surface, error)
	// Accelerate moves the surface to the accelerator when one is enabled.
	// It never fails; without an accelerator it does nothing.
	Accelerate(s Surface)
	// Resize scales s in place so its larger axis equals maxExtent,
	// preserving aspect ratio.
	Resize(s Surface, maxExtent int) error
	// NextMip returns a new surface holding the level below prev.
	NextMip(prev Surface) (Surface, error)
	CreateOutput(spec OutputSpec) (Output, error)
	Close() error
}
