package texture

// BlockFormat is a GPU block-compression target.
type BlockFormat int

const (
	BC7 BlockFormat = iota
	BC1
	BC3
	BC4
	BC5
	BC6
)

var formatNames = map[BlockFormat]string{
	BC1: "BC1",
	BC3: "BC3",
	BC4: "BC4",
	BC5: "BC5",
	BC6: "BC6",
	BC7: "BC7",
}

// Formats lists every supported target in status-stream order.
var Formats = []BlockFormat{BC1, BC3, BC4, BC5, BC6, BC7}

// String returns the name used on the status stream.
func (f BlockFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether f is one of the supported targets.
func (f BlockFormat) Valid() bool {
	_, ok := formatNames[f]
	return ok
}

// ColorspaceHint is the caller-supplied colorspace classification for a job.
// The pipeline treats it as opaque; it only matters for containers that carry
// no explicit colorspace tag.
type ColorspaceHint int

const (
	HintAuto ColorspaceHint = iota
	HintForceLinear
	HintForceSRGB
)

func (h ColorspaceHint) String() string {
	switch h {
	case HintForceLinear:
		return "linear"
	case HintForceSRGB:
		return "srgb"
	default:
		return "auto"
	}
}
