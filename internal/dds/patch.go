package dds

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"ddsforge/internal/texture"
)

// ErrPatchSkipped marks a patch that could not run. Callers treat it as
// best-effort: the unpatched file is still readable by modern readers.
var ErrPatchSkipped = errors.New("legacy header patch skipped")

// Geometry is the post-resize shape of the written top-level surface.
type Geometry struct {
	Width  int
	Height int
	Format texture.BlockFormat
}

// PatchOp is how a table entry combines with the existing field value.
type PatchOp int

const (
	// OpSet overwrites every word of the field.
	OpSet PatchOp = iota
	// OpOr sets bits in the existing value.
	OpOr
)

// FieldPatch describes one fixed-offset header correction.
type FieldPatch struct {
	Name   string
	Offset int
	Words  int
	Op     PatchOp
	Value  func(Geometry) uint32
	// ExtendedOnly restricts the patch to files carrying the DX10 header.
	ExtendedOnly bool
}

// Patches is the reference-writer compatibility policy.
var Patches = []FieldPatch{
	{Name: "flags", Offset: OffsetFlags, Words: 1, Op: OpOr, Value: constant(FlagLinearSize)},
	{Name: "pitch_or_linear_size", Offset: OffsetPitchOrLinearSize, Words: 1, Op: OpSet, Value: linearSize},
	{Name: "depth", Offset: OffsetDepth, Words: 1, Op: OpSet, Value: constant(1)},
	{Name: "reserved1", Offset: OffsetReserved1, Words: Reserved1Words, Op: OpSet, Value: constant(0)},
	{Name: "misc_flags2", Offset: OffsetMiscFlags2, Words: 1, Op: OpSet, Value: constant(0), ExtendedOnly: true},
}

func constant(v uint32) func(Geometry) uint32 {
	return func(Geometry) uint32 { return v }
}

func linearSize(g Geometry) uint32 {
	return texture.LegacyLinearSize(g.Width, g.Height, g.Format)
}

// FieldChange records a word the patcher rewrote.
type FieldChange struct {
	Field  string
	Offset int
	Old    uint32
	New    uint32
}

// PatchBytes applies Patches to an in-memory header prefix and returns the
// words that changed. Fields that lie beyond the end of buf are skipped.
// Applying it twice yields the same bytes as applying it once.
func PatchBytes(buf []byte, g Geometry) []FieldChange {
	extended := HasExtendedHeader(buf)
	var changes []FieldChange
	for _, p := range Patches {
		if p.ExtendedOnly && !extended {
			continue
		}
		if p.Offset+4*p.Words > len(buf) {
			continue
		}
		value := p.Value(g)
		for w := 0; w < p.Words; w++ {
			off := p.Offset + 4*w
			old := binary.LittleEndian.Uint32(buf[off:])
			next := value
			if p.Op == OpOr {
				next = old | value
			}
			if next == old {
				continue
			}
			binary.LittleEndian.PutUint32(buf[off:], next)
			changes = append(changes, FieldChange{Field: p.Name, Offset: off, Old: old, New: next})
		}
	}
	return changes
}

// PatchFile applies Patches to the header of the file at path in place.
// Only changed words are written back. Files shorter than the legacy header
// are left untouched.
func PatchFile(path string, g Geometry) ([]FieldChange, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrPatchSkipped, path, err)
	}
	defer f.Close()

	buf := make([]byte, PrefixSize)
	n, err := f.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: read header: %w", ErrPatchSkipped, err)
	}
	if n < LegacyHeaderSize {
		return nil, fmt.Errorf("%w: %s holds %d bytes, shorter than a DDS header", ErrPatchSkipped, path, n)
	}
	buf = buf[:n]

	changes := PatchBytes(buf, g)
	for _, c := range changes {
		if _, err := f.WriteAt(buf[c.Offset:c.Offset+4], int64(c.Offset)); err != nil {
			return nil, fmt.Errorf("write %s at offset %d: %w", c.Field, c.Offset, err)
		}
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", path, err)
	}
	return changes, nil
}

// GeometryFromHeader derives patch geometry from a file's own header.
func GeometryFromHeader(h Header) (Geometry, error) {
	format, ok := h.BlockFormat()
	if !ok {
		return Geometry{}, fmt.Errorf("unsupported format %s for legacy patch", h.Format)
	}
	if h.Width == 0 || h.Height == 0 {
		return Geometry{}, fmt.Errorf("header has zero extent %dx%d", h.Width, h.Height)
	}
	return Geometry{Width: int(h.Width), Height: int(h.Height), Format: format}, nil
}
