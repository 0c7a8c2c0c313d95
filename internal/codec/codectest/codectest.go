// Package codectest provides a recording codec.Context for tests.
//
// The double reads real DDS headers on Load, tracks every surface it hands
// out, and writes a modern-writer style container (no linear-size flag, zero
// pitch and depth, a watermark in the reserved words) so the legacy header
// patcher has something realistic to repair.
package codectest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"ddsforge/internal/codec"
	"ddsforge/internal/dds"
	"ddsforge/internal/texture"
)

// Op names a codec call for failure injection.
type Op string

const (
	OpLoad     Op = "load"
	OpResize   Op = "resize"
	OpNextMip  Op = "nextmip"
	OpCreate   Op = "create"
	OpHeader   Op = "header"
	OpCompress Op = "compress"
)

// Watermark is written into every reserved word of produced headers.
const Watermark = 0x5454564e

// OutputRecord summarizes what was written to one output path.
type OutputRecord struct {
	Format   texture.BlockFormat
	SRGB     bool
	MipCount int
	Width    int
	Height   int
	Levels   []Level
}

// Level is the extent of one compressed level.
type Level struct {
	Index  int
	Width  int
	Height int
}

// Codec is a codec.Context double. The zero value is not usable; use New.
type Codec struct {
	mu sync.Mutex

	settings    codec.Settings
	accelerated bool
	closed      bool

	failures map[failureKey]error
	// MipOverride, when set, replaces the extent of every generated level.
	MipOverride func(w, h int) (int, int)
	// PanicOnLoad makes Load panic for the given input path.
	PanicOnLoad string
	// RemoveOnClose deletes each output file when its Output is closed, so a
	// later header patch has nothing to open.
	RemoveOnClose bool

	calls   []string
	outputs map[string]*OutputRecord
	live    int
}

type failureKey struct {
	op   Op
	path string
}

// New returns a double that reports acceleration unless settings force it off.
func New(settings codec.Settings) *Codec {
	return &Codec{
		settings:    settings,
		accelerated: !settings.ForceNonAccelerated,
		failures:    make(map[failureKey]error),
		outputs:     make(map[string]*OutputRecord),
	}
}

// Opener adapts c to codec.Opener, for registration or direct use.
func (c *Codec) Opener() codec.Opener {
	return func(settings codec.Settings) (codec.Context, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.settings = settings
		c.accelerated = !settings.ForceNonAccelerated
		return c, nil
	}
}

// FailOn makes op fail for path. Load, resize, and nextmip key on the input
// path; create, header, and compress key on the output path.
func (c *Codec) FailOn(op Op, path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		err = fmt.Errorf("injected %s failure", op)
	}
	c.failures[failureKey{op: op, path: path}] = err
}

// Settings returns the settings the context was opened with.
func (c *Codec) Settings() codec.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Calls returns the recorded call log.
func (c *Codec) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// Output returns the record for an output path.
func (c *Codec) Output(path string) (OutputRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.outputs[path]
	if !ok {
		return OutputRecord{}, false
	}
	out := *rec
	out.Levels = append([]Level(nil), rec.Levels...)
	return out, true
}

// LiveSurfaces is the number of surfaces handed out and not yet closed.
func (c *Codec) LiveSurfaces() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Closed reports whether Close was called.
func (c *Codec) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Codec) record(format string, args ...any) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *Codec) failure(op Op, path string) error {
	return c.failures[failureKey{op: op, path: path}]
}

func (c *Codec) AccelerationEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accelerated
}

func (c *Codec) Load(path string) (codec.Surface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("load %s", path)
	if path == c.PanicOnLoad && path != "" {
		panic("codectest: injected panic loading " + path)
	}
	if err := c.failure(OpLoad, path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h, err := dds.ParseHeader(f)
	if err != nil {
		return nil, err
	}
	if h.Width == 0 || h.Height == 0 {
		return nil, errors.New("zero extent")
	}
	return c.newSurface(int(h.Width), int(h.Height), path), nil
}

func (c *Codec) Accelerate(s codec.Surface) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.accelerated {
		return
	}
	surf := s.(*surface)
	surf.onAccelerator = true
	c.record("accelerate %dx%d", surf.w, surf.h)
}

func (c *Codec) Resize(s codec.Surface, maxExtent int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	surf := s.(*surface)
	c.record("resize %dx%d max=%d", surf.w, surf.h, maxExtent)
	if err := c.failure(OpResize, surf.source); err != nil {
		return err
	}
	surf.w, surf.h = texture.FitExtent(surf.w, surf.h, maxExtent)
	return nil
}

func (c *Codec) NextMip(prev codec.Surface) (codec.Surface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := prev.(*surface)
	c.record("nextmip %dx%d", p.w, p.h)
	if err := c.failure(OpNextMip, p.source); err != nil {
		return nil, err
	}
	w, h := texture.MipExtent(p.w, p.h, 1)
	if c.MipOverride != nil {
		w, h = c.MipOverride(w, h)
	}
	next := c.newSurface(w, h, p.source)
	next.onAccelerator = p.onAccelerator
	return next, nil
}

func (c *Codec) CreateOutput(spec codec.OutputSpec) (codec.Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("create %s", spec.Path)
	if err := c.failure(OpCreate, spec.Path); err != nil {
		return nil, err
	}
	f, err := os.Create(spec.Path)
	if err != nil {
		return nil, err
	}
	return &output{codec: c, spec: spec, file: f}, nil
}

func (c *Codec) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("close")
	c.closed = true
	return nil
}

func (c *Codec) newSurface(w, h int, source string) *surface {
	c.live++
	return &surface{codec: c, w: w, h: h, source: source}
}

type surface struct {
	codec         *Codec
	w, h          int
	source        string
	onAccelerator bool
	released      bool
}

func (s *surface) Width() int  { return s.w }
func (s *surface) Height() int { return s.h }

func (s *surface) Close() {
	s.codec.mu.Lock()
	defer s.codec.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.codec.live--
}

type output struct {
	codec *Codec
	spec  codec.OutputSpec
	file  *os.File
}

func (o *output) WriteHeader(top codec.Surface, mipCount int) error {
	c := o.codec
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("header %s %dx%d mips=%d format=%s srgb=%t", o.spec.Path, top.Width(), top.Height(), mipCount, o.spec.Format, o.spec.SRGB)
	if err := c.failure(OpHeader, o.spec.Path); err != nil {
		return err
	}
	if _, err := o.file.Write(headerBytes(top.Width(), top.Height(), mipCount, o.spec)); err != nil {
		return err
	}
	c.outputs[o.spec.Path] = &OutputRecord{
		Format:   o.spec.Format,
		SRGB:     o.spec.SRGB,
		MipCount: mipCount,
		Width:    top.Width(),
		Height:   top.Height(),
	}
	return nil
}

func (o *output) CompressBatch(records []codec.BatchRecord) error {
	c := o.codec
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("compress %s levels=%d", o.spec.Path, len(records))
	if err := c.failure(OpCompress, o.spec.Path); err != nil {
		return err
	}
	rec, ok := c.outputs[o.spec.Path]
	if !ok {
		return errors.New("compress before header")
	}
	var payload int
	for _, r := range records {
		w, h := r.Surface.Width(), r.Surface.Height()
		rec.Levels = append(rec.Levels, Level{Index: r.Level, Width: w, Height: h})
		payload += int(texture.LegacyLinearSize(w, h, o.spec.Format))
	}
	_, err := o.file.Write(make([]byte, payload))
	return err
}

func (o *output) Close() error {
	if err := o.file.Close(); err != nil {
		return err
	}
	o.codec.mu.Lock()
	remove := o.codec.RemoveOnClose
	o.codec.mu.Unlock()
	if remove {
		return os.Remove(o.spec.Path)
	}
	return nil
}

// headerBytes renders a DX10 container header the way a modern writer does.
func headerBytes(w, h, mipCount int, spec codec.OutputSpec) []byte {
	buf := make([]byte, dds.PrefixSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:], dds.Magic)
	le.PutUint32(buf[4:], 124)
	le.PutUint32(buf[dds.OffsetFlags:], 0x1|0x2|0x4|0x1000|0x20000)
	le.PutUint32(buf[dds.OffsetHeight:], uint32(h))
	le.PutUint32(buf[dds.OffsetWidth:], uint32(w))
	le.PutUint32(buf[dds.OffsetMipMapCount:], uint32(mipCount))
	for i := 0; i < dds.Reserved1Words; i++ {
		le.PutUint32(buf[dds.OffsetReserved1+4*i:], Watermark)
	}
	le.PutUint32(buf[76:], 32)
	le.PutUint32(buf[dds.OffsetPixelFormatFlags:], dds.PixelFormatFourCC)
	copy(buf[dds.OffsetFourCC:], dds.ExtendedTag[:])
	le.PutUint32(buf[108:], 0x1000|0x400000|0x8)
	le.PutUint32(buf[dds.OffsetDXGIFormat:], dxgiCode(spec.Format, spec.SRGB))
	le.PutUint32(buf[132:], 3)
	le.PutUint32(buf[140:], 1)
	le.PutUint32(buf[dds.OffsetMiscFlags2:], 1)
	return buf
}

func dxgiCode(format texture.BlockFormat, srgb bool) uint32 {
	switch format {
	case texture.BC1:
		if srgb {
			return dds.DXGIFormatBC1UnormSRGB
		}
		return dds.DXGIFormatBC1Unorm
	case texture.BC3:
		if srgb {
			return dds.DXGIFormatBC3UnormSRGB
		}
		return dds.DXGIFormatBC3Unorm
	case texture.BC4:
		return dds.DXGIFormatBC4Unorm
	case texture.BC5:
		return dds.DXGIFormatBC5Unorm
	case texture.BC6:
		return dds.DXGIFormatBC6HUF16
	default:
		if srgb {
			return dds.DXGIFormatBC7UnormSRGB
		}
		return dds.DXGIFormatBC7Unorm
	}
}
