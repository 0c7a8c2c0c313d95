//go:build nvtt && cgo

package nvtt

/*
#cgo LDFLAGS: -lnvtt
#include <stdlib.h>
#include <nvtt/nvtt_wrapper.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"ddsforge/internal/codec"
	"ddsforge/internal/texture"
)

func init() {
	codec.Register(Name, Open)
}

// Context owns one NVTT context. All NVTT calls run on a single locked OS
// thread so accelerator state stays bound to one thread for the whole run.
type Context struct {
	ctx         *C.NvttContext
	quality     C.NvttQuality
	accelerated bool

	calls     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// Open creates an NVTT context. Acceleration is requested unless settings
// force it off; NVTT silently falls back to the CPU when no device exists.
func Open(settings codec.Settings) (codec.Context, error) {
	c := &Context{
		quality: qualityFor(settings.Quality),
		calls:   make(chan func()),
		done:    make(chan struct{}),
	}
	go c.loop()

	var err error
	c.do(func() {
		c.ctx = C.nvttCreateContext()
		if c.ctx == nil {
			err = errors.New("nvttCreateContext returned nil")
			return
		}
		C.nvttSetContextCudaAcceleration(c.ctx, boolean(!settings.ForceNonAccelerated))
		c.accelerated = C.nvttContextIsCudaAccelerationEnabled(c.ctx) == C.NVTT_True
	})
	if err != nil {
		close(c.calls)
		<-c.done
		return nil, err
	}
	return c, nil
}

func (c *Context) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(c.done)
	for fn := range c.calls {
		fn()
	}
}

// do runs fn on the NVTT thread and waits for it.
func (c *Context) do(fn func()) {
	finished := make(chan struct{})
	c.calls <- func() {
		defer close(finished)
		fn()
	}
	<-finished
}

func (c *Context) AccelerationEnabled() bool { return c.accelerated }

func (c *Context) Load(path string) (codec.Surface, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var s *C.NvttSurface
	var ok bool
	c.do(func() {
		s = C.nvttCreateSurface()
		if s == nil {
			return
		}
		ok = C.nvttSurfaceLoad(s, cpath, nil, C.NVTT_False, nil) == C.NVTT_True
		if !ok {
			C.nvttDestroySurface(s)
			s = nil
		}
	})
	if s == nil || !ok {
		return nil, fmt.Errorf("nvtt could not load %s", path)
	}
	return c.wrap(s), nil
}

func (c *Context) Accelerate(s codec.Surface) {
	if !c.accelerated {
		return
	}
	surf := s.(*surface)
	c.do(func() {
		C.nvttSurfaceToGPU(surf.ptr, C.NVTT_True, nil)
	})
}

func (c *Context) Resize(s codec.Surface, maxExtent int) error {
	if maxExtent <= 0 {
		return fmt.Errorf("invalid max extent %d", maxExtent)
	}
	surf := s.(*surface)
	c.do(func() {
		C.nvttSurfaceResizeMax(surf.ptr, C.int(maxExtent), C.NVTT_RoundMode_None, C.NVTT_ResizeFilter_Kaiser, nil)
	})
	return nil
}

func (c *Context) NextMip(prev codec.Surface) (codec.Surface, error) {
	p := prev.(*surface)
	var next *C.NvttSurface
	var ok bool
	c.do(func() {
		next = C.nvttSurfaceClone(p.ptr)
		if next == nil {
			return
		}
		ok = C.nvttSurfaceBuildNextMipmapDefaults(next, C.NVTT_MipmapFilter_Kaiser, 1, nil) == C.NVTT_True
		if !ok {
			C.nvttDestroySurface(next)
			next = nil
		}
	})
	if next == nil || !ok {
		return nil, fmt.Errorf("nvtt could not build the level below %dx%d", p.Width(), p.Height())
	}
	return c.wrap(next), nil
}

func (c *Context) CreateOutput(spec codec.OutputSpec) (codec.Output, error) {
	format, err := formatFor(spec.Format)
	if err != nil {
		return nil, err
	}
	cpath := C.CString(spec.Path)
	defer C.free(unsafe.Pointer(cpath))

	out := &output{ctx: c}
	c.do(func() {
		out.compression = C.nvttCreateCompressionOptions()
		C.nvttSetCompressionOptionsFormat(out.compression, format)
		C.nvttSetCompressionOptionsQuality(out.compression, c.quality)

		out.options = C.nvttCreateOutputOptions()
		C.nvttSetOutputOptionsFileName(out.options, cpath)
		C.nvttSetOutputOptionsContainer(out.options, C.NVTT_Container_DDS10)
		if spec.SRGB {
			C.nvttSetOutputOptionsSrgbFlag(out.options, C.NVTT_True)
		}
	})
	return out, nil
}

func (c *Context) Close() error {
	c.closeOnce.Do(func() {
		c.do(func() {
			if c.ctx != nil {
				C.nvttDestroyContext(c.ctx)
				c.ctx = nil
			}
		})
		close(c.calls)
		<-c.done
	})
	return nil
}

func (c *Context) wrap(ptr *C.NvttSurface) *surface {
	s := &surface{ctx: c, ptr: ptr}
	c.do(func() {
		s.w = int(C.nvttSurfaceWidth(ptr))
		s.h = int(C.nvttSurfaceHeight(ptr))
	})
	return s
}

type surface struct {
	ctx  *Context
	ptr  *C.NvttSurface
	w, h int
}

// Width and Height are refreshed after every in-place resize.
func (s *surface) Width() int  { s.refresh(); return s.w }
func (s *surface) Height() int { s.refresh(); return s.h }

func (s *surface) refresh() {
	if s.ptr == nil {
		return
	}
	s.ctx.do(func() {
		s.w = int(C.nvttSurfaceWidth(s.ptr))
		s.h = int(C.nvttSurfaceHeight(s.ptr))
	})
}

func (s *surface) Close() {
	if s.ptr == nil {
		return
	}
	ptr := s.ptr
	s.ptr = nil
	s.ctx.do(func() { C.nvttDestroySurface(ptr) })
}

type output struct {
	ctx         *Context
	compression *C.NvttCompressionOptions
	options     *C.NvttOutputOptions
}

func (o *output) WriteHeader(top codec.Surface, mipCount int) error {
	surf := top.(*surface)
	var ok bool
	o.ctx.do(func() {
		ok = C.nvttContextOutputHeader(o.ctx.ctx, surf.ptr, C.int(mipCount), o.compression, o.options) == C.NVTT_True
	})
	if !ok {
		return errors.New("nvttContextOutputHeader failed")
	}
	return nil
}

func (o *output) CompressBatch(records []codec.BatchRecord) error {
	var ok bool
	o.ctx.do(func() {
		batch := C.nvttCreateBatchList()
		defer C.nvttDestroyBatchList(batch)
		for _, r := range records {
			surf := r.Surface.(*surface)
			C.nvttBatchListAppend(batch, surf.ptr, C.int(r.Face), C.int(r.Level), o.options)
		}
		ok = C.nvttContextCompressBatch(o.ctx.ctx, batch, o.compression) == C.NVTT_True
	})
	if !ok {
		return fmt.Errorf("nvttContextCompressBatch failed for %d levels", len(records))
	}
	return nil
}

// Close destroys the output options, which flushes and closes the file.
func (o *output) Close() error {
	o.ctx.do(func() {
		if o.options != nil {
			C.nvttDestroyOutputOptions(o.options)
			o.options = nil
		}
		if o.compression != nil {
			C.nvttDestroyCompressionOptions(o.compression)
			o.compression = nil
		}
	})
	return nil
}

func boolean(v bool) C.NvttBoolean {
	if v {
		return C.NVTT_True
	}
	return C.NVTT_False
}

func qualityFor(q codec.Quality) C.NvttQuality {
	switch q {
	case codec.QualityFastest:
		return C.NVTT_Quality_Fastest
	case codec.QualityProduction:
		return C.NVTT_Quality_Production
	case codec.QualityHighest:
		return C.NVTT_Quality_Highest
	default:
		return C.NVTT_Quality_Normal
	}
}

func formatFor(f texture.BlockFormat) (C.NvttFormat, error) {
	switch f {
	case texture.BC1:
		return C.NVTT_Format_BC1, nil
	case texture.BC3:
		return C.NVTT_Format_BC3, nil
	case texture.BC4:
		return C.NVTT_Format_BC4, nil
	case texture.BC5:
		return C.NVTT_Format_BC5, nil
	case texture.BC6:
		return C.NVTT_Format_BC6U, nil
	case texture.BC7:
		return C.NVTT_Format_BC7, nil
	default:
		return 0, fmt.Errorf("unsupported block format %s", f)
	}
}
