package transcode_test

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"ddsforge/internal/codec"
	"ddsforge/internal/codec/codectest"
	"ddsforge/internal/dds"
	"ddsforge/internal/logging"
	"ddsforge/internal/services"
	"ddsforge/internal/testsupport"
	"ddsforge/internal/texture"
	"ddsforge/internal/transcode"
)

func newStage(t *testing.T, settings codec.Settings) (*transcode.Stage, *codectest.Codec) {
	t.Helper()
	fake := codectest.New(settings)
	return transcode.New(fake, logging.NewNop()), fake
}

func readHeader(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(data) < dds.PrefixSize {
		t.Fatalf("%s holds only %d bytes", path, len(data))
	}
	return data[:dds.PrefixSize]
}

func TestExecuteResizesBuildsChainAndPatches(t *testing.T) {
	dir := t.TempDir()
	in := testsupport.WriteDDS(t, dir, "in.dds", testsupport.DDSHeader{Width: 2048, Height: 1024, FourCC: "DX10", DXGI: dds.DXGIFormatBC7UnormSRGB, Payload: 256})
	out := filepath.Join(dir, "out.dds")

	st, fake := newStage(t, codec.Settings{})
	job := texture.Job{InputPath: in, OutputPath: out, MaxExtent: 1024, Format: texture.BC7, Hint: texture.HintForceLinear}

	outcome, err := st.Execute(context.Background(), job)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if outcome.OriginalWidth != 2048 || outcome.OriginalHeight != 1024 {
		t.Fatalf("original extent %dx%d", outcome.OriginalWidth, outcome.OriginalHeight)
	}
	if outcome.Width != 1024 || outcome.Height != 512 {
		t.Fatalf("resized extent %dx%d", outcome.Width, outcome.Height)
	}
	if outcome.MipCount != 11 {
		t.Fatalf("mip count = %d, want 11", outcome.MipCount)
	}
	if !outcome.SRGB {
		t.Fatal("explicit sRGB input should produce sRGB output despite linear hint")
	}
	if !outcome.Accelerated || !outcome.Patched {
		t.Fatalf("unexpected outcome flags %+v", outcome)
	}

	rec, ok := fake.Output(out)
	if !ok {
		t.Fatal("no output recorded")
	}
	if len(rec.Levels) != outcome.MipCount {
		t.Fatalf("compressed %d levels, want %d", len(rec.Levels), outcome.MipCount)
	}
	for i, level := range rec.Levels {
		w, h := texture.MipExtent(1024, 512, i)
		if level.Index != i || level.Width != w || level.Height != h {
			t.Fatalf("level %d = %+v, want %dx%d", i, level, w, h)
		}
	}
	if fake.LiveSurfaces() != 0 {
		t.Fatalf("%d surfaces leaked", fake.LiveSurfaces())
	}

	hdr := readHeader(t, out)
	le := binary.LittleEndian
	if le.Uint32(hdr[dds.OffsetFlags:])&dds.FlagLinearSize == 0 {
		t.Fatal("linear size flag not set")
	}
	if got := le.Uint32(hdr[dds.OffsetPitchOrLinearSize:]); got != texture.LegacyLinearSize(1024, 512, texture.BC7) {
		t.Fatalf("linear size = %d", got)
	}
	if got := le.Uint32(hdr[dds.OffsetDepth:]); got != 1 {
		t.Fatalf("depth = %d", got)
	}
	for i := 0; i < dds.Reserved1Words; i++ {
		if got := le.Uint32(hdr[dds.OffsetReserved1+4*i:]); got != 0 {
			t.Fatalf("reserved1[%d] = 0x%x", i, got)
		}
	}
	if got := le.Uint32(hdr[dds.OffsetMiscFlags2:]); got != 0 {
		t.Fatalf("misc flags2 = %d", got)
	}
	if got := le.Uint32(hdr[dds.OffsetDXGIFormat:]); got != dds.DXGIFormatBC7UnormSRGB {
		t.Fatalf("dxgi = %d", got)
	}
}

func TestExecuteSkipsResizeWithinBounds(t *testing.T) {
	dir := t.TempDir()
	in := testsupport.WriteDDS(t, dir, "in.dds", testsupport.DDSHeader{Width: 512, Height: 512, FourCC: "DXT1", Payload: 64})
	out := filepath.Join(dir, "out.dds")

	st, fake := newStage(t, codec.Settings{ForceNonAccelerated: true})
	outcome, err := st.Execute(context.Background(), texture.Job{InputPath: in, OutputPath: out, MaxExtent: 512, Format: texture.BC1})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if outcome.Width != 512 || outcome.Height != 512 || outcome.MipCount != 10 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if outcome.SRGB {
		t.Fatal("legacy input with auto hint should be linear")
	}
	if outcome.Accelerated {
		t.Fatal("expected cpu path")
	}
	for _, call := range fake.Calls() {
		if strings.HasPrefix(call, "resize") || strings.HasPrefix(call, "accelerate") {
			t.Fatalf("unexpected call %q", call)
		}
	}
}

func TestExecuteInPlaceReadsColorspaceBeforeWriting(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteDDS(t, dir, "tex.dds", testsupport.DDSHeader{Width: 64, Height: 64, FourCC: "DX10", DXGI: dds.DXGIFormatBC1UnormSRGB, Payload: 64})

	st, fake := newStage(t, codec.Settings{})
	outcome, err := st.Execute(context.Background(), texture.Job{InputPath: path, OutputPath: path, MaxExtent: 64, Format: texture.BC1, Hint: texture.HintForceLinear})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !outcome.SRGB {
		t.Fatal("colorspace must come from the input header, not the rewritten output")
	}
	calls := fake.Calls()
	load := slices.IndexFunc(calls, func(c string) bool { return strings.HasPrefix(c, "load") })
	create := slices.IndexFunc(calls, func(c string) bool { return strings.HasPrefix(c, "create") })
	if load < 0 || create < 0 || load > create {
		t.Fatalf("unexpected call order %v", calls)
	}
}

func TestExecuteFailureReasons(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(fake *codectest.Codec, in, out string)
		marker error
		reason string
	}{
		{
			name:   "load",
			setup:  func(fake *codectest.Codec, in, out string) { fake.FailOn(codectest.OpLoad, in, nil) },
			marker: services.ErrLoad,
			reason: transcode.ReasonLoad,
		},
		{
			name:   "create",
			setup:  func(fake *codectest.Codec, in, out string) { fake.FailOn(codectest.OpCreate, out, nil) },
			marker: services.ErrWrite,
			reason: transcode.ReasonHeader,
		},
		{
			name:   "header",
			setup:  func(fake *codectest.Codec, in, out string) { fake.FailOn(codectest.OpHeader, out, nil) },
			marker: services.ErrWrite,
			reason: transcode.ReasonHeader,
		},
		{
			name:   "resize",
			setup:  func(fake *codectest.Codec, in, out string) { fake.FailOn(codectest.OpResize, in, nil) },
			marker: services.ErrCompress,
			reason: transcode.ReasonResize,
		},
		{
			name:   "nextmip",
			setup:  func(fake *codectest.Codec, in, out string) { fake.FailOn(codectest.OpNextMip, in, nil) },
			marker: services.ErrCompress,
			reason: transcode.ReasonMipmap,
		},
		{
			name: "chain mismatch",
			setup: func(fake *codectest.Codec, in, out string) {
				fake.MipOverride = func(w, h int) (int, int) { return w + 1, h }
			},
			marker: services.ErrCompress,
			reason: transcode.ReasonMipmap,
		},
		{
			name:   "compress",
			setup:  func(fake *codectest.Codec, in, out string) { fake.FailOn(codectest.OpCompress, out, errors.New("device lost")) },
			marker: services.ErrCompress,
			reason: transcode.ReasonCompress,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := testsupport.WriteDDS(t, dir, "in.dds", testsupport.DDSHeader{Width: 256, Height: 128, FourCC: "DXT5", Payload: 64})
			out := filepath.Join(dir, "out.dds")
			st, fake := newStage(t, codec.Settings{})
			tt.setup(fake, in, out)

			_, err := st.Execute(context.Background(), texture.Job{InputPath: in, OutputPath: out, MaxExtent: 128, Format: texture.BC3})
			if err == nil {
				t.Fatal("expected failure")
			}
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected marker %v, got %v", tt.marker, err)
			}
			if got := services.Reason(err); got != tt.reason {
				t.Fatalf("reason = %q, want %q", got, tt.reason)
			}
			if fake.LiveSurfaces() != 0 {
				t.Fatalf("%d surfaces leaked", fake.LiveSurfaces())
			}
		})
	}
}

func TestExecuteMissingInputFailsLoad(t *testing.T) {
	st, _ := newStage(t, codec.Settings{})
	dir := t.TempDir()
	_, err := st.Execute(context.Background(), texture.Job{InputPath: filepath.Join(dir, "missing.dds"), OutputPath: filepath.Join(dir, "out.dds"), MaxExtent: 64})
	if !errors.Is(err, services.ErrLoad) {
		t.Fatalf("expected load failure, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out.dds")); !os.IsNotExist(statErr) {
		t.Fatal("no output should be created when loading fails")
	}
}

func TestExecuteToleratesSkippedPatch(t *testing.T) {
	dir := t.TempDir()
	in := testsupport.WriteDDS(t, dir, "in.dds", testsupport.DDSHeader{Width: 32, Height: 32, FourCC: "DXT1", Payload: 64})
	st, fake := newStage(t, codec.Settings{})
	fake.RemoveOnClose = true

	outcome, err := st.Execute(context.Background(), texture.Job{InputPath: in, OutputPath: filepath.Join(dir, "out.dds"), MaxExtent: 32, Format: texture.BC7})
	if err != nil {
		t.Fatalf("skipped patch must not fail the job: %v", err)
	}
	if outcome.Patched {
		t.Fatal("expected Patched=false")
	}
}

func TestHealthCheck(t *testing.T) {
	st, _ := newStage(t, codec.Settings{ForceNonAccelerated: true})
	health := st.HealthCheck(context.Background())
	if !health.Ready || health.Name != transcode.StageName {
		t.Fatalf("unexpected health %+v", health)
	}
	if h := transcode.New(nil, nil).HealthCheck(context.Background()); h.Ready {
		t.Fatal("stage without codec should be unhealthy")
	}
}
