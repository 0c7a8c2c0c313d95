package dds_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"ddsforge/internal/dds"
	"ddsforge/internal/testsupport"
)

func TestHasExtendedHeader(t *testing.T) {
	tests := []struct {
		name   string
		prefix []byte
		want   bool
	}{
		{"dx10", testsupport.BuildDDS(testsupport.DDSHeader{Width: 4, Height: 4, FourCC: "DX10", DXGI: 98}), true},
		{"dxt5", testsupport.BuildDDS(testsupport.DDSHeader{Width: 4, Height: 4, FourCC: "DXT5"}), false},
		{"uncompressed", testsupport.BuildDDS(testsupport.DDSHeader{Width: 4, Height: 4}), false},
		{"short", []byte("DDS "), false},
		{"exactly tag", append(make([]byte, 84), 'D', 'X', '1', '0'), true},
		{"one byte short", append(make([]byte, 84), 'D', 'X', '1'), false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dds.HasExtendedHeader(tt.prefix); got != tt.want {
				t.Fatalf("HasExtendedHeader = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExplicitFormatCode(t *testing.T) {
	prefix := testsupport.BuildDDS(testsupport.DDSHeader{Width: 8, Height: 8, FourCC: "DX10", DXGI: dds.DXGIFormatBC7UnormSRGB})
	code, ok := dds.ExplicitFormatCode(prefix)
	if !ok {
		t.Fatal("expected explicit format code")
	}
	if code != dds.DXGIFormatBC7UnormSRGB {
		t.Fatalf("code = %d, want %d", code, dds.DXGIFormatBC7UnormSRGB)
	}

	if _, ok := dds.ExplicitFormatCode(prefix[:130]); ok {
		t.Fatal("expected truncated extended header to report no code")
	}

	legacy := testsupport.BuildDDS(testsupport.DDSHeader{Width: 8, Height: 8, FourCC: "DXT1"})
	if _, ok := dds.ExplicitFormatCode(legacy); ok {
		t.Fatal("expected legacy header to report no code")
	}
}

func TestReadPrefix(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteDDS(t, dir, "a.dds", testsupport.DDSHeader{Width: 64, Height: 64, FourCC: "DX10", DXGI: 98, Payload: 4096})

	prefix, err := dds.ReadPrefix(path)
	if err != nil {
		t.Fatalf("ReadPrefix: %v", err)
	}
	if len(prefix) != dds.PrefixSize {
		t.Fatalf("prefix length = %d, want %d", len(prefix), dds.PrefixSize)
	}

	short := filepath.Join(dir, "short.dds")
	if err := os.WriteFile(short, []byte("DDS |"), 0o644); err != nil {
		t.Fatal(err)
	}
	prefix, err = dds.ReadPrefix(short)
	if err != nil {
		t.Fatalf("ReadPrefix short: %v", err)
	}
	if len(prefix) != 5 {
		t.Fatalf("short prefix length = %d", len(prefix))
	}

	if _, err := dds.ReadPrefix(filepath.Join(dir, "missing.dds")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name       string
		header     testsupport.DDSHeader
		wantFormat string
		extended   bool
	}{
		{"bc7 dx10", testsupport.DDSHeader{Width: 512, Height: 256, Mips: 10, FourCC: "DX10", DXGI: 98}, "BC7", true},
		{"bc6 dx10", testsupport.DDSHeader{Width: 16, Height: 16, FourCC: "DX10", DXGI: 95}, "BC6H", true},
		{"rgba dx10", testsupport.DDSHeader{Width: 16, Height: 16, FourCC: "DX10", DXGI: 28}, "DXGI_28", true},
		{"dxt1", testsupport.DDSHeader{Width: 256, Height: 256, FourCC: "DXT1"}, "BC1", false},
		{"dxt3", testsupport.DDSHeader{Width: 256, Height: 256, FourCC: "DXT3"}, "BC2", false},
		{"dxt5", testsupport.DDSHeader{Width: 256, Height: 256, FourCC: "DXT5"}, "BC3", false},
		{"ati2", testsupport.DDSHeader{Width: 256, Height: 256, FourCC: "ATI2"}, "BC5", false},
		{"unknown fourcc", testsupport.DDSHeader{Width: 256, Height: 256, FourCC: "ABCD"}, "FourCC_ABCD", false},
		{"uncompressed", testsupport.DDSHeader{Width: 256, Height: 256}, "UNCOMPRESSED", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := dds.ParseHeader(bytes.NewReader(testsupport.BuildDDS(tt.header)))
			if err != nil {
				t.Fatalf("ParseHeader: %v", err)
			}
			if h.Format != tt.wantFormat {
				t.Fatalf("format = %q, want %q", h.Format, tt.wantFormat)
			}
			if h.Extended != tt.extended {
				t.Fatalf("extended = %v, want %v", h.Extended, tt.extended)
			}
			if h.Width != tt.header.Width || h.Height != tt.header.Height {
				t.Fatalf("extent = %dx%d, want %dx%d", h.Width, h.Height, tt.header.Width, tt.header.Height)
			}
		})
	}
}

func TestParseHeaderRejectsInvalidInput(t *testing.T) {
	if _, err := dds.ParseHeader(bytes.NewReader(make([]byte, 64))); err == nil {
		t.Fatal("expected error for short input")
	}

	bad := make([]byte, 128)
	binary.LittleEndian.PutUint32(bad, 0xdeadbeef)
	if _, err := dds.ParseHeader(bytes.NewReader(bad)); err == nil {
		t.Fatal("expected error for bad magic")
	}
}
