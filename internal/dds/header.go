package dds

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"ddsforge/internal/texture"
)

// Header is a decoded view of the fields ddsforge cares about.
type Header struct {
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	FourCC            string
	Extended          bool
	DXGIFormat        uint32
	MiscFlags2        uint32
	// Format is a display name such as "BC7", "UNCOMPRESSED" or "DXGI_28".
	Format string
}

// ErrNotDDS is returned for data without the "DDS " magic.
var ErrNotDDS = errors.New("not a DDS file")

// ParseHeader decodes the legacy header and, when present, the DX10 extension.
// Only the header prefix is read; pixel data is never touched.
func ParseHeader(r io.Reader) (Header, error) {
	buf := make([]byte, PrefixSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Header{}, fmt.Errorf("read header: %w", err)
	}
	buf = buf[:n]
	if n < LegacyHeaderSize {
		return Header{}, fmt.Errorf("file too small to be a DDS: need %d bytes, got %d", LegacyHeaderSize, n)
	}
	if magic := binary.LittleEndian.Uint32(buf[0:4]); magic != Magic {
		return Header{}, fmt.Errorf("%w: magic 0x%08X", ErrNotDDS, magic)
	}

	h := Header{
		Flags:             binary.LittleEndian.Uint32(buf[OffsetFlags:]),
		Height:            binary.LittleEndian.Uint32(buf[OffsetHeight:]),
		Width:             binary.LittleEndian.Uint32(buf[OffsetWidth:]),
		PitchOrLinearSize: binary.LittleEndian.Uint32(buf[OffsetPitchOrLinearSize:]),
		Depth:             binary.LittleEndian.Uint32(buf[OffsetDepth:]),
		MipMapCount:       binary.LittleEndian.Uint32(buf[OffsetMipMapCount:]),
		FourCC:            string(buf[OffsetFourCC : OffsetFourCC+4]),
	}
	pfFlags := binary.LittleEndian.Uint32(buf[OffsetPixelFormatFlags:])

	if code, ok := ExplicitFormatCode(buf); ok {
		h.Extended = true
		h.DXGIFormat = code
		if len(buf) >= OffsetMiscFlags2+4 {
			h.MiscFlags2 = binary.LittleEndian.Uint32(buf[OffsetMiscFlags2:])
		}
	}

	switch {
	case pfFlags&PixelFormatFourCC == 0:
		h.Format = "UNCOMPRESSED"
	case h.Extended:
		h.Format = dxgiFormatName(h.DXGIFormat)
	default:
		h.Format = fourCCFormatName(h.FourCC)
	}
	return h, nil
}

// BlockFormat maps the header's compressed format to a transcode target.
func (h Header) BlockFormat() (texture.BlockFormat, bool) {
	switch h.Format {
	case "BC1":
		return texture.BC1, true
	case "BC3":
		return texture.BC3, true
	case "BC4":
		return texture.BC4, true
	case "BC5":
		return texture.BC5, true
	case "BC6H":
		return texture.BC6, true
	case "BC7":
		return texture.BC7, true
	default:
		return 0, false
	}
}

func fourCCFormatName(cc string) string {
	switch cc {
	case "DXT1":
		return "BC1"
	case "DXT2", "DXT3":
		return "BC2"
	case "DXT4", "DXT5":
		return "BC3"
	case "BC4U", "BC4S", "ATI1":
		return "BC4"
	case "BC5U", "BC5S", "ATI2":
		return "BC5"
	default:
		return "FourCC_" + cc
	}
}

func dxgiFormatName(code uint32) string {
	switch code {
	case DXGIFormatBC1Unorm, DXGIFormatBC1UnormSRGB:
		return "BC1"
	case DXGIFormatBC2Unorm, DXGIFormatBC2UnormSRGB:
		return "BC2"
	case DXGIFormatBC3Unorm, DXGIFormatBC3UnormSRGB:
		return "BC3"
	case DXGIFormatBC4Unorm, DXGIFormatBC4SNorm:
		return "BC4"
	case DXGIFormatBC5Unorm, DXGIFormatBC5SNorm:
		return "BC5"
	case DXGIFormatBC6HUF16, DXGIFormatBC6HSF16:
		return "BC6H"
	case DXGIFormatBC7Unorm, DXGIFormatBC7UnormSRGB:
		return "BC7"
	default:
		return fmt.Sprintf("DXGI_%d", code)
	}
}
