package classify

import (
	"strings"

	"ddsforge/internal/dds"
	"ddsforge/internal/texture"
)

// DefaultFormat is used for any requested format this package does not know.
const DefaultFormat = texture.BC7

var targetFormats = map[string]texture.BlockFormat{
	"bc1": texture.BC1,
	"bc3": texture.BC3,
	"bc4": texture.BC4,
	"bc5": texture.BC5,
	"bc6": texture.BC6,
	"bc7": texture.BC7,
}

// srgbFormatCodes lists the explicit DXGI codes that produce sRGB output.
// Plain R8G8B8A8_UNORM is included; the R8G8B8A8 and B8G8R8X8 sRGB codes are not.
var srgbFormatCodes = map[uint32]struct{}{
	dds.DXGIFormatR8G8B8A8Unorm:     {},
	dds.DXGIFormatBC1UnormSRGB:      {},
	dds.DXGIFormatBC2UnormSRGB:      {},
	dds.DXGIFormatBC3UnormSRGB:      {},
	dds.DXGIFormatB8G8R8A8UnormSRGB: {},
	dds.DXGIFormatBC7UnormSRGB:      {},
}

// ResolveTargetFormat maps a requested format name to a block format.
func ResolveTargetFormat(requested string) texture.BlockFormat {
	if format, ok := targetFormats[strings.ToLower(strings.TrimSpace(requested))]; ok {
		return format
	}
	return DefaultFormat
}

// IsSRGBFormatCode reports whether a DXGI format code is an sRGB variant.
func IsSRGBFormatCode(code uint32) bool {
	_, ok := srgbFormatCodes[code]
	return ok
}

// ColorspaceFromPrefix decides the output colorspace from header bytes.
// An extended header always wins; the hint only matters for legacy
// containers. An extended header too short to carry its format code is
// linear.
func ColorspaceFromPrefix(prefix []byte, hint texture.ColorspaceHint) bool {
	if !dds.HasExtendedHeader(prefix) {
		return hint == texture.HintForceSRGB
	}
	code, ok := dds.ExplicitFormatCode(prefix)
	return ok && IsSRGBFormatCode(code)
}

// ResolveOutputColorspace reads the input's header prefix and decides whether
// the output is sRGB. An unreadable input is treated as a legacy container.
func ResolveOutputColorspace(inputPath string, hint texture.ColorspaceHint) bool {
	prefix, err := dds.ReadPrefix(inputPath)
	if err != nil {
		prefix = nil
	}
	return ColorspaceFromPrefix(prefix, hint)
}
