package dds

// Container layout. All offsets are absolute file offsets, little-endian.
const (
	Magic = 0x20534444 // "DDS "

	// LegacyHeaderSize covers the magic and the 124-byte DDS_HEADER.
	LegacyHeaderSize = 128
	// ExtendedHeaderSize is the size of the DDS_HEADER_DXT10 block.
	ExtendedHeaderSize = 20
	// PrefixSize is everything the inspector and patcher ever look at.
	PrefixSize = LegacyHeaderSize + ExtendedHeaderSize

	OffsetFlags             = 8
	OffsetHeight            = 12
	OffsetWidth             = 16
	OffsetPitchOrLinearSize = 20
	OffsetDepth             = 24
	OffsetMipMapCount       = 28
	OffsetReserved1         = 32
	Reserved1Words          = 11
	OffsetPixelFormatFlags  = 80
	OffsetFourCC            = 84
	OffsetDXGIFormat        = 128
	OffsetMiscFlags2        = 144

	FlagLinearSize    = 0x00080000
	PixelFormatFourCC = 0x00000004
)

// ExtendedTag is the FourCC announcing the DX10 extended header.
var ExtendedTag = [4]byte{'D', 'X', '1', '0'}

// DXGI format codes referenced by the classifier and the inspector.
const (
	DXGIFormatR8G8B8A8Unorm     = 28
	DXGIFormatR8G8B8A8UnormSRGB = 29
	DXGIFormatBC1Unorm          = 71
	DXGIFormatBC1UnormSRGB      = 72
	DXGIFormatBC2Unorm          = 74
	DXGIFormatBC2UnormSRGB      = 75
	DXGIFormatBC3Unorm          = 77
	DXGIFormatBC3UnormSRGB      = 78
	DXGIFormatBC4Unorm          = 80
	DXGIFormatBC4SNorm          = 81
	DXGIFormatBC5Unorm          = 83
	DXGIFormatBC5SNorm          = 84
	DXGIFormatB8G8R8A8UnormSRGB = 91
	DXGIFormatB8G8R8X8UnormSRGB = 93
	DXGIFormatBC6HUF16          = 95
	DXGIFormatBC6HSF16          = 96
	DXGIFormatBC7Unorm          = 98
	DXGIFormatBC7UnormSRGB      = 99
)
