// Package classify decides the block format and output colorspace of a
// transcode job.
//
// Target format resolution is total: unrecognized names fall back to BC7.
// Colorspace resolution trusts an explicit DXGI code in the input's extended
// header over the caller's hint, and only consults the hint for legacy
// containers.
package classify
