// Package texture holds the job model and the mip/block arithmetic shared by
// the transcode pipeline.
//
// The helpers here are pure: they never touch the filesystem or the codec.
// MipCount and MipExtent follow the codec's own per-level halving rule, and
// LegacyLinearSize reproduces the top-level byte count that reference DDS
// writers store in the legacy header.
package texture
