// Package codec defines the capability ddsforge needs from an external
// texture codec: load a container into a surface, optionally move it to an
// accelerator, resize, build mip levels, write a container header, and
// compress a batch of levels in one call.
//
// Implementations register themselves by name (see Register). The production
// backend lives in codec/nvtt and is only compiled with the nvtt build tag;
// codec/codectest provides a recording double for tests.
//
// Every call is synchronous from the caller's point of view. A Context is
// created once per run and used by one goroutine at a time.
package codec
