// Package main hosts the ddsforge CLI entrypoint and command graph.
//
// The Cobra command tree covers batch runs from a manifest, single-file
// compression, header inspection and repair, run history, environment
// checks, and configuration scaffolding. Configuration is resolved lazily
// through the command context so commands that do not need it (config init)
// never touch the file.
//
// Keep this package lean: the pipeline lives in internal packages and the
// commands only translate flags into their inputs.
package main
