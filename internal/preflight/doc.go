// Package preflight provides readiness checks for the filesystem paths,
// codec backend, and history database that ddsforge depends on.
//
// The CLI "ddsforge check" command runs RunAll and renders the results;
// "ddsforge run" calls CheckCodec before taking the run lock so a missing
// backend fails fast. Checks for disabled features are skipped.
package preflight
