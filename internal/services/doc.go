// Package services defines shared utilities consumed by the transcode stage,
// the batch driver, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, job indexes, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into per-job FAIL lines versus run-fatal errors.
//   - Reason, which extracts the short user-facing message a status line
//     carries.
//
// Use these helpers when adding pipeline steps so error reporting and
// observability stay uniform across commands.
package services
