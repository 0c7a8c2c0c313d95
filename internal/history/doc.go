// Package history persists batch runs and their per-job results in SQLite.
//
// The store implements batch.Recorder so the driver can write through it, and
// offers read helpers for the CLI. Schema changes bump schemaVersion; older
// databases are rejected rather than migrated.
package history
