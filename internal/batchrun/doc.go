// Package batchrun wires one CLI invocation into a batch run: per-run log
// file and retention, the cross-process run lock, manifest loading, the
// history recorder, and the batch driver.
package batchrun
