// Package dds reads and patches the fixed-offset fields of DDS containers.
//
// Two concerns live here. The inspector answers classification questions
// (extended header presence, explicit DXGI format) from the raw header prefix
// without going through the texture codec. The patcher rewrites a handful of
// legacy header fields in an already written file so the result matches what
// a reference writer would emit; the fields are described by one table,
// Patches, so every correction is declared in a single place.
package dds
