// Package config loads, normalizes, and validates ddsforge configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the environment fallbacks the
// batch tool has always accepted: DDSFORGE_CPU_ONLY / NVTT_CPU_ONLY and
// DDSFORGE_QUALITY / NVTT_QUALITY. Environment values apply only at load time
// and only when the file leaves the setting unset.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
