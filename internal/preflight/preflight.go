package preflight

import (
	"context"

	"ddsforge/internal/config"
	"ddsforge/internal/stage"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Health converts r into the stage health shape used by status output.
func (r Result) Health() stage.Health {
	if r.Passed {
		return stage.Healthy(r.Name)
	}
	return stage.Unhealthy(r.Name, r.Detail)
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckCodec(ctx, cfg.Codec.Backend, CodecSettings(cfg)),
	}
	if cfg.History.Enabled {
		results = append(results, CheckHistory(ctx, cfg.History.Path))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
