package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"ddsforge/internal/codec"
	"ddsforge/internal/config"
	"ddsforge/internal/history"
	"ddsforge/internal/manifest"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CodecSettings derives codec settings from configuration.
func CodecSettings(cfg *config.Config) codec.Settings {
	quality, err := codec.ParseQuality(cfg.Codec.Quality)
	if err != nil {
		quality = codec.QualityNormal
	}
	return codec.Settings{ForceNonAccelerated: cfg.ForceCPU(), Quality: quality}
}

// CheckCodec opens and closes a context on the named backend and reports
// whether it runs accelerated.
func CheckCodec(_ context.Context, backend string, settings codec.Settings) Result {
	name := "Codec (" + backend + ")"
	cc, err := codec.Open(backend, settings)
	if err != nil {
		if errors.Is(err, codec.ErrUnavailable) {
			return Result{Name: name, Detail: fmt.Sprintf("not compiled in (available: %s)", backendList())}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	accelerated := cc.AccelerationEnabled()
	if err := cc.Close(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("close failed: %v", err)}
	}
	detail := "CPU compression"
	if accelerated {
		detail = "accelerated compression"
	} else if settings.ForceNonAccelerated {
		detail = "CPU compression (forced)"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s, quality %s", detail, settings.Quality)}
}

// CheckHistory verifies that the history database opens with the current schema.
func CheckHistory(ctx context.Context, path string) Result {
	const name = "History database"
	store, err := history.OpenPath(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	runs, err := store.ListRuns(ctx, 1)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s (no runs yet)", path)
	if len(runs) > 0 {
		detail = fmt.Sprintf("%s (last run %s)", path, runs[0].StartedAt.Local().Format("2006-01-02 15:04"))
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckManifest verifies that a batch file is readable and holds at least one job.
func CheckManifest(path string) Result {
	const name = "Batch file"
	m, err := manifest.Load(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(m.Jobs) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (no valid jobs)", path)}
	}
	detail := fmt.Sprintf("%s (%d jobs", path, len(m.Jobs))
	if len(m.Skipped) > 0 {
		detail += fmt.Sprintf(", %d malformed lines skipped", len(m.Skipped))
	}
	return Result{Name: name, Passed: true, Detail: detail + ")"}
}

func backendList() string {
	names := codec.Backends()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
