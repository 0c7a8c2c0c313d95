package batch_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ddsforge/internal/batch"
	"ddsforge/internal/codec"
	"ddsforge/internal/codec/codectest"
	"ddsforge/internal/dds"
	"ddsforge/internal/logging"
	"ddsforge/internal/services"
	"ddsforge/internal/stage"
	"ddsforge/internal/testsupport"
	"ddsforge/internal/texture"
)

// registerFake registers a fresh codec double under a backend name unique
// to the test.
func registerFake(t *testing.T, settings codec.Settings) (string, *codectest.Codec) {
	t.Helper()
	fake := codectest.New(settings)
	name := "fake-" + t.Name()
	codec.Register(name, fake.Opener())
	return name, fake
}

type memoryRecorder struct {
	mu       sync.Mutex
	begun    []batch.RunInfo
	jobs     []batch.JobResult
	finished []batch.Summary
	failJobs bool
}

func (r *memoryRecorder) BeginRun(_ context.Context, run batch.RunInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begun = append(r.begun, run)
	return nil
}

func (r *memoryRecorder) RecordJob(_ context.Context, _ string, result batch.JobResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failJobs {
		return errors.New("disk full")
	}
	r.jobs = append(r.jobs, result)
	return nil
}

func (r *memoryRecorder) FinishRun(_ context.Context, s batch.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, s)
	return nil
}

func statusLines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func TestRunReportsEachJobInOrder(t *testing.T) {
	dir := t.TempDir()
	good := testsupport.WriteDDS(t, dir, "good.dds", testsupport.DDSHeader{Width: 512, Height: 256, FourCC: "DX10", DXGI: dds.DXGIFormatBC7Unorm, Payload: 64})
	missing := filepath.Join(dir, "missing.dds")

	backend, fake := registerFake(t, codec.Settings{})
	var status bytes.Buffer
	rec := &memoryRecorder{}
	driver := batch.NewDriver(batch.Options{
		Backend:  backend,
		Status:   &status,
		Logger:   logging.NewNop(),
		Recorder: rec,
		Source:   "jobs.txt",
		RunID:    "run-1",
	})

	jobs := []texture.Job{
		{InputPath: good, OutputPath: filepath.Join(dir, "good_out.dds"), MaxExtent: 256, Format: texture.BC1, Hint: texture.HintAuto, Line: 1},
		{InputPath: missing, OutputPath: filepath.Join(dir, "missing_out.dds"), MaxExtent: 256, Format: texture.BC7, Hint: texture.HintAuto, Line: 2},
	}
	summary, err := driver.Run(context.Background(), jobs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"BATCH_START:2",
		"CUDA:enabled",
		"OK:1/2:" + good + ":512x256->256x128:BC1:9",
		"FAIL:2/2:" + missing + ":Failed to load DDS file",
		"BATCH_END:1:1",
	}
	got := statusLines(&status)
	if len(got) != len(want) {
		t.Fatalf("status lines = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], want[i])
		}
	}

	if summary.Succeeded != 1 || summary.Failed != 1 || summary.RunID != "run-1" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(summary.Results) != 2 || summary.Results[1].Status != batch.StatusFailed {
		t.Fatalf("unexpected results %+v", summary.Results)
	}
	if !fake.Closed() {
		t.Fatal("codec context was not closed after the run")
	}
	if fake.LiveSurfaces() != 0 {
		t.Fatalf("%d surfaces leaked", fake.LiveSurfaces())
	}
	if len(rec.begun) != 1 || rec.begun[0].Total != 2 || !rec.begun[0].Accelerated {
		t.Fatalf("unexpected BeginRun calls %+v", rec.begun)
	}
	if len(rec.jobs) != 2 || len(rec.finished) != 1 {
		t.Fatalf("recorder saw %d jobs, %d finishes", len(rec.jobs), len(rec.finished))
	}
}

func TestRunReportsDisabledAcceleration(t *testing.T) {
	dir := t.TempDir()
	in := testsupport.WriteDDS(t, dir, "in.dds", testsupport.DDSHeader{Width: 64, Height: 64, FourCC: "DX10", DXGI: dds.DXGIFormatBC7Unorm, Payload: 16})
	backend, _ := registerFake(t, codec.Settings{})
	var status bytes.Buffer
	driver := batch.NewDriver(batch.Options{
		Backend:  backend,
		Settings: codec.Settings{ForceNonAccelerated: true},
		Status:   &status,
	})
	summary, err := driver.Run(context.Background(), []texture.Job{{InputPath: in, OutputPath: in, MaxExtent: 64, Format: texture.BC7}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Accelerated {
		t.Fatal("summary reports acceleration for a CPU-only run")
	}
	if got := statusLines(&status); got[1] != "CUDA:disabled" {
		t.Fatalf("acceleration line = %q", got[1])
	}
}

func TestRunWithoutJobsEmitsError(t *testing.T) {
	var status bytes.Buffer
	driver := batch.NewDriver(batch.Options{Backend: "unused", Status: &status})
	_, err := driver.Run(context.Background(), nil)
	if !errors.Is(err, services.ErrManifest) {
		t.Fatalf("expected manifest error, got %v", err)
	}
	if got := status.String(); got != "ERROR:"+batch.MessageNoJobs+"\n" {
		t.Fatalf("status = %q", got)
	}
}

func TestRunWithUnavailableCodecEmitsError(t *testing.T) {
	var status bytes.Buffer
	driver := batch.NewDriver(batch.Options{Backend: "no-such-backend", Status: &status})
	_, err := driver.Run(context.Background(), []texture.Job{{InputPath: "a.dds", OutputPath: "a.dds", MaxExtent: 1, Format: texture.BC7}})
	if !errors.Is(err, services.ErrConfiguration) || !errors.Is(err, codec.ErrUnavailable) {
		t.Fatalf("expected configuration error wrapping ErrUnavailable, got %v", err)
	}
	if !strings.HasPrefix(status.String(), "ERROR:") || strings.Contains(status.String(), "BATCH_START") {
		t.Fatalf("status = %q", status.String())
	}
}

func TestRunIsolatesPanickingJob(t *testing.T) {
	dir := t.TempDir()
	bad := testsupport.WriteDDS(t, dir, "bad.dds", testsupport.DDSHeader{Width: 32, Height: 32, FourCC: "DX10", DXGI: dds.DXGIFormatBC7Unorm, Payload: 16})
	good := testsupport.WriteDDS(t, dir, "good.dds", testsupport.DDSHeader{Width: 32, Height: 32, FourCC: "DX10", DXGI: dds.DXGIFormatBC7Unorm, Payload: 16})

	backend, fake := registerFake(t, codec.Settings{})
	fake.PanicOnLoad = bad
	var status bytes.Buffer
	driver := batch.NewDriver(batch.Options{Backend: backend, Status: &status, Logger: logging.NewNop()})

	summary, err := driver.Run(context.Background(), []texture.Job{
		{InputPath: bad, OutputPath: bad, MaxExtent: 32, Format: texture.BC7},
		{InputPath: good, OutputPath: good, MaxExtent: 32, Format: texture.BC7},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	lines := statusLines(&status)
	if lines[2] != "FAIL:1/2:"+bad+":Internal error" {
		t.Fatalf("panic line = %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "OK:2/2:") {
		t.Fatalf("job after panic = %q", lines[3])
	}
}

func TestRunFailsRemainingJobsAfterCancellation(t *testing.T) {
	dir := t.TempDir()
	in := testsupport.WriteDDS(t, dir, "in.dds", testsupport.DDSHeader{Width: 16, Height: 16, FourCC: "DX10", DXGI: dds.DXGIFormatBC7Unorm, Payload: 16})
	backend, fake := registerFake(t, codec.Settings{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var status bytes.Buffer
	driver := batch.NewDriver(batch.Options{Backend: backend, Status: &status})
	summary, err := driver.Run(ctx, []texture.Job{{InputPath: in, OutputPath: in, MaxExtent: 16, Format: texture.BC7}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 1 || summary.Results[0].Reason != batch.MessageCancelled {
		t.Fatalf("unexpected summary %+v", summary)
	}
	for _, call := range fake.Calls() {
		if strings.HasPrefix(call, "load") {
			t.Fatalf("cancelled run still loaded input: %v", fake.Calls())
		}
	}
	if got := statusLines(&status); got[len(got)-1] != "BATCH_END:0:1" {
		t.Fatalf("last line = %q", got[len(got)-1])
	}
}

func TestRecorderErrorsDoNotFailJobs(t *testing.T) {
	dir := t.TempDir()
	in := testsupport.WriteDDS(t, dir, "in.dds", testsupport.DDSHeader{Width: 16, Height: 16, FourCC: "DX10", DXGI: dds.DXGIFormatBC7Unorm, Payload: 16})
	backend, _ := registerFake(t, codec.Settings{})
	driver := batch.NewDriver(batch.Options{Backend: backend, Recorder: &memoryRecorder{failJobs: true}})
	summary, err := driver.Run(context.Background(), []texture.Job{{InputPath: in, OutputPath: in, MaxExtent: 16, Format: texture.BC7}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("recorder failure leaked into job result: %+v", summary)
	}
}

type unreadyHandler struct{}

func (unreadyHandler) Execute(context.Context, texture.Job) (stage.Outcome, error) {
	panic("Execute called on unready handler")
}

func (unreadyHandler) HealthCheck(context.Context) stage.Health {
	return stage.Unhealthy("transcode", "no device")
}

func TestRunRefusesUnreadyHandler(t *testing.T) {
	backend, fake := registerFake(t, codec.Settings{})
	var status bytes.Buffer
	driver := batch.NewDriver(batch.Options{
		Backend:    backend,
		Status:     &status,
		NewHandler: func(codec.Context, *slog.Logger) stage.Handler { return unreadyHandler{} },
	})
	_, err := driver.Run(context.Background(), []texture.Job{{InputPath: "a.dds", OutputPath: "a.dds", MaxExtent: 4}})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if got := status.String(); got != "ERROR:Texture codec not ready: no device\n" {
		t.Fatalf("status = %q", got)
	}
	if !fake.Closed() {
		t.Fatal("codec context left open after refusing the run")
	}
}
