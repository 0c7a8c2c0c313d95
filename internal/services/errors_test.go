package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"ddsforge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrCompress, "transcode", "compress", "Compression failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrCompress) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcode", "compress", "Compression failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "pipeline failure") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestReason(t *testing.T) {
	inner := services.Wrap(services.ErrLoad, "transcode", "load", "Failed to load DDS file", errors.New("no such file"))
	outer := fmt.Errorf("job 3: %w", inner)
	if got := services.Reason(outer); got != "Failed to load DDS file" {
		t.Fatalf("Reason = %q", got)
	}
	if got := services.Reason(errors.New("plain")); got != "plain" {
		t.Fatalf("Reason = %q", got)
	}
	if got := services.Reason(nil); got != "" {
		t.Fatalf("Reason(nil) = %q", got)
	}
}

func TestIsJobFailure(t *testing.T) {
	tests := []struct {
		marker error
		want   bool
	}{
		{services.ErrLoad, true},
		{services.ErrWrite, true},
		{services.ErrCompress, true},
		{services.ErrManifest, false},
		{services.ErrConfiguration, false},
	}
	for _, tt := range tests {
		err := services.Wrap(tt.marker, "stage", "op", "msg", nil)
		if got := services.IsJobFailure(err); got != tt.want {
			t.Errorf("IsJobFailure(%v) = %v, want %v", tt.marker, got, tt.want)
		}
	}
}
