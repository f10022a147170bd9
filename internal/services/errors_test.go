package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"scribe/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "download", "yt-dlp", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"download", "yt-dlp", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrValidation, "transcribe", "", "empty audio", nil), "validation"},
		{services.Wrap(services.ErrExternalTool, "download", "", "", errors.New("exit 1")), "external_tool"},
		{fmt.Errorf("fetch: %w", context.DeadlineExceeded), "timeout"},
		{fmt.Errorf("fetch: %w", context.Canceled), "canceled"},
		{errors.New("plain"), "transient"},
	}
	for _, tt := range tests {
		if got := services.Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
