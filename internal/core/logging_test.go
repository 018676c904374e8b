package core

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupLogging(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	logger, err := SetupLogging(&buf, "warn")
	if err != nil {
		t.Fatalf("SetupLogging failed: %v", err)
	}

	logger.Info("hidden message")
	slog.Warn("visible message", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Error("Expected info message to be filtered at warn level")
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "key=value") {
		t.Errorf("Expected warn message with attributes, got %q", out)
	}
}

func TestSetupLogging_InvalidLevel(t *testing.T) {
	if _, err := SetupLogging(&bytes.Buffer{}, "loud"); err == nil {
		t.Error("Expected error for invalid level")
	}
}
