package logging

import (
	"log/slog"
	"testing"

	"github.com/verdantio/hydro-core/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			if got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	cfg := config.LoggingConfig{
		Level:  "debug",
		Format: "text",
		Output: "stderr",
	}

	log := New(cfg, "test")
	if log == nil {
		t.Fatal("New() returned nil")
	}

	// Must not panic
	log.Debug("debug message", "key", "value")
	log.Info("info message")
}

func TestWith(t *testing.T) {
	log := Default()

	tagged := log.With("component", "session")
	if tagged == nil {
		t.Fatal("With() returned nil")
	}
	if tagged == log {
		t.Error("With() should return a new logger instance")
	}

	tagged.Info("tagged message")
}

func TestDefault(t *testing.T) {
	log := Default()
	if log == nil {
		t.Fatal("Default() returned nil")
	}
	log.Info("default logger works")
}
