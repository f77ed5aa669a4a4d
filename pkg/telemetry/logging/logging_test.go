package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"codechat-hq/codechat/pkg/config"
)

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("request admitted", "identity", "10.0.0.1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "request admitted" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["identity"] != "10.0.0.1" {
		t.Errorf("identity = %v", entry["identity"])
	}
}

func TestNewTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("Info should be suppressed at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("Warn missing from output: %q", out)
	}
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
		want    slog.Level
	}{
		{"debug", false, slog.LevelDebug},
		{"info", false, slog.LevelInfo},
		{"warn", false, slog.LevelWarn},
		{"error", false, slog.LevelError},
		{"", false, slog.LevelInfo},
		{"verbose", true, 0},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.level)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseLevel(%q): expected error", tt.level)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseLevel(%q): %v", tt.level, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestNewInvalidFormat(t *testing.T) {
	if _, err := New(config.LoggingConfig{Format: "xml"}, nil); err == nil {
		t.Fatal("Expected error for invalid format")
	}
}
