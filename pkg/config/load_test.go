package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codechat.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Limits.MaxRequestsPerIdentityHour != 10 {
		t.Errorf("MaxRequestsPerIdentityHour = %d, want 10", cfg.Limits.MaxRequestsPerIdentityHour)
	}
	if cfg.Limits.MaxDailyCost != 1.00 {
		t.Errorf("MaxDailyCost = %f, want 1.00", cfg.Limits.MaxDailyCost)
	}
	if cfg.Retention.RequestRetentionDays != 7 {
		t.Errorf("RequestRetentionDays = %d, want 7", cfg.Retention.RequestRetentionDays)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Retry MaxAttempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if _, ok := cfg.Providers["ollama"]; !ok {
		t.Error("Expected ollama provider configured by default")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("Expected metrics enabled by default")
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "0.0.0.0:9090"
  write_timeout: 90s
storage:
  backend: sqlite
  path: /tmp/test.db
limits:
  max_requests_per_identity_hour: 20
  max_requests_per_identity_day: 100
  max_daily_requests: 500
  max_daily_cost: 5.00
  cost_alert_threshold: 0.9
retention:
  request_retention_days: 14
  stats_retention_days: 60
  schedule: "0 4 * * *"
  sweep_on_start: true
providers:
  anthropic:
    model: claude-3-5-sonnet-20241022
    max_tokens: 2000
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.WriteTimeout != 90*time.Second {
		t.Errorf("WriteTimeout = %v", cfg.Server.WriteTimeout)
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("ReadTimeout should default, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Storage.Path != "/tmp/test.db" {
		t.Errorf("Storage path = %q", cfg.Storage.Path)
	}
	if cfg.Limits.MaxRequestsPerIdentityHour != 20 {
		t.Errorf("MaxRequestsPerIdentityHour = %d", cfg.Limits.MaxRequestsPerIdentityHour)
	}
	if cfg.Limits.MaxDailyCost != 5.00 {
		t.Errorf("MaxDailyCost = %f", cfg.Limits.MaxDailyCost)
	}
	if cfg.Retention.StatsRetentionDays != 60 {
		t.Errorf("StatsRetentionDays = %d", cfg.Retention.StatsRetentionDays)
	}

	anthropic, ok := cfg.Providers["anthropic"]
	if !ok {
		t.Fatal("Expected anthropic provider in config")
	}
	if anthropic.Name != "anthropic" {
		t.Errorf("Provider name should default to the map key, got %q", anthropic.Name)
	}
	if anthropic.MaxTokens != 2000 {
		t.Errorf("MaxTokens = %d", anthropic.MaxTokens)
	}
	if _, ok := cfg.Providers["ollama"]; !ok {
		t.Error("Expected ollama provider added by defaults")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a map")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestLoadConfigValidationFailure(t *testing.T) {
	path := writeConfigFile(t, `
storage:
  backend: cassandra
telemetry:
  logging:
    level: verbose
`)
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("Expected 2 field errors, got %d: %v", len(verr.Errors), verr)
	}
	if !strings.Contains(verr.Error(), "storage.backend") {
		t.Errorf("Expected storage.backend in error, got %q", verr.Error())
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
limits:
  max_requests_per_identity_hour: 20
  max_requests_per_identity_day: 100
  max_daily_requests: 500
  max_daily_cost: 5.00
`)

	t.Setenv("MAX_REQUESTS_PER_IDENTITY_HOUR", "3")
	t.Setenv("MAX_DAILY_COST", "0.50")
	t.Setenv("CODECHAT_SERVER_LISTEN_ADDRESS", "127.0.0.1:7070")
	t.Setenv("CODECHAT_STORAGE_PATH", "/tmp/env.db")
	t.Setenv("CODECHAT_ADMIN_TOKEN", "sekrit")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}

	if cfg.Limits.MaxRequestsPerIdentityHour != 3 {
		t.Errorf("MaxRequestsPerIdentityHour = %d, want env override 3", cfg.Limits.MaxRequestsPerIdentityHour)
	}
	if cfg.Limits.MaxRequestsPerIdentityDay != 100 {
		t.Errorf("MaxRequestsPerIdentityDay = %d, want file value 100", cfg.Limits.MaxRequestsPerIdentityDay)
	}
	if cfg.Limits.MaxDailyCost != 0.50 {
		t.Errorf("MaxDailyCost = %f, want env override 0.50", cfg.Limits.MaxDailyCost)
	}
	if cfg.Server.ListenAddress != "127.0.0.1:7070" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Storage.Path != "/tmp/env.db" {
		t.Errorf("Storage path = %q", cfg.Storage.Path)
	}
	if cfg.Server.AdminToken != "sekrit" {
		t.Errorf("AdminToken = %q", cfg.Server.AdminToken)
	}
	if cfg.Providers["anthropic"].APIKey != "sk-ant-test" {
		t.Errorf("Anthropic key not picked up from env")
	}
}

func TestLoadConfigWithEnvOverridesNoFile(t *testing.T) {
	t.Setenv("MAX_DAILY_REQUESTS", "42")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}
	if cfg.Limits.MaxDailyRequests != 42 {
		t.Errorf("MaxDailyRequests = %d, want 42", cfg.Limits.MaxDailyRequests)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want default", cfg.Server.ListenAddress)
	}
}

func TestValidateZeroCeilingsAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.MaxDailyCost = 0
	cfg.Limits.MaxDailyRequests = 0

	if err := Validate(cfg); err != nil {
		t.Errorf("Zero ceilings are a valid configuration: %v", err)
	}
}
