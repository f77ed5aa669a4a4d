package config

import (
	"time"

	"codechat-hq/codechat/pkg/limits"
	"codechat-hq/codechat/pkg/limits/retention"
	"codechat-hq/codechat/pkg/providers"
	"codechat-hq/codechat/pkg/retry"
)

// Config is the root configuration structure for codechat. It composes the
// per-package configurations for the HTTP server, the counter store, quota
// enforcement, retention sweeps, provider adapters, and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Storage configures the persistent counter store backing quota
	// enforcement and cost accounting.
	Storage StorageConfig `yaml:"storage"`

	// Limits configures quota ceilings and the cost alert threshold.
	Limits limits.Config `yaml:"limits"`

	// Retention configures purge horizons and the sweep schedule.
	Retention retention.Config `yaml:"retention"`

	// Retry configures provider call retries.
	Retry retry.Config `yaml:"retry"`

	// Providers contains configuration for the LLM provider adapters.
	// Keys are provider names ("anthropic", "openai", "ollama").
	Providers map[string]providers.Config `yaml:"providers"`

	// History configures conversation context persistence.
	History HistoryConfig `yaml:"history"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port". Default: "127.0.0.1:8080".
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes. Provider calls happen inside the handler, so this must cover
	// the slowest provider timeout. Default: 120s.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle limit. Default: 120s.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Default: 30s.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes caps request header size. Default: 1048576 (1MB).
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// AdminToken gates POST /v1/admin/reset. Sourced from the
	// CODECHAT_ADMIN_TOKEN environment variable, never from the file.
	// Empty disables the admin endpoint.
	AdminToken string `yaml:"-"`
}

// StorageConfig contains configuration for the counter store.
type StorageConfig struct {
	// Backend selects the store implementation: "sqlite" or "memory".
	// Default: "sqlite".
	Backend string `yaml:"backend"`

	// Path is the SQLite database file path. Ignored by the memory
	// backend. Default: "data/codechat.db".
	Path string `yaml:"path"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// HistoryConfig contains configuration for conversation persistence.
type HistoryConfig struct {
	// Path is the JSON file holding recent conversation messages.
	// Default: "data/context.json".
	Path string `yaml:"path"`

	// MaxMessages is how many recent messages to keep. Default: 20.
	MaxMessages int `yaml:"max_messages"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging configures the slog handler.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum level: "debug", "info", "warn", or "error".
	// Default: "info".
	Level string `yaml:"level"`

	// Format is the handler format: "json" or "text". Default: "json".
	Format string `yaml:"format"`
}

// MetricsConfig contains prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served. Default: true.
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path. Default: "/metrics".
	Path string `yaml:"path"`
}
