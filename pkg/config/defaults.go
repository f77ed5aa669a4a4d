package config

import (
	"time"

	"codechat-hq/codechat/pkg/limits"
	"codechat-hq/codechat/pkg/limits/retention"
	"codechat-hq/codechat/pkg/providers"
	"codechat-hq/codechat/pkg/retry"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Storage defaults
	DefaultStorageBackend     = "sqlite"
	DefaultStoragePath        = "data/codechat.db"
	DefaultStorageBusyTimeout = 5 * time.Second

	// History defaults
	DefaultHistoryPath        = "data/context.json"
	DefaultHistoryMaxMessages = 20

	// Telemetry defaults
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
)

// DefaultConfig returns a configuration populated entirely with defaults,
// suitable when no configuration file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for any zero-valued configuration
// fields. It is called after YAML parsing and before validation.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}

	// Limits defaults: zero ceilings are a valid configuration (always
	// reject), so only an entirely empty section gets defaults.
	if cfg.Limits == (limits.Config{}) {
		cfg.Limits = limits.DefaultConfig()
	}

	// Retention defaults
	if cfg.Retention == (retention.Config{}) {
		cfg.Retention = retention.DefaultConfig()
	}

	// Retry defaults
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = retry.DefaultConfig().MaxAttempts
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = retry.DefaultConfig().BaseDelay
	}

	// Provider defaults: ollama is always configured so local models are
	// reachable out of the box. Adapter-level defaults (base URL, model,
	// timeout) are applied by the providers package.
	if cfg.Providers == nil {
		cfg.Providers = map[string]providers.Config{}
	}
	if _, ok := cfg.Providers["ollama"]; !ok {
		cfg.Providers["ollama"] = providers.Config{Name: "ollama"}
	}
	for name, pc := range cfg.Providers {
		if pc.Name == "" {
			pc.Name = name
			cfg.Providers[name] = pc
		}
	}

	// History defaults
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.History.MaxMessages == 0 {
		cfg.History.MaxMessages = DefaultHistoryMaxMessages
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
