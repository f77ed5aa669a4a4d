package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. An empty path starts from the defaults
// instead of a file. Environment variables always take precedence over
// file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file (or start from defaults)
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = DefaultConfig()
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Quota ceilings use the bare historical names; everything
// else is prefixed CODECHAT_.
func applyEnvOverrides(cfg *Config) {
	// Quota ceilings. These names predate the CODECHAT_ convention and are
	// kept for compatibility with existing deployments.
	if val := os.Getenv("MAX_REQUESTS_PER_IDENTITY_HOUR"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Limits.MaxRequestsPerIdentityHour = i
		}
	}
	if val := os.Getenv("MAX_REQUESTS_PER_IDENTITY_DAY"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Limits.MaxRequestsPerIdentityDay = i
		}
	}
	if val := os.Getenv("MAX_DAILY_REQUESTS"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Limits.MaxDailyRequests = i
		}
	}
	if val := os.Getenv("MAX_DAILY_COST"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Limits.MaxDailyCost = f
		}
	}

	// Server overrides
	if val := os.Getenv("CODECHAT_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("CODECHAT_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("CODECHAT_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("CODECHAT_ADMIN_TOKEN"); val != "" {
		cfg.Server.AdminToken = val
	}

	// Storage overrides
	if val := os.Getenv("CODECHAT_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("CODECHAT_STORAGE_PATH"); val != "" {
		cfg.Storage.Path = val
	}

	// History overrides
	if val := os.Getenv("CODECHAT_HISTORY_PATH"); val != "" {
		cfg.History.Path = val
	}

	// Telemetry overrides
	if val := os.Getenv("CODECHAT_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CODECHAT_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}

	// Provider credentials. The adapters also probe these directly; copying
	// them here keeps a loaded Config self-contained.
	applyProviderKey(cfg, "anthropic", "ANTHROPIC_API_KEY")
	applyProviderKey(cfg, "openai", "OPENAI_API_KEY")
	if val := os.Getenv("OLLAMA_BASE_URL"); val != "" {
		pc := cfg.Providers["ollama"]
		pc.Name = "ollama"
		pc.BaseURL = val
		cfg.Providers["ollama"] = pc
	}
}

func applyProviderKey(cfg *Config, name, envVar string) {
	val := os.Getenv(envVar)
	if val == "" {
		return
	}
	pc := cfg.Providers[name]
	pc.Name = name
	pc.APIKey = val
	cfg.Providers[name] = pc
}
