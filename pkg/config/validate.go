package config

import (
	"fmt"
	"net"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateLimits(cfg)...)
	errs = append(errs, validateRetention(cfg)...)
	errs = append(errs, validateRetry(cfg)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(server *ServerConfig) []FieldError {
	var errs []FieldError

	if server.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "must not be empty",
		})
	} else if _, _, err := net.SplitHostPort(server.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("must be host:port format: %v", err),
		})
	}

	if server.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "must not be negative",
		})
	}
	if server.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "must not be negative",
		})
	}
	if server.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateStorage(storage *StorageConfig) []FieldError {
	var errs []FieldError

	switch storage.Backend {
	case "sqlite":
		if storage.Path == "" {
			errs = append(errs, FieldError{
				Field:   "storage.path",
				Message: "must not be empty for the sqlite backend",
			})
		}
	case "memory":
		// No further requirements.
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("must be one of [sqlite, memory], got %q", storage.Backend),
		})
	}

	if storage.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.busy_timeout",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateLimits(cfg *Config) []FieldError {
	var errs []FieldError
	if err := cfg.Limits.Validate(); err != nil {
		errs = append(errs, FieldError{
			Field:   "limits",
			Message: err.Error(),
		})
	}
	return errs
}

func validateRetention(cfg *Config) []FieldError {
	var errs []FieldError

	if cfg.Retention.RequestRetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "retention.request_retention_days",
			Message: "must not be negative",
		})
	}
	if cfg.Retention.StatsRetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "retention.stats_retention_days",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateRetry(cfg *Config) []FieldError {
	var errs []FieldError
	if err := cfg.Retry.Validate(); err != nil {
		errs = append(errs, FieldError{
			Field:   "retry",
			Message: err.Error(),
		})
	}
	return errs
}

func validateHistory(history *HistoryConfig) []FieldError {
	var errs []FieldError
	if history.MaxMessages < 0 {
		errs = append(errs, FieldError{
			Field:   "history.max_messages",
			Message: "must not be negative",
		})
	}
	return errs
}

func validateTelemetry(telemetry *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be one of [debug, info, warn, error], got %q", telemetry.Logging.Level),
		})
	}

	switch telemetry.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be one of [json, text], got %q", telemetry.Logging.Format),
		})
	}

	if telemetry.Metrics.Enabled && !strings.HasPrefix(telemetry.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "must start with /",
		})
	}

	return errs
}
