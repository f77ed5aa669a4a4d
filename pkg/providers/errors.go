package providers

import (
	"errors"
	"fmt"
	"time"
)

// errEmptyCompletion signals a well-formed response carrying no content.
var errEmptyCompletion = errors.New("empty completion")

// ProviderError represents a general provider failure.
// It carries the provider name, HTTP status (0 when not applicable), and
// the underlying cause.
type ProviderError struct {
	// Provider is the name of the provider that returned the error.
	Provider string

	// StatusCode is the HTTP status code (0 if not applicable).
	StatusCode int

	// Message is the error message.
	Message string

	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// AuthError represents an authentication failure (HTTP 401 or 403).
// Authentication errors are never retried.
type AuthError struct {
	// Provider is the name of the provider that rejected the credential.
	Provider string

	// Message is the error message from the provider.
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError represents a rate limit response (HTTP 429).
type RateLimitError struct {
	// Provider is the name of the provider that rate limited the request.
	Provider string

	// RetryAfter is the wait the provider asked for (0 when unspecified).
	RetryAfter time.Duration

	// Message is the error message from the provider.
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// TimeoutError represents a request that exceeded the configured timeout.
type TimeoutError struct {
	// Provider is the name of the provider where the timeout occurred.
	Provider string

	// Timeout is the configured timeout duration.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// ParseError represents a malformed provider response.
type ParseError struct {
	// Provider is the name of the provider that returned the response.
	Provider string

	// RawResponse is the body that failed to parse.
	RawResponse string

	// Cause is the underlying parse error.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ConfigurationError represents an invalid provider configuration, such as
// a missing credential.
type ConfigurationError struct {
	// Provider is the name of the misconfigured provider.
	Provider string

	// Message describes what is missing or invalid.
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider %q configuration error: %s", e.Provider, e.Message)
}
