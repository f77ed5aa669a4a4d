package limits

import (
	"errors"
	"fmt"
)

// RejectReason identifies which ceiling rejected a request.
type RejectReason string

const (
	// ReasonDailyCost means the global daily spend ceiling is exhausted.
	ReasonDailyCost RejectReason = "daily_cost"

	// ReasonDailyRequests means the global daily request ceiling is exhausted.
	ReasonDailyRequests RejectReason = "daily_requests"

	// ReasonIdentityHourly means the per-identity hourly ceiling is exhausted.
	ReasonIdentityHourly RejectReason = "identity_hourly"

	// ReasonIdentityDaily means the per-identity daily ceiling is exhausted.
	ReasonIdentityDaily RejectReason = "identity_daily"
)

// Decision is the result of a quota check.
//
// When Allowed is false, Reason identifies the exhausted ceiling and Message
// is the user-facing rejection text. When Allowed is true, Message carries
// the remaining per-identity quota, or notes that enforcement was skipped
// because the store failed (fail open).
type Decision struct {
	// Allowed indicates if the request is admitted.
	Allowed bool

	// Reason identifies the exhausted ceiling (empty when admitted).
	Reason RejectReason

	// Message is the user-facing admit/reject text.
	Message string

	// FailedOpen is true when the request was admitted only because the
	// store errored during evaluation.
	FailedOpen bool
}

// Config holds the four admission ceilings.
//
// All ceilings are independently configurable. A ceiling of 0 means
// "always reject" for its check; negative values are rejected by Validate.
type Config struct {
	// MaxRequestsPerIdentityHour caps a single identity's admitted requests
	// in any rolling hour.
	MaxRequestsPerIdentityHour int64 `yaml:"max_requests_per_identity_hour" json:"max_requests_per_identity_hour"`

	// MaxRequestsPerIdentityDay caps a single identity's admitted requests
	// in any rolling 24 hours.
	MaxRequestsPerIdentityDay int64 `yaml:"max_requests_per_identity_day" json:"max_requests_per_identity_day"`

	// MaxDailyRequests caps admitted requests across all identities per
	// calendar day.
	MaxDailyRequests int64 `yaml:"max_daily_requests" json:"max_daily_requests"`

	// MaxDailyCost caps total spend in USD per calendar day.
	MaxDailyCost float64 `yaml:"max_daily_cost" json:"max_daily_cost"`

	// CostAlertThreshold is the fraction of MaxDailyCost at which a warning
	// is logged (0 disables). Default 0.8.
	CostAlertThreshold float64 `yaml:"cost_alert_threshold" json:"cost_alert_threshold"`
}

// DefaultConfig returns the documented default ceilings.
func DefaultConfig() Config {
	return Config{
		MaxRequestsPerIdentityHour: 10,
		MaxRequestsPerIdentityDay:  50,
		MaxDailyRequests:           200,
		MaxDailyCost:               1.00,
		CostAlertThreshold:         0.8,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.MaxRequestsPerIdentityHour < 0 {
		return fmt.Errorf("%w: max_requests_per_identity_hour cannot be negative", ErrConfigInvalid)
	}
	if c.MaxRequestsPerIdentityDay < 0 {
		return fmt.Errorf("%w: max_requests_per_identity_day cannot be negative", ErrConfigInvalid)
	}
	if c.MaxDailyRequests < 0 {
		return fmt.Errorf("%w: max_daily_requests cannot be negative", ErrConfigInvalid)
	}
	if c.MaxDailyCost < 0 {
		return fmt.Errorf("%w: max_daily_cost cannot be negative", ErrConfigInvalid)
	}
	if c.CostAlertThreshold < 0 || c.CostAlertThreshold > 1 {
		return fmt.Errorf("%w: cost_alert_threshold must be in [0,1]", ErrConfigInvalid)
	}
	return nil
}

// Status is a read-only snapshot of the current day for monitoring.
type Status struct {
	// DailyRequests is today's admitted request count.
	DailyRequests int64 `json:"daily_requests"`

	// DailyCost is today's accumulated spend in USD.
	DailyCost float64 `json:"daily_cost"`

	// UniqueIdentities is the number of distinct identities seen today.
	UniqueIdentities int64 `json:"unique_identities"`

	// RequestsRemaining is the global daily request headroom, clamped to >= 0.
	RequestsRemaining int64 `json:"requests_remaining"`

	// CostRemaining is the daily budget headroom in USD, clamped to >= 0.
	CostRemaining float64 `json:"cost_remaining"`

	// Limits echoes the configured ceilings.
	Limits Config `json:"limits"`
}

// Error types for quota violations and infrastructure faults.
var (
	// ErrQuotaExceeded is returned when any admission ceiling is exhausted.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrStorageFailure wraps storage backend faults. Callers recover
	// locally: admission fails open, cost updates are dropped.
	ErrStorageFailure = errors.New("storage backend failure")

	// ErrConfigInvalid is returned when the limits configuration is invalid.
	ErrConfigInvalid = errors.New("invalid limits configuration")
)
