package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"codechat-hq/codechat/pkg/retry"
)

// unhealthyThreshold is the consecutive failure count after which a
// provider is marked unhealthy.
const unhealthyThreshold = 3

// httpClient is the shared HTTP base for provider adapters. It posts JSON,
// classifies failures into the typed errors, retries transient ones, and
// tracks health across requests.
type httpClient struct {
	name    string
	client  *http.Client
	timeout time.Duration
	retry   retry.Config
	logger  *slog.Logger

	healthMu sync.RWMutex
	health   Health
}

func newHTTPClient(name string, timeout time.Duration, retryCfg retry.Config) *httpClient {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &httpClient{
		name: name,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		timeout: timeout,
		retry:   retryCfg,
		logger:  slog.Default().With("provider", name),
		health: Health{
			Healthy:     true,
			LastSuccess: time.Now(),
		},
	}
}

// Healthy reports whether recent requests have been succeeding.
func (c *httpClient) Healthy() bool {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health.Healthy
}

// GetHealth returns a snapshot of the request history.
func (c *httpClient) GetHealth() Health {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health
}

func (c *httpClient) recordResult(success bool, err error) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.TotalRequests++
	if success {
		c.health.Healthy = true
		c.health.ConsecutiveFailures = 0
		c.health.LastError = nil
		c.health.LastSuccess = time.Now()
		return
	}

	c.health.FailedRequests++
	c.health.ConsecutiveFailures++
	c.health.LastError = err
	if c.health.ConsecutiveFailures >= unhealthyThreshold {
		c.health.Healthy = false
		c.logger.Warn("provider marked unhealthy",
			"consecutive_failures", c.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// postJSON marshals payload, posts it, and returns the response body.
// Transient failures (5xx, network errors, rate limits) are retried with
// exponential backoff; authentication failures stop retrying immediately.
func (c *httpClient) postJSON(ctx context.Context, url string, headers map[string]string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	return retry.Do(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		body, err := c.roundTrip(ctx, url, headers, data)
		if err != nil {
			var authErr *AuthError
			if errors.As(err, &authErr) {
				return nil, retry.Permanent(err)
			}
		}
		return body, err
	})
}

// roundTrip performs one HTTP POST and classifies the outcome.
func (c *httpClient) roundTrip(ctx context.Context, url string, headers map[string]string, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.recordResult(false, err)
		if ctx.Err() != nil {
			return nil, &TimeoutError{Provider: c.name, Timeout: c.timeout}
		}
		return nil, &ProviderError{Provider: c.name, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordResult(false, err)
		return nil, &ProviderError{Provider: c.name, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.recordResult(true, nil)
		return body, nil
	}

	var typed error
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		typed = &AuthError{Provider: c.name, Message: string(body)}
	case http.StatusTooManyRequests:
		typed = &RateLimitError{
			Provider:   c.name,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    string(body),
		}
	default:
		typed = &ProviderError{
			Provider:   c.name,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}
	c.recordResult(false, typed)
	return nil, typed
}

// parseRetryAfter parses a Retry-After header given in seconds.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
