package providers

import "time"

// Message is a single chat message in the conversation sent to a provider.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// Usage reports the token counts a provider observed for one request.
// Providers that do not report usage leave the counts at zero.
type Usage struct {
	// PromptTokens is the number of input tokens consumed.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of output tokens generated.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the sum of prompt and completion tokens.
	TotalTokens int `json:"total_tokens"`
}

// ChatResponse is the normalized result of a provider chat call.
type ChatResponse struct {
	// Text is the assistant's reply.
	Text string `json:"text"`

	// Model is the model that produced the reply.
	Model string `json:"model"`

	// Usage is the provider-reported token accounting.
	Usage Usage `json:"usage"`
}

// Config configures a single provider adapter.
type Config struct {
	// Name identifies the provider ("anthropic", "openai", "ollama").
	Name string `yaml:"name"`

	// BaseURL is the API endpoint root.
	BaseURL string `yaml:"base_url"`

	// APIKey is the credential, usually sourced from the environment.
	APIKey string `yaml:"-"`

	// Model is the default model used when a request names none.
	Model string `yaml:"model"`

	// MaxTokens caps the completion length.
	// Default: 4000.
	MaxTokens int `yaml:"max_tokens"`

	// Timeout bounds each HTTP request.
	// Default: 60 seconds.
	Timeout time.Duration `yaml:"timeout"`
}

// withDefaults fills zero fields with defaults.
func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = 4000
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	return c
}

// Health is a snapshot of a provider's request history.
type Health struct {
	// Healthy is false after repeated consecutive failures.
	Healthy bool

	// ConsecutiveFailures counts failures since the last success.
	ConsecutiveFailures int

	// TotalRequests counts all requests made through this provider.
	TotalRequests int64

	// FailedRequests counts requests that errored.
	FailedRequests int64

	// LastError is the most recent failure (nil when healthy).
	LastError error

	// LastSuccess is when the provider last completed a request.
	LastSuccess time.Time
}
