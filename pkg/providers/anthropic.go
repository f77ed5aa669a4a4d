package providers

import (
	"context"
	"encoding/json"
	"strings"

	"codechat-hq/codechat/pkg/retry"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	defaultAnthropicModel   = "claude-3-5-sonnet-20241022"
)

// AnthropicProvider adapts the Anthropic Messages API.
type AnthropicProvider struct {
	*httpClient
	config Config
}

// NewAnthropicProvider creates an Anthropic adapter. The API key is required.
func NewAnthropicProvider(cfg Config, retryCfg retry.Config) (*AnthropicProvider, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{Provider: "anthropic", Message: "missing API key"}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}

	return &AnthropicProvider{
		httpClient: newHTTPClient("anthropic", cfg.Timeout, retryCfg),
		config:     cfg,
	}, nil
}

// Name returns "anthropic".
func (p *AnthropicProvider) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model string `json:"model"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Chat sends the conversation to the Messages API. System messages are
// concatenated into the request's system field, as the API requires.
func (p *AnthropicProvider) Chat(ctx context.Context, model string, messages []Message) (*ChatResponse, error) {
	if model == "" {
		model = p.config.Model
	}

	var systemParts []string
	var chat []Message
	for _, msg := range messages {
		if msg.Role == "system" {
			systemParts = append(systemParts, msg.Content)
			continue
		}
		chat = append(chat, msg)
	}

	payload := anthropicRequest{
		Model:     model,
		MaxTokens: p.config.MaxTokens,
		System:    strings.Join(systemParts, "\n\n"),
		Messages:  chat,
	}

	headers := map[string]string{
		"x-api-key":         p.config.APIKey,
		"anthropic-version": anthropicVersion,
	}

	body, err := p.postJSON(ctx, p.config.BaseURL+"/v1/messages", headers, payload)
	if err != nil {
		return nil, err
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ParseError{Provider: "anthropic", RawResponse: string(body), Cause: err}
	}
	if len(parsed.Content) == 0 {
		return nil, &ParseError{Provider: "anthropic", RawResponse: string(body), Cause: errEmptyCompletion}
	}

	return &ChatResponse{
		Text:  parsed.Content[0].Text,
		Model: parsed.Model,
		Usage: Usage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		},
	}, nil
}
