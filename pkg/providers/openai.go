package providers

import (
	"context"
	"encoding/json"

	"codechat-hq/codechat/pkg/retry"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultOpenAIModel   = "gpt-4"
)

// OpenAIProvider adapts the OpenAI Chat Completions API.
type OpenAIProvider struct {
	*httpClient
	config Config
}

// NewOpenAIProvider creates an OpenAI adapter. The API key is required.
func NewOpenAIProvider(cfg Config, retryCfg retry.Config) (*OpenAIProvider, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{Provider: "openai", Message: "missing API key"}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}

	return &OpenAIProvider{
		httpClient: newHTTPClient("openai", cfg.Timeout, retryCfg),
		config:     cfg,
	}, nil
}

// Name returns "openai".
func (p *OpenAIProvider) Name() string { return "openai" }

type openaiRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type openaiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Chat sends the conversation to the Chat Completions API.
func (p *OpenAIProvider) Chat(ctx context.Context, model string, messages []Message) (*ChatResponse, error) {
	if model == "" {
		model = p.config.Model
	}

	payload := openaiRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: p.config.MaxTokens,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + p.config.APIKey,
	}

	body, err := p.postJSON(ctx, p.config.BaseURL+"/v1/chat/completions", headers, payload)
	if err != nil {
		return nil, err
	}

	var parsed openaiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ParseError{Provider: "openai", RawResponse: string(body), Cause: err}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ParseError{Provider: "openai", RawResponse: string(body), Cause: errEmptyCompletion}
	}

	return &ChatResponse{
		Text:  parsed.Choices[0].Message.Content,
		Model: parsed.Model,
		Usage: parsed.Usage,
	}, nil
}
