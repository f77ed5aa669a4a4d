package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"codechat-hq/codechat/pkg/retry"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "codellama"
)

// OllamaProvider adapts a local Ollama server. It needs no credentials.
type OllamaProvider struct {
	*httpClient
	config Config
}

// NewOllamaProvider creates an Ollama adapter.
func NewOllamaProvider(cfg Config, retryCfg retry.Config) *OllamaProvider {
	cfg = cfg.withDefaults()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOllamaModel
	}

	return &OllamaProvider{
		httpClient: newHTTPClient("ollama", cfg.Timeout, retryCfg),
		config:     cfg,
	}
}

// Name returns "ollama".
func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Chat flattens the conversation into a single prompt for the generate
// endpoint, since Ollama's generate API takes plain text.
func (p *OllamaProvider) Chat(ctx context.Context, model string, messages []Message) (*ChatResponse, error) {
	if model == "" {
		model = p.config.Model
	}
	// Router model names use an "ollama:" prefix; strip it for the API.
	model = strings.TrimPrefix(model, "ollama:")

	var sb strings.Builder
	for _, msg := range messages {
		fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
	}

	payload := ollamaRequest{
		Model:  model,
		Prompt: sb.String(),
		Stream: false,
	}

	body, err := p.postJSON(ctx, p.config.BaseURL+"/api/generate", nil, payload)
	if err != nil {
		return nil, err
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ParseError{Provider: "ollama", RawResponse: string(body), Cause: err}
	}

	return &ChatResponse{
		Text:  parsed.Response,
		Model: parsed.Model,
		Usage: Usage{
			PromptTokens:     parsed.PromptEvalCount,
			CompletionTokens: parsed.EvalCount,
			TotalTokens:      parsed.PromptEvalCount + parsed.EvalCount,
		},
	}, nil
}
