package providers

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"codechat-hq/codechat/pkg/retry"
)

// Registry holds the constructed provider adapters by name.
type Registry struct {
	providers map[string]Provider
	logger    *slog.Logger
}

// NewRegistry builds adapters from the given per-provider configs.
// Anthropic and OpenAI are only constructed when their API key is present
// (from config or the conventional environment variable); Ollama is always
// constructed since a local server needs no credentials.
func NewRegistry(configs map[string]Config, retryCfg retry.Config) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		logger:    slog.Default().With("component", "providers.registry"),
	}

	anthropicCfg := configs["anthropic"]
	if anthropicCfg.APIKey == "" {
		anthropicCfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if p, err := NewAnthropicProvider(anthropicCfg, retryCfg); err == nil {
		r.providers["anthropic"] = p
	} else {
		r.logger.Info("anthropic provider disabled", "reason", err)
	}

	openaiCfg := configs["openai"]
	if openaiCfg.APIKey == "" {
		openaiCfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if p, err := NewOpenAIProvider(openaiCfg, retryCfg); err == nil {
		r.providers["openai"] = p
	} else {
		r.logger.Info("openai provider disabled", "reason", err)
	}

	r.providers["ollama"] = NewOllamaProvider(configs["ollama"], retryCfg)

	return r
}

// Register installs a provider under name, replacing any existing adapter.
func (r *Registry) Register(name string, p Provider) {
	r.providers[name] = p
}

// Get returns the named provider, or nil when it is not configured.
func (r *Registry) Get(name string) Provider {
	return r.providers[name]
}

// Has reports whether the named provider is configured.
func (r *Registry) Has(name string) bool {
	_, ok := r.providers[name]
	return ok
}

// Names returns the configured provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chat dispatches a conversation to the named provider.
func (r *Registry) Chat(ctx context.Context, provider, model string, messages []Message) (*ChatResponse, error) {
	p := r.Get(provider)
	if p == nil {
		return nil, &ConfigurationError{Provider: provider, Message: "provider not configured"}
	}
	return p.Chat(ctx, model, messages)
}
