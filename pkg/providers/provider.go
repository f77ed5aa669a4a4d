// Package providers contains chat adapters for the supported LLM backends.
//
// Each adapter shares the HTTP base client, which handles health tracking
// and translates transport and status failures into the typed errors in
// errors.go. Transient failures are retried with exponential backoff;
// authentication failures are permanent and surface immediately.
package providers

import "context"

// Provider is a chat backend.
type Provider interface {
	// Name returns the provider's identifier ("anthropic", "openai", "ollama").
	Name() string

	// Chat sends the conversation and returns the normalized reply.
	// The model argument may be empty to use the provider's default.
	Chat(ctx context.Context, model string, messages []Message) (*ChatResponse, error)

	// Healthy reports whether recent requests have been succeeding.
	Healthy() bool
}
