package agent

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"codechat-hq/codechat/pkg/providers"
)

// DefaultMaxMessages is the history size kept after pruning.
const DefaultMaxMessages = 20

// History persists a conversation to a JSON file, pruning old messages so
// the context cannot grow without bound.
type History struct {
	path        string
	maxMessages int
	logger      *slog.Logger
}

// NewHistory creates a history store at path. maxMessages <= 0 uses the
// default.
func NewHistory(path string, maxMessages int) *History {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &History{
		path:        path,
		maxMessages: maxMessages,
		logger:      slog.Default().With("component", "agent.history"),
	}
}

// Load reads the conversation from disk, pruned to the newest maxMessages.
// A missing or unreadable file yields an empty conversation; history is a
// convenience, never a reason to fail a request.
func (h *History) Load() []providers.Message {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if !os.IsNotExist(err) {
			h.logger.Warn("could not load context", "path", h.path, "error", err)
		}
		return nil
	}

	var messages []providers.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		h.logger.Warn("could not parse context", "path", h.path, "error", err)
		return nil
	}

	if len(messages) > h.maxMessages {
		h.logger.Info("pruning context",
			"from", len(messages),
			"to", h.maxMessages,
		)
		messages = messages[len(messages)-h.maxMessages:]
	}
	return messages
}

// Save writes the conversation to disk.
func (h *History) Save(messages []providers.Message) error {
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode context: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save context: %w", err)
	}
	return nil
}
