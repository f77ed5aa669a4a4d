package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"codechat-hq/codechat/pkg/providers"
)

// TestHistory_SaveAndLoad round-trips a conversation.
func TestHistory_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")
	history := NewHistory(path, 0)

	messages := []providers.Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
	}
	if err := history.Save(messages); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := history.Load()
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(loaded))
	}
	if loaded[1].Content != "hi there" {
		t.Errorf("Unexpected content: %q", loaded[1].Content)
	}
}

// TestHistory_LoadMissing returns an empty conversation.
func TestHistory_LoadMissing(t *testing.T) {
	history := NewHistory(filepath.Join(t.TempDir(), "absent.json"), 0)
	if got := history.Load(); got != nil {
		t.Errorf("Expected nil for missing file, got %v", got)
	}
}

// TestHistory_LoadCorrupt returns an empty conversation.
func TestHistory_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	history := NewHistory(path, 0)
	if got := history.Load(); got != nil {
		t.Errorf("Expected nil for corrupt file, got %v", got)
	}
}

// TestHistory_Pruning keeps only the newest messages.
func TestHistory_Pruning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")
	history := NewHistory(path, 5)

	var messages []providers.Message
	for i := 0; i < 12; i++ {
		messages = append(messages, providers.Message{
			Role:    "user",
			Content: fmt.Sprintf("message %d", i),
		})
	}
	if err := history.Save(messages); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := history.Load()
	if len(loaded) != 5 {
		t.Fatalf("Expected 5 messages after pruning, got %d", len(loaded))
	}
	if loaded[0].Content != "message 7" {
		t.Errorf("Expected oldest surviving message 7, got %q", loaded[0].Content)
	}
	if loaded[4].Content != "message 11" {
		t.Errorf("Expected newest message 11, got %q", loaded[4].Content)
	}
}
