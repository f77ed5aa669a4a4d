package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codechat.yaml")
	if err := os.WriteFile(path, []byte("limits:\n  max_daily_requests: 100\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	w, err := NewWatcher(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	reloaded := make(chan *Config, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("limits:\n  max_daily_requests: 999\n"), 0o644); err != nil {
		t.Fatalf("Failed to rewrite config file: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Limits.MaxDailyRequests != 999 {
			t.Errorf("MaxDailyRequests = %d, want 999", cfg.Limits.MaxDailyRequests)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for reload")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}

func TestWatcherKeepsPreviousConfigOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codechat.yaml")
	if err := os.WriteFile(path, []byte("limits:\n  max_daily_requests: 100\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	w, err := NewWatcher(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	reloaded := make(chan *Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Watch(ctx, func(cfg *Config) { reloaded <- cfg }) }()
	time.Sleep(100 * time.Millisecond)

	// An unparseable rewrite must not produce a reload.
	if err := os.WriteFile(path, []byte("limits: [broken"), 0o644); err != nil {
		t.Fatalf("Failed to rewrite config file: %v", err)
	}
	select {
	case cfg := <-reloaded:
		t.Fatalf("Unexpected reload with broken config: %+v", cfg)
	case <-time.After(500 * time.Millisecond):
	}

	// A subsequent valid rewrite recovers.
	if err := os.WriteFile(path, []byte("limits:\n  max_daily_requests: 7\n"), 0o644); err != nil {
		t.Fatalf("Failed to rewrite config file: %v", err)
	}
	select {
	case cfg := <-reloaded:
		if cfg.Limits.MaxDailyRequests != 7 {
			t.Errorf("MaxDailyRequests = %d, want 7", cfg.Limits.MaxDailyRequests)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for recovery reload")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "absent", "codechat.yaml"), 0); err == nil {
		t.Fatal("Expected error for missing directory")
	}
}
