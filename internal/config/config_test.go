package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.IdleTTL() != 30*time.Minute {
		t.Errorf("idle ttl = %v", cfg.IdleTTL())
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "listen_addr: \":9000\"\nagent_base_url: http://agent:8000/api\ntab_idle_ttl: 5m\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AGENT_BASE_URL", "http://override/api")
	t.Setenv("CHAT_RATE_BURST", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("listen addr = %q, want :9000", cfg.ListenAddr)
	}
	if cfg.AgentBaseURL != "http://override/api" {
		t.Errorf("agent url = %q, env must win", cfg.AgentBaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.ChatRateBurst != 7 {
		t.Errorf("burst = %d", cfg.ChatRateBurst)
	}
	if cfg.IdleTTL() != 5*time.Minute {
		t.Errorf("idle ttl = %v", cfg.IdleTTL())
	}
	if !cfg.Log.Console {
		t.Error("defaults not covered by the file must survive")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("TAB_STATE_TTL", "forever")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for bad duration")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
