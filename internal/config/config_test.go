package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Inference.Provider != "gemini" {
		t.Errorf("expected provider 'gemini', got %q", cfg.Inference.Provider)
	}
	if cfg.Inference.APIKeyEnv != "GEMINI_API_KEY" {
		t.Errorf("expected GEMINI_API_KEY env, got %q", cfg.Inference.APIKeyEnv)
	}
	if cfg.Inference.Timeout() != 60*time.Second {
		t.Errorf("expected 60s timeout, got %v", cfg.Inference.Timeout())
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
inference:
  provider: openai
  openai_model: gpt-4o
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Inference.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", cfg.Inference.Provider)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Inference.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.Inference.OllamaURL)
	}
	if cfg.Inference.Model != "gemini-2.0-flash" {
		t.Errorf("expected default gemini model, got %q", cfg.Inference.Model)
	}
}

func TestTimeoutFallsBackForZero(t *testing.T) {
	inf := Inference{TimeoutSeconds: 0}
	if inf.Timeout() != 60*time.Second {
		t.Errorf("expected 60s fallback, got %v", inf.Timeout())
	}
	inf.TimeoutSeconds = 5
	if inf.Timeout() != 5*time.Second {
		t.Errorf("expected 5s, got %v", inf.Timeout())
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Inference.Provider != "gemini" {
		t.Errorf("unexpected provider %q", cfg.Inference.Provider)
	}
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	if cfg.GetDataDir() == "" {
		t.Error("expected XDG fallback data dir")
	}
	cfg.Storage.DataDir = "/tmp/custom"
	if cfg.GetDataDir() != "/tmp/custom" {
		t.Errorf("expected /tmp/custom, got %q", cfg.GetDataDir())
	}
}
