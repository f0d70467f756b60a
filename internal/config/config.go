package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Inference Inference `yaml:"inference"`
	Storage   Storage   `yaml:"storage"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
}

type Inference struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	OpenAIModel    string `yaml:"openai_model"`
	OpenAIKeyEnv   string `yaml:"openai_api_key_env"`
	OllamaModel    string `yaml:"ollama_model"`
	OllamaURL      string `yaml:"ollama_url"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-call inference deadline. Audio evidence makes
// these calls slow, so the default sits in the tens of seconds.
func (i Inference) Timeout() time.Duration {
	if i.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(i.TimeoutSeconds) * time.Second
}

type Storage struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for smartcoach.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "smartcoach")
}

// DataDir returns the XDG data directory for smartcoach.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "smartcoach")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/smartcoach/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'smartcoach init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Inference: Inference{
			Provider:       "gemini",
			Model:          "gemini-2.0-flash",
			APIKeyEnv:      "GEMINI_API_KEY",
			OpenAIModel:    "gpt-4o-mini",
			OpenAIKeyEnv:   "OPENAI_API_KEY",
			OllamaModel:    "qwen2.5:7b",
			OllamaURL:      "http://localhost:11434",
			MaxTokens:      2048,
			TimeoutSeconds: 60,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
