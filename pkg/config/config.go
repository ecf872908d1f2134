package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	LLM       LLMConfig       `koanf:"llm"`
	License   LicenseConfig   `koanf:"license"`
	Usage     UsageConfig     `koanf:"usage"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

// LLMConfig configures provider routing. DefaultProvider is used when a
// processing call names no provider; per-call timeout and retry bounds apply
// to every provider uniformly.
type LLMConfig struct {
	DefaultProvider string `koanf:"default_provider"`
	TimeoutSeconds  int    `koanf:"timeout_seconds"`
	RetryAttempts   int    `koanf:"retry_attempts"`

	// MaxPromptChars overrides every processor's prompt truncation bound
	// when set. Zero keeps the per-processor defaults.
	MaxPromptChars int `koanf:"max_prompt_chars"`

	OpenAI    ProviderCredentials `koanf:"openai"`
	Anthropic ProviderCredentials `koanf:"anthropic"`
	Yandex    YandexConfig        `koanf:"yandex"`
	Ollama    OllamaConfig        `koanf:"ollama"`
}

// ProviderCredentials is the common shape for hosted completion APIs.
type ProviderCredentials struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

type YandexConfig struct {
	APIKey   string `koanf:"api_key"`
	FolderID string `koanf:"folder_id"`
	BaseURL  string `koanf:"base_url"`
}

type OllamaConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
}

type LicenseConfig struct {
	Tier       string `koanf:"tier"` // community, professional, enterprise
	MatrixFile string `koanf:"matrix_file"`
}

type UsageConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp, none
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("llm.default_provider", "yandexgpt")
	k.Set("llm.timeout_seconds", 60)
	k.Set("llm.retry_attempts", 3)
	k.Set("llm.ollama.base_url", "http://localhost:11434")
	k.Set("llm.ollama.model", "llama3.1:8b")
	k.Set("license.tier", "community")
	k.Set("usage.enabled", false)
	k.Set("usage.path", "titan-usage.db")
	k.Set("telemetry.exporter", "none")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (TITAN_LLM_DEFAULT__PROVIDER -> llm.default_provider)
	if err := k.Load(env.Provider("TITAN_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "TITAN_"))
		s = strings.ReplaceAll(s, "__", "-")
		s = strings.ReplaceAll(s, "_", ".")
		return strings.ReplaceAll(s, "-", "_")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
