package llm

import (
	"time"

	"github.com/titanlabs/titan/pkg/config"
	"github.com/titanlabs/titan/pkg/resilience"
)

// FromConfig builds a Router from the configured provider credentials.
// Only providers with credentials get bindings, so an unconfigured id fails
// routing instead of silently falling back the way the legacy platform did.
func FromConfig(cfg config.LLMConfig, recorder Recorder) *Router {
	retry := resilience.DefaultRetryConfig()
	if cfg.RetryAttempts > 0 {
		retry = retry.WithMaxAttempts(cfg.RetryAttempts)
	}

	opts := []RouterOption{
		WithDefaultProvider(cfg.DefaultProvider),
		WithRetry(retry),
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	if recorder != nil {
		opts = append(opts, WithRecorder(recorder))
	}
	r := NewRouter(opts...)

	if cfg.Yandex.APIKey != "" {
		yandex := NewYandex(cfg.Yandex.APIKey, cfg.Yandex.FolderID, cfg.Yandex.BaseURL)
		r.Bind(yandex, "yandexgpt", "yandexgpt", "yandex")
		r.Bind(yandex, "yandexgpt-lite", "yandexgpt-lite")
	}

	if cfg.OpenAI.APIKey != "" {
		var oaOpts []OpenAIOption
		if cfg.OpenAI.BaseURL != "" {
			oaOpts = append(oaOpts, WithOpenAIBaseURL(cfg.OpenAI.BaseURL))
		}
		if cfg.OpenAI.Model != "" {
			oaOpts = append(oaOpts, WithOpenAIModel(cfg.OpenAI.Model))
		}
		oa := NewOpenAI(cfg.OpenAI.APIKey, oaOpts...)
		r.Bind(oa, cfg.OpenAI.Model, "openai")
		r.Bind(oa, "gpt-4", "gpt-4")
		r.Bind(oa, "gpt-3.5-turbo", "gpt-3.5-turbo")
	}

	if cfg.Anthropic.APIKey != "" {
		var anOpts []AnthropicOption
		if cfg.Anthropic.BaseURL != "" {
			anOpts = append(anOpts, WithAnthropicBaseURL(cfg.Anthropic.BaseURL))
		}
		if cfg.Anthropic.Model != "" {
			anOpts = append(anOpts, WithAnthropicModel(cfg.Anthropic.Model))
		}
		an := NewAnthropic(cfg.Anthropic.APIKey, anOpts...)
		r.Bind(an, cfg.Anthropic.Model, "anthropic", "claude-3")
	}

	if cfg.Ollama.BaseURL != "" {
		ollama := NewOllama(cfg.Ollama.BaseURL, cfg.Ollama.Model)
		r.Bind(ollama, cfg.Ollama.Model, "local", "ollama")
	}

	return r
}
