package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/titanlabs/titan/pkg/errors"
	"github.com/titanlabs/titan/pkg/llm"
)

// sourceText extracts the text to analyze. A mapping with a "data" key
// contributes that value; anything else is stringified. Nil input cannot be
// interpreted and fails with CodeUnsupportedInput.
func sourceText(data interface{}) (string, error) {
	if data == nil {
		return "", errors.New(errors.CodeUnsupportedInput, "no data for analysis", nil)
	}
	if m, ok := data.(map[string]interface{}); ok {
		if v, ok := m["data"]; ok {
			if s, ok := v.(string); ok {
				return s, nil
			}
			return fmt.Sprint(v), nil
		}
	}
	if s, ok := data.(string); ok {
		return s, nil
	}
	return fmt.Sprint(data), nil
}

// truncate bounds text to at most limit runes. Cutting on a rune boundary
// keeps multi-byte input valid for the provider.
func truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// decodeJSON attempts to parse provider output as JSON. Providers often
// wrap the payload in prose or code fences, so a raw-text fallback is the
// caller's responsibility.
func decodeJSON(raw string) (map[string]interface{}, bool) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(trimmed)), &out); err != nil {
		return nil, false
	}
	return out, true
}

// complete sends the prompt through the router and wraps any failure as
// CodeUpstreamProvider so callers see one processor-level error shape.
func (c llmCore) complete(ctx context.Context, name, prompt string, params llm.Params) (string, error) {
	// The legacy param contract selects the provider through "model"
	// ("yandexgpt", "gpt-4", "claude-3"). Strip it before forwarding so the
	// binding's concrete model name is used on the wire.
	provider := params.String("provider", params.String("model", ""))
	text, err := c.router.Generate(ctx, prompt, provider, params.Without("model", "provider"))
	if err != nil {
		return "", errors.New(errors.CodeUpstreamProvider, "llm call failed", err).
			WithContext("processor", name)
	}
	return text, nil
}

// promptText extracts and bounds the analysis text in one step.
func (c llmCore) promptText(data interface{}) (string, error) {
	text, err := sourceText(data)
	if err != nil {
		return "", err
	}
	return truncate(text, c.limit), nil
}
