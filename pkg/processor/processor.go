// Package processor implements the pluggable analysis units that turn a
// block of raw input into a structured analytics result, optionally by
// calling an LLM provider through the routing layer.
package processor

import (
	"context"

	"github.com/titanlabs/titan/pkg/llm"
)

// Metadata describes a processor for discovery and documentation. Name is
// unique within a registry.
type Metadata struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Category           string   `json:"category"`
	SupportedDataTypes []string `json:"supported_data_types"`
	OutputTypes        []string `json:"output_types"`
	RequiresLLM        bool     `json:"requires_llm"`
	IsEnterprise       bool     `json:"is_enterprise"`
	Version            string   `json:"version"`
}

// Result is the normalized output of a single Process call. Data holds the
// decoded provider payload (or a structural fallback when the provider did
// not return valid JSON); Raw preserves the provider text verbatim.
type Result struct {
	Type          string      `json:"type"`
	Data          interface{} `json:"data"`
	Visualization string      `json:"visualization"`
	Raw           string      `json:"raw_text,omitempty"`
}

// Processor is the capability contract every analysis unit implements.
//
// CanProcess must be a cheap, side-effect-free predicate: the registry
// invokes it on every dispatch. Process may perform network I/O when
// Metadata().RequiresLLM is true and must not mutate shared state.
type Processor interface {
	Metadata() Metadata
	CanProcess(blockType, dataType string) bool
	Process(ctx context.Context, data interface{}, params llm.Params) (*Result, error)
}

// llmCore carries the pieces shared by every LLM-backed processor: the
// router and the prompt truncation bound.
type llmCore struct {
	router *llm.Router
	limit  int
}

// Option adjusts an LLM-backed processor at construction time.
type Option func(*llmCore)

// WithPromptLimit overrides the processor's default truncation bound.
// Values <= 0 are ignored.
func WithPromptLimit(n int) Option {
	return func(c *llmCore) {
		if n > 0 {
			c.limit = n
		}
	}
}

func newCore(router *llm.Router, defaultLimit int, opts ...Option) llmCore {
	c := llmCore{router: router, limit: defaultLimit}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
