package processor

import (
	"context"
	"fmt"

	"github.com/titanlabs/titan/pkg/llm"
)

const timelinePromptLimit = 2000

const timelinePrompt = `Extract all event mentions with dates from the text.

Return result in JSON format:
{
  "events": [
    {
      "date": "YYYY-MM-DD",
      "title": "Brief event title",
      "description": "Description",
      "importance": 1-10
    }
  ]
}

If exact date is unknown, use approximate or "unknown".

Text: %s`

// Timeline extracts dated events and orders them for timeline rendering.
type Timeline struct {
	core llmCore
}

func NewTimeline(router *llm.Router, opts ...Option) *Timeline {
	return &Timeline{core: newCore(router, timelinePromptLimit, opts...)}
}

func (p *Timeline) Metadata() Metadata {
	return Metadata{
		Name:               "timeline",
		Description:        "Build event timelines from text",
		Category:           "visualization",
		SupportedDataTypes: []string{"text"},
		OutputTypes:        []string{"json", "timeline"},
		RequiresLLM:        true,
		Version:            "1.0.0",
	}
}

func (p *Timeline) CanProcess(blockType, dataType string) bool {
	return blockType == "timeline"
}

func (p *Timeline) Process(ctx context.Context, data interface{}, params llm.Params) (*Result, error) {
	text, err := p.core.promptText(data)
	if err != nil {
		return nil, err
	}

	raw, err := p.core.complete(ctx, "timeline", fmt.Sprintf(timelinePrompt, text), params)
	if err != nil {
		return nil, err
	}

	events, ok := decodeJSON(raw)
	if !ok {
		events = map[string]interface{}{"events": []interface{}{}}
	}
	return &Result{
		Type:          "timeline",
		Data:          events,
		Visualization: "timeline",
		Raw:           raw,
	}, nil
}
