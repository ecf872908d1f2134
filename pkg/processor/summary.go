package processor

import (
	"context"
	"fmt"

	"github.com/titanlabs/titan/pkg/llm"
)

const summaryPromptLimit = 4000

const summaryPrompt = `Create a %s summary of the following content.

Maximum length: %d words

Include:
1. Main points and key takeaways
2. Important facts and figures
3. Action items (if applicable)
4. Conclusions

Return result in JSON format:
{
  "summary": {
    "title": "Summary title",
    "executive_summary": "Brief overview (2-3 sentences)",
    "key_points": ["point1", "point2", "point3"],
    "details": "Detailed summary",
    "action_items": ["action1", "action2"],
    "conclusions": "Final conclusions"
  },
  "metadata": {
    "original_length": "approximate word count of original",
    "summary_length": "word count of summary",
    "compression_ratio": "percentage"
  }
}

Content to summarize:
%s`

// Summary produces executive, detailed or bullet-point summaries with key
// points and action items.
type Summary struct {
	core llmCore
}

func NewSummary(router *llm.Router, opts ...Option) *Summary {
	return &Summary{core: newCore(router, summaryPromptLimit, opts...)}
}

func (p *Summary) Metadata() Metadata {
	return Metadata{
		Name:               "summary",
		Description:        "Generate concise summaries",
		Category:           "nlp",
		SupportedDataTypes: []string{"text"},
		OutputTypes:        []string{"text", "json"},
		RequiresLLM:        true,
		Version:            "1.0.0",
	}
}

func (p *Summary) CanProcess(blockType, dataType string) bool {
	return blockType == "summary"
}

func (p *Summary) Process(ctx context.Context, data interface{}, params llm.Params) (*Result, error) {
	text, err := p.core.promptText(data)
	if err != nil {
		return nil, err
	}

	summaryType := params.String("type", "executive")
	maxWords := params.Int("max_length", 500)

	prompt := fmt.Sprintf(summaryPrompt, summaryType, maxWords, text)
	raw, err := p.core.complete(ctx, "summary", prompt, params)
	if err != nil {
		return nil, err
	}

	summary, ok := decodeJSON(raw)
	if !ok {
		summary = map[string]interface{}{
			"summary": map[string]interface{}{
				"executive_summary": raw,
				"key_points":        []interface{}{},
				"details":           raw,
			},
		}
	}
	return &Result{
		Type:          "summary",
		Data:          summary,
		Visualization: "text",
		Raw:           raw,
	}, nil
}
