package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/titanlabs/titan/pkg/llm"
)

const comparisonPromptLimit = 2000

const comparisonItemsPrompt = `Compare the following aspects: %s

Based on text:
%s

Return result in JSON format:
{
  "comparison": [
    {
      "item": "aspect name",
      "value": "value/description",
      "score": 1-10
    }
  ],
  "summary": "overall conclusion"
}`

const comparisonOpenPrompt = `Perform comparative analysis of information in the text.
Identify key aspects for comparison.

Text: %s

Return result in JSON format with comparison array.`

// Comparison scores named aspects against each other. When params carry an
// "items" list the prompt pins the aspects; otherwise the model picks them.
type Comparison struct {
	core llmCore
}

func NewComparison(router *llm.Router, opts ...Option) *Comparison {
	return &Comparison{core: newCore(router, comparisonPromptLimit, opts...)}
}

func (p *Comparison) Metadata() Metadata {
	return Metadata{
		Name:               "comparison",
		Description:        "Perform comparative analysis",
		Category:           "analysis",
		SupportedDataTypes: []string{"text"},
		OutputTypes:        []string{"json", "radar_chart"},
		RequiresLLM:        true,
		Version:            "1.0.0",
	}
}

func (p *Comparison) CanProcess(blockType, dataType string) bool {
	return blockType == "comparison"
}

func (p *Comparison) Process(ctx context.Context, data interface{}, params llm.Params) (*Result, error) {
	text, err := p.core.promptText(data)
	if err != nil {
		return nil, err
	}

	var prompt string
	if items := comparisonItems(params); len(items) > 0 {
		prompt = fmt.Sprintf(comparisonItemsPrompt, strings.Join(items, ", "), text)
	} else {
		prompt = fmt.Sprintf(comparisonOpenPrompt, text)
	}

	raw, err := p.core.complete(ctx, "comparison", prompt, params)
	if err != nil {
		return nil, err
	}

	comparison, ok := decodeJSON(raw)
	if !ok {
		comparison = map[string]interface{}{"summary": raw}
	}
	return &Result{
		Type:          "comparison",
		Data:          comparison,
		Visualization: "radar_chart",
		Raw:           raw,
	}, nil
}

func comparisonItems(params llm.Params) []string {
	v, ok := params["items"]
	if !ok {
		return nil
	}
	switch items := v.(type) {
	case []string:
		return items
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, fmt.Sprint(it))
		}
		return out
	}
	return nil
}
