package processor

import (
	"context"
	"fmt"

	"github.com/titanlabs/titan/pkg/llm"
)

const trendPromptLimit = 3000

const trendPrompt = `Analyze the following data for trends and patterns.

Identify:
1. Overall trend direction (growing, declining, stable)
2. Key emerging topics or themes
3. Seasonal or cyclical patterns
4. Trend strength and confidence

Return result in JSON format:
{
  "trends": [
    {
      "name": "Trend name",
      "direction": "up|down|stable",
      "strength": 0-100,
      "description": "Description",
      "start_period": "When trend started",
      "key_drivers": ["driver1", "driver2"]
    }
  ],
  "emerging_topics": [
    {
      "topic": "Topic name",
      "relevance": 0-100,
      "growth_rate": "rapid|moderate|slow"
    }
  ],
  "summary": {
    "overall_direction": "up|down|stable",
    "key_insight": "Main takeaway",
    "forecast": "Expected future direction"
  }
}

Data to analyze:
%s`

// TrendAnalysis identifies trend direction, strength and emerging topics.
type TrendAnalysis struct {
	core llmCore
}

func NewTrendAnalysis(router *llm.Router, opts ...Option) *TrendAnalysis {
	return &TrendAnalysis{core: newCore(router, trendPromptLimit, opts...)}
}

func (p *TrendAnalysis) Metadata() Metadata {
	return Metadata{
		Name:               "trend_analysis",
		Description:        "Identify and analyze trends",
		Category:           "analytics",
		SupportedDataTypes: []string{"text", "timeseries"},
		OutputTypes:        []string{"json", "trend_chart"},
		RequiresLLM:        true,
		Version:            "1.0.0",
	}
}

func (p *TrendAnalysis) CanProcess(blockType, dataType string) bool {
	return blockType == "trend"
}

func (p *TrendAnalysis) Process(ctx context.Context, data interface{}, params llm.Params) (*Result, error) {
	text, err := p.core.promptText(data)
	if err != nil {
		return nil, err
	}

	raw, err := p.core.complete(ctx, "trend_analysis", fmt.Sprintf(trendPrompt, text), params)
	if err != nil {
		return nil, err
	}

	trends, ok := decodeJSON(raw)
	if !ok {
		trends = map[string]interface{}{
			"summary": map[string]interface{}{"key_insight": raw},
		}
	}
	return &Result{
		Type:          "trend",
		Data:          trends,
		Visualization: "trend_chart",
		Raw:           raw,
	}, nil
}
