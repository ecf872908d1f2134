package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/titanlabs/titan/pkg/llm"
)

const recommendationPromptLimit = 3000

const recommendationPrompt = `Based on the following data and context, generate personalized recommendations.

Context: %s
User preferences: %s

Analyze the data and provide:
1. Immediate action recommendations
2. Strategic recommendations
3. Related content or resources
4. Prioritized next steps

Return result in JSON format:
{
  "recommendations": [
    {
      "id": "rec_1",
      "type": "action|content|strategy|improvement",
      "title": "Recommendation title",
      "description": "Detailed description",
      "priority": "high|medium|low",
      "confidence": 0-100,
      "reasoning": "Why this is recommended",
      "related_items": ["item1", "item2"]
    }
  ],
  "summary": {
    "total_recommendations": 0,
    "top_priority": "Most important recommendation",
    "quick_wins": ["Easy to implement items"],
    "long_term": ["Strategic items"]
  }
}

Data to analyze:
%s`

// Recommendation produces prioritized action and strategy suggestions.
// Enterprise tier only.
type Recommendation struct {
	core llmCore
}

func NewRecommendation(router *llm.Router, opts ...Option) *Recommendation {
	return &Recommendation{core: newCore(router, recommendationPromptLimit, opts...)}
}

func (p *Recommendation) Metadata() Metadata {
	return Metadata{
		Name:               "recommendation",
		Description:        "Generate intelligent recommendations",
		Category:           "ml",
		SupportedDataTypes: []string{"text", "json"},
		OutputTypes:        []string{"json", "list"},
		RequiresLLM:        true,
		IsEnterprise:       true,
		Version:            "1.0.0",
	}
}

func (p *Recommendation) CanProcess(blockType, dataType string) bool {
	return blockType == "recommendation"
}

func (p *Recommendation) Process(ctx context.Context, data interface{}, params llm.Params) (*Result, error) {
	text, err := p.core.promptText(data)
	if err != nil {
		return nil, err
	}

	contextTag := params.String("context", "general")
	profile := "Not specified"
	if v, ok := params["user_profile"]; ok && v != nil {
		if encoded, err := json.Marshal(v); err == nil {
			profile = string(encoded)
		}
	}

	prompt := fmt.Sprintf(recommendationPrompt, contextTag, profile, text)
	raw, err := p.core.complete(ctx, "recommendation", prompt, params)
	if err != nil {
		return nil, err
	}

	recs, ok := decodeJSON(raw)
	if !ok {
		recs = map[string]interface{}{
			"recommendations": []interface{}{},
			"summary": map[string]interface{}{
				"total_recommendations": 0,
				"top_priority":          raw,
			},
		}
	}
	return &Result{
		Type:          "recommendation",
		Data:          recs,
		Visualization: "recommendation_list",
		Raw:           raw,
	}, nil
}
