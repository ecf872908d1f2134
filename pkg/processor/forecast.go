package processor

import (
	"context"
	"fmt"

	"github.com/titanlabs/titan/pkg/llm"
)

const forecastPromptLimit = 2000

const forecastPrompt = `Based on the presented information, make a forecast of the situation development.

Information:
%s

Return result in JSON format:
{
  "forecast": {
    "short_term": "near-term forecast",
    "medium_term": "medium-term forecast",
    "long_term": "long-term forecast"
  },
  "scenarios": [
    {
      "name": "scenario name",
      "probability": 0-100,
      "description": "description"
    }
  ],
  "risks": ["risk1", "risk2"],
  "opportunities": ["opportunity1", "opportunity2"]
}`

// Forecast generates short/medium/long term projections with scenario
// probabilities, risks and opportunities.
type Forecast struct {
	core llmCore
}

func NewForecast(router *llm.Router, opts ...Option) *Forecast {
	return &Forecast{core: newCore(router, forecastPromptLimit, opts...)}
}

func (p *Forecast) Metadata() Metadata {
	return Metadata{
		Name:               "forecast",
		Description:        "Generate forecasts and scenario analysis",
		Category:           "analytics",
		SupportedDataTypes: []string{"text", "numeric"},
		OutputTypes:        []string{"json", "forecast_chart"},
		RequiresLLM:        true,
		Version:            "1.0.0",
	}
}

func (p *Forecast) CanProcess(blockType, dataType string) bool {
	return blockType == "forecast"
}

func (p *Forecast) Process(ctx context.Context, data interface{}, params llm.Params) (*Result, error) {
	text, err := p.core.promptText(data)
	if err != nil {
		return nil, err
	}

	raw, err := p.core.complete(ctx, "forecast", fmt.Sprintf(forecastPrompt, text), params)
	if err != nil {
		return nil, err
	}

	forecast, ok := decodeJSON(raw)
	if !ok {
		forecast = map[string]interface{}{
			"forecast": map[string]interface{}{"summary": raw},
		}
	}
	return &Result{
		Type:          "forecast",
		Data:          forecast,
		Visualization: "forecast_chart",
		Raw:           raw,
	}, nil
}
