package processor

import (
	"context"
	"fmt"

	"github.com/titanlabs/titan/pkg/llm"
)

const anomalyPromptLimit = 3000

const anomalyPrompt = `Analyze the following data for anomalies and unusual patterns.

Sensitivity level: %s

Identify:
1. Any unusual values or patterns
2. Deviations from expected behavior
3. Potential outliers or suspicious data points
4. Patterns that warrant attention

Return result in JSON format:
{
  "anomalies": [
    {
      "type": "value_outlier|pattern_deviation|trend_break|missing_data",
      "description": "Description of the anomaly",
      "severity": "low|medium|high|critical",
      "location": "Where in the data the anomaly was found",
      "recommendation": "Suggested action"
    }
  ],
  "summary": {
    "total_anomalies": 0,
    "critical_count": 0,
    "high_count": 0,
    "data_quality_score": 0-100,
    "overall_assessment": "description"
  },
  "alerts": [
    {
      "message": "Alert message",
      "priority": "low|medium|high|critical"
    }
  ]
}

Data to analyze:
%s`

// AnomalyDetection flags outliers and pattern deviations. Enterprise tier
// only; the engine enforces the gate, the processor just declares it.
type AnomalyDetection struct {
	core llmCore
}

func NewAnomalyDetection(router *llm.Router, opts ...Option) *AnomalyDetection {
	return &AnomalyDetection{core: newCore(router, anomalyPromptLimit, opts...)}
}

func (p *AnomalyDetection) Metadata() Metadata {
	return Metadata{
		Name:               "anomaly_detection",
		Description:        "Detect anomalies and outliers in data",
		Category:           "ml",
		SupportedDataTypes: []string{"text", "numeric", "timeseries"},
		OutputTypes:        []string{"json", "alert", "visualization"},
		RequiresLLM:        true,
		IsEnterprise:       true,
		Version:            "1.0.0",
	}
}

func (p *AnomalyDetection) CanProcess(blockType, dataType string) bool {
	return blockType == "anomaly"
}

func (p *AnomalyDetection) Process(ctx context.Context, data interface{}, params llm.Params) (*Result, error) {
	text, err := p.core.promptText(data)
	if err != nil {
		return nil, err
	}
	sensitivity := params.String("sensitivity", "medium")

	raw, err := p.core.complete(ctx, "anomaly_detection", fmt.Sprintf(anomalyPrompt, sensitivity, text), params)
	if err != nil {
		return nil, err
	}

	report, ok := decodeJSON(raw)
	if !ok {
		report = map[string]interface{}{
			"anomalies": []interface{}{},
			"summary": map[string]interface{}{
				"total_anomalies":    0,
				"overall_assessment": raw,
			},
		}
	}
	return &Result{
		Type:          "anomaly",
		Data:          report,
		Visualization: "anomaly_chart",
		Raw:           raw,
	}, nil
}
