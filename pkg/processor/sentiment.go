package processor

import (
	"context"
	"fmt"

	"github.com/titanlabs/titan/pkg/llm"
)

const sentimentPromptLimit = 2000

const sentimentPrompt = `Analyze the sentiment of the following text.

Determine:
1. Overall sentiment: positive, negative, or neutral
2. Emotional intensity (1-10)
3. Key emotions
4. Main reasons for the sentiment

Return result in JSON format:
{
  "sentiment": "positive|negative|neutral",
  "score": 0-10,
  "emotions": ["emotion1", "emotion2"],
  "reasons": ["reason1", "reason2"],
  "summary": "brief summary"
}

Text: %s`

// Sentiment classifies text sentiment with emotional intensity scoring and
// key emotion extraction.
type Sentiment struct {
	core llmCore
}

func NewSentiment(router *llm.Router, opts ...Option) *Sentiment {
	return &Sentiment{core: newCore(router, sentimentPromptLimit, opts...)}
}

func (p *Sentiment) Metadata() Metadata {
	return Metadata{
		Name:               "sentiment_analysis",
		Description:        "Analyze text sentiment and emotions",
		Category:           "nlp",
		SupportedDataTypes: []string{"text"},
		OutputTypes:        []string{"json", "visualization"},
		RequiresLLM:        true,
		Version:            "1.0.0",
	}
}

func (p *Sentiment) CanProcess(blockType, dataType string) bool {
	return blockType == "sentiment"
}

func (p *Sentiment) Process(ctx context.Context, data interface{}, params llm.Params) (*Result, error) {
	text, err := p.core.promptText(data)
	if err != nil {
		return nil, err
	}

	raw, err := p.core.complete(ctx, "sentiment_analysis", fmt.Sprintf(sentimentPrompt, text), params)
	if err != nil {
		return nil, err
	}

	analysis, ok := decodeJSON(raw)
	if !ok {
		analysis = map[string]interface{}{"summary": raw}
	}
	return &Result{
		Type:          "sentiment",
		Data:          analysis,
		Visualization: "sentiment_gauge",
		Raw:           raw,
	}, nil
}
