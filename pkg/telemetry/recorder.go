package telemetry

import (
	"context"

	"github.com/titanlabs/titan/pkg/llm"
)

// LLMRecorder exports router call records as OTEL metrics. It composes
// with the usage store through llm.MultiRecorder.
type LLMRecorder struct {
	metrics *Metrics
}

func NewLLMRecorder(m *Metrics) *LLMRecorder {
	return &LLMRecorder{metrics: m}
}

// RecordCall implements llm.Recorder.
func (r *LLMRecorder) RecordCall(ctx context.Context, c llm.Completion, err error) {
	r.metrics.RecordLLMCall(ctx, c.Provider, c.Usage.TotalTokens, c.Duration, err)
	if err != nil {
		r.metrics.RecordError(ctx, err, "llm")
	}
}
