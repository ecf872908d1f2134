package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/titanlabs/titan/pkg/errors"
)

// Metrics tracks processor runs, LLM calls and error rates.
type Metrics struct {
	processorRuns metric.Int64Counter
	llmCalls      metric.Int64Counter
	llmTokens     metric.Int64Counter
	llmDuration   metric.Float64Histogram
	errorCounter  metric.Int64Counter
}

// NewMetrics creates the OTEL instruments used by the analytics core.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("titan/analytics")

	processorRuns, err := meter.Int64Counter(
		"titan.processor.runs",
		metric.WithDescription("Processor invocations by name and outcome"),
	)
	if err != nil {
		return nil, err
	}

	llmCalls, err := meter.Int64Counter(
		"titan.llm.calls",
		metric.WithDescription("LLM provider calls by provider and outcome"),
	)
	if err != nil {
		return nil, err
	}

	llmTokens, err := meter.Int64Counter(
		"titan.llm.tokens",
		metric.WithDescription("Total tokens consumed by provider"),
	)
	if err != nil {
		return nil, err
	}

	llmDuration, err := meter.Float64Histogram(
		"titan.llm.duration_seconds",
		metric.WithDescription("LLM call latency by provider"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"titan.errors.total",
		metric.WithDescription("Errors by code and component"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		processorRuns: processorRuns,
		llmCalls:      llmCalls,
		llmTokens:     llmTokens,
		llmDuration:   llmDuration,
		errorCounter:  errorCounter,
	}, nil
}

// RecordProcessorRun counts one processor invocation.
func (m *Metrics) RecordProcessorRun(ctx context.Context, name string, err error) {
	if m == nil {
		return
	}
	m.processorRuns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("processor", name),
			attribute.String("outcome", outcome(err)),
		),
	)
}

// RecordLLMCall counts one provider round trip with its token spend and
// latency.
func (m *Metrics) RecordLLMCall(ctx context.Context, provider string, tokens int, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome(err)),
	)
	m.llmCalls.Add(ctx, 1, attrs)
	if tokens > 0 {
		m.llmTokens.Add(ctx, int64(tokens),
			metric.WithAttributes(attribute.String("provider", provider)))
	}
	m.llmDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordError counts one error by code and component.
func (m *Metrics) RecordError(ctx context.Context, err error, component string) {
	if m == nil || err == nil {
		return
	}
	code := "UNKNOWN"
	recoverable := "unknown"
	if te := errors.AsTitanError(err); te != nil {
		code = string(te.Code)
		recoverable = te.RecoverableString()
	}
	m.errorCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error.code", code),
			attribute.String("component", component),
			attribute.String("recoverable", recoverable),
		),
	)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
