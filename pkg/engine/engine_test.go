package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/titanlabs/titan/pkg/errors"
	"github.com/titanlabs/titan/pkg/licensing"
	"github.com/titanlabs/titan/pkg/llm"
	"github.com/titanlabs/titan/pkg/processor"
	"github.com/titanlabs/titan/pkg/resilience"
)

type stubSource struct {
	data    map[string]interface{}
	err     error
	queries []string
}

func (s *stubSource) Fetch(ctx context.Context, query string, filters map[string]interface{}) (interface{}, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return map[string]interface{}{"data": "results for " + query}, nil
}

func newTestEngine(t *testing.T, tier licensing.Tier, opts ...Option) (*Engine, *llm.MockProvider) {
	t.Helper()
	mock := &llm.MockProvider{Response: "{}"}
	router := llm.NewRouter(
		llm.WithDefaultProvider("mock"),
		llm.WithRetry(resilience.DefaultRetryConfig().WithMaxAttempts(1)),
	)
	router.Bind(mock, "mock-model", "mock")

	registry, err := processor.NewDefaultRegistry(router, 0)
	if err != nil {
		t.Fatalf("NewDefaultRegistry failed: %v", err)
	}
	return New(registry, licensing.NewGate(), tier, opts...), mock
}

func TestProcessBlockWithInlineData(t *testing.T) {
	e, _ := newTestEngine(t, licensing.TierCommunity)

	res, err := e.ProcessBlock(context.Background(),
		TemplateBlock{Type: "sentiment"}, "acme",
		map[string]interface{}{"data": "good news everyone"})
	if err != nil {
		t.Fatalf("ProcessBlock failed: %v", err)
	}
	if res.Type != "sentiment" {
		t.Errorf("unexpected result type %q", res.Type)
	}
}

func TestProcessBlockUnknownType(t *testing.T) {
	e, _ := newTestEngine(t, licensing.TierCommunity)

	_, err := e.ProcessBlock(context.Background(),
		TemplateBlock{Type: "unknown"}, "acme", "data")
	if !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("expected CodeNotFound, got %v", err)
	}
}

func TestEnterpriseBlockGatedByTier(t *testing.T) {
	e, mock := newTestEngine(t, licensing.TierProfessional)

	_, err := e.ProcessBlock(context.Background(),
		TemplateBlock{Type: "anomaly"}, "acme", "metrics")
	if !errors.Is(err, errors.CodeUnlicensed) {
		t.Fatalf("expected CodeUnlicensed for professional tier, got %v", err)
	}
	if len(mock.Calls) != 0 {
		t.Errorf("gated block must not reach the provider")
	}

	enterprise, _ := newTestEngine(t, licensing.TierEnterprise)
	if _, err := enterprise.ProcessBlock(context.Background(),
		TemplateBlock{Type: "anomaly"}, "acme", "metrics"); err != nil {
		t.Fatalf("enterprise tier must pass the gate: %v", err)
	}
}

func TestProcessBlockFetchesFromSource(t *testing.T) {
	src := &stubSource{}
	e, mock := newTestEngine(t, licensing.TierCommunity, WithSource(src))

	res, err := e.ProcessBlock(context.Background(),
		TemplateBlock{Type: "summary", QueryTemplate: "{topic} quarterly report"},
		"Acme", nil)
	if err != nil {
		t.Fatalf("ProcessBlock failed: %v", err)
	}
	if res == nil {
		t.Fatalf("expected a result")
	}
	if len(src.queries) != 1 || src.queries[0] != "Acme quarterly report" {
		t.Errorf("topic not substituted into query: %v", src.queries)
	}
	if len(mock.Calls) != 1 {
		t.Fatalf("expected one provider call, got %d", len(mock.Calls))
	}
}

func TestProcessBlockSourceFailure(t *testing.T) {
	src := &stubSource{err: fmt.Errorf("search down")}
	e, mock := newTestEngine(t, licensing.TierCommunity, WithSource(src))

	_, err := e.ProcessBlock(context.Background(),
		TemplateBlock{Type: "summary", QueryTemplate: "{topic}"}, "Acme", nil)
	if !errors.Is(err, errors.CodeUpstreamProvider) {
		t.Fatalf("expected CodeUpstreamProvider, got %v", err)
	}
	if len(mock.Calls) != 0 {
		t.Errorf("processor must not run when fetch fails")
	}
}

func TestProcessTemplatePositionOrder(t *testing.T) {
	src := &stubSource{}
	e, _ := newTestEngine(t, licensing.TierCommunity, WithSource(src))

	blocks := []TemplateBlock{
		{Type: "summary", Position: 2, QueryTemplate: "{topic} summary"},
		{Type: "sentiment", Position: 0, QueryTemplate: "{topic} sentiment"},
		{Type: "timeline", Position: 1, QueryTemplate: "{topic} events"},
	}
	results := e.ProcessTemplate(context.Background(), blocks, "Acme")

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	wantOrder := []string{"sentiment", "timeline", "summary"}
	for i, want := range wantOrder {
		if results[i].Type != want {
			t.Errorf("position %d: got %q, want %q", i, results[i].Type, want)
		}
		if results[i].Err != nil {
			t.Errorf("block %q failed: %v", want, results[i].Err)
		}
	}
}

func TestProcessTemplateScriptedResponses(t *testing.T) {
	scripted := llm.NewScriptedMockProvider(
		`{"sentiment": "positive", "score": 7}`,
		`{"events": [{"date": "2024-01-01", "title": "launch"}]}`,
	)
	router := llm.NewRouter(
		llm.WithDefaultProvider("mock"),
		llm.WithRetry(resilience.DefaultRetryConfig().WithMaxAttempts(1)),
	)
	router.Bind(scripted, "mock-model", "mock")

	registry, err := processor.NewDefaultRegistry(router, 0)
	if err != nil {
		t.Fatalf("NewDefaultRegistry failed: %v", err)
	}
	e := New(registry, licensing.NewGate(), licensing.TierCommunity,
		WithSource(&stubSource{}))

	blocks := []TemplateBlock{
		{Type: "sentiment", Position: 0, QueryTemplate: "{topic}"},
		{Type: "timeline", Position: 1, QueryTemplate: "{topic}"},
	}
	results := e.ProcessTemplate(context.Background(), blocks, "Acme")

	if scripted.CallCount != 2 {
		t.Fatalf("expected 2 provider calls, got %d", scripted.CallCount)
	}
	if results[0].Err != nil || results[1].Err != nil {
		t.Fatalf("blocks failed: %v / %v", results[0].Err, results[1].Err)
	}
	first, ok := results[0].Result.Data.(map[string]interface{})
	if !ok || first["sentiment"] != "positive" {
		t.Errorf("first block got wrong response: %+v", results[0].Result.Data)
	}
	second, ok := results[1].Result.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("second block data not a map: %+v", results[1].Result.Data)
	}
	if _, ok := second["events"]; !ok {
		t.Errorf("second block got wrong response: %+v", second)
	}
}

func TestProcessTemplateKeepsGoingAfterFailure(t *testing.T) {
	src := &stubSource{}
	e, _ := newTestEngine(t, licensing.TierCommunity, WithSource(src))

	blocks := []TemplateBlock{
		{Type: "unknown", Position: 0},
		{Type: "summary", Position: 1, QueryTemplate: "{topic}"},
	}
	results := e.ProcessTemplate(context.Background(), blocks, "Acme")

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !errors.Is(results[0].Err, errors.CodeNotFound) {
		t.Errorf("expected first block to fail with CodeNotFound, got %v", results[0].Err)
	}
	if results[1].Err != nil || results[1].Result == nil {
		t.Errorf("second block must still run: %+v", results[1])
	}
}

type countingObserver struct {
	runs []string
	errs int
}

func (o *countingObserver) RecordProcessorRun(ctx context.Context, name string, err error) {
	o.runs = append(o.runs, name)
	if err != nil {
		o.errs++
	}
}

func TestObserverSeesRunsAndFailures(t *testing.T) {
	obs := &countingObserver{}
	e, _ := newTestEngine(t, licensing.TierCommunity, WithObserver(obs))

	if _, err := e.ProcessBlock(context.Background(),
		TemplateBlock{Type: "sentiment"}, "acme", "fine text"); err != nil {
		t.Fatalf("ProcessBlock failed: %v", err)
	}
	// nil data with no source reaches the processor and fails there
	if _, err := e.ProcessBlock(context.Background(),
		TemplateBlock{Type: "sentiment"}, "acme", nil); err == nil {
		t.Fatal("expected failure for nil data")
	}

	if len(obs.runs) != 2 || obs.runs[0] != "sentiment_analysis" {
		t.Errorf("observer runs = %v", obs.runs)
	}
	if obs.errs != 1 {
		t.Errorf("observer errs = %d, want 1", obs.errs)
	}
}

func TestResolveQuery(t *testing.T) {
	if got := ResolveQuery("{topic} news about {topic}", "Acme"); got != "Acme news about Acme" {
		t.Errorf("ResolveQuery = %q", got)
	}
	if got := ResolveQuery("no placeholder", "Acme"); got != "no placeholder" {
		t.Errorf("templates without placeholder must pass through, got %q", got)
	}
}
