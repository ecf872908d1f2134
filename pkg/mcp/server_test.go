package mcp

import (
	"testing"

	"github.com/titanlabs/titan/pkg/engine"
	"github.com/titanlabs/titan/pkg/licensing"
	"github.com/titanlabs/titan/pkg/llm"
	"github.com/titanlabs/titan/pkg/processor"
)

func TestNewServerRegistersAllProcessors(t *testing.T) {
	router := llm.NewRouter(llm.WithDefaultProvider("mock"))
	router.Bind(&llm.MockProvider{Response: "{}"}, "mock-model", "mock")

	registry, err := processor.NewDefaultRegistry(router, 0)
	if err != nil {
		t.Fatalf("NewDefaultRegistry failed: %v", err)
	}
	eng := engine.New(registry, licensing.NewGate(), licensing.TierEnterprise)

	s := NewServer("titan-test", "v0.0.1", eng, registry)
	if s == nil || s.mcpServer == nil {
		t.Fatal("server not constructed")
	}
}

func TestBlockTypeFor(t *testing.T) {
	cases := map[string]string{
		"sentiment_analysis": "sentiment",
		"network_graph":      "network",
		"anomaly_detection":  "anomaly",
		"trend_analysis":     "trend",
		"timeline":           "timeline",
		"summary":            "summary",
	}
	for name, want := range cases {
		if got := blockTypeFor(name); got != want {
			t.Errorf("blockTypeFor(%q) = %q, want %q", name, got, want)
		}
	}
}
