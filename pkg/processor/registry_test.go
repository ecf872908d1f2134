package processor

import (
	"context"
	"reflect"
	"testing"

	"github.com/titanlabs/titan/pkg/errors"
	"github.com/titanlabs/titan/pkg/llm"
)

// stubProcessor is a minimal processor for registry tests.
type stubProcessor struct {
	name      string
	blockType string
	category  string
}

func (s *stubProcessor) Metadata() Metadata {
	return Metadata{Name: s.name, Category: s.category, Version: "1.0.0"}
}

func (s *stubProcessor) CanProcess(blockType, dataType string) bool {
	return blockType == s.blockType
}

func (s *stubProcessor) Process(ctx context.Context, data interface{}, params llm.Params) (*Result, error) {
	return &Result{Type: s.blockType}, nil
}

func TestRegisterAndList(t *testing.T) {
	r := NewRegistry()
	names := []string{"alpha", "beta", "gamma"}
	for _, n := range names {
		if err := r.Register(&stubProcessor{name: n, blockType: n}); err != nil {
			t.Fatalf("Register(%s) failed: %v", n, err)
		}
	}

	if got := r.List(); !reflect.DeepEqual(got, names) {
		t.Errorf("expected %v in registration order, got %v", names, got)
	}
}

func TestRegisterDuplicateNameLeavesStateUnchanged(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubProcessor{name: "dup", blockType: "a"}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	err := r.Register(&stubProcessor{name: "dup", blockType: "b"})
	if !errors.Is(err, errors.CodeDuplicateName) {
		t.Fatalf("expected CodeDuplicateName, got %v", err)
	}

	if got := r.List(); len(got) != 1 || got[0] != "dup" {
		t.Errorf("registry changed after failed registration: %v", got)
	}
	p, findErr := r.Find("a", "text")
	if findErr != nil {
		t.Fatalf("Find failed: %v", findErr)
	}
	if p.Metadata().Name != "dup" {
		t.Errorf("original registration lost")
	}
}

func TestRegisterEmptyName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubProcessor{name: ""}); !errors.Is(err, errors.CodeInvalidInput) {
		t.Fatalf("expected CodeInvalidInput, got %v", err)
	}
}

func TestFindFirstRegisteredWins(t *testing.T) {
	r := NewRegistry()
	first := &stubProcessor{name: "first", blockType: "shared"}
	second := &stubProcessor{name: "second", blockType: "shared"}
	r.Register(first)
	r.Register(second)

	p, err := r.Find("shared", "text")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if p.Metadata().Name != "first" {
		t.Errorf("expected first-registered processor, got %s", p.Metadata().Name)
	}
}

func TestFindNotFound(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubProcessor{name: "only", blockType: "known"})

	_, err := r.Find("unknown", "text")
	if !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("expected CodeNotFound, got %v", err)
	}
	te := errors.AsTitanError(err)
	if te == nil || te.Context["block_type"] != "unknown" {
		t.Errorf("expected block_type in error context, got %v", err)
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubProcessor{name: "gone", blockType: "g"})

	if !r.Unregister("gone") {
		t.Fatalf("expected Unregister to report removal")
	}
	if r.Unregister("gone") {
		t.Errorf("expected second Unregister to be a no-op")
	}
	if len(r.List()) != 0 {
		t.Errorf("registry not empty after Unregister: %v", r.List())
	}
}

func TestByCategory(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubProcessor{name: "a", blockType: "a", category: "nlp"})
	r.Register(&stubProcessor{name: "b", blockType: "b", category: "ml"})
	r.Register(&stubProcessor{name: "c", blockType: "c", category: "nlp"})

	nlp := r.ByCategory("nlp")
	if len(nlp) != 2 {
		t.Fatalf("expected 2 nlp processors, got %d", len(nlp))
	}
	if nlp[0].Metadata().Name != "a" || nlp[1].Metadata().Name != "c" {
		t.Errorf("category scan lost registration order")
	}
}

func TestDefaultRegistryOrderAndLookup(t *testing.T) {
	router := newMockRouter(&llm.MockProvider{Response: "{}"})
	r, err := NewDefaultRegistry(router, 0)
	if err != nil {
		t.Fatalf("NewDefaultRegistry failed: %v", err)
	}

	want := []string{
		"sentiment_analysis", "network_graph", "timeline", "comparison",
		"forecast", "table", "anomaly_detection", "recommendation",
		"trend_analysis", "clustering", "summary",
	}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("built-in order mismatch:\n got %v\nwant %v", got, want)
	}

	blockTypes := map[string]string{
		"sentiment":      "sentiment_analysis",
		"network":        "network_graph",
		"timeline":       "timeline",
		"comparison":     "comparison",
		"forecast":       "forecast",
		"table":          "table",
		"anomaly":        "anomaly_detection",
		"recommendation": "recommendation",
		"trend":          "trend_analysis",
		"clustering":     "clustering",
		"summary":        "summary",
	}
	for blockType, name := range blockTypes {
		p, err := r.Find(blockType, "text")
		if err != nil {
			t.Fatalf("Find(%s) failed: %v", blockType, err)
		}
		if p.Metadata().Name != name {
			t.Errorf("Find(%s) = %s, want %s", blockType, p.Metadata().Name, name)
		}
	}
}

func TestDefaultRegistryMetadata(t *testing.T) {
	router := newMockRouter(&llm.MockProvider{Response: "{}"})
	r, err := NewDefaultRegistry(router, 0)
	if err != nil {
		t.Fatalf("NewDefaultRegistry failed: %v", err)
	}

	enterprise := map[string]bool{"anomaly_detection": true, "recommendation": true}
	for _, md := range r.MetadataAll() {
		if md.IsEnterprise != enterprise[md.Name] {
			t.Errorf("%s: IsEnterprise = %v, want %v", md.Name, md.IsEnterprise, enterprise[md.Name])
		}
		wantLLM := md.Name != "table"
		if md.RequiresLLM != wantLLM {
			t.Errorf("%s: RequiresLLM = %v, want %v", md.Name, md.RequiresLLM, wantLLM)
		}
	}
}
