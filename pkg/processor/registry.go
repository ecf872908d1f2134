package processor

import (
	"sync"

	"github.com/titanlabs/titan/pkg/errors"
	"github.com/titanlabs/titan/pkg/llm"
)

// Registry maps processor names to processor instances. It is populated at
// startup and mostly read thereafter; a mutex keeps registration safe if a
// plugin wires itself in later.
type Registry struct {
	mu    sync.RWMutex
	order []Processor
	byKey map[string]Processor
}

func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Processor)}
}

// Register adds a processor keyed by its metadata name. Registering a name
// twice fails with CodeDuplicateName and leaves the registry unchanged.
func (r *Registry) Register(p Processor) error {
	name := p.Metadata().Name
	if name == "" {
		return errors.New(errors.CodeInvalidInput, "processor has empty name", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[name]; ok {
		return errors.New(errors.CodeDuplicateName, "processor already registered", nil).
			WithContext("processor", name)
	}
	r.byKey[name] = p
	r.order = append(r.order, p)
	return nil
}

// Unregister removes a processor by name. It reports whether the name was
// present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[name]; !ok {
		return false
	}
	delete(r.byKey, name)
	for i, p := range r.order {
		if p.Metadata().Name == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns all registered processor names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.order))
	for _, p := range r.order {
		names = append(names, p.Metadata().Name)
	}
	return names
}

// Find scans processors in registration order and returns the first whose
// CanProcess accepts the pair. Ties resolve to the earliest registration so
// dispatch stays deterministic.
func (r *Registry) Find(blockType, dataType string) (Processor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.order {
		if p.CanProcess(blockType, dataType) {
			return p, nil
		}
	}
	return nil, errors.New(errors.CodeNotFound, "no processor for block type", nil).
		WithContext("block_type", blockType).
		WithContext("data_type", dataType)
}

// MetadataAll returns metadata for every registered processor, in
// registration order.
func (r *Registry) MetadataAll() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Metadata, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, p.Metadata())
	}
	return out
}

// ByCategory returns the processors whose metadata category matches.
func (r *Registry) ByCategory(category string) []Processor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Processor
	for _, p := range r.order {
		if p.Metadata().Category == category {
			out = append(out, p)
		}
	}
	return out
}

// NewDefaultRegistry builds a registry with all built-in processors in
// their canonical order. promptLimit, when positive, overrides every
// processor's default truncation bound.
func NewDefaultRegistry(router *llm.Router, promptLimit int) (*Registry, error) {
	var opts []Option
	if promptLimit > 0 {
		opts = append(opts, WithPromptLimit(promptLimit))
	}

	r := NewRegistry()
	builtins := []Processor{
		NewSentiment(router, opts...),
		NewNetworkGraph(router, opts...),
		NewTimeline(router, opts...),
		NewComparison(router, opts...),
		NewForecast(router, opts...),
		NewTable(),
		NewAnomalyDetection(router, opts...),
		NewRecommendation(router, opts...),
		NewTrendAnalysis(router, opts...),
		NewClustering(router, opts...),
		NewSummary(router, opts...),
	}
	for _, p := range builtins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}
