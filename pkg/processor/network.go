package processor

import (
	"context"
	"fmt"

	"github.com/titanlabs/titan/pkg/llm"
)

const networkPromptLimit = 2000

const networkPrompt = `Extract all important entities (organizations, people, events) and their relationships from the text.

Return result in JSON format:
{
  "nodes": [
    {"id": "node1", "label": "Name", "type": "organization|person|event"},
    {"id": "node2", "label": "Name", "type": "organization|person|event"}
  ],
  "edges": [
    {"from": "node1", "to": "node2", "label": "relationship type", "weight": 1-10}
  ]
}

Text: %s`

// NetworkGraph extracts entities and their relationships for graph
// rendering.
type NetworkGraph struct {
	core llmCore
}

func NewNetworkGraph(router *llm.Router, opts ...Option) *NetworkGraph {
	return &NetworkGraph{core: newCore(router, networkPromptLimit, opts...)}
}

func (p *NetworkGraph) Metadata() Metadata {
	return Metadata{
		Name:               "network_graph",
		Description:        "Build entity relationship graphs",
		Category:           "visualization",
		SupportedDataTypes: []string{"text"},
		OutputTypes:        []string{"json", "graph"},
		RequiresLLM:        true,
		Version:            "1.0.0",
	}
}

func (p *NetworkGraph) CanProcess(blockType, dataType string) bool {
	return blockType == "network"
}

func (p *NetworkGraph) Process(ctx context.Context, data interface{}, params llm.Params) (*Result, error) {
	text, err := p.core.promptText(data)
	if err != nil {
		return nil, err
	}

	raw, err := p.core.complete(ctx, "network_graph", fmt.Sprintf(networkPrompt, text), params)
	if err != nil {
		return nil, err
	}

	graph, ok := decodeJSON(raw)
	if !ok {
		graph = map[string]interface{}{
			"nodes": []interface{}{
				map[string]interface{}{"id": "1", "label": "Data", "type": "data"},
			},
			"edges": []interface{}{},
		}
	}
	return &Result{
		Type:          "network",
		Data:          graph,
		Visualization: "cytoscape",
		Raw:           raw,
	}, nil
}
