package processor

import (
	"context"
	"fmt"

	"github.com/titanlabs/titan/pkg/llm"
)

const clusteringPromptLimit = 3000

const clusteringPrompt = `Analyze and cluster the following data into meaningful groups.

Number of clusters: %s

For each cluster, identify:
1. Main theme or characteristic
2. Key items belonging to this cluster
3. Cluster importance/size

Return result in JSON format:
{
  "clusters": [
    {
      "id": "cluster_1",
      "name": "Cluster name",
      "description": "What defines this cluster",
      "size": "Number of items or percentage",
      "key_terms": ["term1", "term2"],
      "representative_items": ["item1", "item2"],
      "importance": 0-100
    }
  ],
  "summary": {
    "total_clusters": 0,
    "largest_cluster": "Name of largest cluster",
    "clustering_quality": "high|medium|low",
    "insights": "Key insights from clustering"
  }
}

Data to analyze:
%s`

// Clustering groups input into themed clusters with representative items.
type Clustering struct {
	core llmCore
}

func NewClustering(router *llm.Router, opts ...Option) *Clustering {
	return &Clustering{core: newCore(router, clusteringPromptLimit, opts...)}
}

func (p *Clustering) Metadata() Metadata {
	return Metadata{
		Name:               "clustering",
		Description:        "Group and categorize data",
		Category:           "ml",
		SupportedDataTypes: []string{"text", "json"},
		OutputTypes:        []string{"json", "cluster_chart"},
		RequiresLLM:        true,
		Version:            "1.0.0",
	}
}

func (p *Clustering) CanProcess(blockType, dataType string) bool {
	return blockType == "clustering"
}

func (p *Clustering) Process(ctx context.Context, data interface{}, params llm.Params) (*Result, error) {
	text, err := p.core.promptText(data)
	if err != nil {
		return nil, err
	}
	numClusters := params.String("num_clusters", "auto")

	raw, err := p.core.complete(ctx, "clustering", fmt.Sprintf(clusteringPrompt, numClusters, text), params)
	if err != nil {
		return nil, err
	}

	clusters, ok := decodeJSON(raw)
	if !ok {
		clusters = map[string]interface{}{
			"clusters": []interface{}{},
			"summary":  map[string]interface{}{"insights": raw},
		}
	}
	return &Result{
		Type:          "clustering",
		Data:          clusters,
		Visualization: "cluster_chart",
		Raw:           raw,
	}, nil
}
