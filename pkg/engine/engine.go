// Package engine runs report template blocks through the processor
// registry, enforcing license gates and substituting the report topic
// into each block's query.
package engine

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/titanlabs/titan/pkg/errors"
	"github.com/titanlabs/titan/pkg/licensing"
	"github.com/titanlabs/titan/pkg/llm"
	"github.com/titanlabs/titan/pkg/processor"
)

// TemplateBlock is one step of a report template.
type TemplateBlock struct {
	Type             string                 `json:"type"`
	Position         int                    `json:"position"`
	QueryTemplate    string                 `json:"query_template"`
	DataType         string                 `json:"data_type,omitempty"`
	Filters          map[string]interface{} `json:"filters,omitempty"`
	ProcessingParams llm.Params             `json:"processing_params,omitempty"`
}

// Source fetches the raw data a block analyzes, given its resolved query.
// The production deployment backs this with the search service; tests use
// a stub.
type Source interface {
	Fetch(ctx context.Context, query string, filters map[string]interface{}) (interface{}, error)
}

// BlockResult pairs a block with its processing outcome. Err is set when
// the block failed; a template run keeps going so one bad block does not
// sink the report.
type BlockResult struct {
	Position int               `json:"position"`
	Type     string            `json:"type"`
	Result   *processor.Result `json:"result,omitempty"`
	Err      error             `json:"-"`
}

// Observer receives one callback per processor invocation. The OTEL
// metrics in pkg/telemetry satisfy it.
type Observer interface {
	RecordProcessorRun(ctx context.Context, name string, err error)
}

// Engine dispatches template blocks to processors.
type Engine struct {
	registry *processor.Registry
	gate     *licensing.Gate
	tier     licensing.Tier
	source   Source
	logger   *slog.Logger
	observer Observer
}

type Option func(*Engine)

// WithSource attaches a data source used to resolve block queries.
func WithSource(s Source) Option {
	return func(e *Engine) { e.source = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObserver attaches a per-run metrics callback.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

func New(registry *processor.Registry, gate *licensing.Gate, tier licensing.Tier, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		gate:     gate,
		tier:     tier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveQuery substitutes the report topic into a block's query template.
func ResolveQuery(template, topic string) string {
	return strings.ReplaceAll(template, "{topic}", topic)
}

// ProcessBlock runs one block against the supplied data. When data is nil
// and a source is attached, the block's resolved query fetches it.
func (e *Engine) ProcessBlock(ctx context.Context, block TemplateBlock, topic string, data interface{}) (*processor.Result, error) {
	dataType := block.DataType
	if dataType == "" {
		dataType = "text"
	}

	p, err := e.registry.Find(block.Type, dataType)
	if err != nil {
		return nil, err
	}

	md := p.Metadata()
	if md.IsEnterprise {
		if err := e.gate.Require(e.tier, enterpriseFeature(md.Name)); err != nil {
			return nil, err
		}
	}

	if data == nil && e.source != nil {
		query := ResolveQuery(block.QueryTemplate, topic)
		data, err = e.source.Fetch(ctx, query, block.Filters)
		if err != nil {
			return nil, errors.New(errors.CodeUpstreamProvider, "data source fetch failed", err).
				WithContext("block_type", block.Type).
				WithContext("query", query)
		}
	}

	result, err := p.Process(ctx, data, block.ProcessingParams)
	if e.observer != nil {
		e.observer.RecordProcessorRun(ctx, md.Name, err)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "block processing failed",
			"processor", md.Name,
			"block_type", block.Type,
			"error", err,
		)
		return nil, err
	}

	e.logger.DebugContext(ctx, "block processed",
		"processor", md.Name,
		"block_type", block.Type,
	)
	return result, nil
}

// ProcessTemplate runs every block in position order and returns one
// BlockResult per block, in that order. The run id ties the log lines of
// one report together.
func (e *Engine) ProcessTemplate(ctx context.Context, blocks []TemplateBlock, topic string) []BlockResult {
	ordered := make([]TemplateBlock, len(blocks))
	copy(ordered, blocks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID, "topic", topic)
	logger.InfoContext(ctx, "template run started", "blocks", len(ordered))

	results := make([]BlockResult, 0, len(ordered))
	for _, block := range ordered {
		res, err := e.ProcessBlock(ctx, block, topic, nil)
		results = append(results, BlockResult{
			Position: block.Position,
			Type:     block.Type,
			Result:   res,
			Err:      err,
		})
	}

	logger.InfoContext(ctx, "template run finished", "blocks", len(results))
	return results
}

// enterpriseFeature maps an enterprise processor to the license feature
// that unlocks it.
func enterpriseFeature(processorName string) string {
	switch processorName {
	case "anomaly_detection":
		return licensing.FeatureAnomalyDetection
	case "recommendation":
		return licensing.FeatureRecommendationEngine
	}
	return licensing.FeatureAdvancedAnalytics
}
