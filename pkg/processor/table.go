package processor

import (
	"context"
	"sort"

	"github.com/titanlabs/titan/pkg/errors"
	"github.com/titanlabs/titan/pkg/llm"
)

// Table normalizes tabular payloads for display. It is the one built-in
// that never calls an LLM.
type Table struct{}

func NewTable() *Table {
	return &Table{}
}

func (p *Table) Metadata() Metadata {
	return Metadata{
		Name:               "table",
		Description:        "Process and display tabular data",
		Category:           "data",
		SupportedDataTypes: []string{"json", "csv", "text"},
		OutputTypes:        []string{"table"},
		RequiresLLM:        false,
		Version:            "1.0.0",
	}
}

func (p *Table) CanProcess(blockType, dataType string) bool {
	return blockType == "table"
}

func (p *Table) Process(ctx context.Context, data interface{}, params llm.Params) (*Result, error) {
	if data == nil {
		return nil, errors.New(errors.CodeUnsupportedInput, "no data to display", nil)
	}

	if m, ok := data.(map[string]interface{}); ok {
		if rows, ok := m["data"].([]interface{}); ok && len(rows) > 0 {
			return &Result{
				Type: "table",
				Data: map[string]interface{}{
					"headers": rowHeaders(rows[0]),
					"rows":    rows,
				},
				Visualization: "table",
			}, nil
		}
	}

	return &Result{
		Type:          "table",
		Data:          data,
		Visualization: "table",
	}, nil
}

// rowHeaders derives column names from the first row when it is an object.
func rowHeaders(first interface{}) []string {
	row, ok := first.(map[string]interface{})
	if !ok {
		return []string{}
	}
	headers := make([]string, 0, len(row))
	for k := range row {
		headers = append(headers, k)
	}
	sort.Strings(headers)
	return headers
}
