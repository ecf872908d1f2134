// Package mcp exposes the processor registry as MCP tools so agent
// clients can run analyses over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/titanlabs/titan/pkg/engine"
	"github.com/titanlabs/titan/pkg/llm"
	"github.com/titanlabs/titan/pkg/processor"
)

// Server wraps the mcp-go server around the analytics engine.
type Server struct {
	mcpServer *server.MCPServer
	engine    *engine.Engine
}

// NewServer builds an MCP server exposing one tool per registered
// processor plus a discovery tool listing them.
func NewServer(name, version string, eng *engine.Engine, registry *processor.Registry) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(name, version),
		engine:    eng,
	}

	s.addListTool(registry)
	for _, md := range registry.MetadataAll() {
		s.addProcessorTool(md)
	}
	return s
}

func (s *Server) addListTool(registry *processor.Registry) {
	tool := mcp.NewTool("list_processors",
		mcp.WithDescription("List available analysis processors and their metadata"))

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		encoded, err := json.MarshalIndent(registry.MetadataAll(), "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(encoded)), nil
	})
}

func (s *Server) addProcessorTool(md processor.Metadata) {
	blockType := blockTypeFor(md.Name)
	tool := mcp.NewTool("analyze_"+blockType,
		mcp.WithDescription(md.Description),
		mcp.WithString("data",
			mcp.Required(),
			mcp.Description("Text or serialized data to analyze"),
		),
		mcp.WithString("model",
			mcp.Description("Provider id override (e.g. yandexgpt, gpt-4, claude-3)"),
		),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})
		data, ok := args["data"]
		if !ok {
			return mcp.NewToolResultError("missing required argument: data"), nil
		}

		params := llm.Params{}
		if model, ok := args["model"].(string); ok && model != "" {
			params["model"] = model
		}

		result, err := s.engine.ProcessBlock(ctx, engine.TemplateBlock{
			Type:             blockType,
			ProcessingParams: params,
		}, "", data)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(encoded)), nil
	})
}

// ServeStdio starts the server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// blockTypeFor maps a processor name back to the block type its
// CanProcess accepts.
func blockTypeFor(name string) string {
	switch name {
	case "sentiment_analysis":
		return "sentiment"
	case "network_graph":
		return "network"
	case "anomaly_detection":
		return "anomaly"
	case "trend_analysis":
		return "trend"
	}
	return name
}
