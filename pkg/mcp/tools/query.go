package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/engine"
)

// QueryToolDeps contains dependencies for the query tool.
type QueryToolDeps struct {
	Engine engine.Engine
	Logger *zap.Logger
}

// RegisterQueryTools registers the query_inventory MCP tool.
func RegisterQueryTools(s *server.MCPServer, deps *QueryToolDeps) {
	tool := mcp.NewTool(
		"query_inventory",
		mcp.WithDescription(
			"Answer a natural-language question (French or English) about the "+
				"company's equipment, suppliers, purchase orders, deliveries and "+
				"purchase requests. Handles identifier lookups (ICE, BC/BL/DA "+
				"numbers, inventory codes), counts, aggregates, filtered lists "+
				"and free questions. Read-only. "+
				"Example: query_inventory(query='combien de commandes validées ?')",
		),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("The question to answer (e.g. 'liste des matériels à Rabat')"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleQueryInventory(ctx, deps, req)
	})
}

func handleQueryInventory(ctx context.Context, deps *QueryToolDeps, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return NewErrorResult("invalid_parameters", "query parameter cannot be empty"), nil
	}

	response, err := deps.Engine.Resolve(ctx, query)
	if err != nil {
		deps.Logger.Error("Query tool failed", zap.Error(err))
		return nil, fmt.Errorf("failed to resolve query: %w", err)
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
