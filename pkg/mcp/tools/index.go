package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/apperrors"
	"github.com/gestinv-inc/gestinv-engine/pkg/indexer"
)

// IndexToolDeps contains dependencies for the index tools.
type IndexToolDeps struct {
	Indexer indexer.Indexer
	Logger  *zap.Logger
}

// RegisterIndexTools registers the index_stats and rebuild_index MCP tools.
func RegisterIndexTools(s *server.MCPServer, deps *IndexToolDeps) {
	registerIndexStatsTool(s, deps)
	registerRebuildIndexTool(s, deps)
}

func registerIndexStatsTool(s *server.MCPServer, deps *IndexToolDeps) {
	tool := mcp.NewTool(
		"index_stats",
		mcp.WithDescription(
			"Return the current semantic index statistics: total active "+
				"documents and a per-record-type breakdown.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleIndexStats(ctx, deps)
	})
}

func handleIndexStats(ctx context.Context, deps *IndexToolDeps) (*mcp.CallToolResult, error) {
	report, err := deps.Indexer.Stats(ctx)
	if err != nil {
		deps.Logger.Error("Index stats tool failed", zap.Error(err))
		return nil, fmt.Errorf("failed to read index stats: %w", err)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func registerRebuildIndexTool(s *server.MCPServer, deps *IndexToolDeps) {
	tool := mcp.NewTool(
		"rebuild_index",
		mcp.WithDescription(
			"Rebuild the semantic index from the domain tables: every existing "+
				"document is deleted and the index is re-synthesized. Optionally "+
				"narrowed to one application or record type. Use dry_run to "+
				"report the current index statistics without writing anything.",
		),
		mcp.WithString(
			"app",
			mcp.Description("Only index record types of this application (parc, achats or demandes)"),
		),
		mcp.WithString(
			"type",
			mcp.Description("Only index this record type (e.g. 'achats.commande')"),
		),
		mcp.WithBoolean(
			"dry_run",
			mcp.Description("Report current index statistics instead of rebuilding"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRebuildIndex(ctx, deps, req)
	})
}

func handleRebuildIndex(ctx context.Context, deps *IndexToolDeps, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := indexer.RebuildOptions{
		App:    req.GetString("app", ""),
		Type:   req.GetString("type", ""),
		DryRun: req.GetBool("dry_run", false),
	}

	report, err := deps.Indexer.RebuildAll(ctx, opts)
	if errors.Is(err, apperrors.ErrIndexRebuildRunning) {
		return NewErrorResult("rebuild_running", "an index rebuild is already in progress"), nil
	}
	if errors.Is(err, apperrors.ErrEmbedderUnavailable) {
		return NewErrorResult("embedder_unavailable", "no embedding model is configured"), nil
	}
	if err != nil {
		deps.Logger.Error("Index rebuild tool failed", zap.Error(err))
		return nil, fmt.Errorf("failed to rebuild index: %w", err)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
