package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gestinv-inc/gestinv-engine/pkg/apperrors"
	"github.com/gestinv-inc/gestinv-engine/pkg/indexer"
	"github.com/gestinv-inc/gestinv-engine/pkg/models"
)

type stubEngine struct {
	response *models.EngineResponse
	err      error
	gotQuery string
}

func (s *stubEngine) Resolve(ctx context.Context, query string) (*models.EngineResponse, error) {
	s.gotQuery = query
	return s.response, s.err
}

func (s *stubEngine) Close() {}

type stubIndexer struct {
	report  *models.IndexReport
	err     error
	gotOpts indexer.RebuildOptions
}

func (s *stubIndexer) RebuildAll(ctx context.Context, opts indexer.RebuildOptions) (*models.IndexReport, error) {
	s.gotOpts = opts
	return s.report, s.err
}

func (s *stubIndexer) Stats(ctx context.Context) (*models.IndexReport, error) {
	return s.report, s.err
}

// toolResponse is the subset of a tools/call JSON-RPC response the tests read.
type toolResponse struct {
	Result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) toolResponse {
	t.Helper()

	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	request, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  "tools/call",
		"params":  params,
		"id":      1,
	})
	require.NoError(t, err)

	raw := s.HandleMessage(context.Background(), request)
	encoded, err := json.Marshal(raw)
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(encoded, &resp))
	return resp
}

func listTools(t *testing.T, s *server.MCPServer) []string {
	t.Helper()

	raw := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	encoded, err := json.Marshal(raw)
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(encoded, &resp))

	names := make([]string, 0, len(resp.Result.Tools))
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestRegisterToolsListsAll(t *testing.T) {
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterQueryTools(s, &QueryToolDeps{Engine: &stubEngine{}, Logger: zap.NewNop()})
	RegisterIndexTools(s, &IndexToolDeps{Indexer: &stubIndexer{}, Logger: zap.NewNop()})

	names := listTools(t, s)
	assert.Contains(t, names, "query_inventory")
	assert.Contains(t, names, "index_stats")
	assert.Contains(t, names, "rebuild_index")
}

func TestQueryInventoryTool(t *testing.T) {
	eng := &stubEngine{response: &models.EngineResponse{
		Response:   "Nombre de fournisseurs : 12",
		Action:     "count",
		Method:     models.MethodTranslator,
		Confidence: 0.8,
	}}
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterQueryTools(s, &QueryToolDeps{Engine: eng, Logger: zap.NewNop()})

	resp := callTool(t, s, "query_inventory", map[string]any{"query": "combien de fournisseurs ?"})

	require.False(t, resp.Result.IsError)
	require.NotEmpty(t, resp.Result.Content)
	assert.Equal(t, "combien de fournisseurs ?", eng.gotQuery)

	var got models.EngineResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &got))
	assert.Equal(t, "Nombre de fournisseurs : 12", got.Response)
}

func TestQueryInventoryToolRejectsBlankQuery(t *testing.T) {
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterQueryTools(s, &QueryToolDeps{Engine: &stubEngine{}, Logger: zap.NewNop()})

	resp := callTool(t, s, "query_inventory", map[string]any{"query": "   "})

	assert.True(t, resp.Result.IsError)
	assert.Contains(t, resp.Result.Content[0].Text, "invalid_parameters")
}

func TestIndexStatsTool(t *testing.T) {
	ix := &stubIndexer{report: &models.IndexReport{
		Total:   42,
		PerType: map[string]int64{"parc.materiel": 30},
	}}
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterIndexTools(s, &IndexToolDeps{Indexer: ix, Logger: zap.NewNop()})

	resp := callTool(t, s, "index_stats", nil)

	require.False(t, resp.Result.IsError)
	var got models.IndexReport
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &got))
	assert.Equal(t, int64(42), got.Total)
}

func TestRebuildIndexToolPassesOptions(t *testing.T) {
	ix := &stubIndexer{report: &models.IndexReport{PerType: map[string]int64{}, DryRun: true}}
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterIndexTools(s, &IndexToolDeps{Indexer: ix, Logger: zap.NewNop()})

	resp := callTool(t, s, "rebuild_index", map[string]any{
		"app":     "achats",
		"dry_run": true,
	})

	require.False(t, resp.Result.IsError)
	assert.Equal(t, "achats", ix.gotOpts.App)
	assert.True(t, ix.gotOpts.DryRun)
}

func TestRebuildIndexToolReportsConcurrentRebuild(t *testing.T) {
	ix := &stubIndexer{err: fmt.Errorf("rebuild: %w", apperrors.ErrIndexRebuildRunning)}
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterIndexTools(s, &IndexToolDeps{Indexer: ix, Logger: zap.NewNop()})

	resp := callTool(t, s, "rebuild_index", nil)

	assert.True(t, resp.Result.IsError)
	assert.Contains(t, resp.Result.Content[0].Text, "rebuild_running")
}
