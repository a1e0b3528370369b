package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/huangsam/delphi/core"
	"github.com/huangsam/delphi/internal/contract"
	mcp_internal "github.com/huangsam/delphi/internal/mcp"
	"github.com/huangsam/delphi/internal/persist"
	"github.com/huangsam/delphi/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *server.MCPServer {
	t.Helper()
	baseCfg := &contract.Config{
		Project:    "demo",
		Confidence: schema.Confidence95,
		StatsMode:  schema.HistoricalStats,
	}
	engine := core.NewEngine("demo", persist.NewMemoryStore("demo"))
	ctx := context.Background()
	require.NoError(t, engine.AddModule(ctx, schema.Module{Name: "Login"}))
	require.NoError(t, engine.AddModule(ctx, schema.Module{Name: "Signup"}))
	return mcp_internal.NewMCPServer(baseCfg, engine)
}

func call(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServer_DelphiWorkflow(t *testing.T) {
	s := newTestServer(t)

	res := call(t, s, "submit_round", map[string]any{"estimator": "Alice", "round": 1.0, "estimates": []any{3.0, 5.0}})
	require.False(t, res.IsError, text(res))

	res = call(t, s, "submit_round", map[string]any{"estimator": "Bob", "round": 1.0, "estimates": "4, 6"})
	require.False(t, res.IsError, text(res))
	for _, sub := range []struct {
		round     float64
		estimates []any
	}{
		{2, []any{4.0, 5.0}},
		{3, []any{5.0, 5.0}},
	} {
		res = call(t, s, "submit_round", map[string]any{"estimator": "bob", "round": sub.round, "estimates": sub.estimates})
		require.False(t, res.IsError, text(res))
	}

	res = call(t, s, "get_aggregate", map[string]any{"round": 3.0})
	require.False(t, res.IsError, text(res))
	var aggregate schema.AggregateResult
	require.NoError(t, json.Unmarshal([]byte(text(res)), &aggregate))
	assert.Equal(t, 2, aggregate.EstimatorCount)

	res = call(t, s, "get_final_statistics", map[string]any{})
	require.False(t, res.IsError, text(res))
	var stats map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(res)), &stats))
	assert.InDelta(t, 18.5, stats["mean_effort"], 1e-9)
	assert.InDelta(t, 10.5, stats["standard_error"], 1e-9)
	assert.Equal(t, true, stats["computable"])

	res = call(t, s, "list_estimators", map[string]any{"round": 2.0})
	require.False(t, res.IsError, text(res))
	var eligible []schema.EstimatorEligibility
	require.NoError(t, json.Unmarshal([]byte(text(res)), &eligible))
	require.Len(t, eligible, 2, "everyone with round 1 may submit round 2")
	names := []string{eligible[0].EstimatorName, eligible[1].EstimatorName}
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names)

	res = call(t, s, "list_estimators", map[string]any{"round": 3.0})
	require.NoError(t, json.Unmarshal([]byte(text(res)), &eligible))
	require.Len(t, eligible, 1)
	assert.Equal(t, "Bob", eligible[0].EstimatorName)

	res = call(t, s, "list_estimators", nil)
	require.NoError(t, json.Unmarshal([]byte(text(res)), &eligible))
	assert.Len(t, eligible, 2)

	res = call(t, s, "list_modules", nil)
	var modules []schema.Module
	require.NoError(t, json.Unmarshal([]byte(text(res)), &modules))
	assert.Equal(t, []schema.Module{{Name: "Login"}, {Name: "Signup"}}, modules)
}

func TestMCPServerHandlers_Errors(t *testing.T) {
	s := newTestServer(t)

	t.Run("submit_round out of order", func(t *testing.T) {
		res := call(t, s, "submit_round", map[string]any{"estimator": "Carol", "round": 2.0, "estimates": []any{1.0, 1.0}})
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, text(res), "Round 1 has not been submitted")
	})

	t.Run("submit_round zero estimate", func(t *testing.T) {
		res := call(t, s, "submit_round", map[string]any{"estimator": "Dana", "round": 1.0, "estimates": []any{0.0, 5.0}})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "submission refused")
	})

	t.Run("submit_round overwrite needs confirmation", func(t *testing.T) {
		res := call(t, s, "submit_round", map[string]any{"estimator": "Erin", "round": 1.0, "estimates": []any{1.0, 2.0}})
		require.False(t, res.IsError, text(res))
		res = call(t, s, "submit_round", map[string]any{"estimator": "ERIN", "round": 1.0, "estimates": []any{2.0, 2.0}})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "set overwrite to true")
		res = call(t, s, "submit_round", map[string]any{"estimator": "ERIN", "round": 1.0, "estimates": []any{2.0, 2.0}, "overwrite": true})
		assert.False(t, res.IsError, text(res))
	})

	t.Run("get_aggregate invalid round", func(t *testing.T) {
		res := call(t, s, "get_aggregate", map[string]any{"round": 4.0})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "invalid round 4")
	})

	t.Run("get_final_statistics invalid confidence", func(t *testing.T) {
		res := call(t, s, "get_final_statistics", map[string]any{"confidence": "80%"})
		assert.True(t, res.IsError)
	})

	t.Run("get_final_statistics invalid mode", func(t *testing.T) {
		res := call(t, s, "get_final_statistics", map[string]any{"mode": "median"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "invalid mode")
	})
}

func TestMCPServer_NotComputable(t *testing.T) {
	s := newTestServer(t)
	res := call(t, s, "submit_round", map[string]any{"estimator": "Solo", "round": 1.0, "estimates": []any{2.0, 3.0}})
	require.False(t, res.IsError, text(res))

	res = call(t, s, "get_final_statistics", map[string]any{"confidence": "90"})
	require.False(t, res.IsError, "not computable is a result, not a failure")
	var stats map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(res)), &stats))
	assert.Equal(t, false, stats["computable"])
	assert.Nil(t, stats["confidence_interval"])
	assert.Equal(t, schema.InsufficientDataLabel, stats["consensus"])
	assert.Equal(t, "90%", stats["confidence_level"])
}
