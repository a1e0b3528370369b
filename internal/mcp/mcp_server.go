// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/delphi/core"
	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/internal/logger"
	"github.com/huangsam/delphi/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Delphi MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, engine *core.Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"Delphi Estimation Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		engine:  engine,
	}

	// --- 1. Tool: submit_round ---
	s.AddTool(mcp.NewTool("submit_round",
		mcp.WithDescription("Record one estimator's per-module effort estimates for a Delphi round."),
		mcp.WithString("estimator", mcp.Description("Estimator name. Matching is case-insensitive."), mcp.Required()),
		mcp.WithNumber("round", mcp.Description("Round number (1, 2 or 3). Round N needs round N-1 from the same estimator."), mcp.Required()),
		mcp.WithArray("estimates",
			mcp.Description("One positive estimate per module, in module order."),
			mcp.Items(map[string]any{"type": "number"}),
			mcp.Required(),
		),
		mcp.WithBoolean("overwrite", mcp.Description("Replace an existing round 1 submission.")),
	), h.handleSubmitRound)

	// --- 2. Tool: get_aggregate ---
	s.AddTool(mcp.NewTool("get_aggregate",
		mcp.WithDescription("Get per-module estimates, per-estimator totals and round averages as seen at a round boundary."),
		mcp.WithNumber("round", mcp.Description("Round view to compute (1, 2 or 3)."), mcp.Required()),
	), h.handleGetAggregate)

	// --- 3. Tool: get_final_statistics ---
	s.AddTool(mcp.NewTool("get_final_statistics",
		mcp.WithDescription("Compute mean effort, standard error and the confidence interval over all three rounds."),
		mcp.WithString("confidence", mcp.Description("Confidence level. Defaults to the configured level."), mcp.Enum(confidenceNames()...)),
		mcp.WithString("mode", mcp.Description("Statistics mode. 'historical' sums the round averages, 'corrected' uses the mean of combined efforts."),
			mcp.Enum(string(schema.HistoricalStats), string(schema.CorrectedStats))),
	), h.handleGetFinalStatistics)

	// --- 4. Tool: list_modules ---
	s.AddTool(mcp.NewTool("list_modules",
		mcp.WithDescription("List the modules being estimated, in order."),
	), h.handleListModules)

	// --- 5. Tool: list_estimators ---
	s.AddTool(mcp.NewTool("list_estimators",
		mcp.WithDescription("List estimators with their submitted rounds. With a round, only those eligible to submit it; round 1 lists everyone."),
		mcp.WithNumber("round", mcp.Description("Optional round (1, 2 or 3) to filter eligible estimators.")),
	), h.handleListEstimators)

	return s
}

func confidenceNames() []string {
	names := make([]string, len(schema.AllConfidenceLevels))
	for i, c := range schema.AllConfidenceLevels {
		names[i] = string(c)
	}
	return names
}

// StartMCPServer starts the Delphi MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, engine *core.Engine) error {
	s := NewMCPServer(baseCfg, engine)
	log := logger.With("mcp")
	log.Info().Str("project", baseCfg.Project).Msg("Serving Delphi tools on stdio")
	return server.ServeStdio(s)
}
