package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/huangsam/delphi/core"
	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	engine  *core.Engine
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

// roundArg reads a round number; JSON numbers arrive as float64.
func roundArg(request mcp.CallToolRequest) (schema.Round, error) {
	n := request.GetInt("round", 0)
	r := schema.Round(n)
	if !r.Valid() {
		return 0, fmt.Errorf("invalid round %d. must be 1, 2 or 3", n)
	}
	return r, nil
}

// estimatesArg accepts a JSON array of numbers or a comma separated string.
// Entries that are not numbers become NaN so validation can name the module.
func estimatesArg(request mcp.CallToolRequest) []float64 {
	switch raw := request.GetArguments()["estimates"].(type) {
	case []any:
		values := make([]float64, len(raw))
		for i, v := range raw {
			switch n := v.(type) {
			case float64:
				values[i] = n
			case string:
				f, err := strconv.ParseFloat(n, 64)
				if err != nil {
					f = math.NaN()
				}
				values[i] = f
			default:
				values[i] = math.NaN()
			}
		}
		return values
	case string:
		return contract.ParseEstimates(raw)
	default:
		return nil
	}
}

func (h *toolHandler) handleSubmitRound(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	round, err := roundArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sub := schema.Submission{
		EstimatorName: request.GetString("estimator", ""),
		Round:         round,
		Estimates:     estimatesArg(request),
		Overwrite:     request.GetBool("overwrite", false),
	}

	rec, err := h.engine.SubmitRound(ctx, sub)
	if err != nil {
		if errors.Is(err, schema.ErrOverwriteRequired) {
			return mcp.NewToolResultError(fmt.Sprintf("submission refused: %v (set overwrite to true to replace it)", err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("submission refused: %v", err)), nil
	}
	return jsonResult(rec), nil
}

func (h *toolHandler) handleGetAggregate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	round, err := roundArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := h.engine.GetAggregate(ctx, round)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("aggregation failed: %v", err)), nil
	}
	return jsonResult(result), nil
}

func (h *toolHandler) handleGetFinalStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	level := h.baseCfg.Confidence
	if c := request.GetString("confidence", ""); c != "" {
		parsed, err := schema.ParseConfidenceLevel(c)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		level = parsed
	}
	mode := h.baseCfg.StatsMode
	if m := request.GetString("mode", ""); m != "" {
		mode = schema.StatsMode(m)
		if _, ok := schema.ValidStatsModes[mode]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid mode '%s'. must be historical or corrected", m)), nil
		}
	}

	stats, err := h.engine.GetFinalStatistics(ctx, level, mode)
	// Too few estimators is an expected state, reported in the payload
	if err != nil && !errors.Is(err, schema.ErrNotComputable) {
		return mcp.NewToolResultError(fmt.Sprintf("statistics failed: %v", err)), nil
	}
	return jsonResult(struct {
		schema.Statistics
		Computable bool   `json:"computable"`
		Consensus  string `json:"consensus"`
	}{stats, stats.Computable(), consensusLabel(stats)}), nil
}

func consensusLabel(stats schema.Statistics) string {
	if !stats.Computable() {
		return schema.InsufficientDataLabel
	}
	return contract.GetPlainLabel(stats.RelativeSpread())
}

func (h *toolHandler) handleListModules(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	modules, err := h.engine.ListModules(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing modules failed: %v", err)), nil
	}
	return jsonResult(modules), nil
}

func (h *toolHandler) handleListEstimators(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Everyone is eligible for round 1, so it doubles as "all estimators"
	round := schema.Round1
	if request.GetInt("round", 0) != 0 {
		r, err := roundArg(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		round = r
	}
	estimators, err := h.engine.ListEstimators(ctx, round)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing estimators failed: %v", err)), nil
	}
	return jsonResult(estimators), nil
}
