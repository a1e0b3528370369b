package core

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/internal/persist"
	"github.com/huangsam/delphi/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// captureStdout redirects confirmations into a buffer for the duration of a test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := stdout
	stdout = buf
	t.Cleanup(func() { stdout = prev })
	return buf
}

func testConfig(t *testing.T, output schema.OutputMode) *contract.Config {
	t.Helper()
	return &contract.Config{
		Project:    "demo",
		Precision:  2,
		Output:     output,
		OutputFile: filepath.Join(t.TempDir(), "out"),
		Confidence: schema.Confidence95,
		StatsMode:  schema.HistoricalStats,
	}
}

func memoryManager(store contract.ProjectStore, history contract.HistoryStore) *persist.MockStoreManager {
	mgr := &persist.MockStoreManager{}
	mgr.On("GetProjectStore").Return(store)
	mgr.On("GetHistoryStore").Return(history).Maybe()
	return mgr
}

func readOutput(t *testing.T, cfg *contract.Config) string {
	t.Helper()
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	return string(data)
}

func TestExecuteWorkflow(t *testing.T) {
	ctx := context.Background()
	buf := captureStdout(t)
	cfg := testConfig(t, schema.JSONOut)
	mgr := memoryManager(persist.NewMemoryStore("demo"), nil)

	require.NoError(t, ExecuteModuleAdd(ctx, cfg, mgr, schema.Module{Name: "Login", Description: "Auth screen"}))
	require.NoError(t, ExecuteModuleAdd(ctx, cfg, mgr, schema.Module{Name: "Signup"}))
	assert.Contains(t, buf.String(), `Added module "Login"`)

	steps := []schema.Submission{
		{EstimatorName: "Alice", Round: schema.Round1, Estimates: []float64{3, 5}},
		{EstimatorName: "Bob", Round: schema.Round1, Estimates: []float64{4, 6}},
		{EstimatorName: "Bob", Round: schema.Round2, Estimates: []float64{4, 5}},
		{EstimatorName: "Bob", Round: schema.Round3, Estimates: []float64{5, 5}},
	}
	for _, sub := range steps {
		require.NoError(t, ExecuteSubmit(ctx, cfg, mgr, sub))
	}
	assert.Contains(t, buf.String(), "Recorded Round 3 for Bob: 2 estimates, total 10.00")

	require.NoError(t, ExecuteReport(ctx, cfg, mgr))
	var report struct {
		Computable bool   `json:"computable"`
		Consensus  string `json:"consensus"`
	}
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &report))
	assert.True(t, report.Computable)
	assert.Equal(t, "Divergent", report.Consensus)

	require.NoError(t, ExecuteRound(ctx, cfg, mgr, schema.Round2))
	var view schema.AggregateResult
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &view))
	assert.Equal(t, schema.Round2, view.Round)

	require.NoError(t, ExecuteEstimators(ctx, cfg, mgr, schema.Round3))
	var eligible []schema.EstimatorEligibility
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &eligible))
	require.Len(t, eligible, 1)
	assert.Equal(t, "Bob", eligible[0].EstimatorName)

	require.NoError(t, ExecuteModuleList(ctx, cfg, mgr))
	assert.Contains(t, readOutput(t, cfg), `"locked": true`)

	err := ExecuteModuleAdd(ctx, cfg, mgr, schema.Module{Name: "Profile"})
	assert.ErrorIs(t, err, schema.ErrModulesLocked)

	require.NoError(t, ExecuteProjectReset(ctx, cfg, mgr))
	require.NoError(t, ExecuteModuleRemove(ctx, cfg, mgr, 2))
	require.NoError(t, ExecuteModuleUpdate(ctx, cfg, mgr, 1, schema.Module{Name: "Sign in"}))
	require.NoError(t, ExecuteModuleList(ctx, cfg, mgr))
	out := readOutput(t, cfg)
	assert.Contains(t, out, `"Sign in"`)
	assert.Contains(t, out, `"locked": false`)
}

func TestExecuteModuleUpdateOutOfRange(t *testing.T) {
	ctx := context.Background()
	captureStdout(t)
	cfg := testConfig(t, schema.TextOut)
	mgr := memoryManager(persist.NewMemoryStore("demo"), nil)

	require.NoError(t, ExecuteModuleAdd(ctx, cfg, mgr, schema.Module{Name: "Login"}))
	err := ExecuteModuleUpdate(ctx, cfg, mgr, 3, schema.Module{Name: "Other"})
	assert.ErrorIs(t, err, schema.ErrValidation)
	err = ExecuteModuleRemove(ctx, cfg, mgr, 0)
	assert.ErrorIs(t, err, schema.ErrValidation)
}

func TestExecuteReportNotComputable(t *testing.T) {
	ctx := context.Background()
	captureStdout(t)
	cfg := testConfig(t, schema.TextOut)
	store := persist.NewMemoryStore("demo")
	mgr := memoryManager(store, nil)

	require.NoError(t, ExecuteModuleAdd(ctx, cfg, mgr, schema.Module{Name: "Login"}))
	require.NoError(t, ExecuteSubmit(ctx, cfg, mgr, schema.Submission{EstimatorName: "Alice", Round: schema.Round1, Estimates: []float64{3}}))

	require.NoError(t, ExecuteReport(ctx, cfg, mgr))
	out := readOutput(t, cfg)
	assert.Contains(t, out, schema.InsufficientDataLabel)
	assert.Contains(t, out, "needs at least two estimators")
}

func TestExecuteReportRecordsHistory(t *testing.T) {
	ctx := context.Background()
	captureStdout(t)
	cfg := testConfig(t, schema.CSVOut)
	cfg.RecordHistory = true

	history := &persist.MockHistoryStore{}
	history.On("RecordReport", mock.Anything, mock.MatchedBy(func(rec schema.ReportRunRecord) bool {
		return rec.Project == "demo" && rec.SampleSize == 0
	})).Return(nil).Once()
	mgr := memoryManager(persist.NewMemoryStore("demo"), history)

	require.NoError(t, ExecuteReport(ctx, cfg, mgr))
	history.AssertExpectations(t)
}

func TestExecuteSubmitErrors(t *testing.T) {
	ctx := context.Background()
	captureStdout(t)
	cfg := testConfig(t, schema.TextOut)
	mgr := memoryManager(persist.NewMemoryStore("demo"), nil)
	require.NoError(t, ExecuteModuleAdd(ctx, cfg, mgr, schema.Module{Name: "Login"}))

	err := ExecuteSubmit(ctx, cfg, mgr, schema.Submission{EstimatorName: "Carol", Round: schema.Round2, Estimates: []float64{1}})
	assert.ErrorIs(t, err, schema.ErrOutOfOrder)

	err = ExecuteSubmit(ctx, cfg, mgr, schema.Submission{EstimatorName: "Carol", Round: schema.Round1, Estimates: []float64{1, 2}})
	assert.ErrorIs(t, err, schema.ErrValidation)
}

func TestExecuteWithoutStore(t *testing.T) {
	mgr := &persist.MockStoreManager{}
	mgr.On("GetProjectStore").Return(nil)
	err := ExecuteRound(context.Background(), testConfig(t, schema.TextOut), mgr, schema.Round1)
	assert.ErrorContains(t, err, "not initialized")
	mgr.AssertExpectations(t)
}

func TestExecuteProjectExportImport(t *testing.T) {
	ctx := context.Background()
	buf := captureStdout(t)
	cfg := testConfig(t, schema.TextOut)
	src := memoryManager(persist.NewMemoryStore("demo"), nil)

	require.NoError(t, ExecuteModuleAdd(ctx, cfg, src, schema.Module{Name: "Login"}))
	require.NoError(t, ExecuteSubmit(ctx, cfg, src, schema.Submission{EstimatorName: "Alice", Round: schema.Round1, Estimates: []float64{3}}))

	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, ExecuteProjectExport(ctx, cfg, src, path))
	assert.Contains(t, buf.String(), "Exported 1 modules and 1 estimators")

	buf.Reset()
	require.NoError(t, ExecuteProjectExport(ctx, cfg, src, ""))
	assert.Contains(t, buf.String(), "project: demo")

	dst := memoryManager(persist.NewMemoryStore("demo"), nil)
	require.NoError(t, ExecuteProjectImport(ctx, cfg, dst, path, false))
	err := ExecuteProjectImport(ctx, cfg, dst, path, false)
	assert.ErrorContains(t, err, "already has data")
	require.NoError(t, ExecuteProjectImport(ctx, cfg, dst, path, true))

	engine, err := EngineFromConfig(cfg, dst)
	require.NoError(t, err)
	rec, err := engine.GetRecord(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, rec.Round1.Values())
}

func TestExecuteHistoryList(t *testing.T) {
	ctx := context.Background()
	captureStdout(t)
	cfg := testConfig(t, schema.JSONOut)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	history := &persist.MockHistoryStore{}
	history.On("ListReports", mock.Anything).Return([]schema.ReportRunRecord{
		{RunID: "a", Project: "demo", CreatedAt: created},
		{RunID: "b", Project: "other", CreatedAt: created},
	}, nil)
	mgr := &persist.MockStoreManager{}
	mgr.On("GetHistoryStore").Return(history)

	require.NoError(t, ExecuteHistoryList(ctx, cfg, mgr))
	var runs []schema.ReportRunRecord
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "a", runs[0].RunID)
}

func TestExecutePERT(t *testing.T) {
	captureStdout(t)
	cfg := testConfig(t, schema.CSVOut)
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	tasks := `tasks:
  - name: Login
    subtasks:
      - {name: form, optimistic: 1, most_likely: 2, pessimistic: 3}
      - {name: api, optimistic: 2, most_likely: 4, pessimistic: 12}
`
	require.NoError(t, os.WriteFile(path, []byte(tasks), 0o644))

	require.NoError(t, ExecutePERT(context.Background(), cfg, path))
	assert.Contains(t, readOutput(t, cfg), "Login,2,7.00,true")

	assert.Error(t, ExecutePERT(context.Background(), cfg, filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestExecuteCocomo(t *testing.T) {
	captureStdout(t)
	cfg := testConfig(t, schema.CSVOut)

	require.NoError(t, ExecuteCocomo(context.Background(), cfg, schema.CocomoInput{KLOC: 10, Class: schema.OrganicClass}))
	out := readOutput(t, cfg)
	assert.Contains(t, out, "kloc,10.00")
	assert.Contains(t, out, "class,organic")

	err := ExecuteCocomo(context.Background(), cfg, schema.CocomoInput{})
	assert.ErrorIs(t, err, schema.ErrValidation)
}

func TestExecuteFPA(t *testing.T) {
	captureStdout(t)
	cfg := testConfig(t, schema.CSVOut)

	in := schema.FPAInput{Inputs: 10, Outputs: 7, Inquiries: 5, Files: 4, Interfaces: 2, Characteristics: []int{3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3}}
	require.NoError(t, ExecuteFPA(context.Background(), cfg, in))
	out := readOutput(t, cfg)
	assert.Contains(t, out, "unadjusted_function_points,149.00")
	assert.Contains(t, out, "function_points,159.43")

	err := ExecuteFPA(context.Background(), cfg, schema.FPAInput{Inputs: -1})
	assert.ErrorIs(t, err, schema.ErrValidation)
}

func TestExecuteCocomo2(t *testing.T) {
	captureStdout(t)
	cfg := testConfig(t, schema.CSVOut)
	path := filepath.Join(t.TempDir(), "cocomo2.yaml")
	input := `functions:
  ei: [[1, 0, 0], [0, 2, 0]]
  ilf: [[0, 0, 1]]
composition: {simple_screens: 2, medium_reports: 1, modules: 1}
`
	require.NoError(t, os.WriteFile(path, []byte(input), 0o644))

	require.NoError(t, ExecuteCocomo2(context.Background(), cfg, path))
	out := readOutput(t, cfg)
	assert.Contains(t, out, "unadjusted_function_points,21.00")
	assert.Contains(t, out, "object_points,17.00")
	assert.Contains(t, out, "exponent,1.01")

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("composition: {modules: 1}\n"), 0o644))
	assert.ErrorIs(t, ExecuteCocomo2(context.Background(), cfg, empty), schema.ErrValidation)
}
