// Package core contains the Delphi engine and the command entry points that drive it.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/huangsam/delphi/core/techniques"
	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/internal/logger"
	"github.com/huangsam/delphi/internal/outwriter"
	"github.com/huangsam/delphi/internal/projectfile"
	"github.com/huangsam/delphi/schema"
)

// stdout is where confirmations are printed. Tests swap it out.
var stdout io.Writer = os.Stdout

// EngineFromConfig builds the engine of cfg.Project over the stores held by mgr.
func EngineFromConfig(cfg *contract.Config, mgr contract.StoreManager) (*Engine, error) {
	store := mgr.GetProjectStore()
	if store == nil {
		return nil, errors.New("estimation store is not initialized")
	}
	var opts []EngineOption
	if cfg.RecordHistory {
		if history := mgr.GetHistoryStore(); history != nil {
			opts = append(opts, WithHistory(history))
		}
	}
	return NewEngine(cfg.Project, store, opts...), nil
}

// ExecuteSubmit records one round of estimates for an estimator.
func ExecuteSubmit(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, sub schema.Submission) error {
	engine, err := EngineFromConfig(cfg, mgr)
	if err != nil {
		return err
	}
	rec, err := engine.SubmitRound(ctx, sub)
	if err != nil {
		return err
	}
	fmtFloat := func(v float64) string { return fmt.Sprintf("%.*f", cfg.Precision, v) }
	data := rec.Round(sub.Round)
	_, err = fmt.Fprintf(stdout, "Recorded %s for %s: %d estimates, total %s\n",
		sub.Round, rec.EstimatorName, data.Len(), fmtFloat(data.Total()))
	return err
}

// ExecuteRound prints the view of round n.
func ExecuteRound(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, n schema.Round) error {
	engine, err := EngineFromConfig(cfg, mgr)
	if err != nil {
		return err
	}
	result, err := engine.GetAggregate(ctx, n)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRound(result, cfg)
}

// ExecuteReport prints the round-3 view with the final statistics.
// A report without enough estimators is still printed.
func ExecuteReport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	engine, err := EngineFromConfig(cfg, mgr)
	if err != nil {
		return err
	}
	report, err := engine.GetReport(ctx, cfg.Confidence, cfg.StatsMode)
	if err != nil {
		if !errors.Is(err, schema.ErrNotComputable) {
			return err
		}
		logger.Get(ctx).Debug().Int("sample_size", report.Statistics.SampleSize).Msg("confidence interval not computable")
	}
	return outwriter.NewOutWriter().WriteReport(report, cfg)
}

// ExecuteModuleList prints the modules of the project.
func ExecuteModuleList(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	engine, err := EngineFromConfig(cfg, mgr)
	if err != nil {
		return err
	}
	modules, err := engine.ListModules(ctx)
	if err != nil {
		return err
	}
	locked, err := engine.ModulesLocked(ctx)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteModules(modules, locked, cfg)
}

// ExecuteModuleAdd appends a module to the project.
func ExecuteModuleAdd(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, m schema.Module) error {
	engine, err := EngineFromConfig(cfg, mgr)
	if err != nil {
		return err
	}
	if err := engine.AddModule(ctx, m); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "Added module %q\n", strings.TrimSpace(m.Name))
	return err
}

// ExecuteModuleUpdate replaces the module at a 1-based position.
func ExecuteModuleUpdate(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, position int, m schema.Module) error {
	engine, err := EngineFromConfig(cfg, mgr)
	if err != nil {
		return err
	}
	if err := engine.UpdateModule(ctx, position-1, m); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "Updated module %d to %q\n", position, strings.TrimSpace(m.Name))
	return err
}

// ExecuteModuleRemove deletes the module at a 1-based position.
func ExecuteModuleRemove(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, position int) error {
	engine, err := EngineFromConfig(cfg, mgr)
	if err != nil {
		return err
	}
	if err := engine.RemoveModule(ctx, position-1); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "Removed module %d\n", position)
	return err
}

// ExecuteEstimators prints the estimators eligible for round n.
// Round 1 lists everyone who has submitted anything.
func ExecuteEstimators(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, n schema.Round) error {
	engine, err := EngineFromConfig(cfg, mgr)
	if err != nil {
		return err
	}
	estimators, err := engine.ListEstimators(ctx, n)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteEstimators(estimators, n, cfg)
}

// ExecuteProjectExport writes the project as YAML to path, or to stdout when path is empty.
func ExecuteProjectExport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, path string) error {
	engine, err := EngineFromConfig(cfg, mgr)
	if err != nil {
		return err
	}
	snap, err := engine.Snapshot(ctx)
	if err != nil {
		return err
	}
	if path == "" {
		return projectfile.Encode(stdout, snap)
	}
	if err := projectfile.SaveProject(path, snap); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "Exported %d modules and %d estimators to %s\n", len(snap.Modules), len(snap.Estimations), path)
	return err
}

// ExecuteProjectImport loads a project file into the configured project.
// The project name inside the file is informational only.
func ExecuteProjectImport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, path string, replace bool) error {
	snap, err := projectfile.LoadProject(path)
	if err != nil {
		return err
	}
	if snap.Project != "" && snap.Project != cfg.Project {
		logger.Get(ctx).Warn().
			Str("file_project", snap.Project).
			Str("project", cfg.Project).
			Msg("importing into a project with a different name")
	}
	engine, err := EngineFromConfig(cfg, mgr)
	if err != nil {
		return err
	}
	if err := engine.Restore(ctx, snap, replace); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "Imported %d modules and %d estimators into %q\n", len(snap.Modules), len(snap.Estimations), cfg.Project)
	return err
}

// ExecuteProjectReset deletes every estimation of the project.
func ExecuteProjectReset(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	engine, err := EngineFromConfig(cfg, mgr)
	if err != nil {
		return err
	}
	if err := engine.Reset(ctx); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "Reset estimations of %q\n", cfg.Project)
	return err
}

// ExecuteHistoryList prints the recorded report runs of the configured project.
func ExecuteHistoryList(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	history := mgr.GetHistoryStore()
	if history == nil {
		return errors.New("history store is not initialized")
	}
	runs, err := history.ListReports(ctx)
	if err != nil {
		return fmt.Errorf("failed to list report history: %w", err)
	}
	var mine []schema.ReportRunRecord
	for _, r := range runs {
		if r.Project == cfg.Project {
			mine = append(mine, r)
		}
	}
	return outwriter.NewOutWriter().WriteHistory(mine, cfg)
}

// ExecutePERT prints a three-point estimate of the task file at path.
func ExecutePERT(_ context.Context, cfg *contract.Config, path string) error {
	tasks, err := projectfile.LoadPERTTasks(path)
	if err != nil {
		return err
	}
	result, err := techniques.EstimatePERT(tasks)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WritePERT(result, cfg)
}

// ExecuteCocomo prints an intermediate COCOMO-I estimate.
func ExecuteCocomo(_ context.Context, cfg *contract.Config, in schema.CocomoInput) error {
	result, err := techniques.EstimateCocomo(in)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteCocomo(result, cfg)
}

// ExecuteFPA prints a function point analysis.
func ExecuteFPA(_ context.Context, cfg *contract.Config, in schema.FPAInput) error {
	result, err := techniques.EstimateFPA(in)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteFPA(result, cfg)
}

// ExecuteCocomo2 prints a COCOMO II estimate of the input file at path.
func ExecuteCocomo2(_ context.Context, cfg *contract.Config, path string) error {
	in, err := projectfile.LoadCocomo2Input(path)
	if err != nil {
		return err
	}
	result, err := techniques.EstimateCocomo2(in)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteCocomo2(result, cfg)
}
