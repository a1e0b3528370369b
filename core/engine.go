package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/delphi/core/agg"
	"github.com/huangsam/delphi/core/algo"
	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/internal/logger"
	"github.com/huangsam/delphi/schema"
)

// Engine is the caller-facing API of a single Delphi project.
// It reads a consistent snapshot from the store for every call and
// serializes writes for the same estimator.
type Engine struct {
	project string
	store   contract.ProjectStore
	history contract.HistoryStore

	// modulesMu is held for reading by submissions and for writing by
	// anything that changes the module list or wipes estimations.
	modulesMu sync.RWMutex
	locks     *keyLock

	now   func() time.Time
	newID func() string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithHistory records every computed report in h.
func WithHistory(h contract.HistoryStore) EngineOption {
	return func(e *Engine) { e.history = h }
}

// WithClock overrides the clock used to timestamp report runs.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an engine for project backed by store.
func NewEngine(project string, store contract.ProjectStore, opts ...EngineOption) *Engine {
	e := &Engine{
		project: project,
		store:   store,
		locks:   newKeyLock(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Project returns the project name.
func (e *Engine) Project() string {
	return e.project
}

// SubmitRound validates and stores one estimator's estimates for a round.
func (e *Engine) SubmitRound(ctx context.Context, sub schema.Submission) (schema.EstimationRecord, error) {
	name := strings.TrimSpace(sub.EstimatorName)
	ctx = logger.WithEstimator(ctx, name)
	log := logger.Get(ctx)

	e.modulesMu.RLock()
	defer e.modulesMu.RUnlock()

	modules, err := e.store.ListModules(ctx)
	if err != nil {
		return schema.EstimationRecord{}, fmt.Errorf("failed to load modules: %w", err)
	}

	var existing *schema.EstimationRecord
	if key := schema.EstimatorKey(name); key != "" {
		unlock := e.locks.Lock(key)
		defer unlock()

		rec, found, err := e.store.GetEstimation(ctx, name)
		if err != nil {
			return schema.EstimationRecord{}, fmt.Errorf("failed to load estimation: %w", err)
		}
		if found {
			existing = &rec
		}
	}

	updated, err := RecordRound(existing, modules, sub)
	if err != nil {
		log.Debug().Err(err).Int("round", int(sub.Round)).Msg("submission rejected")
		return schema.EstimationRecord{}, err
	}
	if err := e.store.PutEstimation(ctx, updated); err != nil {
		return schema.EstimationRecord{}, fmt.Errorf("failed to save estimation: %w", err)
	}

	log.Info().
		Int("round", int(sub.Round)).
		Float64("total", updated.Round(sub.Round).Total()).
		Bool("overwrite", existing != nil && sub.Round == schema.Round1).
		Msg("round recorded")
	return updated, nil
}

// GetAggregate returns the view of round n built from the current records.
func (e *Engine) GetAggregate(ctx context.Context, n schema.Round) (schema.AggregateResult, error) {
	modules, records, err := e.load(ctx)
	if err != nil {
		return schema.AggregateResult{}, err
	}
	return agg.Aggregate(records, modules, n)
}

// GetFinalStatistics computes the final statistics at the given confidence level.
// It returns schema.ErrNotComputable together with partial statistics when fewer
// than two estimators have data.
func (e *Engine) GetFinalStatistics(ctx context.Context, level schema.ConfidenceLevel, mode schema.StatsMode) (schema.Statistics, error) {
	report, err := e.GetReport(ctx, level, mode)
	return report.Statistics, err
}

// GetReport returns the round-3 view together with the final statistics.
func (e *Engine) GetReport(ctx context.Context, level schema.ConfidenceLevel, mode schema.StatsMode) (schema.Report, error) {
	result, err := e.GetAggregate(ctx, schema.Round3)
	if err != nil {
		return schema.Report{}, err
	}

	stats, err := algo.FinalStatistics(result, level, mode)
	if err != nil && !errors.Is(err, schema.ErrNotComputable) {
		return schema.Report{}, err
	}

	report := schema.Report{Project: e.project, Aggregate: result, Statistics: stats}
	e.recordReport(ctx, report)
	return report, err
}

// recordReport stores a report run in the history store, if one is configured.
// History is best effort and never fails the computation.
func (e *Engine) recordReport(ctx context.Context, report schema.Report) {
	if e.history == nil {
		return
	}
	stats := report.Statistics
	rec := schema.ReportRunRecord{
		RunID:             e.newID(),
		Project:           e.project,
		CreatedAt:         e.now(),
		ConfidenceLevel:   stats.ConfidenceLevel,
		StatsMode:         stats.Mode,
		ModuleCount:       len(report.Aggregate.Modules),
		EstimatorCount:    report.Aggregate.EstimatorCount,
		SampleSize:        stats.SampleSize,
		MeanEffort:        stats.MeanEffort,
		StandardDeviation: stats.StandardDeviation,
		StandardError:     stats.StandardError,
	}
	if lower, ok := stats.LowerBound(); ok {
		rec.LowerBound = &lower
	}
	if upper, ok := stats.UpperBound(); ok {
		rec.UpperBound = &upper
	}
	rec.AvgRound1, _ = report.Aggregate.Average(schema.Round1)
	rec.AvgRound2, _ = report.Aggregate.Average(schema.Round2)
	rec.AvgRound3, _ = report.Aggregate.Average(schema.Round3)

	if err := e.history.RecordReport(ctx, rec); err != nil {
		logger.Get(ctx).Warn().Err(err).Str("run_id", rec.RunID).Msg("failed to record report history")
	}
}

// load reads modules and records as one consistent snapshot.
func (e *Engine) load(ctx context.Context) ([]schema.Module, []schema.EstimationRecord, error) {
	e.modulesMu.RLock()
	defer e.modulesMu.RUnlock()

	modules, err := e.store.ListModules(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load modules: %w", err)
	}
	records, err := e.store.ListEstimations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load estimations: %w", err)
	}
	return modules, records, nil
}

// ListModules returns the modules in display order.
func (e *Engine) ListModules(ctx context.Context) ([]schema.Module, error) {
	e.modulesMu.RLock()
	defer e.modulesMu.RUnlock()
	return e.store.ListModules(ctx)
}

// AddModule appends a module to the project.
func (e *Engine) AddModule(ctx context.Context, m schema.Module) error {
	return e.editModules(ctx, func(modules []schema.Module) ([]schema.Module, error) {
		return append(modules, m), nil
	})
}

// UpdateModule replaces the module at index (0-based).
func (e *Engine) UpdateModule(ctx context.Context, index int, m schema.Module) error {
	return e.editModules(ctx, func(modules []schema.Module) ([]schema.Module, error) {
		if index < 0 || index >= len(modules) {
			return nil, moduleIndexError(index, len(modules))
		}
		modules[index] = m
		return modules, nil
	})
}

// RemoveModule deletes the module at index (0-based).
func (e *Engine) RemoveModule(ctx context.Context, index int) error {
	return e.editModules(ctx, func(modules []schema.Module) ([]schema.Module, error) {
		if index < 0 || index >= len(modules) {
			return nil, moduleIndexError(index, len(modules))
		}
		return append(modules[:index], modules[index+1:]...), nil
	})
}

// editModules applies edit to the module list while no estimation exists.
func (e *Engine) editModules(ctx context.Context, edit func([]schema.Module) ([]schema.Module, error)) error {
	e.modulesMu.Lock()
	defer e.modulesMu.Unlock()

	if err := e.ensureUnlocked(ctx); err != nil {
		return err
	}
	modules, err := e.store.ListModules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load modules: %w", err)
	}
	modules, err = edit(modules)
	if err != nil {
		return err
	}
	modules, err = NormalizeModules(modules)
	if err != nil {
		return err
	}
	if err := e.store.SaveModules(ctx, modules); err != nil {
		return fmt.Errorf("failed to save modules: %w", err)
	}
	logger.Get(ctx).Info().Int("modules", len(modules)).Msg("module list updated")
	return nil
}

// ensureUnlocked fails with schema.ErrModulesLocked once any estimation exists.
func (e *Engine) ensureUnlocked(ctx context.Context) error {
	records, err := e.store.ListEstimations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load estimations: %w", err)
	}
	if len(records) > 0 {
		return fmt.Errorf("%w: %d estimator(s) have submitted; reset the project first", schema.ErrModulesLocked, len(records))
	}
	return nil
}

// ModulesLocked reports whether estimation has started, which freezes the module list.
func (e *Engine) ModulesLocked(ctx context.Context) (bool, error) {
	_, records, err := e.load(ctx)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// NormalizeModules trims module fields and rejects blank or duplicate names.
func NormalizeModules(modules []schema.Module) ([]schema.Module, error) {
	verr := &schema.ValidationError{}
	seen := make(map[string]int, len(modules))
	out := make([]schema.Module, len(modules))
	for i, m := range modules {
		m.Name = strings.TrimSpace(m.Name)
		m.Description = strings.TrimSpace(m.Description)
		out[i] = m
		if m.Name == "" {
			verr.Add("module.name", i, "", "must not be empty")
			continue
		}
		key := strings.ToLower(m.Name)
		if prev, dup := seen[key]; dup {
			verr.Add("module.name", i, m.Name, fmt.Sprintf("duplicates module %d", prev))
			continue
		}
		seen[key] = i
	}
	if verr.HasIssues() {
		return nil, verr
	}
	return out, nil
}

func moduleIndexError(index, count int) error {
	verr := &schema.ValidationError{}
	verr.Add("module", index, "", fmt.Sprintf("no module at this position (project has %d)", count))
	return verr
}

// ListEstimators returns the estimators who may submit round n.
// Everyone may submit round 1; later rounds need the previous round.
func (e *Engine) ListEstimators(ctx context.Context, n schema.Round) ([]schema.EstimatorEligibility, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("invalid round %d. must be 1, 2 or 3", int(n))
	}
	_, records, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	var eligible []schema.EstimatorEligibility
	for _, rec := range records {
		if rec.Key() == "" {
			continue
		}
		if prev := n.Previous(); prev != 0 && !rec.Round(prev).IsSubmitted() {
			continue
		}
		eligible = append(eligible, schema.EstimatorEligibility{
			EstimatorName:   rec.EstimatorName,
			SubmittedRounds: rec.SubmittedRounds(),
			NextRound:       rec.NextRound(),
		})
	}
	return eligible, nil
}

// GetRecord returns the record of one estimator.
func (e *Engine) GetRecord(ctx context.Context, name string) (schema.EstimationRecord, error) {
	rec, found, err := e.store.GetEstimation(ctx, name)
	if err != nil {
		return schema.EstimationRecord{}, fmt.Errorf("failed to load estimation: %w", err)
	}
	if !found {
		return schema.EstimationRecord{}, fmt.Errorf("%w: %q", schema.ErrEstimatorNotFound, strings.TrimSpace(name))
	}
	return rec, nil
}

// Reset deletes every estimation of the project so modules can change again.
func (e *Engine) Reset(ctx context.Context) error {
	e.modulesMu.Lock()
	defer e.modulesMu.Unlock()

	if err := e.store.DeleteEstimations(ctx); err != nil {
		return fmt.Errorf("failed to reset estimations: %w", err)
	}
	logger.Get(ctx).Info().Str("project", e.project).Msg("estimations reset")
	return nil
}

// Snapshot returns the full state of the project.
func (e *Engine) Snapshot(ctx context.Context) (schema.ProjectSnapshot, error) {
	modules, records, err := e.load(ctx)
	if err != nil {
		return schema.ProjectSnapshot{}, err
	}
	return schema.ProjectSnapshot{Project: e.project, Modules: modules, Estimations: records}, nil
}

// Restore loads a snapshot into the project. Unless replace is set the
// project must not hold any modules or estimations yet.
func (e *Engine) Restore(ctx context.Context, snap schema.ProjectSnapshot, replace bool) error {
	modules, err := NormalizeModules(snap.Modules)
	if err != nil {
		return err
	}
	if err := CheckSnapshot(modules, snap.Estimations); err != nil {
		return err
	}

	e.modulesMu.Lock()
	defer e.modulesMu.Unlock()

	if !replace {
		current, err := e.store.ListModules(ctx)
		if err != nil {
			return fmt.Errorf("failed to load modules: %w", err)
		}
		records, err := e.store.ListEstimations(ctx)
		if err != nil {
			return fmt.Errorf("failed to load estimations: %w", err)
		}
		if len(current) > 0 || len(records) > 0 {
			return fmt.Errorf("project %q already has data; use replace to overwrite it", e.project)
		}
	}

	if err := e.store.DeleteEstimations(ctx); err != nil {
		return fmt.Errorf("failed to clear estimations: %w", err)
	}
	if err := e.store.SaveModules(ctx, modules); err != nil {
		return fmt.Errorf("failed to save modules: %w", err)
	}
	for _, rec := range snap.Estimations {
		rec.EstimatorName = strings.TrimSpace(rec.EstimatorName)
		if err := e.store.PutEstimation(ctx, rec); err != nil {
			return fmt.Errorf("failed to save estimation: %w", err)
		}
	}
	logger.Get(ctx).Info().
		Str("project", e.project).
		Int("modules", len(modules)).
		Int("estimators", len(snap.Estimations)).
		Msg("project restored")
	return nil
}

// CheckSnapshot verifies that imported records could have been produced by
// the round recorder: named, unique, well formed and submitted in order.
func CheckSnapshot(modules []schema.Module, records []schema.EstimationRecord) error {
	for _, rec := range records {
		if strings.TrimSpace(rec.EstimatorName) == "" {
			return &schema.DataIntegrityError{Reason: "estimation record without estimator name"}
		}
		for _, r := range []schema.Round{schema.Round2, schema.Round3} {
			if rec.Round(r).IsSubmitted() && !rec.Round(r.Previous()).IsSubmitted() {
				return &schema.DataIntegrityError{
					Estimator: rec.EstimatorName,
					Reason:    fmt.Sprintf("%s present without %s", r, r.Previous()),
				}
			}
		}
		if !rec.Round1.IsSubmitted() {
			return &schema.DataIntegrityError{Estimator: rec.EstimatorName, Reason: "no rounds submitted"}
		}
	}
	_, err := agg.Aggregate(records, modules, schema.Round3)
	return err
}
