package persist

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
)

// reportRunsTable is the name of the table holding report history.
const reportRunsTable = "delphi_report_runs"

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
// The schema is migrated to the latest version when the store opens.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend || backend == "" {
		// Return a no-op store for disabled history
		return &HistoryStoreImpl{backend: schema.NoneBackend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := migrateHistoryUp(db, backend); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// RecordReport stores one report run.
func (hs *HistoryStoreImpl) RecordReport(ctx context.Context, rec schema.ReportRunRecord) error {
	// Skip for NoneBackend
	if hs.db == nil {
		return nil
	}

	columns := []string{
		"run_id", "project", "created_at", "confidence_level", "stats_mode",
		"module_count", "estimator_count", "sample_size",
		"mean_effort", "standard_deviation", "standard_error", "lower_bound", "upper_bound",
		"avg_round1", "avg_round2", "avg_round3",
	}
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = placeholder(hs.backend, i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteTableName(reportRunsTable, hs.backend), strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	_, err := hs.db.ExecContext(ctx, query,
		rec.RunID, rec.Project, formatTime(rec.CreatedAt, hs.backend), string(rec.ConfidenceLevel), string(rec.StatsMode),
		rec.ModuleCount, rec.EstimatorCount, rec.SampleSize,
		rec.MeanEffort, rec.StandardDeviation, rec.StandardError, nullFloat(rec.LowerBound), nullFloat(rec.UpperBound),
		rec.AvgRound1, rec.AvgRound2, rec.AvgRound3,
	)
	if err != nil {
		return fmt.Errorf("failed to record report run: %w", err)
	}
	return nil
}

// ListReports returns every stored run, newest first.
func (hs *HistoryStoreImpl) ListReports(ctx context.Context) ([]schema.ReportRunRecord, error) {
	// Skip for NoneBackend
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, project, created_at, confidence_level, stats_mode,
		module_count, estimator_count, sample_size,
		mean_effort, standard_deviation, standard_error, lower_bound, upper_bound,
		avg_round1, avg_round2, avg_round3
		FROM %s ORDER BY created_at DESC, run_id`, quoteTableName(reportRunsTable, hs.backend))
	rows, err := hs.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query report runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ReportRunRecord
	for rows.Next() {
		var rec schema.ReportRunRecord
		var level, mode string
		var lower, upper sql.NullFloat64
		createdAt, parseCreatedAt := timeScanner(hs.backend)
		if err := rows.Scan(&rec.RunID, &rec.Project, createdAt, &level, &mode,
			&rec.ModuleCount, &rec.EstimatorCount, &rec.SampleSize,
			&rec.MeanEffort, &rec.StandardDeviation, &rec.StandardError, &lower, &upper,
			&rec.AvgRound1, &rec.AvgRound2, &rec.AvgRound3); err != nil {
			return nil, fmt.Errorf("failed to scan report run: %w", err)
		}
		if rec.CreatedAt, err = parseCreatedAt(); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		rec.ConfidenceLevel = schema.ConfidenceLevel(level)
		rec.StatsMode = schema.StatsMode(mode)
		if lower.Valid {
			rec.LowerBound = &lower.Float64
		}
		if upper.Valid {
			rec.UpperBound = &upper.Float64
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report runs: %w", err)
	}
	return results, nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.db == nil {
		return status, nil
	}

	quoted := quoteTableName(reportRunsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}
	status.TableSizes[reportRunsTable] = int64(status.TotalRuns)
	if status.TotalRuns == 0 {
		return status, nil
	}

	lastDest, parseLast := timeScanner(hs.backend)
	lastQuery := fmt.Sprintf("SELECT run_id, created_at FROM %s ORDER BY created_at DESC LIMIT 1", quoted)
	if err := hs.db.QueryRow(lastQuery).Scan(&status.LastRunID, lastDest); err != nil {
		return status, fmt.Errorf("failed to get last run info: %w", err)
	}
	last, err := parseLast()
	if err != nil {
		return status, fmt.Errorf("failed to parse last run time: %w", err)
	}
	status.LastRunTime = last

	oldestDest, parseOldest := timeScanner(hs.backend)
	oldestQuery := fmt.Sprintf("SELECT created_at FROM %s ORDER BY created_at ASC LIMIT 1", quoted)
	if err := hs.db.QueryRow(oldestQuery).Scan(oldestDest); err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}
	oldest, err := parseOldest()
	if err != nil {
		return status, fmt.Errorf("failed to parse oldest run time: %w", err)
	}
	status.OldestRunTime = oldest

	projectsQuery := fmt.Sprintf("SELECT COUNT(DISTINCT project) FROM %s", quoted)
	if err := hs.db.QueryRow(projectsQuery).Scan(&status.TotalProjects); err != nil {
		return status, fmt.Errorf("failed to count projects: %w", err)
	}
	return status, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
