// Package parquet provides data structures and functions for exporting Delphi
// estimation data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/delphi/schema"
	"github.com/parquet-go/parquet-go"
)

// ReportRun represents one computed final report.
// This struct maps to the delphi_report_runs database table.
type ReportRun struct {
	// RunID is the unique identifier for this report run
	RunID string `parquet:"run_id,snappy"`

	// Project is the project the report was computed for
	Project string `parquet:"project,snappy"`

	// CreatedAt is when the report was computed (stored as TIMESTAMP with nanosecond precision)
	CreatedAt time.Time `parquet:"created_at,snappy"`

	ConfidenceLevel string `parquet:"confidence_level,snappy"`
	StatsMode       string `parquet:"stats_mode,snappy"`
	ModuleCount     int32  `parquet:"module_count,snappy"`
	EstimatorCount  int32  `parquet:"estimator_count,snappy"`

	// SampleSize is the number of estimators with at least one submitted round
	SampleSize int32 `parquet:"sample_size,snappy"`

	MeanEffort        float64 `parquet:"mean_effort,snappy"`
	StandardDeviation float64 `parquet:"standard_deviation,snappy"`
	StandardError     float64 `parquet:"standard_error,snappy"`

	// LowerBound and UpperBound are null when fewer than two estimators contributed
	LowerBound *float64 `parquet:"lower_bound,optional,snappy"`
	UpperBound *float64 `parquet:"upper_bound,optional,snappy"`

	AvgRound1 float64 `parquet:"avg_round1,snappy"`
	AvgRound2 float64 `parquet:"avg_round2,snappy"`
	AvgRound3 float64 `parquet:"avg_round3,snappy"`
}

// EstimateRow is a single estimate in long format: one row per estimator, round and module.
type EstimateRow struct {
	Project        string  `parquet:"project,snappy"`
	EstimatorName  string  `parquet:"estimator_name,snappy"`
	Round          int32   `parquet:"round,snappy"`
	ModulePosition int32   `parquet:"module_position,snappy"`
	ModuleName     string  `parquet:"module_name,snappy"`
	Estimate       float64 `parquet:"estimate,snappy"`
}

// WriteReportRunsParquet writes a slice of ReportRun structs to a Parquet file.
func WriteReportRunsParquet(data []ReportRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteEstimateRowsParquet writes a slice of EstimateRow structs to a Parquet file.
func WriteEstimateRowsParquet(data []EstimateRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet creates outputPath and writes data using struct schema inference.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	// Close flushes the footer, so its error matters
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertReportRunRecords converts schema.ReportRunRecord to ReportRun for Parquet export.
func ConvertReportRunRecords(records []schema.ReportRunRecord) []ReportRun {
	result := make([]ReportRun, len(records))
	for i, record := range records {
		result[i] = ReportRun{
			RunID:             record.RunID,
			Project:           record.Project,
			CreatedAt:         record.CreatedAt,
			ConfidenceLevel:   string(record.ConfidenceLevel),
			StatsMode:         string(record.StatsMode),
			ModuleCount:       int32(record.ModuleCount),
			EstimatorCount:    int32(record.EstimatorCount),
			SampleSize:        int32(record.SampleSize),
			MeanEffort:        record.MeanEffort,
			StandardDeviation: record.StandardDeviation,
			StandardError:     record.StandardError,
			LowerBound:        record.LowerBound,
			UpperBound:        record.UpperBound,
			AvgRound1:         record.AvgRound1,
			AvgRound2:         record.AvgRound2,
			AvgRound3:         record.AvgRound3,
		}
	}
	return result
}

// ConvertEstimations flattens estimation records into EstimateRow values.
// Rounds that were not submitted produce no rows.
func ConvertEstimations(project string, modules []schema.Module, records []schema.EstimationRecord) []EstimateRow {
	var result []EstimateRow
	for _, record := range records {
		for _, round := range schema.AllRounds {
			data := record.Round(round)
			if !data.IsSubmitted() {
				continue
			}
			for i, value := range data.Values() {
				name := ""
				if i < len(modules) {
					name = modules[i].Name
				}
				result = append(result, EstimateRow{
					Project:        project,
					EstimatorName:  record.EstimatorName,
					Round:          int32(round),
					ModulePosition: int32(i + 1),
					ModuleName:     name,
					Estimate:       value,
				})
			}
		}
	}
	return result
}
