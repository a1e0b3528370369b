package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/internal/parquet"
)

// ExecuteHistoryExport writes the report history and the current project estimates to Parquet files.
func ExecuteHistoryExport(ctx context.Context, mgr contract.StoreManager, project, outputFile string) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	history := mgr.GetHistoryStore()
	status, err := history.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if !status.Connected {
		return errors.New("report history is disabled. set --history-backend to enable it")
	}
	if status.TotalRuns == 0 {
		return errors.New("no report history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total report runs: %d\n", status.TotalRuns)

	runs, err := history.ListReports(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve report runs: %w", err)
	}

	store := mgr.GetProjectStore()
	modules, err := store.ListModules(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve modules: %w", err)
	}
	records, err := store.ListEstimations(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve estimations: %w", err)
	}

	parquetRuns := parquet.ConvertReportRunRecords(runs)
	parquetEstimates := parquet.ConvertEstimations(project, modules, records)

	runsFile := outputFile + ".report_runs.parquet"
	if err := parquet.WriteReportRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write report runs: %w", err)
	}
	fmt.Printf("Exported %d report runs to: %s\n", len(parquetRuns), runsFile)

	estimatesFile := outputFile + ".estimates.parquet"
	if err := parquet.WriteEstimateRowsParquet(parquetEstimates, estimatesFile); err != nil {
		return fmt.Errorf("failed to write estimates: %w", err)
	}
	fmt.Printf("Exported %d estimates to: %s\n", len(parquetEstimates), estimatesFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
