package cmd

import (
	"fmt"
	"strings"

	"github.com/huangsam/delphi/core"
	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/internal/persist"
	"github.com/huangsam/delphi/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historySetup loads minimal configuration needed for history operations.
// It does not open the store so migrations can run on a fresh database.
func historySetup() error {
	if err := readConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("history-backend")))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidHistoryBackends[backend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("history-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr, "history-db-connect"); err != nil {
		return err
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyDBFilePath returns the SQLite file of the history store.
func historyDBFilePath() string {
	if cfg.HistoryDBConnect != "" {
		return cfg.HistoryDBConnect
	}
	return contract.GetHistoryDBFilePath()
}

// historyCmd focused on report history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the history of computed reports",
	Long: `Manage the history of final reports, used to see how estimates moved over time.

When enabled, every report run is stored with its confidence level, stats mode,
sample size, mean effort, interval bounds and round averages.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  list    - Show the recorded runs of the project
  status  - Show history statistics
  export  - Export runs and estimates to Parquet for analytics
  clear   - Remove all recorded runs
  migrate - Run database schema migrations

Examples:
  # Record reports in a local SQLite file
  export DELPHI_HISTORY_BACKEND=sqlite
  delphi report
  delphi history list

  # Export for analysis in pandas/DuckDB
  delphi history export --output-file delphi-data`,
}

// historyListCmd lists the recorded runs of the project.
var historyListCmd = &cobra.Command{
	Use:     "list",
	Short:   "Show the recorded report runs of the project",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteHistoryList(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list report history", err)
		}
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history statistics and connection details",
	Long: `Show the backend, the number of recorded runs, the projects they cover and the table size.

Examples:
  delphi history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		history, err := persist.NewHistoryStore(cfg.HistoryBackend, cfg.HistoryDBConnect)
		if err != nil {
			contract.LogFatal("Failed to open history", err)
		}
		defer func() { _ = history.Close() }()

		status, err := history.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		persist.PrintHistoryStatus(status)
	},
}

// historyClearCmd clears the history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded report runs",
	Long: `Delete every recorded report run of every project.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  delphi history export --output-file backup
  delphi history clear`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := persist.ClearHistory(cfg.HistoryBackend, historyDBFilePath(), cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear report history", err)
		}
		fmt.Println("Report history cleared successfully.")
	},
}

// historyExportCmd exports history and estimates to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export report runs and estimates to Parquet",
	Long: `Export the report history and the project's estimates to Parquet files.

Writes two files next to --output-file:
  <output-file>.report_runs.parquet - one row per recorded report
  <output-file>.estimates.parquet   - one row per estimator, module and round

Requires: --output-file parameter

Examples:
  delphi history export --output-file delphi-data
  duckdb -c "SELECT * FROM read_parquet('delphi-data.report_runs.parquet')"`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := persist.ExecuteHistoryExport(rootCtx, storeManager, cfg.Project, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export report history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the report history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  delphi history migrate --history-backend sqlite

  # Rollback to initial state
  delphi history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := persist.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
