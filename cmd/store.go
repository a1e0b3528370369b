package cmd

import (
	"fmt"
	"strings"

	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/internal/persist"
	"github.com/huangsam/delphi/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup() error {
	if err := readConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("store-backend")))
	connStr := viper.GetString("store-db-connect")
	if _, ok := schema.ValidStoreBackends[backend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, memory", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr, "store-db-connect"); err != nil {
		return err
	}

	cfg.Project = strings.TrimSpace(viper.GetString("project"))
	if cfg.Project == "" {
		cfg.Project = contract.DefaultProject
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeDBFilePath returns the SQLite file of the estimation store.
func storeDBFilePath() string {
	if cfg.StoreDBConnect != "" {
		return cfg.StoreDBConnect
	}
	return contract.GetStoreDBFilePath()
}

// storeCmd focused on estimation store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup. This skips output and report validation for simple
// maintenance operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the estimation store",
	Long: `Manage the database that holds modules and estimations.

Supported backends: SQLite (default), MySQL, PostgreSQL, or Memory (lost on exit)

Subcommands:
  status - Show store statistics and connection info
  clear  - Remove every project from the store

Examples:
  # Check store status
  delphi store status --project checkout

  # Use PostgreSQL (set connection string via env variable)
  DELPHI_STORE_BACKEND=postgresql DELPHI_STORE_DB_CONNECT="host=... dbname=delphi" delphi store status`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show the backend, the module and estimator counts of the project and the table size.

Examples:
  delphi store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := persist.NewProjectStore(cfg.StoreBackend, cfg.StoreDBConnect, cfg.Project)
		if err != nil {
			contract.LogFatal("Failed to open store", err)
		}
		defer func() { _ = store.Close() }()

		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		persist.PrintStoreStatus(status)
	},
}

// storeClearCmd clears the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every module and estimation from the store",
	Long: `Delete all modules and estimations of every project in the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the module and estimation tables

WARNING: This action cannot be undone. Consider exporting projects first.

Examples:
  delphi project export backup.yaml
  delphi store clear`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := persist.ClearStore(cfg.StoreBackend, storeDBFilePath(), cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}
