// Package cmd defines the command-line interface for delphi.
package cmd

import (
	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags exposes a flag set through viper so config files and DELPHI_* variables can set it.
func bindFlags(flags *pflag.FlagSet, name string) {
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding "+name+" flags", err)
	}
}

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(moduleCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(roundCmd)
	rootCmd.AddCommand(estimatorsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(pertCmd)
	rootCmd.AddCommand(cocomoCmd)
	rootCmd.AddCommand(cocomo2Cmd)
	rootCmd.AddCommand(fpaCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the module subcommands to the parent module command
	moduleCmd.AddCommand(moduleListCmd)
	moduleCmd.AddCommand(moduleAddCmd)
	moduleCmd.AddCommand(moduleUpdateCmd)
	moduleCmd.AddCommand(moduleRemoveCmd)

	// Add the project subcommands to the parent project command
	projectCmd.AddCommand(projectImportCmd)
	projectCmd.AddCommand(projectExportCmd)
	projectCmd.AddCommand(projectResetCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("project", "p", contract.DefaultProject, "Project to work on")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or xlsx")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to (required for xlsx)")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Estimation store backend: sqlite or mysql or postgresql or memory")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for the estimation store (SQLite file path, MySQL DSN or PostgreSQL keywords)")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Report history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for report history (must differ from store-db-connect)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	bindFlags(rootCmd.PersistentFlags(), "root")

	// Report settings are config keys; the MCP server reads them as its defaults
	reportCmd.Flags().String("confidence", string(schema.Confidence95), "Confidence level of the interval: 90 or 95 or 99")
	reportCmd.Flags().String("stats-mode", string(schema.HistoricalStats), "Statistics mode: historical or corrected")
	reportCmd.Flags().Bool("record-history", true, "Record the report in the history store when one is configured")
	bindFlags(reportCmd.Flags(), "report")

	// Flags below are per-invocation arguments and are read from the command, not from Viper
	submitCmd.Flags().StringP("estimator", "e", "", "Name of the estimator submitting")
	submitCmd.Flags().IntP("round", "r", int(schema.Round1), "Round being submitted: 1 or 2 or 3")
	submitCmd.Flags().String("estimates", "", "Comma-separated estimates, one per module in module order")
	submitCmd.Flags().Bool("overwrite", false, "Confirm replacing an existing round 1 submission")
	_ = submitCmd.MarkFlagRequired("estimator")
	_ = submitCmd.MarkFlagRequired("estimates")

	estimatorsCmd.Flags().IntP("round", "r", int(schema.Round1), "List estimators eligible for this round")

	moduleAddCmd.Flags().StringP("description", "d", "", "Module description")
	moduleUpdateCmd.Flags().String("name", "", "New module name (kept when empty)")
	moduleUpdateCmd.Flags().StringP("description", "d", "", "New module description (kept when not set)")

	projectImportCmd.Flags().Bool("replace", false, "Replace the data already stored for the project")

	cocomoCmd.Flags().Float64("kloc", 0, "Size in thousands of lines of code")
	cocomoCmd.Flags().Float64("sloc", 0, "Size in lines of code (used when --kloc is not set)")
	cocomoCmd.Flags().String("class", string(schema.OrganicClass), "Project class: organic or semidetached or embedded")
	cocomoCmd.Flags().Float64("labor-rate", 1, "Cost of one person-month")
	cocomoCmd.Flags().StringToString("driver", nil, "Cost driver ratings, e.g. --driver complexity=high,analyst=low")

	fpaCmd.Flags().Int("inputs", 0, "Number of user inputs")
	fpaCmd.Flags().Int("outputs", 0, "Number of user outputs")
	fpaCmd.Flags().Int("inquiries", 0, "Number of inquiries")
	fpaCmd.Flags().Int("files", 0, "Number of internal and external files")
	fpaCmd.Flags().Int("interfaces", 0, "Number of external interfaces")
	fpaCmd.Flags().String("complexity", string(schema.AverageComplexity), "Weighting: simple, average or complex")
	fpaCmd.Flags().IntSlice("gsc", nil, "Ratings 0-5 of the 14 general system characteristics, e.g. --gsc 3,4,0,5")

	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	bindFlags(historyMigrateCmd.Flags(), "history migrate")
}
