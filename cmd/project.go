package cmd

import (
	"github.com/huangsam/delphi/core"
	"github.com/huangsam/delphi/internal/contract"
	"github.com/spf13/cobra"
)

// projectCmd groups whole-project operations.
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Import, export or reset a whole project",
	Long: `Move a project between stores as a YAML file, or start estimating over.

Subcommands:
  export - Write modules and estimations to a YAML file
  import - Load a YAML file into the project
  reset  - Delete every estimation so modules can change again

Examples:
  # Copy a project from the local SQLite store into PostgreSQL
  delphi project export checkout.yaml --project checkout
  DELPHI_STORE_BACKEND=postgresql delphi project import checkout.yaml --project checkout`,
}

// projectExportCmd writes the project to YAML.
var projectExportCmd = &cobra.Command{
	Use:     "export [file]",
	Short:   "Write the project to a YAML file (stdout when no file is given)",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		if err := core.ExecuteProjectExport(rootCtx, cfg, storeManager, path); err != nil {
			contract.LogFatal("Cannot export project", err)
		}
	},
}

// projectImportCmd loads a YAML file.
var projectImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a YAML project file",
	Long: `Load modules and estimations from a YAML file into the configured project.

The file is checked as a whole before anything is written: estimate counts must match
the modules and rounds must be in order. A project that already holds data is only
overwritten with --replace.

Examples:
  delphi project import checkout.yaml
  delphi project import checkout.yaml --replace`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		replace, _ := cmd.Flags().GetBool("replace")
		if err := core.ExecuteProjectImport(rootCtx, cfg, storeManager, args[0], replace); err != nil {
			contract.LogFatal("Cannot import project", err)
		}
	},
}

// projectResetCmd deletes every estimation.
var projectResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every estimation of the project",
	Long: `Delete every estimation of the project. Modules are kept and unlocked.

WARNING: This action cannot be undone. Consider exporting the project first.

Examples:
  delphi project export backup.yaml
  delphi project reset`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteProjectReset(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot reset project", err)
		}
	},
}
