package cmd

import (
	"fmt"
	"strconv"

	"github.com/huangsam/delphi/core"
	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
	"github.com/spf13/cobra"
)

// parsePosition converts a 1-based module position argument.
func parsePosition(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid module position '%s'. must be a number starting at 1", arg)
	}
	return n, nil
}

// moduleCmd groups the module list commands.
var moduleCmd = &cobra.Command{
	Use:   "module",
	Short: "Manage the modules being estimated",
	Long: `Manage the ordered list of modules the team estimates.

Modules can change only until the first estimate is submitted. After that the
list is locked; reset the project to edit it again.

Subcommands:
  list   - Show the modules in estimation order
  add    - Append a module
  update - Rename or redescribe a module
  remove - Delete a module

Examples:
  delphi module add Login --description "Email and password sign in"
  delphi module add Signup
  delphi module list`,
}

// moduleListCmd lists the modules.
var moduleListCmd = &cobra.Command{
	Use:     "list",
	Short:   "Show the modules in estimation order",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteModuleList(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list modules", err)
		}
	},
}

// moduleAddCmd appends a module.
var moduleAddCmd = &cobra.Command{
	Use:     "add <name>",
	Short:   "Append a module to the project",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		description, _ := cmd.Flags().GetString("description")
		m := schema.Module{Name: args[0], Description: description}
		if err := core.ExecuteModuleAdd(rootCtx, cfg, storeManager, m); err != nil {
			contract.LogFatal("Cannot add module", err)
		}
	},
}

// moduleUpdateCmd edits the module at a position.
var moduleUpdateCmd = &cobra.Command{
	Use:   "update <position>",
	Short: "Rename or redescribe the module at a position",
	Long: `Update the module at a 1-based position. Fields that are not given keep their value.

Examples:
  delphi module update 2 --name "Sign up" --description "Account creation"`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		position, err := parsePosition(args[0])
		if err != nil {
			contract.LogFatal("Cannot update module", err)
		}

		engine, err := core.EngineFromConfig(cfg, storeManager)
		if err != nil {
			contract.LogFatal("Cannot update module", err)
		}
		modules, err := engine.ListModules(rootCtx)
		if err != nil {
			contract.LogFatal("Cannot update module", err)
		}
		var m schema.Module
		if position <= len(modules) {
			m = modules[position-1]
		}
		if name, _ := cmd.Flags().GetString("name"); name != "" {
			m.Name = name
		}
		if cmd.Flags().Changed("description") {
			m.Description, _ = cmd.Flags().GetString("description")
		}

		if err := core.ExecuteModuleUpdate(rootCtx, cfg, storeManager, position, m); err != nil {
			contract.LogFatal("Cannot update module", err)
		}
	},
}

// moduleRemoveCmd deletes the module at a position.
var moduleRemoveCmd = &cobra.Command{
	Use:     "remove <position>",
	Short:   "Delete the module at a position",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		position, err := parsePosition(args[0])
		if err != nil {
			contract.LogFatal("Cannot remove module", err)
		}
		if err := core.ExecuteModuleRemove(rootCtx, cfg, storeManager, position); err != nil {
			contract.LogFatal("Cannot remove module", err)
		}
	},
}
