package cmd

import (
	"github.com/huangsam/delphi/core"
	"github.com/huangsam/delphi/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Delphi MCP server",
	Long: `Launch an MCP server over stdio so AI agents can submit rounds and read
aggregates and final statistics of the configured project.

Logs go to stderr so stdout stays reserved for the protocol.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		engine, err := core.EngineFromConfig(cfg, storeManager)
		if err != nil {
			return err
		}
		return mcp.StartMCPServer(rootCtx, cfg, engine)
	},
}
