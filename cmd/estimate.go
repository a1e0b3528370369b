package cmd

import (
	"github.com/huangsam/delphi/core"
	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
	"github.com/spf13/cobra"
)

// submitCmd records one round of estimates for an estimator.
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit one round of estimates for an estimator.",
	Long: `Record an estimator's estimates for one round, one number per module.

Rounds must be submitted in order: Round 2 needs Round 1 and Round 3 needs Round 2.
Estimator names are matched without regard to case or surrounding spaces.
Replacing a Round 1 submission needs --overwrite and clears Rounds 2 and 3.

Examples:
  # First round for two modules
  delphi submit --estimator Alice --round 1 --estimates "3,5"

  # Second round after the team discussed Round 1
  delphi submit -e Alice -r 2 --estimates "4,5"

  # Replace a first round submission
  delphi submit -e Alice -r 1 --estimates "2,5" --overwrite`,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		estimator, _ := cmd.Flags().GetString("estimator")
		round, _ := cmd.Flags().GetInt("round")
		estimates, _ := cmd.Flags().GetString("estimates")
		overwrite, _ := cmd.Flags().GetBool("overwrite")

		sub := schema.Submission{
			EstimatorName: estimator,
			Round:         schema.Round(round),
			Estimates:     contract.ParseEstimates(estimates),
			Overwrite:     overwrite,
		}
		if err := core.ExecuteSubmit(rootCtx, cfg, storeManager, sub); err != nil {
			contract.LogFatal("Cannot submit estimates", err)
		}
	},
}

// roundCmd shows the state of the estimation at a round boundary.
var roundCmd = &cobra.Command{
	Use:   "round <1|2|3>",
	Short: "Show the estimates visible at a round.",
	Long: `Show every module with each estimator's estimates for rounds 1 through n,
the per-estimator totals and the average of each round.

A round an estimator has not submitted yet shows as Pending.

Examples:
  # What the team sees before discussing Round 1
  delphi round 1

  # Export the Round 2 view for a spreadsheet
  delphi round 2 --output xlsx --output-file round2.xlsx`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		n, err := schema.ParseRound(args[0])
		if err != nil {
			contract.LogFatal("Cannot show round", err)
		}
		if err := core.ExecuteRound(rootCtx, cfg, storeManager, n); err != nil {
			contract.LogFatal("Cannot show round", err)
		}
	},
}

// estimatorsCmd lists estimators and where each stands.
var estimatorsCmd = &cobra.Command{
	Use:   "estimators",
	Short: "List the estimators eligible for a round.",
	Long: `List the estimators who may submit a round, with the rounds they already submitted.

Round 1 lists everyone who has submitted anything. Later rounds list only the
estimators who submitted the previous round.

Examples:
  # Who still has to submit Round 3
  delphi estimators --round 3`,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		round, _ := cmd.Flags().GetInt("round")
		if err := core.ExecuteEstimators(rootCtx, cfg, storeManager, schema.Round(round)); err != nil {
			contract.LogFatal("Cannot list estimators", err)
		}
	},
}

// reportCmd computes the final statistics.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute the final estimate with its confidence interval.",
	Long: `Show the Round 3 view followed by the final statistics.

The combined effort of each estimator is the sum of their round totals. The report
shows the mean effort, the sample standard deviation, the standard error and the
confidence interval mean ± z·SE. At least two estimators with data are needed for
an interval; otherwise it shows as insufficient data.

Stats modes:
  historical - mean is the sum of the round averages (default)
  corrected  - mean is the average of the combined efforts

Examples:
  # Default 95% interval
  delphi report

  # 90% interval with the corrected mean, as JSON
  delphi report --confidence 90 --stats-mode corrected --output json

  # Keep a record of every report in a history database
  delphi report --history-backend sqlite`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteReport(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot compute report", err)
		}
	},
}
