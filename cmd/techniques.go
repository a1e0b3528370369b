package cmd

import (
	"github.com/huangsam/delphi/core"
	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
	"github.com/spf13/cobra"
)

// pertCmd runs a three-point estimate.
var pertCmd = &cobra.Command{
	Use:   "pert <tasks-file>",
	Short: "Estimate a task list with the PERT three-point technique.",
	Long: `Estimate each subtask as (optimistic + 4 × most likely + pessimistic) / 6 and sum them per task.

The tasks file is YAML or JSON:

  tasks:
    - name: Login
      subtasks:
        - {name: form, optimistic: 1, most_likely: 2, pessimistic: 3}

Examples:
  delphi pert tasks.yaml
  delphi pert tasks.yaml --output csv --output-file pert.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: offlineSetup,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecutePERT(rootCtx, cfg, args[0]); err != nil {
			contract.LogFatal("Cannot run PERT estimate", err)
		}
	},
}

// cocomoCmd runs an intermediate COCOMO-I estimate.
var cocomoCmd = &cobra.Command{
	Use:   "cocomo",
	Short: "Estimate effort, schedule and cost with intermediate COCOMO-I.",
	Long: `Compute effort = a × KLOC^b × EAF person-months, development time and cost.

The effort adjustment factor (EAF) multiplies the fifteen cost drivers. Drivers that are
not given are rated nominal. Ratings: very_low, low, nominal, high, very_high, extra_high.

Examples:
  delphi cocomo --kloc 12 --class semidetached
  delphi cocomo --sloc 8000 --driver complexity=high,analyst=vh --labor-rate 9500`,
	PreRunE: offlineSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		kloc, _ := cmd.Flags().GetFloat64("kloc")
		sloc, _ := cmd.Flags().GetFloat64("sloc")
		class, _ := cmd.Flags().GetString("class")
		laborRate, _ := cmd.Flags().GetFloat64("labor-rate")
		drivers, _ := cmd.Flags().GetStringToString("driver")

		cocomoClass, err := schema.ParseCocomoClass(class)
		if err != nil {
			contract.LogFatal("Cannot run COCOMO estimate", err)
		}

		in := schema.CocomoInput{
			KLOC:      kloc,
			SLOC:      sloc,
			Class:     cocomoClass,
			Drivers:   drivers,
			LaborRate: laborRate,
		}
		if err := core.ExecuteCocomo(rootCtx, cfg, in); err != nil {
			contract.LogFatal("Cannot run COCOMO estimate", err)
		}
	},
}

// fpaCmd runs a function point analysis.
var fpaCmd = &cobra.Command{
	Use:   "fpa",
	Short: "Size a system with function point analysis.",
	Long: `Weight the counts of inputs, outputs, inquiries, files and interfaces to get unadjusted
function points (UFP), then adjust them with the value adjustment factor 0.65 + 0.01 × DI.

DI is the sum of the 14 general system characteristic ratings (0-5). Ratings that are not
given count as 0.

Examples:
  delphi fpa --inputs 10 --outputs 7 --inquiries 5 --files 4 --interfaces 2
  delphi fpa --inputs 10 --files 4 --complexity complex --gsc 3,3,4,5,2,3,3,1,0,4,2,3,3,5`,
	PreRunE: offlineSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		flags := cmd.Flags()
		inputs, _ := flags.GetInt("inputs")
		outputs, _ := flags.GetInt("outputs")
		inquiries, _ := flags.GetInt("inquiries")
		files, _ := flags.GetInt("files")
		interfaces, _ := flags.GetInt("interfaces")
		complexity, _ := flags.GetString("complexity")
		gsc, _ := flags.GetIntSlice("gsc")

		fpComplexity, err := schema.ParseFPComplexity(complexity)
		if err != nil {
			contract.LogFatal("Cannot run function point analysis", err)
		}

		in := schema.FPAInput{
			Inputs:          inputs,
			Outputs:         outputs,
			Inquiries:       inquiries,
			Files:           files,
			Interfaces:      interfaces,
			Complexity:      fpComplexity,
			Characteristics: gsc,
		}
		if err := core.ExecuteFPA(rootCtx, cfg, in); err != nil {
			contract.LogFatal("Cannot run function point analysis", err)
		}
	},
}

// cocomo2Cmd runs a COCOMO II estimate.
var cocomo2Cmd = &cobra.Command{
	Use:   "cocomo2 <input-file>",
	Short: "Estimate effort and schedule with COCOMO II.",
	Long: `Compute the early design estimate from function points and the application
composition estimate from object points.

Early design: KSLOC = UFP × 53.1 / 1000, effort = 2.45 × EAF × KSLOC^P with
P = 1.01 + 0.01 × ΣSF, and time = 3 × effort^(0.33 + 0.2 × (P − 1.01)).
Application composition: effort = object points × (100 − reuse%) / 100 / productivity.

The input file is YAML or JSON:

  functions:            # counts per complexity cell, rows and columns simple to complex
    ei: [[1, 0, 0], [0, 2, 0]]
    ilf: [[0, 0, 1]]
  characteristics: [3, 3, 4]
  scale_factors: {prec: n, flex: h, resl: n, team: vh, pmat: l}
  effort_multipliers: {pers: h, rcpx: n, ruse: n, pdif: n, fcil: n, sced: n, prex: h}
  composition: {reuse_percent: 20, productivity: 100, simple_screens: 2, modules: 1}

Examples:
  delphi cocomo2 cocomo2.yaml
  delphi cocomo2 cocomo2.yaml --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: offlineSetup,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteCocomo2(rootCtx, cfg, args[0]); err != nil {
			contract.LogFatal("Cannot run COCOMO II estimate", err)
		}
	},
}
