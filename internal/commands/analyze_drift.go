// internal/commands/analyze_drift.go
package driftmon

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"driftmon/internal/drift"
	"driftmon/internal/util"
)

var (
	driftBaselineN int
	driftCurrentN  int
)

var analyzeDriftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Test each model for accuracy drift",
	Long: `Drift partitions each model's complete batches into a baseline window and
a current window (first half and second half by default), then compares the
per-batch accuracy means with Welch's t-test and Cohen's d.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadAnalysisInputs()
		if err != nil {
			return err
		}

		opts := in.driftOptions()
		opts.BaselineBatches = driftBaselineN
		opts.CurrentBatches = driftCurrentN

		report, err := drift.Detect(in.batches, in.modelIDs(), in.battery.CaseIDs(), opts, time.Now())
		if err != nil {
			return err
		}
		printDriftReport(report, in)
		return nil
	},
}

func printDriftReport(report drift.Report, in analysisInputs) {
	header := color.New(color.FgCyan, color.Bold)
	stable := color.New(color.FgGreen)
	drifted := color.New(color.FgRed, color.Bold)
	dim := color.New(color.FgHiBlack)

	header.Printf("Drift analysis (alpha=%.2f, min |d|=%.2f)\n\n", report.Alpha, report.MinEffect)
	for _, v := range report.Models {
		name := v.ModelID
		if model, ok := in.cfg.ModelByID(v.ModelID); ok {
			name = model.Name
		}
		fmt.Printf("%s: %s -> %s  ", name, util.Percent(v.Baseline.Mean), util.Percent(v.Current.Mean))
		if v.Drifted {
			drifted.Printf("%s %s", v.Severity, v.Direction)
		} else {
			stable.Print("stable")
		}
		fmt.Printf("  (p=%.4f, d=%.2f, %+.1f%%)\n", v.Test.P, v.EffectSize, v.ChangePct)
	}
	for _, s := range report.Skipped {
		dim.Printf("%s: skipped (%s)\n", s.ModelID, s.Reason)
	}
}

func init() {
	analyzeDriftCmd.Flags().IntVar(&driftBaselineN, "baseline", 0, "baseline window size in batches (0 with --current set = 7, otherwise half of the log)")
	analyzeDriftCmd.Flags().IntVar(&driftCurrentN, "current", 0, "current window size in batches (0 with --baseline set = 3, otherwise half of the log)")
	analyzeCmd.AddCommand(analyzeDriftCmd)
}
