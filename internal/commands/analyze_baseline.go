// internal/commands/analyze_baseline.go
package driftmon

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"driftmon/internal/drift"
	"driftmon/internal/util"
)

var baselineWindow int

var analyzeBaselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Describe each model's baseline accuracy",
	Long: `Baseline computes descriptive statistics (mean, sample standard deviation,
95% confidence interval) over the first complete batches per model, overall
and per category.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadAnalysisInputs()
		if err != nil {
			return err
		}
		report, err := drift.Baseline(in.batches, in.modelIDs(), in.battery.CaseIDs(), baselineWindow, time.Now())
		if err != nil {
			return err
		}

		header := color.New(color.FgCyan, color.Bold)
		dim := color.New(color.FgHiBlack)

		header.Printf("Baseline over the first %d complete batches\n\n", baselineWindow)
		for _, mb := range report.Models {
			name := mb.ModelID
			if model, ok := in.cfg.ModelByID(mb.ModelID); ok {
				name = model.Name
			}
			fmt.Printf("%s (%d batches, %s to %s)\n", name, mb.Batches, mb.FirstRun, mb.LastRun)
			fmt.Printf("  overall: %s +/- %.3f  (95%% CI %s to %s)\n",
				util.Percent(mb.Overall.Mean), mb.Overall.Std,
				util.Percent(mb.Overall.CILow), util.Percent(mb.Overall.CIHigh))

			categories := make([]string, 0, len(mb.Categories))
			for category := range mb.Categories {
				categories = append(categories, category)
			}
			sort.Strings(categories)
			for _, category := range categories {
				s := mb.Categories[category]
				fmt.Printf("  %-22s %s +/- %.3f\n", category+":", util.Percent(s.Mean), s.Std)
			}
		}
		for _, s := range report.Skipped {
			dim.Printf("%s: skipped (%s)\n", s.ModelID, s.Reason)
		}
		return nil
	},
}

func init() {
	analyzeBaselineCmd.Flags().IntVar(&baselineWindow, "window", 7, "number of leading complete batches (0 = all)")
	analyzeCmd.AddCommand(analyzeBaselineCmd)
}
