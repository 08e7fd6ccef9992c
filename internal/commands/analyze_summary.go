// internal/commands/analyze_summary.go
package driftmon

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"driftmon/internal/report"
)

var analyzeSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show run counts and the most recent per-model accuracy",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadAnalysisInputs()
		if err != nil {
			return err
		}

		header := color.New(color.FgCyan, color.Bold)
		if len(in.batches) == 0 {
			header.Println("No runs recorded yet")
			return nil
		}

		first := in.batches[0]
		last := in.batches[len(in.batches)-1]
		header.Printf("%d runs, %s to %s\n\n",
			len(in.batches),
			first.Started.Format("2006-01-02 15:04"),
			last.Started.Format("2006-01-02 15:04"))

		caseIDs := in.battery.CaseIDs()
		for _, model := range in.cfg.EnabledModels() {
			var latest *float64
			var latestRun string
			for i := len(in.batches) - 1; i >= 0; i-- {
				if in.batches[i].Complete(model.ID, caseIDs) {
					latest = in.batches[i].AccuracyMean(model.ID)
					latestRun = in.batches[i].RunID
					break
				}
			}
			if latest == nil {
				fmt.Printf("  %-24s %s\n", model.Name, report.FormatAccuracy(nil))
				continue
			}
			fmt.Printf("  %-24s %s  (latest complete: %s)\n", model.Name, report.FormatAccuracy(latest), latestRun)
		}
		return nil
	},
}

func init() {
	analyzeCmd.AddCommand(analyzeSummaryCmd)
}
