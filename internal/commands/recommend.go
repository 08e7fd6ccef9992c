// internal/commands/recommend.go
package driftmon

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"driftmon/internal/recommend"
	"driftmon/internal/util"
)

var recommendTask string

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend the best model per task category",
	Long: `Recommend ranks the models for a task category by blending accuracy,
latency and run-to-run consistency over the result log. Without --task it
covers every category.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadAnalysisInputs()
		if err != nil {
			return err
		}

		tasks := []string{recommendTask}
		if recommendTask == "" {
			tasks = categoryNames()
		}

		dim := color.New(color.FgHiBlack)
		for _, task := range tasks {
			rec, err := recommend.Recommend(in.batches, in.cfg.Models, in.battery.CaseIDs(), task)
			if err != nil {
				if recommendTask != "" {
					return err
				}
				dim.Printf("%s: %v\n", task, err)
				continue
			}
			printRecommendation(rec)
		}
		return nil
	},
}

func printRecommendation(rec recommend.Recommendation) {
	header := color.New(color.FgCyan, color.Bold)
	best := color.New(color.FgGreen, color.Bold)

	header.Printf("%s: ", rec.Task)
	best.Printf("%s", rec.Best.Name)
	fmt.Printf("  (%s accuracy, %.0fms, %s confidence)\n",
		util.Percent(rec.Best.Accuracy), rec.Best.MeanLatencyMs, rec.Confidence)
	for _, alt := range rec.Alternatives {
		fmt.Printf("  also: %-24s %s accuracy, %.0fms\n", alt.Name, util.Percent(alt.Accuracy), alt.MeanLatencyMs)
	}
}

func init() {
	recommendCmd.Flags().StringVar(&recommendTask, "task", "", "task category (default: all categories)")
	rootCmd.AddCommand(recommendCmd)
}
