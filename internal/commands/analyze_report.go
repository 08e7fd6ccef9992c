// internal/commands/analyze_report.go
package driftmon

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"driftmon/internal/drift"
	"driftmon/internal/logging"
	"driftmon/internal/report"
	"driftmon/internal/util"
)

var reportNoWrite bool

var analyzeReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the per-model accuracy report",
	Long: `Report aggregates complete batches into per-model, per-category accuracy
with latency, cost, cost-efficiency ranking and drift flags. The report is
printed as a table and written as JSON and Markdown under the data directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadAnalysisInputs()
		if err != nil {
			return err
		}

		driftReport, err := drift.Detect(in.batches, in.modelIDs(), in.battery.CaseIDs(), in.driftOptions(), time.Now())
		if err != nil {
			return err
		}
		r := report.Build(in.batches, in.cfg.Models, in.battery.CaseIDs(), categoryNames(), &driftReport, time.Now())

		fmt.Println(report.RenderTable(r))

		if reportNoWrite {
			return nil
		}
		stamp := r.GeneratedAt.Format("20060102_150405")
		dir := filepath.Join(in.cfg.DataDirPath(), "analysis")
		payload, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		jsonPath := filepath.Join(dir, fmt.Sprintf("report_%s.json", stamp))
		if err := util.WriteFile(jsonPath, payload); err != nil {
			return err
		}
		mdPath := filepath.Join(dir, fmt.Sprintf("report_%s.md", stamp))
		if err := util.WriteFile(mdPath, []byte(report.RenderMarkdown(r))); err != nil {
			return err
		}
		logging.LogEvent("Wrote analysis report to %s and %s", jsonPath, mdPath)
		fmt.Printf("Wrote %s and %s\n", jsonPath, mdPath)
		return nil
	},
}

func init() {
	analyzeReportCmd.Flags().BoolVar(&reportNoWrite, "no-write", false, "print the table without writing analysis files")
	analyzeCmd.AddCommand(analyzeReportCmd)
}
