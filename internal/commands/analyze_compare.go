// internal/commands/analyze_compare.go
package driftmon

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"driftmon/internal/drift"
)

const compareDateLayout = "2006-01-02"

var analyzeCompareCmd = &cobra.Command{
	Use:   "compare P1_START P1_END P2_START P2_END",
	Short: "Compare accuracy between two date windows",
	Long: `Compare runs the drift test between two explicit periods instead of a
run-index split. Dates are YYYY-MM-DD; each window includes its start and end
day.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		windows, err := parseCompareWindows(args)
		if err != nil {
			return err
		}

		in, err := loadAnalysisInputs()
		if err != nil {
			return err
		}
		report, err := drift.ComparePeriods(in.batches, in.modelIDs(), in.battery.CaseIDs(),
			windows[0], windows[1], windows[2], windows[3], in.driftOptions(), time.Now())
		if err != nil {
			return err
		}
		printDriftReport(report, in)
		return nil
	},
}

// parseCompareWindows turns four YYYY-MM-DD arguments into two half-open
// windows; the end day is included by extending each end bound a day.
func parseCompareWindows(args []string) ([4]time.Time, error) {
	var out [4]time.Time
	for i, raw := range args {
		t, err := time.Parse(compareDateLayout, raw)
		if err != nil {
			return out, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", raw)
		}
		out[i] = t
	}
	out[1] = out[1].AddDate(0, 0, 1)
	out[3] = out[3].AddDate(0, 0, 1)
	if !out[1].After(out[0]) || !out[3].After(out[2]) {
		return out, fmt.Errorf("each period must end on or after its start")
	}
	return out, nil
}

func init() {
	analyzeCmd.AddCommand(analyzeCompareCmd)
}
