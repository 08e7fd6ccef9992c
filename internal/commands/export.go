// internal/commands/export.go
package driftmon

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"driftmon/internal/results"
)

var exportCSVPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the result log as CSV",
	Long:  `Export flattens every stored result into one CSV row per model/test pair.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportCSVPath == "" {
			return fmt.Errorf("--csv PATH is required")
		}
		in, err := loadAnalysisInputs()
		if err != nil {
			return err
		}

		file, err := os.Create(exportCSVPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportCSVPath, err)
		}
		defer file.Close()

		n, err := writeCSV(file, in.batches)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d rows to %s\n", n, exportCSVPath)
		return nil
	},
}

var csvHeader = []string{
	"run_id", "run_index", "model_id", "test_id", "category", "timestamp",
	"status", "score", "latency_ms", "input_tokens", "output_tokens",
	"cost_usd", "attempts", "error",
}

// writeCSV flattens the batches into CSV rows and returns the row count.
func writeCSV(out io.Writer, batches []results.Batch) (int, error) {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	n := 0
	for _, b := range batches {
		for _, r := range b.Results {
			record := []string{
				r.RunID,
				strconv.Itoa(r.RunIndex),
				r.ModelID,
				r.TestID,
				r.Category,
				r.Timestamp.Format(time.RFC3339),
				r.Status,
				strconv.FormatFloat(r.Score, 'f', -1, 64),
				strconv.FormatInt(r.LatencyMs, 10),
				strconv.Itoa(r.InputTokens),
				strconv.Itoa(r.OutputTokens),
				strconv.FormatFloat(r.CostUSD, 'f', -1, 64),
				strconv.Itoa(r.Attempts),
				r.Error,
			}
			if err := w.Write(record); err != nil {
				return n, fmt.Errorf("write csv row: %w", err)
			}
			n++
		}
	}
	w.Flush()
	return n, w.Error()
}

func init() {
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "path of the CSV file to write")
	rootCmd.AddCommand(exportCmd)
}
