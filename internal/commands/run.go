// internal/commands/run.go
package driftmon

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"driftmon/internal/appconfig"
	"driftmon/internal/harness"
	"driftmon/internal/results"
	"driftmon/internal/suite"
	"driftmon/internal/tui"
	"driftmon/internal/util"
)

var (
	runQuick      bool
	runNoSave     bool
	runCategories []string
	runModels     []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark battery against the configured models",
	Long: `Run sends every test case to every enabled model, grades the responses
and appends one result row per pair to the store. Provider errors, timeouts
and refusals are recorded as rows, never dropped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireModels()
		if err != nil {
			return err
		}
		if err := appconfig.LoadCredentials(*cfg); err != nil {
			return err
		}

		battery, err := suite.Load()
		if err != nil {
			return err
		}
		store, err := results.NewStore(cfg.DataDirPath())
		if err != nil {
			return err
		}

		runner := harness.New(cfg, battery, store)
		opts := harness.Options{
			Quick:      runQuick,
			NoSave:     runNoSave,
			Categories: runCategories,
			ModelIDs:   runModels,
		}

		events := make(chan harness.Event, 64)
		opts.Events = events

		type runOutcome struct {
			summary harness.Summary
			err     error
		}
		outcome := make(chan runOutcome, 1)
		go func() {
			s, err := runner.Run(cmd.Context(), opts)
			outcome <- runOutcome{s, err}
		}()

		if tui.Interactive() {
			if err := tui.ShowProgress(events); err != nil {
				// The runner still owns the channel; keep consuming until it
				// closes so the goroutine is never left blocked on a send.
				drainEvents(events)
				<-outcome
				return err
			}
		} else {
			tui.LogProgress(events, os.Stdout)
		}

		res := <-outcome
		if res.err != nil {
			return res.err
		}
		printRunSummary(res.summary)
		return nil
	},
}

func drainEvents(events <-chan harness.Event) {
	for range events {
	}
}

func printRunSummary(s harness.Summary) {
	header := color.New(color.FgCyan, color.Bold)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	if s.Saved {
		header.Printf("\nRun %s (batch #%d)\n", s.RunID, s.RunIndex)
	} else {
		header.Printf("\nRun %s (not saved)\n", s.RunID)
	}
	for _, m := range s.Models {
		fmt.Printf("  %-24s %s  (%d ok, %d blocked, %d errors, %d timeouts)  %.0fms avg  %s\n",
			m.Name,
			util.Percent(m.MeanScore),
			m.OK, m.Blocked, m.Errors, m.Timeouts,
			float64(m.MeanLatencyMs),
			util.USD(m.TotalCostUSD))
		if m.Errors+m.Timeouts > 0 {
			bad.Printf("    %d pairs failed; see the log for details\n", m.Errors+m.Timeouts)
		} else {
			good.Printf("    all %d pairs completed\n", m.Total)
		}
	}
}

func init() {
	runCmd.Flags().BoolVar(&runQuick, "quick", false, "run a small subset to verify setup (implies no save)")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "do not append results to the store")
	runCmd.Flags().StringSliceVar(&runCategories, "category", nil, "restrict to one or more categories")
	runCmd.Flags().StringSliceVar(&runModels, "model", nil, "restrict to one or more model IDs")
	rootCmd.AddCommand(runCmd)
}
