// internal/commands/analyze.go
package driftmon

import (
	"github.com/spf13/cobra"

	"driftmon/internal/appconfig"
	"driftmon/internal/drift"
	"driftmon/internal/results"
	"driftmon/internal/suite"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the accumulated result log",
}

// analysisInputs bundles what every analyze subcommand needs.
type analysisInputs struct {
	cfg     *appconfig.Config
	battery suite.Battery
	store   *results.Store
	batches []results.Batch
}

func loadAnalysisInputs() (analysisInputs, error) {
	cfg, err := requireModels()
	if err != nil {
		return analysisInputs{}, err
	}
	battery, err := suite.Load()
	if err != nil {
		return analysisInputs{}, err
	}
	store, err := results.NewStore(cfg.DataDirPath())
	if err != nil {
		return analysisInputs{}, err
	}
	batches, err := store.LoadBatches()
	if err != nil {
		return analysisInputs{}, err
	}
	return analysisInputs{cfg: cfg, battery: battery, store: store, batches: batches}, nil
}

func (in analysisInputs) modelIDs() []string {
	var ids []string
	for _, m := range in.cfg.EnabledModels() {
		ids = append(ids, m.ID)
	}
	return ids
}

func (in analysisInputs) driftOptions() drift.Options {
	return drift.Options{
		Alpha:     in.cfg.DriftSignificanceLevel(),
		MinEffect: in.cfg.DriftMinEffectSize(),
	}
}

func categoryNames() []string {
	var names []string
	for _, c := range suite.Categories() {
		names = append(names, string(c))
	}
	return names
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
