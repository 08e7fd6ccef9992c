// internal/report/report.go

// Package report aggregates the result log into the per-model accuracy
// report: accuracy by category, latency, cost, cost efficiency and drift
// flags.
package report

import (
	"fmt"
	"sort"
	"time"

	"driftmon/internal/appconfig"
	"driftmon/internal/drift"
	"driftmon/internal/results"
)

// ModelReport aggregates one model across its complete batches.
type ModelReport struct {
	ModelID string `json:"modelId"`
	Name    string `json:"name"`
	// Batches counts the complete batches the aggregates are drawn from.
	Batches int `json:"batches"`
	// Overall and Categories hold mean accuracy over scored rows. A nil
	// value means no data, which is distinct from an accuracy of 0.
	Overall       *float64            `json:"overall"`
	Categories    map[string]*float64 `json:"categories"`
	Blocked       int                 `json:"blocked"`
	MeanLatencyMs float64             `json:"meanLatencyMs"`
	TotalCostUSD  float64             `json:"totalCostUsd"`
	// AccuracyPerDollar is overall accuracy divided by the mean batch cost.
	// Nil when there is no accuracy or no recorded cost.
	AccuracyPerDollar *float64          `json:"accuracyPerDollar"`
	Drift             *drift.ModelDrift `json:"drift,omitempty"`
}

// Report is the full aggregate over the result log.
type Report struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	Runs        int           `json:"runs"`
	FirstRun    string        `json:"firstRun,omitempty"`
	LastRun     string        `json:"lastRun,omitempty"`
	Categories  []string      `json:"categories"`
	Models      []ModelReport `json:"models"`
	// CostRanking lists model IDs by accuracy per dollar, best first.
	CostRanking []string `json:"costRanking"`
}

// Build aggregates the batches into a report. Models are reported in
// configuration order; drift verdicts are attached when a drift report is
// supplied. Models with no complete batches still appear, with nil
// accuracies.
func Build(batches []results.Batch, models []appconfig.Model, caseIDs []string, categories []string, driftReport *drift.Report, now time.Time) Report {
	report := Report{GeneratedAt: now, Runs: len(batches), Categories: categories}
	if len(batches) > 0 {
		report.FirstRun = batches[0].RunID
		report.LastRun = batches[len(batches)-1].RunID
	}

	driftByModel := map[string]*drift.ModelDrift{}
	if driftReport != nil {
		for i := range driftReport.Models {
			driftByModel[driftReport.Models[i].ModelID] = &driftReport.Models[i]
		}
	}

	for _, model := range models {
		if !model.Enabled {
			continue
		}
		mr := buildModel(batches, model, caseIDs, categories)
		mr.Drift = driftByModel[model.ID]
		report.Models = append(report.Models, mr)
	}

	report.CostRanking = rankByEfficiency(report.Models)
	return report
}

func buildModel(batches []results.Batch, model appconfig.Model, caseIDs []string, categories []string) ModelReport {
	mr := ModelReport{
		ModelID:    model.ID,
		Name:       model.Name,
		Categories: map[string]*float64{},
	}

	var scoreSum float64
	var scored int
	catSums := map[string]float64{}
	catCounts := map[string]int{}
	var latencySum int64
	var latencyRows int
	var costPerBatch []float64

	for _, b := range batches {
		if !b.Complete(model.ID, caseIDs) {
			continue
		}
		mr.Batches++
		var batchCost float64
		for _, row := range b.ModelResults(model.ID) {
			batchCost += row.CostUSD
			latencySum += row.LatencyMs
			latencyRows++
			if row.Status == results.StatusBlocked {
				mr.Blocked++
			}
			if !row.Scored() {
				continue
			}
			scoreSum += row.Score
			scored++
			catSums[row.Category] += row.Score
			catCounts[row.Category]++
		}
		costPerBatch = append(costPerBatch, batchCost)
		mr.TotalCostUSD += batchCost
	}

	if scored > 0 {
		overall := scoreSum / float64(scored)
		mr.Overall = &overall
	}
	for _, category := range categories {
		if n := catCounts[category]; n > 0 {
			mean := catSums[category] / float64(n)
			mr.Categories[category] = &mean
		} else {
			mr.Categories[category] = nil
		}
	}
	if latencyRows > 0 {
		mr.MeanLatencyMs = float64(latencySum) / float64(latencyRows)
	}
	if mr.Overall != nil && len(costPerBatch) > 0 {
		meanCost := mr.TotalCostUSD / float64(len(costPerBatch))
		if meanCost > 0 {
			eff := *mr.Overall / meanCost
			mr.AccuracyPerDollar = &eff
		}
	}
	return mr
}

func rankByEfficiency(models []ModelReport) []string {
	type ranked struct {
		id  string
		eff float64
	}
	var rankable []ranked
	for _, m := range models {
		if m.AccuracyPerDollar != nil {
			rankable = append(rankable, ranked{id: m.ModelID, eff: *m.AccuracyPerDollar})
		}
	}
	sort.SliceStable(rankable, func(i, j int) bool { return rankable[i].eff > rankable[j].eff })
	ids := make([]string, 0, len(rankable))
	for _, r := range rankable {
		ids = append(ids, r.id)
	}
	return ids
}

// Timeline is the per-batch accuracy series the dashboard plots.
type Timeline struct {
	Runs   []string              `json:"runs"`
	Series map[string][]*float64 `json:"series"`
	Starts map[string]time.Time  `json:"starts"`
}

// BuildTimeline collects each model's per-batch accuracy mean in run order.
// Batches where a model is incomplete contribute a nil point.
func BuildTimeline(batches []results.Batch, models []appconfig.Model, caseIDs []string) Timeline {
	tl := Timeline{
		Series: map[string][]*float64{},
		Starts: map[string]time.Time{},
	}
	for _, b := range batches {
		tl.Runs = append(tl.Runs, b.RunID)
		tl.Starts[b.RunID] = b.Started
	}
	for _, model := range models {
		if !model.Enabled {
			continue
		}
		points := make([]*float64, 0, len(batches))
		for _, b := range batches {
			if b.Complete(model.ID, caseIDs) {
				points = append(points, b.AccuracyMean(model.ID))
			} else {
				points = append(points, nil)
			}
		}
		tl.Series[model.ID] = points
	}
	return tl
}

// FormatAccuracy renders an optional accuracy for display: a percentage, or
// N/A when there is no data.
func FormatAccuracy(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}
