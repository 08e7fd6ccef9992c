// internal/drift/baseline.go

package drift

import (
	"fmt"
	"sort"
	"time"

	"driftmon/internal/results"
	"driftmon/internal/stats"
)

// ModelBaseline holds the descriptive statistics for one model over its
// baseline window, overall and per category.
type ModelBaseline struct {
	ModelID    string                   `json:"modelId"`
	Batches    int                      `json:"batches"`
	FirstRun   string                   `json:"firstRun"`
	LastRun    string                   `json:"lastRun"`
	Overall    stats.Summary            `json:"overall"`
	Categories map[string]stats.Summary `json:"categories"`
}

// BaselineReport covers all models that had enough complete batches.
type BaselineReport struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Window      int             `json:"window"`
	Models      []ModelBaseline `json:"models"`
	Skipped     []Skip          `json:"skipped,omitempty"`
}

// Baseline computes descriptive statistics over the first window complete
// batches per model. A window of 0 uses every complete batch.
func Baseline(batches []results.Batch, modelIDs []string, caseIDs []string, window int, now time.Time) (BaselineReport, error) {
	if window < 0 {
		return BaselineReport{}, fmt.Errorf("baseline window must not be negative, got %d", window)
	}

	report := BaselineReport{GeneratedAt: now, Window: window}
	for _, modelID := range modelIDs {
		var complete []results.Batch
		for _, b := range batches {
			if b.Complete(modelID, caseIDs) {
				complete = append(complete, b)
			}
		}
		if window > 0 && len(complete) > window {
			complete = complete[:window]
		}
		if len(complete) < 2 {
			report.Skipped = append(report.Skipped, Skip{
				ModelID: modelID,
				Reason:  fmt.Sprintf("need at least 2 complete batches, got %d", len(complete)),
			})
			continue
		}

		mb := ModelBaseline{
			ModelID:    modelID,
			Batches:    len(complete),
			FirstRun:   complete[0].RunID,
			LastRun:    complete[len(complete)-1].RunID,
			Categories: map[string]stats.Summary{},
		}

		var overall []float64
		perCategory := map[string][]float64{}
		for _, b := range complete {
			if mean := b.AccuracyMean(modelID); mean != nil {
				overall = append(overall, *mean)
			}
			for category, mean := range categoryMeans(b, modelID) {
				perCategory[category] = append(perCategory[category], mean)
			}
		}

		summary, err := stats.Describe(overall)
		if err != nil {
			return BaselineReport{}, fmt.Errorf("describe baseline for %s: %w", modelID, err)
		}
		mb.Overall = summary

		categories := make([]string, 0, len(perCategory))
		for category := range perCategory {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			summary, err := stats.Describe(perCategory[category])
			if err != nil {
				return BaselineReport{}, fmt.Errorf("describe %s/%s: %w", modelID, category, err)
			}
			mb.Categories[category] = summary
		}

		report.Models = append(report.Models, mb)
	}
	return report, nil
}

// categoryMeans returns the model's mean score per category for one batch,
// over scored rows only.
func categoryMeans(b results.Batch, modelID string) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, r := range b.Results {
		if r.ModelID != modelID || !r.Scored() {
			continue
		}
		sums[r.Category] += r.Score
		counts[r.Category]++
	}
	means := make(map[string]float64, len(sums))
	for category, sum := range sums {
		means[category] = sum / float64(counts[category])
	}
	return means
}
