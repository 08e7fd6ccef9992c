// internal/drift/drift.go

// Package drift detects accuracy drift in the accumulated result log. It
// partitions each model's complete batches into a baseline window and a
// current window, then compares the per-batch accuracy means with Welch's
// t-test and Cohen's d.
package drift

import (
	"fmt"
	"math"
	"time"

	"driftmon/internal/results"
	"driftmon/internal/stats"
)

// Severity bands for a detected drift, keyed off |d|.
const (
	SeverityNone     = "none"
	SeverityMinor    = "minor"
	SeverityModerate = "moderate"
	SeverityMajor    = "major"
)

// Drift directions.
const (
	DirectionStable      = "stable"
	DirectionImprovement = "improvement"
	DirectionDegradation = "degradation"
)

// Window sizes used when only one of the two is given explicitly.
const (
	DefaultBaselineBatches = 7
	DefaultCurrentBatches  = 3
)

// Options control the windowing and thresholds of a drift analysis.
type Options struct {
	// BaselineBatches and CurrentBatches fix the window sizes. When both are
	// zero the model's complete batches are split half and half by run index;
	// when only one is set the other falls back to its default.
	BaselineBatches int
	CurrentBatches  int
	// Alpha is the significance level; MinEffect the smallest |d| that counts
	// as drift. Both must be positive.
	Alpha     float64
	MinEffect float64
}

// ModelDrift is the drift verdict for one model.
type ModelDrift struct {
	ModelID    string        `json:"modelId"`
	Baseline   stats.Summary `json:"baseline"`
	Current    stats.Summary `json:"current"`
	Test       stats.TTest   `json:"test"`
	EffectSize float64       `json:"effectSize"`
	Drifted    bool          `json:"drifted"`
	Severity   string        `json:"severity"`
	Direction  string        `json:"direction"`
	ChangePct  float64       `json:"changePct"`
}

// Skip records a model that could not be analyzed, with the reason.
type Skip struct {
	ModelID string `json:"modelId"`
	Reason  string `json:"reason"`
}

// Report is the outcome of one drift analysis across all requested models.
type Report struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Alpha       float64      `json:"alpha"`
	MinEffect   float64      `json:"minEffect"`
	Models      []ModelDrift `json:"models"`
	Skipped     []Skip       `json:"skipped,omitempty"`
}

// Detect runs the drift analysis for each model ID over the given batches.
// Models without enough complete batches are reported under Skipped rather
// than failing the whole analysis. The analysis is deterministic: the same
// stored batches always produce the same report.
func Detect(batches []results.Batch, modelIDs []string, caseIDs []string, opts Options, now time.Time) (Report, error) {
	if opts.Alpha <= 0 || opts.MinEffect <= 0 {
		return Report{}, fmt.Errorf("drift thresholds must be positive, got alpha=%v minEffect=%v", opts.Alpha, opts.MinEffect)
	}

	report := Report{GeneratedAt: now, Alpha: opts.Alpha, MinEffect: opts.MinEffect}
	for _, modelID := range modelIDs {
		means := batchMeans(batches, modelID, caseIDs)
		baseline, current, reason := split(means, opts)
		if reason != "" {
			report.Skipped = append(report.Skipped, Skip{ModelID: modelID, Reason: reason})
			continue
		}
		verdict, err := compare(modelID, baseline, current, opts)
		if err != nil {
			return Report{}, err
		}
		report.Models = append(report.Models, verdict)
	}
	return report, nil
}

// ComparePeriods runs the same test between two explicit date windows instead
// of a run-index split. Window bounds are inclusive of the start and
// exclusive of the end.
func ComparePeriods(batches []results.Batch, modelIDs []string, caseIDs []string, p1Start, p1End, p2Start, p2End time.Time, opts Options, now time.Time) (Report, error) {
	if opts.Alpha <= 0 || opts.MinEffect <= 0 {
		return Report{}, fmt.Errorf("drift thresholds must be positive, got alpha=%v minEffect=%v", opts.Alpha, opts.MinEffect)
	}
	if !p1End.After(p1Start) || !p2End.After(p2Start) {
		return Report{}, fmt.Errorf("each period must end after it starts")
	}

	report := Report{GeneratedAt: now, Alpha: opts.Alpha, MinEffect: opts.MinEffect}
	for _, modelID := range modelIDs {
		first := windowMeans(batches, modelID, caseIDs, p1Start, p1End)
		second := windowMeans(batches, modelID, caseIDs, p2Start, p2End)
		if len(first) < 2 || len(second) < 2 {
			report.Skipped = append(report.Skipped, Skip{
				ModelID: modelID,
				Reason:  fmt.Sprintf("need at least 2 complete batches per period, got %d and %d", len(first), len(second)),
			})
			continue
		}
		verdict, err := compare(modelID, first, second, opts)
		if err != nil {
			return Report{}, err
		}
		report.Models = append(report.Models, verdict)
	}
	return report, nil
}

// batchMeans returns the per-batch accuracy means for one model, ordered by
// run index, restricted to batches where the model completed every case.
func batchMeans(batches []results.Batch, modelID string, caseIDs []string) []float64 {
	var means []float64
	for _, b := range batches {
		if !b.Complete(modelID, caseIDs) {
			continue
		}
		if mean := b.AccuracyMean(modelID); mean != nil {
			means = append(means, *mean)
		}
	}
	return means
}

func windowMeans(batches []results.Batch, modelID string, caseIDs []string, start, end time.Time) []float64 {
	var means []float64
	for _, b := range batches {
		if b.Started.Before(start) || !b.Started.Before(end) {
			continue
		}
		if !b.Complete(modelID, caseIDs) {
			continue
		}
		if mean := b.AccuracyMean(modelID); mean != nil {
			means = append(means, *mean)
		}
	}
	return means
}

// split partitions the ordered batch means into baseline and current windows.
// A non-empty reason means the model cannot be analyzed.
func split(means []float64, opts Options) (baseline, current []float64, reason string) {
	if opts.BaselineBatches > 0 || opts.CurrentBatches > 0 {
		n, m := opts.BaselineBatches, opts.CurrentBatches
		if n == 0 {
			n = DefaultBaselineBatches
		}
		if m == 0 {
			m = DefaultCurrentBatches
		}
		if n < 2 || m < 2 {
			return nil, nil, fmt.Sprintf("window sizes must each be at least 2, got baseline=%d current=%d", n, m)
		}
		if len(means) < n+m {
			return nil, nil, fmt.Sprintf("need %d complete batches for the requested windows, got %d", n+m, len(means))
		}
		return means[:n], means[len(means)-m:], ""
	}
	if len(means) < 4 {
		return nil, nil, fmt.Sprintf("need at least 4 complete batches, got %d", len(means))
	}
	half := len(means) / 2
	return means[:half], means[half:], ""
}

func compare(modelID string, baseline, current []float64, opts Options) (ModelDrift, error) {
	baseSummary, err := stats.Describe(baseline)
	if err != nil {
		return ModelDrift{}, fmt.Errorf("describe baseline for %s: %w", modelID, err)
	}
	curSummary, err := stats.Describe(current)
	if err != nil {
		return ModelDrift{}, fmt.Errorf("describe current for %s: %w", modelID, err)
	}
	test, err := stats.WelchTTest(baseline, current)
	if err != nil {
		return ModelDrift{}, fmt.Errorf("t-test for %s: %w", modelID, err)
	}
	d, err := stats.CohensD(baseline, current)
	if err != nil {
		return ModelDrift{}, fmt.Errorf("effect size for %s: %w", modelID, err)
	}

	verdict := ModelDrift{
		ModelID:    modelID,
		Baseline:   baseSummary,
		Current:    curSummary,
		Test:       test,
		EffectSize: d,
		Severity:   SeverityNone,
		Direction:  DirectionStable,
	}
	verdict.Drifted = test.P < opts.Alpha && math.Abs(d) >= opts.MinEffect
	if verdict.Drifted {
		verdict.Severity = severity(d)
	}
	switch {
	case curSummary.Mean > baseSummary.Mean:
		verdict.Direction = DirectionImprovement
	case curSummary.Mean < baseSummary.Mean:
		verdict.Direction = DirectionDegradation
	}
	if baseSummary.Mean != 0 {
		verdict.ChangePct = (curSummary.Mean - baseSummary.Mean) / baseSummary.Mean * 100
	}
	return verdict, nil
}

func severity(d float64) string {
	abs := math.Abs(d)
	switch {
	case abs >= 0.8:
		return SeverityMajor
	case abs >= 0.5:
		return SeverityModerate
	default:
		return SeverityMinor
	}
}
