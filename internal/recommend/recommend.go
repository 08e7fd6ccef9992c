// internal/recommend/recommend.go

// Package recommend ranks models for a task category using the accumulated
// result log. The composite score blends accuracy, latency and consistency
// across complete batches.
package recommend

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"driftmon/internal/appconfig"
	"driftmon/internal/results"
	"driftmon/internal/suite"
)

// Composite score weights. Accuracy dominates; latency and consistency break
// ties between comparable models.
const (
	weightAccuracy    = 0.6
	weightLatency     = 0.2
	weightConsistency = 0.2
)

// Confidence labels for a recommendation.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// ModelScore is one model's standing for a task category.
type ModelScore struct {
	ModelID       string  `json:"modelId"`
	Name          string  `json:"name"`
	Batches       int     `json:"batches"`
	Accuracy      float64 `json:"accuracy"`
	MeanLatencyMs float64 `json:"meanLatencyMs"`
	// Consistency is 1 minus the coefficient of variation of the per-batch
	// accuracy means: 1 is perfectly stable, 0 is wildly variable.
	Consistency float64 `json:"consistency"`
	Composite   float64 `json:"composite"`
}

// Recommendation is the ranked answer for one task category.
type Recommendation struct {
	Task         string       `json:"task"`
	Best         ModelScore   `json:"best"`
	Alternatives []ModelScore `json:"alternatives,omitempty"`
	Confidence   string       `json:"confidence"`
}

// Recommend ranks the enabled models for a task category. Models with no
// complete batches containing the category are left out; an empty field is
// an error the caller reports rather than a zero-scored winner.
func Recommend(batches []results.Batch, models []appconfig.Model, caseIDs []string, task string) (Recommendation, error) {
	if !suite.ValidCategory(task) {
		return Recommendation{}, fmt.Errorf("unknown task category %q", task)
	}

	var scores []ModelScore
	for _, model := range models {
		if !model.Enabled {
			continue
		}
		score, ok := scoreModel(batches, model, caseIDs, task)
		if ok {
			scores = append(scores, score)
		}
	}
	if len(scores) == 0 {
		return Recommendation{}, fmt.Errorf("no recorded results for category %q", task)
	}

	composite(scores)
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Composite > scores[j].Composite })

	rec := Recommendation{
		Task:       task,
		Best:       scores[0],
		Confidence: confidence(scores),
	}
	if len(scores) > 1 {
		rec.Alternatives = scores[1:]
	}
	return rec, nil
}

func scoreModel(batches []results.Batch, model appconfig.Model, caseIDs []string, task string) (ModelScore, bool) {
	var batchMeans []float64
	var latencySum int64
	var latencyRows int

	for _, b := range batches {
		if !b.Complete(model.ID, caseIDs) {
			continue
		}
		var sum float64
		var n int
		for _, row := range b.ModelResults(model.ID) {
			if row.Category != task {
				continue
			}
			latencySum += row.LatencyMs
			latencyRows++
			if row.Scored() {
				sum += row.Score
				n++
			}
		}
		if n > 0 {
			batchMeans = append(batchMeans, sum/float64(n))
		}
	}
	if len(batchMeans) == 0 {
		return ModelScore{}, false
	}

	score := ModelScore{
		ModelID:  model.ID,
		Name:     model.Name,
		Batches:  len(batchMeans),
		Accuracy: stat.Mean(batchMeans, nil),
	}
	if latencyRows > 0 {
		score.MeanLatencyMs = float64(latencySum) / float64(latencyRows)
	}
	score.Consistency = consistency(batchMeans)
	return score, true
}

// consistency maps per-batch variation into [0, 1].
func consistency(means []float64) float64 {
	if len(means) < 2 {
		return 1
	}
	mean := stat.Mean(means, nil)
	if mean == 0 {
		return 0
	}
	std := math.Sqrt(stat.Variance(means, nil))
	c := 1 - std/mean
	if c < 0 {
		return 0
	}
	return c
}

// composite blends the three signals. Latency is scored relative to the
// fastest candidate so the units cancel.
func composite(scores []ModelScore) {
	fastest := math.Inf(1)
	for _, s := range scores {
		if s.MeanLatencyMs > 0 && s.MeanLatencyMs < fastest {
			fastest = s.MeanLatencyMs
		}
	}
	for i := range scores {
		latencyScore := 1.0
		if !math.IsInf(fastest, 1) && scores[i].MeanLatencyMs > 0 {
			latencyScore = fastest / scores[i].MeanLatencyMs
		}
		scores[i].Composite = weightAccuracy*scores[i].Accuracy +
			weightLatency*latencyScore +
			weightConsistency*scores[i].Consistency
	}
}

func confidence(scores []ModelScore) string {
	best := scores[0]
	lead := 1.0
	if len(scores) > 1 {
		lead = best.Composite - scores[1].Composite
	}
	switch {
	case best.Accuracy >= 0.8 && (lead >= 0.05 || len(scores) == 1):
		return ConfidenceHigh
	case best.Accuracy >= 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
