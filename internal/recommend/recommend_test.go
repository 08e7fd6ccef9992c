// internal/recommend/recommend_test.go

package recommend

import (
	"fmt"
	"testing"

	"driftmon/internal/appconfig"
	"driftmon/internal/results"
)

var caseIDs = []string{"math_001", "math_002"}

func testModels() []appconfig.Model {
	return []appconfig.Model{
		{ID: "fast", Name: "Fast Model", Provider: appconfig.ProviderOpenAI, APIModel: "a", Enabled: true},
		{ID: "slow", Name: "Slow Model", Provider: appconfig.ProviderOpenAI, APIModel: "b", Enabled: true},
	}
}

func batchFor(index int, modelID string, score float64, latency int64) results.Batch {
	runID := fmt.Sprintf("run_202608%02d_100000", index)
	b := results.Batch{RunID: runID, Index: index}
	for _, testID := range caseIDs {
		b.Results = append(b.Results, results.TestResult{
			RunID:     runID,
			RunIndex:  index,
			ModelID:   modelID,
			TestID:    testID,
			Category:  "math",
			Score:     score,
			Status:    results.StatusOK,
			LatencyMs: latency,
		})
	}
	return b
}

func merge(a, b results.Batch) results.Batch {
	a.Results = append(a.Results, b.Results...)
	return a
}

func TestRecommendPrefersAccurateModel(t *testing.T) {
	var batches []results.Batch
	for i := 1; i <= 3; i++ {
		batches = append(batches, merge(batchFor(i, "fast", 1.0, 500), batchFor(i, "slow", 0.5, 500)))
	}

	rec, err := Recommend(batches, testModels(), caseIDs, "math")
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if rec.Best.ModelID != "fast" {
		t.Errorf("expected the accurate model to win, got %q", rec.Best.ModelID)
	}
	if rec.Confidence != ConfidenceHigh {
		t.Errorf("expected high confidence, got %q", rec.Confidence)
	}
	if len(rec.Alternatives) != 1 || rec.Alternatives[0].ModelID != "slow" {
		t.Errorf("expected slow as the alternative, got %+v", rec.Alternatives)
	}
}

func TestRecommendLatencyBreaksTies(t *testing.T) {
	var batches []results.Batch
	for i := 1; i <= 3; i++ {
		batches = append(batches, merge(batchFor(i, "fast", 0.9, 300), batchFor(i, "slow", 0.9, 3000)))
	}

	rec, err := Recommend(batches, testModels(), caseIDs, "math")
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if rec.Best.ModelID != "fast" {
		t.Errorf("expected equal accuracy to fall to the faster model, got %q", rec.Best.ModelID)
	}
}

func TestRecommendRejectsUnknownTask(t *testing.T) {
	if _, err := Recommend(nil, testModels(), caseIDs, "poetry"); err == nil {
		t.Fatal("expected error for unknown task category")
	}
}

func TestRecommendErrorsWithoutData(t *testing.T) {
	if _, err := Recommend(nil, testModels(), caseIDs, "math"); err == nil {
		t.Fatal("expected error when no results cover the category")
	}
}

func TestConsistency(t *testing.T) {
	if got := consistency([]float64{0.9}); got != 1 {
		t.Errorf("single batch should be neutral, got %v", got)
	}
	if got := consistency([]float64{0.9, 0.9, 0.9}); got != 1 {
		t.Errorf("constant means should score 1, got %v", got)
	}
	varied := consistency([]float64{0.9, 0.1, 0.9, 0.1})
	if varied >= 0.5 {
		t.Errorf("wildly varying means should score low, got %v", varied)
	}
	if got := consistency([]float64{0, 0}); got != 0 {
		t.Errorf("zero-mean sample should score 0, got %v", got)
	}
}
