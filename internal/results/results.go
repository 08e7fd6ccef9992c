// internal/results/results.go

// Package results defines the persisted record format for benchmark runs and
// the JSONL store that holds them.
package results

import (
	"time"
)

// Result statuses. A row is written for every attempted test, whatever the
// outcome.
const (
	StatusOK      = "ok"
	StatusBlocked = "blocked"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// TestResult is one model answering one test case during one run.
type TestResult struct {
	RunID        string    `json:"runId"`
	RunIndex     int       `json:"runIndex"`
	ModelID      string    `json:"modelId"`
	TestID       string    `json:"testId"`
	Category     string    `json:"category"`
	Timestamp    time.Time `json:"timestamp"`
	Response     string    `json:"response,omitempty"`
	Score        float64   `json:"score"`
	Status       string    `json:"status"`
	LatencyMs    int64     `json:"latencyMs"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	CostUSD      float64   `json:"costUsd"`
	Attempts     int       `json:"attempts"`
	Error        string    `json:"error,omitempty"`
}

// Scored reports whether the row carries a usable score. Blocked responses
// count: a refusal is a measured zero, not missing data.
func (r TestResult) Scored() bool {
	return r.Status == StatusOK || r.Status == StatusBlocked
}

// Batch is every result recorded under one run ID.
type Batch struct {
	RunID   string
	Index   int
	Started time.Time
	Results []TestResult
}

// ModelResults returns the batch rows for one model.
func (b Batch) ModelResults(modelID string) []TestResult {
	var out []TestResult
	for _, r := range b.Results {
		if r.ModelID == modelID {
			out = append(out, r)
		}
	}
	return out
}

// Complete reports whether the batch has a row for every given case ID for
// the given model. Error and timeout rows count toward completeness; the
// harness records them rather than dropping them.
func (b Batch) Complete(modelID string, caseIDs []string) bool {
	seen := make(map[string]bool, len(caseIDs))
	for _, r := range b.Results {
		if r.ModelID == modelID {
			seen[r.TestID] = true
		}
	}
	for _, id := range caseIDs {
		if !seen[id] {
			return false
		}
	}
	return true
}

// AccuracyMean returns the mean score of the model's scored rows in the
// batch, or nil when the model has no scored rows.
func (b Batch) AccuracyMean(modelID string) *float64 {
	var sum float64
	var n int
	for _, r := range b.Results {
		if r.ModelID == modelID && r.Scored() {
			sum += r.Score
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}
