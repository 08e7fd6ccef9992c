// internal/dashboard/dashboard_test.go

package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"driftmon/internal/appconfig"
	"driftmon/internal/results"
	"driftmon/internal/suite"
)

func newTestServer(t *testing.T) (*Server, *results.Store) {
	t.Helper()
	store, err := results.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	cfg := &appconfig.Config{
		Models: []appconfig.Model{
			{ID: "gpt-4o", Name: "GPT-4o", Provider: appconfig.ProviderOpenAI, APIModel: "gpt-4o", Enabled: true},
		},
	}
	battery := suite.Battery{
		Tests: []suite.TestCase{
			{ID: "math_001", Category: suite.CategoryMath, Prompt: "2+2?", Expected: "4", Scoring: suite.ScoreExact},
		},
	}
	return NewServer(cfg, battery, store), store
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	w := get(t, s, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("unexpected healthz body: %s", w.Body.String())
	}
}

func TestIndexServesEmbeddedPage(t *testing.T) {
	s, _ := newTestServer(t)
	w := get(t, s, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "driftmon") {
		t.Error("expected the embedded page body")
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}
}

func TestSummaryEmptyStore(t *testing.T) {
	s, _ := newTestServer(t)
	w := get(t, s, "/api/summary")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Runs   int `json:"runs"`
		Models []struct {
			ModelID  string   `json:"modelId"`
			Accuracy *float64 `json:"accuracy"`
		} `json:"models"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if resp.Runs != 0 {
		t.Errorf("expected 0 runs, got %d", resp.Runs)
	}
	if len(resp.Models) != 1 || resp.Models[0].Accuracy != nil {
		t.Errorf("expected one model with nil accuracy, got %+v", resp.Models)
	}
}

func TestSummaryUsesLatestCompleteBatch(t *testing.T) {
	s, store := newTestServer(t)
	rows := []results.TestResult{
		{RunID: "run_20260829_100000", RunIndex: 1, ModelID: "gpt-4o", TestID: "math_001", Category: "math", Timestamp: time.Now(), Score: 1, Status: results.StatusOK},
		{RunID: "run_20260830_100000", RunIndex: 2, ModelID: "gpt-4o", TestID: "math_001", Category: "math", Timestamp: time.Now(), Score: 0, Status: results.StatusOK},
	}
	for _, r := range rows {
		if err := store.Append(r); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	w := get(t, s, "/api/summary")
	var resp struct {
		Runs    int    `json:"runs"`
		LastRun string `json:"lastRun"`
		Models  []struct {
			Accuracy *float64 `json:"accuracy"`
		} `json:"models"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if resp.Runs != 2 || resp.LastRun != "run_20260830_100000" {
		t.Errorf("unexpected summary: %+v", resp)
	}
	if resp.Models[0].Accuracy == nil || *resp.Models[0].Accuracy != 0 {
		t.Errorf("expected the most recent batch accuracy 0, got %v", resp.Models[0].Accuracy)
	}
}

func TestDriftEndpointSkipsSparseData(t *testing.T) {
	s, store := newTestServer(t)
	if err := store.Append(results.TestResult{RunID: "run_20260830_100000", RunIndex: 1, ModelID: "gpt-4o", TestID: "math_001", Category: "math", Score: 1, Status: results.StatusOK}); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	w := get(t, s, "/api/drift")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "skipped") {
		t.Errorf("expected a skipped entry for sparse data, got: %s", w.Body.String())
	}
}

func TestReportEndpoint(t *testing.T) {
	s, store := newTestServer(t)
	if err := store.Append(results.TestResult{RunID: "run_20260830_100000", RunIndex: 1, ModelID: "gpt-4o", TestID: "math_001", Category: "math", Score: 1, Status: results.StatusOK}); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	w := get(t, s, "/api/report")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"models"`) {
		t.Errorf("expected models in report body, got: %s", w.Body.String())
	}
}
