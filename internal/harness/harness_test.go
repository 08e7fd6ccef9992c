// internal/harness/harness_test.go

package harness

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"driftmon/internal/appconfig"
	"driftmon/internal/providers"
	"driftmon/internal/results"
	"driftmon/internal/suite"
)

// fakeClient scripts provider responses per test ID.
type fakeClient struct {
	mu    sync.Mutex
	calls map[string]int
	// answer returns the response or error for one call.
	answer func(testPrompt string, attempt int) (providers.Response, error)
}

func (f *fakeClient) Query(ctx context.Context, req providers.Request) (providers.Response, error) {
	f.mu.Lock()
	f.calls[req.Prompt]++
	attempt := f.calls[req.Prompt]
	f.mu.Unlock()
	return f.answer(req.Prompt, attempt)
}

func (f *fakeClient) Close() error { return nil }

func testBattery() suite.Battery {
	return suite.Battery{
		SystemPrompt: "Answer concisely.",
		Tests: []suite.TestCase{
			{ID: "math_001", Category: suite.CategoryMath, Prompt: "2+2?", Expected: "4", Scoring: suite.ScoreExact},
			{ID: "math_002", Category: suite.CategoryMath, Prompt: "3+3?", Expected: "6", Scoring: suite.ScoreExact},
			{ID: "logic_001", Category: suite.CategoryLogic, Prompt: "yes or no?", Expected: "yes", Scoring: suite.ScoreExact},
		},
	}
}

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		Models: []appconfig.Model{
			{ID: "gpt-4o", Name: "GPT-4o", Provider: appconfig.ProviderOpenAI, APIModel: "gpt-4o", Enabled: true},
		},
		TimeoutSeconds:    5,
		MaxRetries:        2,
		Parallelism:       2,
		RequestsPerMinute: 6000,
		MaxTokens:         100,
	}
}

func newTestRunner(t *testing.T, answer func(prompt string, attempt int) (providers.Response, error)) (*Runner, *results.Store) {
	t.Helper()
	store, err := results.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	r := New(testConfig(), testBattery(), store)
	r.newClient = func(ctx context.Context, model appconfig.Model, timeout time.Duration) (providers.Client, error) {
		return &fakeClient{calls: map[string]int{}, answer: answer}, nil
	}
	r.sleep = func(time.Duration) {}
	return r, store
}

func TestRunRecordsEveryPair(t *testing.T) {
	r, store := newTestRunner(t, func(prompt string, attempt int) (providers.Response, error) {
		return providers.Response{Text: "4", InputTokens: 10, OutputTokens: 2}, nil
	})

	summary, err := r.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !summary.Saved {
		t.Error("expected a default run to save")
	}
	if len(summary.Models) != 1 || summary.Models[0].Total != 3 {
		t.Fatalf("expected 3 results for one model, got %+v", summary.Models)
	}

	batches, err := store.LoadBatches()
	if err != nil {
		t.Fatalf("LoadBatches returned error: %v", err)
	}
	if len(batches) != 1 || len(batches[0].Results) != 3 {
		t.Fatalf("expected 1 batch with 3 rows, got %+v", batches)
	}
	if batches[0].Index != 1 {
		t.Errorf("expected first run index 1, got %d", batches[0].Index)
	}
	if !batches[0].Complete("gpt-4o", []string{"math_001", "math_002", "logic_001"}) {
		t.Error("expected a complete batch")
	}
}

func TestRunRetriesTransientErrors(t *testing.T) {
	r, _ := newTestRunner(t, func(prompt string, attempt int) (providers.Response, error) {
		if attempt < 3 {
			return providers.Response{}, providers.MarkTransient(errors.New("rate limited"))
		}
		return providers.Response{Text: "4"}, nil
	})

	summary, err := r.Run(context.Background(), Options{NoSave: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Models[0].Errors != 0 {
		t.Errorf("expected retries to recover, got %d errors", summary.Models[0].Errors)
	}
	if summary.Models[0].OK != 3 {
		t.Errorf("expected 3 ok rows, got %d", summary.Models[0].OK)
	}
}

func TestRunRecordsExhaustedRetriesAsError(t *testing.T) {
	r, _ := newTestRunner(t, func(prompt string, attempt int) (providers.Response, error) {
		return providers.Response{}, providers.MarkTransient(errors.New("still overloaded"))
	})

	summary, err := r.Run(context.Background(), Options{NoSave: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Models[0].Errors != 3 {
		t.Errorf("expected every pair to end as error, got %+v", summary.Models[0])
	}
}

func TestRunDoesNotRetryPermanentErrors(t *testing.T) {
	var mu sync.Mutex
	attempts := map[string]int{}
	r, _ := newTestRunner(t, func(prompt string, attempt int) (providers.Response, error) {
		mu.Lock()
		attempts[prompt] = attempt
		mu.Unlock()
		return providers.Response{}, errors.New("invalid request")
	})

	if _, err := r.Run(context.Background(), Options{NoSave: true}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	for prompt, n := range attempts {
		if n != 1 {
			t.Errorf("expected 1 attempt for %q, got %d", prompt, n)
		}
	}
}

func TestRunRecordsTimeouts(t *testing.T) {
	r, _ := newTestRunner(t, func(prompt string, attempt int) (providers.Response, error) {
		return providers.Response{}, context.DeadlineExceeded
	})

	summary, err := r.Run(context.Background(), Options{NoSave: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Models[0].Timeouts != 3 {
		t.Errorf("expected 3 timeout rows, got %+v", summary.Models[0])
	}
}

func TestRunRecordsBlockedAsScoredZero(t *testing.T) {
	r, store := newTestRunner(t, func(prompt string, attempt int) (providers.Response, error) {
		return providers.Response{FinishReason: "refusal", Blocked: true}, nil
	})

	summary, err := r.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Models[0].Blocked != 3 {
		t.Errorf("expected 3 blocked rows, got %+v", summary.Models[0])
	}
	if summary.Models[0].MeanScore != 0 {
		t.Errorf("expected blocked rows to score 0, got %v", summary.Models[0].MeanScore)
	}

	batches, err := store.LoadBatches()
	if err != nil {
		t.Fatalf("LoadBatches returned error: %v", err)
	}
	for _, row := range batches[0].Results {
		if row.Status != results.StatusBlocked {
			t.Errorf("expected blocked status, got %q", row.Status)
		}
		if !row.Scored() {
			t.Error("blocked rows must count as scored")
		}
	}
}

func TestRunQuickDoesNotSave(t *testing.T) {
	r, store := newTestRunner(t, func(prompt string, attempt int) (providers.Response, error) {
		return providers.Response{Text: "4"}, nil
	})

	summary, err := r.Run(context.Background(), Options{Quick: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Saved {
		t.Error("quick runs must not save")
	}
	batches, err := store.LoadBatches()
	if err != nil {
		t.Fatalf("LoadBatches returned error: %v", err)
	}
	if len(batches) != 0 {
		t.Fatalf("expected no stored batches, got %d", len(batches))
	}
}

func TestRunCategoryFilter(t *testing.T) {
	r, _ := newTestRunner(t, func(prompt string, attempt int) (providers.Response, error) {
		return providers.Response{Text: "yes"}, nil
	})

	summary, err := r.Run(context.Background(), Options{NoSave: true, Categories: []string{"logic"}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Models[0].Total != 1 {
		t.Errorf("expected only the logic case, got %d results", summary.Models[0].Total)
	}

	if _, err := r.Run(context.Background(), Options{NoSave: true, Categories: []string{"poetry"}}); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestRunRejectsUnknownModel(t *testing.T) {
	r, _ := newTestRunner(t, func(prompt string, attempt int) (providers.Response, error) {
		return providers.Response{Text: "4"}, nil
	})
	if _, err := r.Run(context.Background(), Options{NoSave: true, ModelIDs: []string{"nonexistent"}}); err == nil {
		t.Fatal("expected error for unknown model id")
	}
}

func TestRunEmitsEvents(t *testing.T) {
	r, _ := newTestRunner(t, func(prompt string, attempt int) (providers.Response, error) {
		return providers.Response{Text: "4"}, nil
	})

	events := make(chan Event, 16)
	var received []Event
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for e := range events {
			received = append(received, e)
		}
	}()

	if _, err := r.Run(context.Background(), Options{NoSave: true, Events: events}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	wg.Wait()
	if len(received) != 3 {
		t.Fatalf("expected 3 events, got %d", len(received))
	}
	last := received[len(received)-1]
	if last.Done != 3 || last.Total != 3 {
		t.Errorf("expected final event 3/3, got %d/%d", last.Done, last.Total)
	}
}
