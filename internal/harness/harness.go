// internal/harness/harness.go

// Package harness runs the benchmark battery: the cross product of enabled
// models and test cases, with bounded per-provider parallelism, rate
// limiting and transient-error retry. Every attempted pair produces exactly
// one stored result row, whatever the outcome.
package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"driftmon/internal/appconfig"
	"driftmon/internal/logging"
	"driftmon/internal/providerfactory"
	"driftmon/internal/providers"
	"driftmon/internal/results"
	"driftmon/internal/scoring"
	"driftmon/internal/suite"
)

const quickCases = 5

// Event reports one completed pair to a progress consumer.
type Event struct {
	ModelID string
	TestID  string
	Status  string
	Score   float64
	Done    int
	Total   int
}

// Options select the slice of the battery to run.
type Options struct {
	// Quick runs a small fixed subset and implies no save.
	Quick      bool
	Categories []string
	ModelIDs   []string
	// NoSave skips the result store; the run still prints its summary.
	NoSave bool
	// Events, when set, receives one event per completed pair. The channel is
	// closed when the run finishes.
	Events chan<- Event
}

// ModelSummary aggregates one model's rows from the run.
type ModelSummary struct {
	ModelID       string
	Name          string
	Total         int
	OK            int
	Blocked       int
	Errors        int
	Timeouts      int
	MeanScore     float64
	MeanLatencyMs int64
	TotalCostUSD  float64
}

// Summary is the outcome of one batch run.
type Summary struct {
	RunID    string
	RunIndex int
	Saved    bool
	Models   []ModelSummary
}

// clientFactory matches providerfactory.New; swapped out in tests.
type clientFactory func(ctx context.Context, model appconfig.Model, timeout time.Duration) (providers.Client, error)

// Runner executes batch runs against the configured models.
type Runner struct {
	cfg     *appconfig.Config
	battery suite.Battery
	store   *results.Store

	newClient clientFactory
	now       func() time.Time
	sleep     func(time.Duration)
}

// New builds a Runner over the given configuration, battery and store.
func New(cfg *appconfig.Config, battery suite.Battery, store *results.Store) *Runner {
	return &Runner{
		cfg:       cfg,
		battery:   battery,
		store:     store,
		newClient: providerfactory.New,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Run executes one batch and returns the per-model summary. Configuration
// problems (no models, no cases, unreachable provider setup) fail before any
// request is issued; per-pair failures become result rows instead.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Events != nil {
		defer close(opts.Events)
	}

	models, err := r.selectModels(opts)
	if err != nil {
		return Summary{}, err
	}
	cases, err := r.selectCases(opts)
	if err != nil {
		return Summary{}, err
	}

	save := !opts.NoSave && !opts.Quick
	start := r.now()
	runID := results.NewRunID(start)
	runIndex := 0
	if save {
		runIndex, err = r.store.NextRunIndex()
		if err != nil {
			return Summary{}, err
		}
	}

	clients := make(map[string]providers.Client, len(models))
	defer func() {
		for _, client := range clients {
			client.Close()
		}
	}()
	timeout := r.cfg.RequestTimeout()
	for _, model := range models {
		client, err := r.newClient(ctx, model, timeout)
		if err != nil {
			return Summary{}, fmt.Errorf("configure %s: %w", model.ID, err)
		}
		clients[model.ID] = client
	}

	sems := map[string]*semaphore.Weighted{}
	limiters := map[string]*rate.Limiter{}
	for _, model := range models {
		if _, ok := sems[model.Provider]; ok {
			continue
		}
		sems[model.Provider] = semaphore.NewWeighted(int64(r.cfg.ProviderParallelism()))
		limiters[model.Provider] = rate.NewLimiter(rate.Limit(float64(r.cfg.ProviderRequestsPerMinute())/60), 1)
	}

	total := len(models) * len(cases)
	logging.LogEvent("Starting run %s: %d models x %d cases", runID, len(models), len(cases))

	var mu sync.Mutex
	done := 0
	rows := map[string][]results.TestResult{}

	g, gctx := errgroup.WithContext(ctx)
	for _, model := range models {
		for _, tc := range cases {
			model, tc := model, tc
			g.Go(func() error {
				sem := sems[model.Provider]
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)
				if err := limiters[model.Provider].Wait(gctx); err != nil {
					return err
				}

				row := r.runPair(gctx, clients[model.ID], model, tc, runID, runIndex, timeout)

				mu.Lock()
				if save {
					if err := r.store.Append(row); err != nil {
						mu.Unlock()
						return err
					}
				}
				rows[model.ID] = append(rows[model.ID], row)
				done++
				count := done
				mu.Unlock()

				if opts.Events != nil {
					select {
					case opts.Events <- Event{ModelID: model.ID, TestID: tc.ID, Status: row.Status, Score: row.Score, Done: count, Total: total}:
					case <-gctx.Done():
						return gctx.Err()
					}
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{RunID: runID, RunIndex: runIndex, Saved: save}
	for _, model := range models {
		summary.Models = append(summary.Models, summarize(model, rows[model.ID]))
	}
	logging.LogEvent("Run %s finished: %d results", runID, total)
	return summary, nil
}

// runPair executes one model/case pair, retrying transient failures with
// exponential backoff. It always returns a row.
func (r *Runner) runPair(ctx context.Context, client providers.Client, model appconfig.Model, tc suite.TestCase, runID string, runIndex int, timeout time.Duration) results.TestResult {
	row := results.TestResult{
		RunID:     runID,
		RunIndex:  runIndex,
		ModelID:   model.ID,
		TestID:    tc.ID,
		Category:  string(tc.Category),
		Timestamp: r.now(),
	}

	req := providers.Request{
		Model:        model,
		SystemPrompt: r.battery.SystemPrompt,
		Prompt:       tc.Prompt,
		MaxTokens:    r.cfg.CompletionMaxTokens(),
		Temperature:  0,
	}

	maxAttempts := r.cfg.RetryAttempts() + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		row.Attempts = attempt

		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		begin := r.now()
		resp, err := client.Query(reqCtx, req)
		cancel()
		row.LatencyMs = r.now().Sub(begin).Milliseconds()

		if err == nil {
			row.Response = resp.Text
			row.InputTokens = resp.InputTokens
			row.OutputTokens = resp.OutputTokens
			row.CostUSD = model.Cost(resp.InputTokens, resp.OutputTokens)
			if resp.Blocked {
				row.Status = results.StatusBlocked
				row.Score = 0
				row.Error = resp.FinishReason
			} else {
				row.Status = results.StatusOK
				row.Score = scoring.Score(tc, resp.Text)
			}
			return row
		}

		if errors.Is(err, context.DeadlineExceeded) {
			row.Status = results.StatusTimeout
			row.Error = err.Error()
			return row
		}
		lastErr = err
		if !providers.IsTransient(err) || attempt == maxAttempts {
			break
		}
		backoff := time.Duration(1<<(attempt-1)) * time.Second
		logging.LogEvent("Retrying %s/%s after transient error (attempt %d/%d): %v", model.ID, tc.ID, attempt, maxAttempts, err)
		r.sleep(backoff)
	}

	row.Status = results.StatusError
	row.Error = lastErr.Error()
	return row
}

func (r *Runner) selectModels(opts Options) ([]appconfig.Model, error) {
	wanted := map[string]bool{}
	for _, id := range opts.ModelIDs {
		wanted[id] = true
	}
	var models []appconfig.Model
	for _, model := range r.cfg.Models {
		if !model.Enabled {
			continue
		}
		if len(wanted) > 0 && !wanted[model.ID] {
			continue
		}
		models = append(models, model)
		delete(wanted, model.ID)
	}
	for id := range wanted {
		return nil, fmt.Errorf("unknown or disabled model %q", id)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("no enabled models to run")
	}
	return models, nil
}

func (r *Runner) selectCases(opts Options) ([]suite.TestCase, error) {
	cases := r.battery.Tests
	if len(opts.Categories) > 0 {
		var filtered []suite.TestCase
		for _, raw := range opts.Categories {
			if !suite.ValidCategory(raw) {
				return nil, fmt.Errorf("unknown category %q", raw)
			}
			filtered = append(filtered, r.battery.ByCategory(suite.Category(raw))...)
		}
		cases = filtered
	}
	if opts.Quick {
		quick := r.battery
		quick.Tests = cases
		cases = quick.Quick(quickCases)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases selected")
	}
	return cases, nil
}

func summarize(model appconfig.Model, rows []results.TestResult) ModelSummary {
	s := ModelSummary{ModelID: model.ID, Name: model.Name, Total: len(rows)}
	var scoreSum float64
	var scored int
	var latencySum int64
	for _, row := range rows {
		switch row.Status {
		case results.StatusOK:
			s.OK++
		case results.StatusBlocked:
			s.Blocked++
		case results.StatusTimeout:
			s.Timeouts++
		case results.StatusError:
			s.Errors++
		}
		if row.Scored() {
			scoreSum += row.Score
			scored++
		}
		latencySum += row.LatencyMs
		s.TotalCostUSD += row.CostUSD
	}
	if scored > 0 {
		s.MeanScore = scoreSum / float64(scored)
	}
	if len(rows) > 0 {
		s.MeanLatencyMs = latencySum / int64(len(rows))
	}
	return s
}
