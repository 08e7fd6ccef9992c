// internal/results/store.go

package results

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const runIDLayout = "20060102_150405"

// Store reads and appends run batches under <dataDir>/raw, one JSONL file
// per run.
type Store struct {
	rawDir string
}

// NewStore prepares the raw results directory under dataDir.
func NewStore(dataDir string) (*Store, error) {
	rawDir := filepath.Join(dataDir, "raw")
	if err := os.MkdirAll(rawDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating results directory: %w", err)
	}
	return &Store{rawDir: rawDir}, nil
}

// NewRunID derives a run identifier from the start time, e.g.
// run_20260830_142500.
func NewRunID(start time.Time) string {
	return "run_" + start.Format(runIDLayout)
}

// ParseRunTime recovers the start time encoded in a run ID.
func ParseRunTime(runID string) (time.Time, error) {
	raw := strings.TrimPrefix(runID, "run_")
	t, err := time.Parse(runIDLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed run id %q: %w", runID, err)
	}
	return t, nil
}

// NextRunIndex returns one past the highest run index recorded so far.
// Indices start at 1.
func (s *Store) NextRunIndex() (int, error) {
	batches, err := s.LoadBatches()
	if err != nil {
		return 0, err
	}
	max := 0
	for _, b := range batches {
		if b.Index > max {
			max = b.Index
		}
	}
	return max + 1, nil
}

// Append writes one result row to the batch file for its run ID.
func (s *Store) Append(result TestResult) error {
	path := filepath.Join(s.rawDir, result.RunID+".jsonl")

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("error opening results file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("error writing results: %w", err)
	}

	return nil
}

// LoadBatches reads every batch file and returns the batches ordered by run
// index, oldest first. Blank lines are skipped; a malformed line fails the
// load so corruption is not silently averaged away.
func (s *Store) LoadBatches() ([]Batch, error) {
	entries, err := os.ReadDir(s.rawDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading results directory: %w", err)
	}

	var batches []Batch
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "run_") || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		batch, err := s.loadBatch(filepath.Join(s.rawDir, name))
		if err != nil {
			return nil, err
		}
		if len(batch.Results) > 0 {
			batches = append(batches, batch)
		}
	}

	sort.Slice(batches, func(i, j int) bool {
		if batches[i].Index != batches[j].Index {
			return batches[i].Index < batches[j].Index
		}
		return batches[i].RunID < batches[j].RunID
	})
	return batches, nil
}

// LoadBatch reads one batch by run ID.
func (s *Store) LoadBatch(runID string) (Batch, error) {
	return s.loadBatch(filepath.Join(s.rawDir, runID+".jsonl"))
}

func (s *Store) loadBatch(path string) (Batch, error) {
	file, err := os.Open(path)
	if err != nil {
		return Batch{}, fmt.Errorf("error opening batch file: %w", err)
	}
	defer file.Close()

	var batch Batch
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var result TestResult
		if err := json.Unmarshal([]byte(text), &result); err != nil {
			return Batch{}, fmt.Errorf("malformed result in %s line %d: %w", filepath.Base(path), line, err)
		}
		if batch.RunID == "" {
			batch.RunID = result.RunID
			batch.Index = result.RunIndex
			if started, err := ParseRunTime(result.RunID); err == nil {
				batch.Started = started
			} else {
				batch.Started = result.Timestamp
			}
		}
		batch.Results = append(batch.Results, result)
	}
	if err := scanner.Err(); err != nil {
		return Batch{}, fmt.Errorf("error reading batch file: %w", err)
	}
	return batch, nil
}
