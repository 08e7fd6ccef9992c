// internal/suite/suite.go
// Package suite holds the embedded test-case battery and its validation.
package suite

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed testcases.json
var batteryJSON []byte

//go:embed schema.json
var schemaJSON []byte

// Load parses and validates the embedded battery. The battery is validated
// against the embedded JSON Schema first, then checked for invariants the
// schema cannot express (unique IDs, a usable grading rule per case).
func Load() (Battery, error) {
	if err := ValidateRaw(batteryJSON); err != nil {
		return Battery{}, err
	}

	var b Battery
	if err := json.Unmarshal(batteryJSON, &b); err != nil {
		return Battery{}, fmt.Errorf("error parsing test battery: %w", err)
	}
	if err := checkInvariants(b); err != nil {
		return Battery{}, err
	}
	return b, nil
}

// ValidateRaw checks raw battery JSON against the embedded schema.
func ValidateRaw(raw []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(schemaJSON)
	docLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("error validating test battery: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("test battery is invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

func checkInvariants(b Battery) error {
	seen := make(map[string]struct{}, len(b.Tests))
	for _, t := range b.Tests {
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("duplicate test case id %q", t.ID)
		}
		seen[t.ID] = struct{}{}

		switch t.Scoring {
		case ScoreExact, ScoreNumeric:
			if strings.TrimSpace(t.Expected) == "" {
				return fmt.Errorf("test case %q uses %s scoring but has no expected answer", t.ID, t.Scoring)
			}
		case ScoreKeyword:
			if len(t.Keywords) == 0 {
				return fmt.Errorf("test case %q uses keyword scoring but lists no keywords", t.ID)
			}
		case ScoreFormat:
			if strings.TrimSpace(t.Format) == "" {
				return fmt.Errorf("test case %q uses format scoring but has no format rule", t.ID)
			}
		case ScoreStructure:
			if t.Structure == nil {
				return fmt.Errorf("test case %q uses structure scoring but has no structure rule", t.ID)
			}
		}
	}
	return nil
}

// ByCategory returns the cases belonging to one category, in battery order.
func (b Battery) ByCategory(cat Category) []TestCase {
	var out []TestCase
	for _, t := range b.Tests {
		if t.Category == cat {
			out = append(out, t)
		}
	}
	return out
}

// CaseByID looks up a single test case.
func (b Battery) CaseByID(id string) (TestCase, bool) {
	for _, t := range b.Tests {
		if t.ID == id {
			return t, true
		}
	}
	return TestCase{}, false
}

// CaseIDs returns every test case ID in battery order.
func (b Battery) CaseIDs() []string {
	ids := make([]string, 0, len(b.Tests))
	for _, t := range b.Tests {
		ids = append(ids, t.ID)
	}
	return ids
}

// Quick returns the first n cases, used for setup-verification runs.
func (b Battery) Quick(n int) []TestCase {
	if n <= 0 || n > len(b.Tests) {
		n = len(b.Tests)
	}
	return b.Tests[:n]
}
