// internal/suite/types.go
package suite

// Category labels the capability a test case probes.
type Category string

// The seven categories covered by the battery.
const (
	CategoryMath        Category = "math"
	CategoryLogic       Category = "logic"
	CategoryCreative    Category = "creative-writing"
	CategoryCodeGen     Category = "code-gen"
	CategoryFactual     Category = "factual"
	CategoryInstruction Category = "instruction-following"
	CategoryConsistency Category = "consistency"
)

// Categories returns all categories in display order.
func Categories() []Category {
	return []Category{
		CategoryMath,
		CategoryLogic,
		CategoryCreative,
		CategoryCodeGen,
		CategoryFactual,
		CategoryInstruction,
		CategoryConsistency,
	}
}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	for _, c := range Categories() {
		if string(c) == s {
			return true
		}
	}
	return false
}

// ScoringMethod selects how a response is graded.
type ScoringMethod string

// Grading methods. Every test case carries exactly one.
const (
	ScoreExact     ScoringMethod = "exact"
	ScoreNumeric   ScoringMethod = "numeric"
	ScoreKeyword   ScoringMethod = "keyword"
	ScoreFormat    ScoringMethod = "format"
	ScoreStructure ScoringMethod = "structure"
)

// StructureRule constrains the shape of a creative-writing response.
// Zero fields are not checked.
type StructureRule struct {
	Words     int `json:"words,omitempty"`
	Sentences int `json:"sentences,omitempty"`
	Lines     int `json:"lines,omitempty"`
	MaxWords  int `json:"maxWords,omitempty"`
}

// TestCase defines a single prompt and its grading rule. Cases are immutable:
// the battery is compiled into the binary and validated at load time.
type TestCase struct {
	ID          string         `json:"id"`
	Category    Category       `json:"category"`
	Prompt      string         `json:"prompt"`
	Expected    string         `json:"expected,omitempty"`
	Scoring     ScoringMethod  `json:"scoring"`
	Description string         `json:"description,omitempty"`
	Difficulty  int            `json:"difficulty,omitempty"`
	Tolerance   float64        `json:"tolerance,omitempty"`
	Keywords    []string       `json:"keywords,omitempty"`
	MinKeywords int            `json:"minKeywords,omitempty"`
	Avoid       []string       `json:"avoid,omitempty"`
	Format      string         `json:"format,omitempty"`
	Structure   *StructureRule `json:"structure,omitempty"`
}

// Battery is the full prompt battery loaded from the embedded JSON.
type Battery struct {
	SystemPrompt string     `json:"system_prompt"`
	Tests        []TestCase `json:"tests"`
}
