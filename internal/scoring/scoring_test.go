package scoring

import (
	"testing"

	"driftmon/internal/suite"
)

func TestScoreExactLenientMatch(t *testing.T) {
	tc := suite.TestCase{Scoring: suite.ScoreExact, Expected: "Paris"}
	if got := Score(tc, "The capital of France is Paris."); got != 1 {
		t.Fatalf("expected lenient exact match, got %v", got)
	}
	if got := Score(tc, "PARIS"); got != 1 {
		t.Fatalf("expected case-insensitive match, got %v", got)
	}
	if got := Score(tc, "I think it might be London"); got != 0 {
		t.Fatalf("expected miss, got %v", got)
	}
}

func TestScoreExactIgnoresThinkBlock(t *testing.T) {
	tc := suite.TestCase{Scoring: suite.ScoreExact, Expected: "636"}
	if got := Score(tc, "<think>247+389 carries one</think>\n636"); got != 1 {
		t.Fatalf("expected think block stripped, got %v", got)
	}
}

func TestScoreNumericTolerance(t *testing.T) {
	tc := suite.TestCase{Scoring: suite.ScoreNumeric, Expected: "36"}
	if got := Score(tc, "Approximately 36.0 dollars"); got != 1 {
		t.Fatalf("expected tolerant numeric match, got %v", got)
	}
	if got := Score(tc, "I think 37"); got != 0 {
		t.Fatalf("37 is outside 1%% tolerance of 36, got %v", got)
	}
}

func TestScoreNumericCommaFormatted(t *testing.T) {
	tc := suite.TestCase{Scoring: suite.ScoreNumeric, Expected: "299792458", Tolerance: 0.001}
	if got := Score(tc, "299,792,458 meters per second"); got != 1 {
		t.Fatalf("expected comma-formatted number to match, got %v", got)
	}
}

func TestScoreKeywordPartialCredit(t *testing.T) {
	tc := suite.TestCase{
		Scoring:     suite.ScoreKeyword,
		Keywords:    []string{"fill", "pour", "gallon"},
		MinKeywords: 2,
	}
	if got := Score(tc, "Fill the 5-gallon jug and pour it into the 3-gallon jug."); got != 1 {
		t.Fatalf("expected full credit, got %v", got)
	}
	if got := Score(tc, "You pour the water back and forth."); got != 0.5 {
		t.Fatalf("expected half credit for one keyword, got %v", got)
	}
	if got := Score(tc, "I have no idea."); got != 0 {
		t.Fatalf("expected zero, got %v", got)
	}
}

func TestScoreKeywordAvoidTerms(t *testing.T) {
	tc := suite.TestCase{
		Scoring:  suite.ScoreKeyword,
		Keywords: []string{"yes"},
		Avoid:    []string{"cannot"},
	}
	if got := Score(tc, "Yes, a married person is looking at an unmarried person."); got != 1 {
		t.Fatalf("expected full credit, got %v", got)
	}
	if got := Score(tc, "Yes and no, it cannot be determined."); got != 0 {
		t.Fatalf("avoid term should zero the score, got %v", got)
	}
}

func TestScoreFormatRules(t *testing.T) {
	cases := []struct {
		format   string
		response string
		want     float64
	}{
		{"items:3", "red\nblue\ngreen", 1},
		{"items:3", "red, blue, green", 1},
		{"items:3", "red\nblue", 0},
		{"words:1", "Blue", 1},
		{"words:1", "It is blue", 0},
		{"words:5", "one two three four five", 1},
		{"digit:1-10", "7", 1},
		{"digit:1-10", "eleven", 0},
		{"digit:1-10", "42", 0},
		{"allcaps", "FOUR", 1},
		{"allcaps", "Four", 0},
		{"yesno", "Yes.", 1},
		{"yesno", "Definitely yes", 0},
		{"sequence:10,9,8,7,6", "10, 9, 8, 7, 6", 1},
		{"sequence:10,9,8,7,6", "6, 7, 8, 9, 10", 0},
	}
	for _, c := range cases {
		tc := suite.TestCase{Scoring: suite.ScoreFormat, Format: c.format}
		if got := Score(tc, c.response); got != c.want {
			t.Fatalf("format %q response %q = %v, want %v", c.format, c.response, got, c.want)
		}
	}
}

func TestScoreStructureSentencesAndWords(t *testing.T) {
	tc := suite.TestCase{
		Scoring:   suite.ScoreStructure,
		Structure: &suite.StructureRule{Sentences: 3, MaxWords: 50},
	}
	if got := Score(tc, "The door creaked. Nobody was home. Something breathed behind me."); got != 1 {
		t.Fatalf("expected structure pass, got %v", got)
	}
	if got := Score(tc, "One sentence only."); got != 0 {
		t.Fatalf("expected structure fail for sentence count, got %v", got)
	}
}

func TestScoreStructureHaikuLines(t *testing.T) {
	tc := suite.TestCase{
		Scoring:   suite.ScoreStructure,
		Structure: &suite.StructureRule{Lines: 3},
	}
	if got := Score(tc, "silent cursor blinks / loops unwind in the darkness / tests are green at dawn"); got != 1 {
		t.Fatalf("expected slash-separated haiku to pass, got %v", got)
	}
	if got := Score(tc, "line one\nline two\nline three"); got != 1 {
		t.Fatalf("expected newline haiku to pass, got %v", got)
	}
}

func TestEmptyResponseScoresZero(t *testing.T) {
	tc := suite.TestCase{Scoring: suite.ScoreExact, Expected: "x"}
	if got := Score(tc, "   "); got != 0 {
		t.Fatalf("expected zero for empty response, got %v", got)
	}
}
