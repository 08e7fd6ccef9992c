// internal/scoring/scoring.go
// Package scoring grades model responses against their test cases.
//
// Scores are always in [0, 1] and grading is deterministic: the same response
// always earns the same score. Grading is deliberately lenient where the
// method allows it ("The answer is 636" passes an exact check for "636").
package scoring

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"driftmon/internal/suite"
)

const defaultNumericTolerance = 0.01

// Score grades a response for the given test case.
func Score(tc suite.TestCase, response string) float64 {
	if strings.TrimSpace(response) == "" {
		return 0
	}

	switch tc.Scoring {
	case suite.ScoreExact:
		return scoreExact(response, tc.Expected)
	case suite.ScoreNumeric:
		tolerance := tc.Tolerance
		if tolerance == 0 {
			tolerance = defaultNumericTolerance
		}
		return scoreNumeric(response, tc.Expected, tolerance)
	case suite.ScoreKeyword:
		return scoreKeyword(tc, response)
	case suite.ScoreFormat:
		return scoreFormat(tc.Format, response)
	case suite.ScoreStructure:
		if tc.Structure == nil {
			return 0
		}
		return scoreStructure(*tc.Structure, response)
	default:
		return 0
	}
}

var (
	thinkBlock   = regexp.MustCompile(`(?s)<think>.*?</think>`)
	numberRegexp = regexp.MustCompile(`-?\d+\.?\d*`)
	nonAlphaNum  = regexp.MustCompile(`[^a-z0-9\s]`)
)

// Normalize strips reasoning blocks and collapses whitespace so grading sees
// only the visible answer (some models append reasoning after the answer).
func Normalize(response string) string {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return trimmed
	}
	trimmed = thinkBlock.ReplaceAllString(trimmed, "")
	if idx := strings.Index(trimmed, "<think>"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	trimmed = strings.Join(strings.Fields(trimmed), " ")
	return strings.TrimSpace(trimmed)
}

// scoreExact checks whether the expected answer appears anywhere in the
// response, case-insensitively, with and without punctuation.
func scoreExact(response, expected string) float64 {
	if expected == "" {
		return 0
	}

	responseClean := strings.ToLower(Normalize(response))
	expectedClean := strings.ToLower(strings.TrimSpace(expected))

	if strings.Contains(responseClean, expectedClean) {
		return 1
	}

	responseAlpha := nonAlphaNum.ReplaceAllString(responseClean, "")
	expectedAlpha := nonAlphaNum.ReplaceAllString(expectedClean, "")
	if expectedAlpha != "" && strings.Contains(responseAlpha, expectedAlpha) {
		return 1
	}
	return 0
}

// scoreNumeric extracts every number from the response and checks whether any
// of them matches the expected value within a relative tolerance. Comma
// thousand separators are removed first.
func scoreNumeric(response, expected string, tolerance float64) float64 {
	expectedNum, err := strconv.ParseFloat(strings.TrimSpace(expected), 64)
	if err != nil {
		return 0
	}

	cleaned := strings.ReplaceAll(Normalize(response), ",", "")
	for _, match := range numberRegexp.FindAllString(cleaned, -1) {
		num, err := strconv.ParseFloat(match, 64)
		if err != nil {
			continue
		}
		if num == expectedNum {
			return 1
		}
		if expectedNum == 0 {
			if abs(num) < tolerance {
				return 1
			}
			continue
		}
		if abs(num-expectedNum)/abs(expectedNum) <= tolerance {
			return 1
		}
	}
	return 0
}

// scoreKeyword awards full credit when at least MinKeywords of the listed
// keywords appear, half credit for a partial match against a multi-keyword
// rubric, and zero when any avoid-term is present.
func scoreKeyword(tc suite.TestCase, response string) float64 {
	resp := strings.ToLower(Normalize(response))

	for _, avoid := range tc.Avoid {
		if strings.Contains(resp, strings.ToLower(avoid)) {
			return 0
		}
	}

	min := tc.MinKeywords
	if min <= 0 {
		min = 1
	}
	matches := 0
	for _, kw := range tc.Keywords {
		if strings.Contains(resp, strings.ToLower(kw)) {
			matches++
		}
	}
	switch {
	case matches >= min:
		return 1
	case matches > 0 && min > 1:
		return 0.5
	default:
		return 0
	}
}

// scoreFormat checks compliance with a named format rule such as "words:5",
// "items:3", "digit:1-10", "allcaps", "yesno" or "sequence:10,9,8,7,6".
func scoreFormat(rule, response string) float64 {
	resp := strings.TrimSpace(response)
	name, arg, _ := strings.Cut(rule, ":")

	switch name {
	case "words":
		want, err := strconv.Atoi(arg)
		if err != nil {
			return 0
		}
		if len(strings.Fields(resp)) == want {
			return 1
		}
		return 0

	case "items":
		want, err := strconv.Atoi(arg)
		if err != nil {
			return 0
		}
		if countNonEmpty(strings.Split(resp, "\n")) == want {
			return 1
		}
		if countNonEmpty(strings.Split(resp, ",")) == want {
			return 1
		}
		return 0

	case "digit":
		lowStr, highStr, ok := strings.Cut(arg, "-")
		if !ok {
			return 0
		}
		low, err1 := strconv.Atoi(lowStr)
		high, err2 := strconv.Atoi(highStr)
		if err1 != nil || err2 != nil {
			return 0
		}
		num, err := strconv.Atoi(strings.TrimSuffix(resp, "."))
		if err != nil {
			return 0
		}
		if num >= low && num <= high {
			return 1
		}
		return 0

	case "allcaps":
		sawLetter := false
		for _, r := range resp {
			if unicode.IsLetter(r) {
				sawLetter = true
				if !unicode.IsUpper(r) {
					return 0
				}
			}
		}
		if sawLetter {
			return 1
		}
		return 0

	case "yesno":
		clean := strings.TrimRight(strings.ToLower(resp), ".")
		if clean == "yes" || clean == "no" {
			return 1
		}
		return 0

	case "sequence":
		var want []int
		for _, part := range strings.Split(arg, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return 0
			}
			want = append(want, n)
		}
		var got []int
		for _, match := range regexp.MustCompile(`\d+`).FindAllString(resp, -1) {
			n, _ := strconv.Atoi(match)
			got = append(got, n)
		}
		if len(got) != len(want) {
			return 0
		}
		for i := range want {
			if got[i] != want[i] {
				return 0
			}
		}
		return 1

	default:
		return 0
	}
}

// scoreStructure checks word, sentence and line counts for creative prompts.
func scoreStructure(rule suite.StructureRule, response string) float64 {
	resp := strings.TrimSpace(response)
	if resp == "" {
		return 0
	}

	words := len(strings.Fields(resp))
	if rule.Words > 0 && words != rule.Words {
		return 0
	}
	if rule.MaxWords > 0 && words > rule.MaxWords {
		return 0
	}
	if rule.Sentences > 0 && countSentences(resp) != rule.Sentences {
		return 0
	}
	if rule.Lines > 0 {
		lines := countNonEmpty(strings.Split(resp, "\n"))
		separators := countNonEmpty(strings.Split(resp, "/"))
		if lines != rule.Lines && separators != rule.Lines {
			return 0
		}
	}
	return 1
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

func countSentences(text string) int {
	return countNonEmpty(sentenceSplit.Split(text, -1))
}

func countNonEmpty(parts []string) int {
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
