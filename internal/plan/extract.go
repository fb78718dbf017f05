package plan

import (
	"encoding/json"
	"regexp"
	"strings"
)

// GeneratedPlan is the structure expected inside generated text.
type GeneratedPlan struct {
	TestCases []CaseInput `json:"test_cases"`
}

var fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// ExtractGeneratedPlan recovers a test_cases object from an arbitrary text
// blob. The generation backend is untrusted: its output may be clean JSON,
// JSON inside a code fence, JSON buried in prose, or garbage. Strategies are
// tried in order; if all fail the result is an empty plan, a defined
// degraded result rather than an error.
func ExtractGeneratedPlan(text string) GeneratedPlan {
	// Strategy 1: the whole text is JSON.
	if p, ok := tryParse(text); ok {
		return p
	}

	// Strategy 2: a fenced code block, optionally tagged json.
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if p, ok := tryParse(m[1]); ok {
			return p
		}
	}

	// Strategy 3: the first { ... } span by greedy brace matching.
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			if p, ok := tryParse(text[start : end+1]); ok {
				return p
			}
		}
	}

	return GeneratedPlan{TestCases: []CaseInput{}}
}

func tryParse(s string) (GeneratedPlan, bool) {
	var p GeneratedPlan
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return GeneratedPlan{}, false
	}
	if p.TestCases == nil {
		p.TestCases = []CaseInput{}
	}
	return p, true
}
