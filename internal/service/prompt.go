package service

import (
	"fmt"
	"strings"

	"planforge.app/forge/internal/model"
	"planforge.app/forge/internal/retriever"
)

const generationSystemPrompt = `You are an expert QA engineer building a structured test plan.

Respond with a single JSON object of the form:
{"test_cases": [{"title": "...", "description": "...", "preconditions": "...", "steps": ["..."], "expected_result": "...", "priority": "HIGH|MEDIUM|LOW", "category": "FUNCTIONAL|NON_FUNCTIONAL|INTEGRATION|PERFORMANCE|SECURITY|USABILITY|REGRESSION", "estimated_time": 30, "requirements_covered": ["REQ-1"], "tags": ["smoke"], "automation_candidate": false}]}

Every test case must have a non-empty title, description, preconditions,
expected_result, and at least one step. estimated_time is minutes. Do not
include any text outside the JSON object.`

// buildGenerationPrompt assembles the user prompt from the plan
// configuration, the evolving plan so far, retrieved requirements context,
// and the tester's instructions.
func buildGenerationPrompt(session *model.Session, userInput string, hits []retriever.Hit) string {
	cfg := session.PlanConfiguration

	var b strings.Builder
	fmt.Fprintf(&b, "Test plan: %s\n", cfg.PlanTitle)
	fmt.Fprintf(&b, "Plan type: %s\n", cfg.PlanType)
	fmt.Fprintf(&b, "Target coverage: %.0f%%\n", cfg.CoveragePercentage)
	fmt.Fprintf(&b, "Produce between %d and %d test cases.\n", cfg.MinTestCases, cfg.MaxTestCases)
	if cfg.ProjectContext != "" {
		fmt.Fprintf(&b, "\nProject context:\n%s\n", cfg.ProjectContext)
	}

	if titles := existingCaseTitles(session); len(titles) > 0 {
		b.WriteString("\nThe plan already contains these cases; do not duplicate them:\n")
		for _, t := range titles {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}

	if len(hits) > 0 {
		b.WriteString("\nRelevant requirements excerpts:\n")
		for i, h := range hits {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, h.Content)
		}
	}

	fmt.Fprintf(&b, "\nInstructions:\n%s\n", userInput)
	return b.String()
}

func existingCaseTitles(session *model.Session) []string {
	var titles []string
	for _, it := range session.Iterations {
		for _, tc := range it.TestCases {
			titles = append(titles, tc.Title)
		}
	}
	return titles
}
