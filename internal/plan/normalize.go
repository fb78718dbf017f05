package plan

import (
	"fmt"
	"strings"
	"time"

	"planforge.app/forge/common/id"
	"planforge.app/forge/internal/model"
)

// CaseInput is a raw case payload as submitted by a caller or recovered from
// generated text. Optional fields are pointers so an edit can distinguish
// "unset" (inherit from the stored case) from an explicit value.
type CaseInput struct {
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Preconditions       string    `json:"preconditions"`
	Steps               []string  `json:"steps"`
	ExpectedResult      string    `json:"expected_result"`
	Priority            *string   `json:"priority,omitempty"`
	Category            *string   `json:"category,omitempty"`
	EstimatedTime       *float64  `json:"estimated_time,omitempty"`
	RequirementsCovered *[]string `json:"requirements_covered,omitempty"`
	Tags                *[]string `json:"tags,omitempty"`
	AutomationCandidate *bool     `json:"automation_candidate,omitempty"`
}

// NormalizeNew validates and canonicalizes a payload into a fresh TestCase
// with a generated id. Pure transform; errors are returned, never fatal.
func NormalizeNew(in CaseInput, source model.CaseSource, actor string, now time.Time) (model.TestCase, error) {
	tc, err := normalize(in, nil)
	if err != nil {
		return model.TestCase{}, err
	}

	tc.ID = id.NewString()
	tc.Source = source
	tc.CreatedBy = actor
	tc.UpdatedBy = actor
	tc.CreatedAt = now
	tc.UpdatedAt = now
	return tc, nil
}

// NormalizeEdit validates a payload against the previously stored case.
// The id, created_at, created_by, and source are preserved; unset optional
// fields inherit the stored values; updated_at always advances.
func NormalizeEdit(in CaseInput, prev model.TestCase, actor string, now time.Time) (model.TestCase, error) {
	tc, err := normalize(in, &prev)
	if err != nil {
		return model.TestCase{}, err
	}

	tc.ID = prev.ID
	tc.Source = prev.Source
	tc.CreatedBy = prev.CreatedBy
	tc.CreatedAt = prev.CreatedAt
	tc.UpdatedBy = actor
	tc.UpdatedAt = now
	return tc, nil
}

// normalize applies the validation rules in order, failing fast on the first
// violation: required strings, steps, priority, category, estimated time.
func normalize(in CaseInput, prev *model.TestCase) (model.TestCase, error) {
	var tc model.TestCase

	required := []struct {
		field string
		value string
		dst   *string
	}{
		{"title", in.Title, &tc.Title},
		{"description", in.Description, &tc.Description},
		{"preconditions", in.Preconditions, &tc.Preconditions},
		{"expected_result", in.ExpectedResult, &tc.ExpectedResult},
	}
	for _, f := range required {
		trimmed := strings.TrimSpace(f.value)
		if trimmed == "" {
			return tc, invalidField(f.field, "must be a non-empty string")
		}
		*f.dst = trimmed
	}

	if len(in.Steps) == 0 {
		return tc, invalidField("steps", "at least one step is required")
	}
	steps := make([]string, 0, len(in.Steps))
	for _, s := range in.Steps {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			steps = append(steps, trimmed)
		}
	}
	if len(steps) == 0 {
		return tc, invalidField("steps", "at least one non-empty step is required")
	}
	tc.Steps = steps

	tc.Priority = model.PriorityMedium
	if prev != nil {
		tc.Priority = prev.Priority
	}
	if in.Priority != nil {
		p := model.Priority(*in.Priority)
		if !p.Valid() {
			return tc, invalidField("priority", fmt.Sprintf("must be one of HIGH, MEDIUM, LOW (got %q)", *in.Priority))
		}
		tc.Priority = p
	}

	tc.Category = model.CategoryFunctional
	if prev != nil {
		tc.Category = prev.Category
	}
	if in.Category != nil {
		c := model.Category(*in.Category)
		if !c.Valid() {
			return tc, invalidField("category", fmt.Sprintf("unknown category %q", *in.Category))
		}
		tc.Category = c
	}

	tc.EstimatedTime = 30
	if prev != nil {
		tc.EstimatedTime = prev.EstimatedTime
	}
	if in.EstimatedTime != nil {
		if *in.EstimatedTime <= 0 {
			return tc, invalidField("estimated_time", "must be a positive number of minutes")
		}
		tc.EstimatedTime = *in.EstimatedTime
	}

	tc.RequirementsCovered = []string{}
	if prev != nil && prev.RequirementsCovered != nil {
		tc.RequirementsCovered = prev.RequirementsCovered
	}
	if in.RequirementsCovered != nil {
		tc.RequirementsCovered = cleanSet(*in.RequirementsCovered)
	}

	tc.Tags = []string{}
	if prev != nil && prev.Tags != nil {
		tc.Tags = prev.Tags
	}
	if in.Tags != nil {
		tc.Tags = cleanSet(*in.Tags)
	}

	if prev != nil {
		tc.AutomationCandidate = prev.AutomationCandidate
	}
	if in.AutomationCandidate != nil {
		tc.AutomationCandidate = *in.AutomationCandidate
	}

	return tc, nil
}

// cleanSet trims, de-duplicates, and drops empty entries, preserving order
// of first appearance.
func cleanSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// ValidateConfiguration checks plan configuration bounds at session creation.
func ValidateConfiguration(cfg model.PlanConfiguration) error {
	if strings.TrimSpace(cfg.PlanTitle) == "" {
		return invalidField("plan_title", "must be a non-empty string")
	}
	if !cfg.PlanType.Valid() {
		return invalidField("plan_type", fmt.Sprintf("must be one of UNIT, INTEGRATION, PERFORMANCE, REGRESSION (got %q)", cfg.PlanType))
	}
	if cfg.CoveragePercentage < 10 || cfg.CoveragePercentage > 100 {
		return invalidField("coverage_percentage", "must be between 10 and 100")
	}
	if cfg.MinTestCases < 1 || cfg.MinTestCases > 100 {
		return invalidField("min_test_cases", "must be an integer between 1 and 100")
	}
	if cfg.MaxTestCases < 1 || cfg.MaxTestCases > 100 {
		return invalidField("max_test_cases", "must be an integer between 1 and 100")
	}
	if cfg.MinTestCases > cfg.MaxTestCases {
		return invalidField("min_test_cases", "cannot be greater than max_test_cases")
	}
	return nil
}
