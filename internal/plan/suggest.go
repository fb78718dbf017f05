package plan

import "planforge.app/forge/internal/model"

// Suggestions returns improvement hints for a freshly created manual case.
// Heuristics only; nothing here blocks the mutation.
func Suggestions(tc model.TestCase, cfg model.PlanConfiguration) []string {
	var out []string

	if len(tc.Steps) == 1 {
		out = append(out, "Consider splitting the step into multiple, more specific steps for clarity.")
	}
	if len(tc.Description) < 50 {
		out = append(out, "The description is very brief. Consider adding more detail about the case's objective.")
	}
	if len(tc.RequirementsCovered) == 0 {
		out = append(out, "Consider specifying which requirements this case covers to improve traceability.")
	}
	if tc.EstimatedTime > 60 {
		out = append(out, "The estimated time is high. Consider splitting into smaller cases for easier execution.")
	}

	if cfg.PlanType == model.PlanTypePerformance && tc.Category != model.CategoryPerformance {
		out = append(out, "This is a performance plan. Consider whether this case should be categorized as PERFORMANCE.")
	}
	if cfg.PlanType == model.PlanTypeRegression && !tc.AutomationCandidate {
		out = append(out, "For regression plans, consider marking cases as automation candidates.")
	}

	if len(tc.Tags) == 0 {
		out = append(out, "Consider adding tags to make filtering and organizing cases easier.")
	}
	if tc.Priority == model.PriorityHigh && tc.EstimatedTime > 45 {
		out = append(out, "High-priority cases should be quick to execute. Consider optimizing or splitting.")
	}

	return out
}
