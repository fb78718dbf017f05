package model

import "time"

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type Category string

const (
	CategoryFunctional    Category = "FUNCTIONAL"
	CategoryNonFunctional Category = "NON_FUNCTIONAL"
	CategoryIntegration   Category = "INTEGRATION"
	CategoryPerformance   Category = "PERFORMANCE"
	CategorySecurity      Category = "SECURITY"
	CategoryUsability     Category = "USABILITY"
	CategoryRegression    Category = "REGRESSION"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFunctional, CategoryNonFunctional, CategoryIntegration,
		CategoryPerformance, CategorySecurity, CategoryUsability, CategoryRegression:
		return true
	}
	return false
}

type CaseSource string

const (
	CaseSourceGenerated CaseSource = "generated"
	CaseSourceManual    CaseSource = "manual"
)

// TestCase is the atomic unit of a plan. Its ID is unique across the whole
// session, not just its iteration, and is stable across edits.
type TestCase struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Preconditions       string     `json:"preconditions"`
	Steps               []string   `json:"steps"`
	ExpectedResult      string     `json:"expected_result"`
	Priority            Priority   `json:"priority"`
	Category            Category   `json:"category"`
	EstimatedTime       float64    `json:"estimated_time"` // minutes
	RequirementsCovered []string   `json:"requirements_covered"`
	Tags                []string   `json:"tags"`
	AutomationCandidate bool       `json:"automation_candidate"`
	Source              CaseSource `json:"source"`
	CreatedBy           string     `json:"created_by"`
	UpdatedBy           string     `json:"updated_by,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
