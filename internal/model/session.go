package model

import "time"

type PlanType string

const (
	PlanTypeUnit        PlanType = "UNIT"
	PlanTypeIntegration PlanType = "INTEGRATION"
	PlanTypePerformance PlanType = "PERFORMANCE"
	PlanTypeRegression  PlanType = "REGRESSION"
)

func (t PlanType) Valid() bool {
	switch t {
	case PlanTypeUnit, PlanTypeIntegration, PlanTypePerformance, PlanTypeRegression:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusClosed SessionStatus = "closed"
)

// PlanConfiguration is immutable once the session is created.
type PlanConfiguration struct {
	PlanTitle          string   `json:"plan_title"`
	PlanType           PlanType `json:"plan_type"`
	CoveragePercentage float64  `json:"coverage_percentage"` // target, 10-100
	MinTestCases       int      `json:"min_test_cases"`      // 1-100, min <= max
	MaxTestCases       int      `json:"max_test_cases"`
	ProjectContext     string   `json:"project_context"`
}

// Iteration is one batch of test cases added together, generated or manual.
// Iteration numbers are dense, 1-based, and never reused.
type Iteration struct {
	IterationNumber int        `json:"iteration_number"`
	TestCases       []TestCase `json:"test_cases"`
	UserInput       string     `json:"user_input,omitempty"`
	SystemResponse  string     `json:"system_response,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// RequirementsDocument references an indexed requirements upload.
type RequirementsDocument struct {
	DocumentID    string    `json:"document_id"`
	Filename      string    `json:"filename"`
	IndexedChunks int       `json:"indexed_chunks"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// Session is the root aggregate representing one evolving test-plan effort.
// It is persisted as a single document; iterations are append-only and the
// coverage report is derived, never the source of truth for case data.
type Session struct {
	ID                   string                `json:"id"`
	TesterID             string                `json:"tester_id"`
	PlanConfiguration    PlanConfiguration     `json:"plan_configuration"`
	Iterations           []Iteration           `json:"iterations"`
	CoverageMetrics      *CoverageReport       `json:"coverage_metrics,omitempty"`
	RequirementsDocument *RequirementsDocument `json:"requirements_document,omitempty"`
	Status               SessionStatus         `json:"status"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// TotalCases counts test cases across all iterations.
func (s *Session) TotalCases() int {
	n := 0
	for _, it := range s.Iterations {
		n += len(it.TestCases)
	}
	return n
}

// FindCase locates a case by id via linear scan across all iterations.
// IDs are unique session-wide, so the first match is the only match.
func (s *Session) FindCase(caseID string) (*TestCase, int, bool) {
	for i := range s.Iterations {
		for j := range s.Iterations[i].TestCases {
			if s.Iterations[i].TestCases[j].ID == caseID {
				return &s.Iterations[i].TestCases[j], s.Iterations[i].IterationNumber, true
			}
		}
	}
	return nil, 0, false
}
