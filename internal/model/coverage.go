package model

import "time"

// CaseRef points at a test case from the per-requirement detail.
type CaseRef struct {
	CaseID    string   `json:"case_id"`
	CaseTitle string   `json:"case_title"`
	Priority  Priority `json:"priority"`
	Category  Category `json:"category"`
}

// RequirementCoverage details which cases reference one requirement.
type RequirementCoverage struct {
	RequirementID string    `json:"requirement_id"`
	TestCases     []CaseRef `json:"test_cases"`
	CoverageCount int       `json:"coverage_count"`
}

// IterationAnalysis summarizes a single iteration.
type IterationAnalysis struct {
	IterationNumber      int                  `json:"iteration_number"`
	TestCasesCount       int                  `json:"test_cases_count"`
	EstimatedTime        float64              `json:"estimated_time"`
	RequirementsCovered  []string             `json:"requirements_covered"`
	PriorityDistribution map[Priority]int     `json:"priority_distribution"`
	CategoryDistribution map[Category]int     `json:"category_distribution"`
}

// CoverageSummary is the headline block of a report.
type CoverageSummary struct {
	TotalTestCases            int     `json:"total_test_cases"`
	TotalRequirements         int     `json:"total_requirements"`
	CoveredRequirements       int     `json:"covered_requirements"`
	UncoveredRequirements     int     `json:"uncovered_requirements"`
	TargetCoveragePercentage  float64 `json:"target_coverage_percentage"`
	ActualCoveragePercentage  float64 `json:"actual_coverage_percentage"`
	CoverageGap               float64 `json:"coverage_gap"` // target - actual, may be negative
	TotalEstimatedTimeMinutes float64 `json:"total_estimated_time_minutes"`
	TotalEstimatedTimeHours   float64 `json:"total_estimated_time_hours"`
	AverageEstimatedTime      float64 `json:"average_estimated_time"` // minutes per case, 0 when empty
}

// CoverageReport is derived purely from the session's iterations. Two calls
// over the same case set produce identical output except CalculatedAt.
type CoverageReport struct {
	Summary               CoverageSummary       `json:"summary"`
	PriorityDistribution  map[Priority]int      `json:"priority_distribution"`
	PriorityPercentages   map[Priority]float64  `json:"priority_percentages"`
	CategoryDistribution  map[Category]int      `json:"category_distribution"`
	CategoryPercentages   map[Category]float64  `json:"category_percentages"`
	AllRequirements       []string              `json:"all_requirements"`
	CoveredRequirements   []string              `json:"covered_requirements"`
	UncoveredRequirements []string              `json:"uncovered_requirements"`
	RequirementsDetail    []RequirementCoverage `json:"requirements_detail"`
	IterationsAnalysis    []IterationAnalysis   `json:"iterations_analysis"`
	Recommendations       []string              `json:"recommendations"`
	CalculatedAt          time.Time             `json:"calculated_at"`
}
