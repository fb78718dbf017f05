// Package coverage derives coverage metrics from a session's iterations.
// Everything here is pure: same cases in, same report out (modulo the
// calculated_at stamp).
package coverage

import (
	"fmt"
	"math"
	"sort"
	"time"

	"planforge.app/forge/internal/model"
)

// Calculate walks every case in every iteration once and produces the full
// coverage report against the target percentage.
func Calculate(iterations []model.Iteration, targetCoverage float64) *model.CoverageReport {
	totalCases := 0
	totalTime := 0.0
	byPriority := map[model.Priority]int{
		model.PriorityHigh:   0,
		model.PriorityMedium: 0,
		model.PriorityLow:    0,
	}
	byCategory := map[model.Category]int{}

	requirements := map[string]*model.RequirementCoverage{}
	iterationRows := make([]model.IterationAnalysis, 0, len(iterations))

	for _, it := range iterations {
		row := model.IterationAnalysis{
			IterationNumber:      it.IterationNumber,
			TestCasesCount:       len(it.TestCases),
			PriorityDistribution: map[model.Priority]int{},
			CategoryDistribution: map[model.Category]int{},
		}
		iterReqs := map[string]struct{}{}

		for _, tc := range it.TestCases {
			totalCases++
			byPriority[tc.Priority]++
			byCategory[tc.Category]++
			totalTime += tc.EstimatedTime

			row.PriorityDistribution[tc.Priority]++
			row.CategoryDistribution[tc.Category]++
			row.EstimatedTime += tc.EstimatedTime

			for _, req := range tc.RequirementsCovered {
				iterReqs[req] = struct{}{}
				detail, ok := requirements[req]
				if !ok {
					detail = &model.RequirementCoverage{RequirementID: req}
					requirements[req] = detail
				}
				detail.TestCases = append(detail.TestCases, model.CaseRef{
					CaseID:    tc.ID,
					CaseTitle: tc.Title,
					Priority:  tc.Priority,
					Category:  tc.Category,
				})
				detail.CoverageCount++
			}
		}

		row.RequirementsCovered = sortedKeys(iterReqs)
		iterationRows = append(iterationRows, row)
	}

	// Every referenced requirement is covered by construction; the two sets
	// are tracked separately to allow a requirement catalog larger than what
	// the cases reference.
	allReqs := make([]string, 0, len(requirements))
	for req := range requirements {
		allReqs = append(allReqs, req)
	}
	sort.Strings(allReqs)
	coveredReqs := append([]string(nil), allReqs...)
	uncoveredReqs := []string{}

	actual := 0.0
	if len(allReqs) > 0 {
		actual = float64(len(coveredReqs)) / float64(len(allReqs)) * 100
	}
	gap := targetCoverage - actual

	detail := make([]model.RequirementCoverage, 0, len(requirements))
	for _, req := range allReqs {
		detail = append(detail, *requirements[req])
	}

	return &model.CoverageReport{
		Summary: model.CoverageSummary{
			TotalTestCases:            totalCases,
			TotalRequirements:         len(allReqs),
			CoveredRequirements:       len(coveredReqs),
			UncoveredRequirements:     len(uncoveredReqs),
			TargetCoveragePercentage:  targetCoverage,
			ActualCoveragePercentage:  round2(actual),
			CoverageGap:               round2(gap),
			TotalEstimatedTimeMinutes: totalTime,
			TotalEstimatedTimeHours:   round2(totalTime / 60),
			AverageEstimatedTime:      averageTime(totalTime, totalCases),
		},
		PriorityDistribution:  byPriority,
		PriorityPercentages:   percentages(byPriority, totalCases),
		CategoryDistribution:  byCategory,
		CategoryPercentages:   percentages(byCategory, totalCases),
		AllRequirements:       allReqs,
		CoveredRequirements:   coveredReqs,
		UncoveredRequirements: uncoveredReqs,
		RequirementsDetail:    detail,
		IterationsAnalysis:    iterationRows,
		Recommendations:       recommendations(actual, targetCoverage, byPriority, byCategory, totalCases),
		CalculatedAt:          time.Now().UTC(),
	}
}

// recommendations evaluates independent rules in a fixed order so output is
// deterministic for identical input.
func recommendations(actual, target float64, byPriority map[model.Priority]int, byCategory map[model.Category]int, totalCases int) []string {
	recs := []string{}

	if actual < target {
		recs = append(recs, fmt.Sprintf(
			"Current coverage (%.1f%%) is %.1f%% below the target (%.0f%%). Add cases for uncovered requirements.",
			actual, target-actual, target))
	}

	if totalCases > 0 {
		highShare := float64(byPriority[model.PriorityHigh]) / float64(totalCases) * 100
		if highShare < 20 {
			recs = append(recs, "Consider adding more high-priority cases for critical functionality.")
		} else if highShare > 60 {
			recs = append(recs, "The plan has many high-priority cases. Consider reviewing the priorities.")
		}
	}

	usedCategories := 0
	for _, n := range byCategory {
		if n > 0 {
			usedCategories++
		}
	}
	if usedCategories == 1 {
		recs = append(recs, "The plan focuses on a single category. Consider adding cases from other categories for broader coverage.")
	}

	if totalCases < 10 {
		recs = append(recs, "The plan has few test cases. Consider adding more cases to improve coverage.")
	} else if totalCases > 100 {
		recs = append(recs, "The plan has many test cases. Consider prioritizing and grouping them into execution phases.")
	}

	return recs
}

func percentages[K comparable](counts map[K]int, total int) map[K]float64 {
	out := make(map[K]float64, len(counts))
	for k, n := range counts {
		if total > 0 {
			out[k] = round2(float64(n) / float64(total) * 100)
		} else {
			out[k] = 0
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func averageTime(totalTime float64, totalCases int) float64 {
	if totalCases == 0 {
		return 0
	}
	return round2(totalTime / float64(totalCases))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
