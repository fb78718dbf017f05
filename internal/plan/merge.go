package plan

import (
	"fmt"
	"time"

	"planforge.app/forge/internal/model"
)

// AppendGenerated wraps one generation pass as a new iteration and appends
// it. Prior iterations are never mutated; the next iteration number is dense
// and 1-based. Returns the updated iterations for the caller to persist.
func AppendGenerated(iterations []model.Iteration, cases []model.TestCase, userInput, systemResponse string, now time.Time) []model.Iteration {
	next := model.Iteration{
		IterationNumber: len(iterations) + 1,
		TestCases:       cases,
		UserInput:       userInput,
		SystemResponse:  systemResponse,
		CreatedAt:       now,
	}
	return append(iterations, next)
}

// AttachManual places a manual case into an iteration. An explicit
// iterationNumber must be within [1, len(iterations)] or the operation fails
// with ErrIterationNotFound. When omitted (nil), the case lands in the last
// existing iteration, or a new iteration #1 when none exists.
// Returns the updated iterations and the iteration number used.
func AttachManual(iterations []model.Iteration, tc model.TestCase, iterationNumber *int, now time.Time) ([]model.Iteration, int, error) {
	if iterationNumber != nil {
		n := *iterationNumber
		if n < 1 || n > len(iterations) {
			return nil, 0, fmt.Errorf("iteration %d (have %d): %w", n, len(iterations), ErrIterationNotFound)
		}
		iterations[n-1].TestCases = append(iterations[n-1].TestCases, tc)
		return iterations, n, nil
	}

	if len(iterations) == 0 {
		iterations = append(iterations, model.Iteration{
			IterationNumber: 1,
			TestCases:       []model.TestCase{tc},
			CreatedAt:       now,
		})
		return iterations, 1, nil
	}

	last := len(iterations) - 1
	iterations[last].TestCases = append(iterations[last].TestCases, tc)
	return iterations, iterations[last].IterationNumber, nil
}

// ReplaceCase swaps a case in place by id, preserving iteration membership
// and position. The scan stops at the first match; ids are unique across the
// session so that is the only match. Fails with ErrCaseNotFound otherwise.
func ReplaceCase(iterations []model.Iteration, tc model.TestCase) ([]model.Iteration, error) {
	for i := range iterations {
		for j := range iterations[i].TestCases {
			if iterations[i].TestCases[j].ID == tc.ID {
				iterations[i].TestCases[j] = tc
				return iterations, nil
			}
		}
	}
	return nil, fmt.Errorf("case %s: %w", tc.ID, ErrCaseNotFound)
}
