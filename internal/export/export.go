// Package export renders a session's plan into downloadable artifacts.
// Rendering is flat and minimal on purpose; document layout is not a concern
// of the core.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"planforge.app/forge/internal/model"
)

type Format string

const (
	FormatJSON Format = "JSON"
	FormatCSV  Format = "CSV"
)

// ParseFormat accepts a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToUpper(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("invalid export format %q: must be one of JSON, CSV", s)
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

func (f Format) Extension() string {
	if f == FormatCSV {
		return "csv"
	}
	return "json"
}

// Options filters and shapes the rendered plan.
type Options struct {
	IncludeMetrics   bool
	FilterByPriority *model.Priority
	FilterByCategory *model.Category
}

// Render produces the artifact bytes for the requested format.
func Render(format Format, session *model.Session, report *model.CoverageReport, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return renderJSON(session, report, opts)
	case FormatCSV:
		return renderCSV(session, opts)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

type exportedCase struct {
	IterationNumber int `json:"iteration_number"`
	model.TestCase
}

func flatten(session *model.Session, opts Options) []exportedCase {
	var cases []exportedCase
	for _, it := range session.Iterations {
		for _, tc := range it.TestCases {
			if opts.FilterByPriority != nil && tc.Priority != *opts.FilterByPriority {
				continue
			}
			if opts.FilterByCategory != nil && tc.Category != *opts.FilterByCategory {
				continue
			}
			cases = append(cases, exportedCase{IterationNumber: it.IterationNumber, TestCase: tc})
		}
	}
	return cases
}

func renderJSON(session *model.Session, report *model.CoverageReport, opts Options) ([]byte, error) {
	payload := map[string]any{
		"session_id":         session.ID,
		"plan_configuration": session.PlanConfiguration,
		"status":             session.Status,
		"created_at":         session.CreatedAt,
		"updated_at":         session.UpdatedAt,
		"test_cases":         flatten(session, opts),
	}
	if opts.IncludeMetrics && report != nil {
		payload["coverage_metrics"] = report
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return data, nil
}

func renderCSV(session *model.Session, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"iteration", "id", "title", "description", "preconditions", "steps",
		"expected_result", "priority", "category", "estimated_time",
		"requirements_covered", "tags", "source", "created_at", "updated_at",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, tc := range flatten(session, opts) {
		row := []string{
			strconv.Itoa(tc.IterationNumber),
			tc.ID,
			tc.Title,
			tc.Description,
			tc.Preconditions,
			strings.Join(tc.Steps, " | "),
			tc.ExpectedResult,
			string(tc.Priority),
			string(tc.Category),
			strconv.FormatFloat(tc.EstimatedTime, 'f', -1, 64),
			strings.Join(tc.RequirementsCovered, ";"),
			strings.Join(tc.Tags, ";"),
			string(tc.Source),
			tc.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			tc.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
