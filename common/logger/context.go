package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Fields flow through context enrichment so every log statement in
// a request carries the session/case it operates on.
type LogFields struct {
	SessionID       *string // Plan session ID
	CaseID          *string // Test case ID being mutated
	IterationNumber *int    // Iteration targeted by the mutation
	Component       string  // Component name (e.g. "forge.service.plan")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, incoming LogFields) LogFields {
	result := existing

	if incoming.SessionID != nil {
		result.SessionID = incoming.SessionID
	}
	if incoming.CaseID != nil {
		result.CaseID = incoming.CaseID
	}
	if incoming.IterationNumber != nil {
		result.IterationNumber = incoming.IterationNumber
	}
	if incoming.Component != "" {
		result.Component = incoming.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{SessionID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Useful for logging potentially long strings like prompts or raw model output.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
