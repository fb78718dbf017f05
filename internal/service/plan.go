// Package service orchestrates plan sessions: it owns the
// load-mutate-persist cycle around the stores and composes the pure plan,
// coverage, and export packages with the generation and retrieval
// collaborators.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"planforge.app/forge/common"
	"planforge.app/forge/common/id"
	"planforge.app/forge/common/llm"
	"planforge.app/forge/common/logger"
	"planforge.app/forge/internal/coverage"
	"planforge.app/forge/internal/export"
	"planforge.app/forge/internal/model"
	"planforge.app/forge/internal/plan"
	"planforge.app/forge/internal/retriever"
	"planforge.app/forge/internal/store"
)

const (
	// maxContextHits bounds how many retrieved fragments feed one generation.
	maxContextHits = 5

	generationTemperature = 0.7
	generationMaxTokens   = 4000
)

// CoverageCacheStore is the cache surface the service needs. A nil cache is
// valid; everything falls through to recomputation.
type CoverageCacheStore interface {
	Get(ctx context.Context, sessionID string) (*model.CoverageReport, error)
	Set(ctx context.Context, sessionID string, report *model.CoverageReport) error
}

// Auditor records mutations. Appends are best-effort and never fail the
// request they describe.
type Auditor interface {
	Append(ctx context.Context, entry store.AuditEntry) error
	ListBySession(ctx context.Context, sessionID string, limit int32) ([]store.AuditEntry, error)
}

// PlanService is the session orchestration surface exposed to transports.
type PlanService interface {
	CreateSession(ctx context.Context, testerID string, cfg model.PlanConfiguration) (*model.Session, error)
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	GenerateCases(ctx context.Context, sessionID, userInput string) (*GenerateResult, error)
	AddManualCase(ctx context.Context, sessionID string, in plan.CaseInput, iterationNumber *int) (*ManualCaseResult, error)
	EditCase(ctx context.Context, sessionID, caseID string, in plan.CaseInput) (*CaseResult, error)
	GetCoverage(ctx context.Context, sessionID string) (*model.CoverageReport, error)
	ExportPlan(ctx context.Context, sessionID string, format export.Format, opts export.Options) (*ExportResult, error)
	AttachRequirements(ctx context.Context, sessionID, filename, content string) (*model.RequirementsDocument, error)
	Search(ctx context.Context, query string, maxResults int) ([]retriever.Hit, error)
	GetAuditLog(ctx context.Context, sessionID string, limit int32) ([]store.AuditEntry, error)
}

// planService implements every session operation. All mutations follow the
// same shape: load the session document, apply a pure transform, recompute
// coverage, write the whole document back.
type planService struct {
	sessions  store.SessionStore
	cache     CoverageCacheStore
	audit     Auditor
	exports   store.ExportStore
	generator llm.Client
	retriever retriever.Retriever
	indexer   retriever.Indexer
}

func NewPlanService(
	sessions store.SessionStore,
	cache CoverageCacheStore,
	audit Auditor,
	exports store.ExportStore,
	generator llm.Client,
	ret retriever.Retriever,
	indexer retriever.Indexer,
) PlanService {
	return &planService{
		sessions:  sessions,
		cache:     cache,
		audit:     audit,
		exports:   exports,
		generator: generator,
		retriever: ret,
		indexer:   indexer,
	}
}

// CreateSession validates the plan configuration and creates a new active
// session. The configuration is immutable afterwards.
func (s *planService) CreateSession(ctx context.Context, testerID string, cfg model.PlanConfiguration) (*model.Session, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "forge.service.plan"})

	if strings.TrimSpace(testerID) == "" {
		return nil, &plan.ValidationError{Field: "tester_id", Reason: "must be a non-empty string"}
	}
	if err := plan.ValidateConfiguration(cfg); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &model.Session{
		ID:                id.NewString(),
		TesterID:          testerID,
		PlanConfiguration: cfg,
		Iterations:        []model.Iteration{},
		Status:            model.SessionStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, &StorageError{Op: "create session", Err: err}
	}

	s.recordAudit(ctx, store.AuditEntry{
		SessionID: session.ID,
		Action:    store.AuditActionConfigure,
		Actor:     testerID,
		At:        now,
	})

	slog.InfoContext(ctx, "plan session created",
		"session_id", session.ID,
		"plan_type", cfg.PlanType,
		"target_coverage", cfg.CoveragePercentage)

	return session, nil
}

// GetSession returns the full session document.
func (s *planService) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, &StorageError{Op: "get session", Err: err}
	}
	return session, nil
}

// GenerateResult reports one generation pass.
type GenerateResult struct {
	IterationNumber int                   `json:"iteration_number"`
	NewCases        []model.TestCase      `json:"new_cases"`
	Discarded       int                   `json:"discarded"`
	ContextUsed     bool                  `json:"context_used"`
	Coverage        *model.CoverageReport `json:"coverage_report"`
}

// GenerateCases runs one generation pass against the session: retrieve
// context (best-effort), prompt the generation backend, recover cases from
// the raw text, and append them as a new iteration. A generation failure
// aborts without mutating the session. Recovered cases that fail validation
// are discarded, not fatal; an empty recovery still appends an (empty)
// iteration so the exchange is preserved.
func (s *planService) GenerateCases(ctx context.Context, sessionID, userInput string) (*GenerateResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: logger.Ptr(sessionID),
		Component: "forge.service.plan",
	})

	if strings.TrimSpace(userInput) == "" {
		return nil, &plan.ValidationError{Field: "user_input", Reason: "must be a non-empty string"}
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	hits := s.retrieveContext(ctx, session, userInput)

	req := llm.Request{
		SystemPrompt: generationSystemPrompt,
		UserPrompt:   buildGenerationPrompt(session, userInput, hits),
		SchemaName:   "test_plan",
		Schema:       llm.GenerateSchema[plan.GeneratedPlan](),
		MaxTokens:    generationMaxTokens,
		Temperature:  llm.Temp(generationTemperature),
	}

	resp, err := s.generator.Complete(ctx, req)
	if err != nil {
		return nil, &UpstreamError{
			Op:        "generate test cases",
			Retryable: llm.IsRetryable(ctx, err),
			Err:       err,
		}
	}

	extracted := plan.ExtractGeneratedPlan(resp.Text)

	now := time.Now().UTC()
	cases := make([]model.TestCase, 0, len(extracted.TestCases))
	discarded := 0
	for _, in := range extracted.TestCases {
		if len(cases) >= session.PlanConfiguration.MaxTestCases {
			discarded++
			continue
		}
		tc, err := plan.NormalizeNew(in, model.CaseSourceGenerated, session.TesterID, now)
		if err != nil {
			discarded++
			slog.WarnContext(ctx, "generated case discarded",
				"reason", err.Error(),
				"title", logger.Truncate(in.Title, 80))
			continue
		}
		cases = append(cases, tc)
	}

	session.Iterations = plan.AppendGenerated(session.Iterations, cases, userInput, resp.Text, now)
	iterationNumber := session.Iterations[len(session.Iterations)-1].IterationNumber

	if err := s.persist(ctx, session, now); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, store.AuditEntry{
		SessionID: sessionID,
		Action:    store.AuditActionGenerate,
		Actor:     session.TesterID,
		At:        now,
	})

	slog.InfoContext(ctx, "generation iteration appended",
		"iteration_number", iterationNumber,
		"cases_added", len(cases),
		"cases_discarded", discarded,
		"context_fragments", len(hits),
		"completion_tokens", resp.CompletionTokens)

	return &GenerateResult{
		IterationNumber: iterationNumber,
		NewCases:        cases,
		Discarded:       discarded,
		ContextUsed:     len(hits) > 0,
		Coverage:        session.CoverageMetrics,
	}, nil
}

// ManualCaseResult is a created manual case plus non-blocking improvement
// suggestions and the recomputed coverage.
type ManualCaseResult struct {
	Case            model.TestCase        `json:"test_case"`
	IterationNumber int                   `json:"iteration_number"`
	Suggestions     []string              `json:"suggestions"`
	Coverage        *model.CoverageReport `json:"coverage_report"`
}

// CaseResult is an updated case plus the recomputed coverage.
type CaseResult struct {
	Case     model.TestCase        `json:"test_case"`
	Coverage *model.CoverageReport `json:"coverage_report"`
}

// AddManualCase validates and attaches a hand-written case. When
// iterationNumber is nil the case joins the latest iteration, or a new
// iteration #1 on an empty session.
func (s *planService) AddManualCase(ctx context.Context, sessionID string, in plan.CaseInput, iterationNumber *int) (*ManualCaseResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID:       logger.Ptr(sessionID),
		IterationNumber: iterationNumber,
		Component:       "forge.service.plan",
	})

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tc, err := plan.NormalizeNew(in, model.CaseSourceManual, session.TesterID, now)
	if err != nil {
		return nil, err
	}

	iterations, n, err := plan.AttachManual(session.Iterations, tc, iterationNumber, now)
	if err != nil {
		return nil, err
	}
	session.Iterations = iterations

	if err := s.persist(ctx, session, now); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, store.AuditEntry{
		SessionID: sessionID,
		CaseID:    tc.ID,
		Action:    store.AuditActionManualCreate,
		Actor:     session.TesterID,
		At:        now,
	})

	slog.InfoContext(ctx, "manual case added",
		"case_id", tc.ID,
		"iteration_number", n)

	return &ManualCaseResult{
		Case:            tc,
		IterationNumber: n,
		Suggestions:     plan.Suggestions(tc, session.PlanConfiguration),
		Coverage:        session.CoverageMetrics,
	}, nil
}

// EditCase replaces a case in place. Identity fields (id, source, creator,
// created_at) are preserved; unset optional fields inherit the stored values.
func (s *planService) EditCase(ctx context.Context, sessionID, caseID string, in plan.CaseInput) (*CaseResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: logger.Ptr(sessionID),
		CaseID:    logger.Ptr(caseID),
		Component: "forge.service.plan",
	})

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	prev, _, found := session.FindCase(caseID)
	if !found {
		return nil, fmt.Errorf("case %s: %w", caseID, plan.ErrCaseNotFound)
	}

	now := time.Now().UTC()
	tc, err := plan.NormalizeEdit(in, *prev, session.TesterID, now)
	if err != nil {
		return nil, err
	}

	iterations, err := plan.ReplaceCase(session.Iterations, tc)
	if err != nil {
		return nil, err
	}
	session.Iterations = iterations

	if err := s.persist(ctx, session, now); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, store.AuditEntry{
		SessionID: sessionID,
		CaseID:    caseID,
		Action:    store.AuditActionEdit,
		Actor:     session.TesterID,
		At:        now,
	})

	slog.InfoContext(ctx, "case edited", "case_id", caseID)
	return &CaseResult{Case: tc, Coverage: session.CoverageMetrics}, nil
}

// GetCoverage serves the coverage report, cache first. A cache failure is a
// miss; the report is always recomputable from the session document.
func (s *planService) GetCoverage(ctx context.Context, sessionID string) (*model.CoverageReport, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: logger.Ptr(sessionID),
		Component: "forge.service.plan",
	})

	if s.cache != nil {
		if report, err := s.cache.Get(ctx, sessionID); err == nil {
			return report, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "coverage cache read failed", "error", err)
		}
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	report := coverage.Calculate(session.Iterations, session.PlanConfiguration.CoveragePercentage)
	if s.cache != nil {
		if err := s.cache.Set(ctx, sessionID, report); err != nil {
			slog.WarnContext(ctx, "coverage cache write failed", "error", err)
		}
	}
	return report, nil
}

// ExportResult describes a persisted export artifact.
type ExportResult struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	SizeBytes   int    `json:"size_bytes"`
	CaseCount   int    `json:"case_count"`
}

// ExportPlan renders the session's cases in the requested format and
// persists the artifact. The filename is the slugified plan title plus a
// timestamp.
func (s *planService) ExportPlan(ctx context.Context, sessionID string, format export.Format, opts export.Options) (*ExportResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: logger.Ptr(sessionID),
		Component: "forge.service.plan",
	})

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	report := session.CoverageMetrics
	if opts.IncludeMetrics && report == nil {
		report = coverage.Calculate(session.Iterations, session.PlanConfiguration.CoveragePercentage)
	}

	data, err := export.Render(format, session, report, opts)
	if err != nil {
		return nil, err
	}

	slug, err := common.Slugify(session.PlanConfiguration.PlanTitle, "test-plan")
	if err != nil {
		slug = "test-plan"
	}
	now := time.Now().UTC()
	filename := fmt.Sprintf("%s_%s.%s", slug, now.Format("20060102_150405"), format.Extension())
	key := sessionID + "/" + filename

	url, err := s.exports.Put(ctx, key, data, format.ContentType())
	if err != nil {
		return nil, &StorageError{Op: "persist export", Err: err}
	}

	s.recordAudit(ctx, store.AuditEntry{
		SessionID: sessionID,
		Action:    store.AuditActionExport,
		Actor:     session.TesterID,
		At:        now,
	})

	slog.InfoContext(ctx, "plan exported",
		"format", format,
		"filename", filename,
		"size_bytes", len(data))

	return &ExportResult{
		Filename:    filename,
		URL:         url,
		ContentType: format.ContentType(),
		SizeBytes:   len(data),
		CaseCount:   session.TotalCases(),
	}, nil
}

// AttachRequirements indexes a requirements document for the session and
// records the reference on the session document.
func (s *planService) AttachRequirements(ctx context.Context, sessionID, filename, content string) (*model.RequirementsDocument, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: logger.Ptr(sessionID),
		Component: "forge.service.plan",
	})

	if strings.TrimSpace(filename) == "" {
		return nil, &plan.ValidationError{Field: "filename", Reason: "must be a non-empty string"}
	}
	if strings.TrimSpace(content) == "" {
		return nil, &plan.ValidationError{Field: "content", Reason: "must be a non-empty string"}
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	documentID := id.NewString()
	chunks, err := s.indexer.IndexDocument(ctx, sessionID, documentID, filename, content)
	if err != nil {
		if errors.Is(err, retriever.ErrDisabled) {
			return nil, ErrRetrievalDisabled
		}
		return nil, &UpstreamError{Op: "index requirements document", Retryable: true, Err: err}
	}

	now := time.Now().UTC()
	doc := &model.RequirementsDocument{
		DocumentID:    documentID,
		Filename:      filename,
		IndexedChunks: chunks,
		UploadedAt:    now,
	}
	session.RequirementsDocument = doc
	session.UpdatedAt = now

	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, &StorageError{Op: "put session", Err: err}
	}

	s.recordAudit(ctx, store.AuditEntry{
		SessionID: sessionID,
		Action:    store.AuditActionRequirements,
		Actor:     session.TesterID,
		At:        now,
	})

	slog.InfoContext(ctx, "requirements document attached",
		"document_id", documentID,
		"filename", filename,
		"indexed_chunks", chunks)

	return doc, nil
}

// Search queries the requirements index directly.
func (s *planService) Search(ctx context.Context, query string, maxResults int) ([]retriever.Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &plan.ValidationError{Field: "query", Reason: "must be a non-empty string"}
	}

	hits, err := s.retriever.Retrieve(ctx, query, maxResults)
	if err != nil {
		return nil, &UpstreamError{Op: "search requirements", Retryable: true, Err: err}
	}
	if hits == nil {
		hits = []retriever.Hit{}
	}
	return hits, nil
}

// GetAuditLog returns the most recent mutation records for a session.
func (s *planService) GetAuditLog(ctx context.Context, sessionID string, limit int32) ([]store.AuditEntry, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}

	entries, err := s.audit.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, &StorageError{Op: "list audit entries", Err: err}
	}
	if entries == nil {
		entries = []store.AuditEntry{}
	}
	return entries, nil
}

// persist recomputes coverage, stamps the session, writes it back, and
// refreshes the cache. Every mutation funnels through here so the stored
// coverage_metrics never drift from the iterations.
func (s *planService) persist(ctx context.Context, session *model.Session, now time.Time) error {
	session.CoverageMetrics = coverage.Calculate(session.Iterations, session.PlanConfiguration.CoveragePercentage)
	session.UpdatedAt = now

	if err := s.sessions.Put(ctx, session); err != nil {
		return &StorageError{Op: "put session", Err: err}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, session.ID, session.CoverageMetrics); err != nil {
			slog.WarnContext(ctx, "coverage cache refresh failed", "error", err)
		}
	}
	return nil
}

// retrieveContext fetches requirements fragments for the generation prompt.
// Failures degrade to no context; the generation request proceeds regardless.
func (s *planService) retrieveContext(ctx context.Context, session *model.Session, userInput string) []retriever.Hit {
	query := session.PlanConfiguration.PlanTitle + " " + userInput
	hits, err := s.retriever.Retrieve(ctx, query, maxContextHits)
	if err != nil {
		slog.WarnContext(ctx, "context retrieval failed, generating without context", "error", err)
		return nil
	}
	return hits
}

func (s *planService) recordAudit(ctx context.Context, entry store.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		slog.WarnContext(ctx, "audit append failed",
			"action", entry.Action,
			"error", err)
	}
}
