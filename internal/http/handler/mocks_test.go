package handler_test

import (
	"context"

	"planforge.app/forge/internal/export"
	"planforge.app/forge/internal/model"
	"planforge.app/forge/internal/plan"
	"planforge.app/forge/internal/retriever"
	"planforge.app/forge/internal/service"
	"planforge.app/forge/internal/store"
)

type mockPlanService struct {
	createSessionFn      func(ctx context.Context, testerID string, cfg model.PlanConfiguration) (*model.Session, error)
	getSessionFn         func(ctx context.Context, sessionID string) (*model.Session, error)
	generateCasesFn      func(ctx context.Context, sessionID, userInput string) (*service.GenerateResult, error)
	addManualCaseFn      func(ctx context.Context, sessionID string, in plan.CaseInput, iterationNumber *int) (*service.ManualCaseResult, error)
	editCaseFn           func(ctx context.Context, sessionID, caseID string, in plan.CaseInput) (*service.CaseResult, error)
	getCoverageFn        func(ctx context.Context, sessionID string) (*model.CoverageReport, error)
	exportPlanFn         func(ctx context.Context, sessionID string, format export.Format, opts export.Options) (*service.ExportResult, error)
	attachRequirementsFn func(ctx context.Context, sessionID, filename, content string) (*model.RequirementsDocument, error)
	searchFn             func(ctx context.Context, query string, maxResults int) ([]retriever.Hit, error)
	getAuditLogFn        func(ctx context.Context, sessionID string, limit int32) ([]store.AuditEntry, error)
}

func (m *mockPlanService) CreateSession(ctx context.Context, testerID string, cfg model.PlanConfiguration) (*model.Session, error) {
	if m.createSessionFn != nil {
		return m.createSessionFn(ctx, testerID, cfg)
	}
	return nil, nil
}

func (m *mockPlanService) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if m.getSessionFn != nil {
		return m.getSessionFn(ctx, sessionID)
	}
	return nil, store.ErrNotFound
}

func (m *mockPlanService) GenerateCases(ctx context.Context, sessionID, userInput string) (*service.GenerateResult, error) {
	if m.generateCasesFn != nil {
		return m.generateCasesFn(ctx, sessionID, userInput)
	}
	return nil, nil
}

func (m *mockPlanService) AddManualCase(ctx context.Context, sessionID string, in plan.CaseInput, iterationNumber *int) (*service.ManualCaseResult, error) {
	if m.addManualCaseFn != nil {
		return m.addManualCaseFn(ctx, sessionID, in, iterationNumber)
	}
	return nil, nil
}

func (m *mockPlanService) EditCase(ctx context.Context, sessionID, caseID string, in plan.CaseInput) (*service.CaseResult, error) {
	if m.editCaseFn != nil {
		return m.editCaseFn(ctx, sessionID, caseID, in)
	}
	return nil, nil
}

func (m *mockPlanService) GetCoverage(ctx context.Context, sessionID string) (*model.CoverageReport, error) {
	if m.getCoverageFn != nil {
		return m.getCoverageFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockPlanService) ExportPlan(ctx context.Context, sessionID string, format export.Format, opts export.Options) (*service.ExportResult, error) {
	if m.exportPlanFn != nil {
		return m.exportPlanFn(ctx, sessionID, format, opts)
	}
	return nil, nil
}

func (m *mockPlanService) AttachRequirements(ctx context.Context, sessionID, filename, content string) (*model.RequirementsDocument, error) {
	if m.attachRequirementsFn != nil {
		return m.attachRequirementsFn(ctx, sessionID, filename, content)
	}
	return nil, nil
}

func (m *mockPlanService) Search(ctx context.Context, query string, maxResults int) ([]retriever.Hit, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, maxResults)
	}
	return nil, nil
}

func (m *mockPlanService) GetAuditLog(ctx context.Context, sessionID string, limit int32) ([]store.AuditEntry, error) {
	if m.getAuditLogFn != nil {
		return m.getAuditLogFn(ctx, sessionID, limit)
	}
	return nil, nil
}
