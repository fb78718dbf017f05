package service_test

import (
	"context"

	"planforge.app/forge/common/llm"
	"planforge.app/forge/internal/model"
	"planforge.app/forge/internal/retriever"
	"planforge.app/forge/internal/store"
)

type mockSessionStore struct {
	getFn    func(ctx context.Context, sessionID string) (*model.Session, error)
	createFn func(ctx context.Context, session *model.Session) error
	putFn    func(ctx context.Context, session *model.Session) error
	putCalls int
}

func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	if m.getFn != nil {
		return m.getFn(ctx, sessionID)
	}
	return nil, store.ErrNotFound
}

func (m *mockSessionStore) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionStore) Put(ctx context.Context, session *model.Session) error {
	m.putCalls++
	if m.putFn != nil {
		return m.putFn(ctx, session)
	}
	return nil
}

type mockCoverageCache struct {
	getFn    func(ctx context.Context, sessionID string) (*model.CoverageReport, error)
	setFn    func(ctx context.Context, sessionID string, report *model.CoverageReport) error
	setCalls int
}

func (m *mockCoverageCache) Get(ctx context.Context, sessionID string) (*model.CoverageReport, error) {
	if m.getFn != nil {
		return m.getFn(ctx, sessionID)
	}
	return nil, store.ErrNotFound
}

func (m *mockCoverageCache) Set(ctx context.Context, sessionID string, report *model.CoverageReport) error {
	m.setCalls++
	if m.setFn != nil {
		return m.setFn(ctx, sessionID, report)
	}
	return nil
}

type mockAuditor struct {
	appendFn func(ctx context.Context, entry store.AuditEntry) error
	listFn   func(ctx context.Context, sessionID string, limit int32) ([]store.AuditEntry, error)
	entries  []store.AuditEntry
}

func (m *mockAuditor) Append(ctx context.Context, entry store.AuditEntry) error {
	m.entries = append(m.entries, entry)
	if m.appendFn != nil {
		return m.appendFn(ctx, entry)
	}
	return nil
}

func (m *mockAuditor) ListBySession(ctx context.Context, sessionID string, limit int32) ([]store.AuditEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, sessionID, limit)
	}
	return nil, nil
}

type mockExportStore struct {
	putFn func(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

func (m *mockExportStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if m.putFn != nil {
		return m.putFn(ctx, key, data, contentType)
	}
	return "/exports/" + key, nil
}

type mockLLMClient struct {
	completeFn func(ctx context.Context, req llm.Request) (*llm.Response, error)
}

func (m *mockLLMClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, req)
	}
	return &llm.Response{Text: `{"test_cases": []}`}, nil
}

func (m *mockLLMClient) Model() string {
	return "mock-model"
}

type mockRetriever struct {
	retrieveFn func(ctx context.Context, query string, maxResults int) ([]retriever.Hit, error)
	indexFn    func(ctx context.Context, sessionID, documentID, filename, content string) (int, error)
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, maxResults int) ([]retriever.Hit, error) {
	if m.retrieveFn != nil {
		return m.retrieveFn(ctx, query, maxResults)
	}
	return nil, nil
}

func (m *mockRetriever) IndexDocument(ctx context.Context, sessionID, documentID, filename, content string) (int, error) {
	if m.indexFn != nil {
		return m.indexFn(ctx, sessionID, documentID, filename, content)
	}
	return 1, nil
}
