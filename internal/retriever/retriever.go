// Package retriever indexes requirements documents and retrieves relevant
// context for generation. Retrieval is best-effort: a failure degrades to
// "no context available" rather than aborting the caller's request.
package retriever

import (
	"context"
	"errors"
)

// ErrDisabled is returned by indexing when no search backend is configured.
var ErrDisabled = errors.New("retrieval backend not configured")

// Hit is one retrieved context fragment, ordered by relevance.
type Hit struct {
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
	Location string  `json:"location,omitempty"`
}

// Retriever serves context queries.
type Retriever interface {
	Retrieve(ctx context.Context, query string, maxResults int) ([]Hit, error)
}

// Indexer ingests requirements documents, chunked, tagged with the owning
// session. Returns the number of chunks indexed.
type Indexer interface {
	IndexDocument(ctx context.Context, sessionID, documentID, filename, content string) (int, error)
}

// Disabled satisfies both interfaces when no backend is configured: queries
// return no context, indexing reports ErrDisabled.
type Disabled struct{}

func (Disabled) Retrieve(ctx context.Context, query string, maxResults int) ([]Hit, error) {
	return nil, nil
}

func (Disabled) IndexDocument(ctx context.Context, sessionID, documentID, filename, content string) (int, error) {
	return 0, ErrDisabled
}
