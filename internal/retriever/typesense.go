package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"github.com/typesense/typesense-go/v4/typesense/api/pointer"
)

const (
	// chunkSize bounds the characters per indexed chunk; chunkOverlap carries
	// trailing context into the next chunk so requirements split across a
	// boundary still match.
	chunkSize    = 800
	chunkOverlap = 100
)

type TypesenseConfig struct {
	URL        string
	APIKey     string
	Collection string
}

// TypesenseStore implements Retriever and Indexer over a typesense
// collection of requirements chunks.
type TypesenseStore struct {
	client     *typesense.Client
	collection string
}

func NewTypesenseStore(ctx context.Context, cfg TypesenseConfig) (*TypesenseStore, error) {
	if cfg.URL == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("typesense URL and API key are required")
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "requirements"
	}

	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(10*time.Second),
	)

	s := &TypesenseStore{client: client, collection: collection}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TypesenseStore) ensureCollection(ctx context.Context) error {
	if _, err := s.client.Collection(s.collection).Retrieve(ctx); err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: s.collection,
		Fields: []api.Field{
			{Name: "content", Type: "string"},
			{Name: "session_id", Type: "string", Facet: pointer.True()},
			{Name: "document_id", Type: "string", Facet: pointer.True()},
			{Name: "filename", Type: "string"},
			{Name: "chunk_index", Type: "int32"},
		},
	}
	if _, err := s.client.Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("create typesense collection %s: %w", s.collection, err)
	}
	return nil
}

func (s *TypesenseStore) IndexDocument(ctx context.Context, sessionID, documentID, filename, content string) (int, error) {
	chunks := chunk(content)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document has no indexable content")
	}

	start := time.Now()
	for i, c := range chunks {
		doc := map[string]any{
			"id":          fmt.Sprintf("%s_%d", documentID, i),
			"content":     c,
			"session_id":  sessionID,
			"document_id": documentID,
			"filename":    filename,
			"chunk_index": int32(i),
		}
		if _, err := s.client.Collection(s.collection).Documents().Create(ctx, doc, &api.DocumentIndexParameters{}); err != nil {
			return 0, fmt.Errorf("index chunk %d of %s: %w", i, documentID, err)
		}
	}

	slog.InfoContext(ctx, "requirements document indexed",
		"document_id", documentID,
		"chunks", len(chunks),
		"duration_ms", time.Since(start).Milliseconds())

	return len(chunks), nil
}

func (s *TypesenseStore) Retrieve(ctx context.Context, query string, maxResults int) ([]Hit, error) {
	if maxResults < 1 || maxResults > 50 {
		maxResults = 10
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("content,filename"),
		PerPage: pointer.Int(maxResults),
	}

	result, err := s.client.Collection(s.collection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("typesense search: %w", err)
	}

	var hits []Hit
	if result.Hits != nil {
		for _, h := range *result.Hits {
			if h.Document == nil {
				continue
			}
			doc := *h.Document
			content, _ := doc["content"].(string)
			if content == "" {
				continue
			}
			score := 0.0
			if h.TextMatch != nil {
				score = float64(*h.TextMatch)
			}
			location := ""
			if filename, ok := doc["filename"].(string); ok {
				location = filename
			}
			hits = append(hits, Hit{Content: content, Score: score, Location: location})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

// chunk splits content into overlapping windows. Boundaries are byte-based;
// requirements documents are expected to be plain text.
func chunk(content string) []string {
	var chunks []string
	for start := 0; start < len(content); {
		end := start + chunkSize
		if end >= len(content) {
			if trimmed := content[start:]; len(trimmed) > 0 {
				chunks = append(chunks, trimmed)
			}
			break
		}
		chunks = append(chunks, content[start:end])
		start = end - chunkOverlap
	}
	return chunks
}
