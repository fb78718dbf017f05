package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/arangodb/shared"
	"github.com/arangodb/go-driver/v2/connection"

	"planforge.app/forge/internal/model"
)

const sessionsCollection = "sessions"

// SessionStore is the only component touching durable session state. Put is
// a full-document overwrite: the whole iterations structure is written in
// one call, which is what makes a mutation atomic at the aggregate level.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*model.Session, error)
	Create(ctx context.Context, session *model.Session) error
	Put(ctx context.Context, session *model.Session) error
}

type ArangoConfig struct {
	URL      string
	Username string
	Password string
	Database string
}

func (c ArangoConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("arangodb URL is required")
	}
	if c.Username == "" {
		return fmt.Errorf("arangodb username is required")
	}
	if c.Database == "" {
		return fmt.Errorf("arangodb database name is required")
	}
	return nil
}

// ArangoSessionStore keeps one document per session, keyed by session id.
type ArangoSessionStore struct {
	arangoClient arangodb.Client
	db           arangodb.Database
	col          arangodb.Collection
	cfg          ArangoConfig
}

func NewArangoSessionStore(ctx context.Context, cfg ArangoConfig) (*ArangoSessionStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("arangodb config: %w", err)
	}

	endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
	conn := connection.NewHttp2Connection(connection.DefaultHTTP2ConfigurationWrapper(endpoint, true))

	auth := connection.NewBasicAuth(cfg.Username, cfg.Password)
	if err := conn.SetAuthentication(auth); err != nil {
		return nil, fmt.Errorf("arangodb auth: %w", err)
	}

	s := &ArangoSessionStore{
		arangoClient: arangodb.NewClient(conn),
		cfg:          cfg,
	}

	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ensure creates the database and sessions collection on first run.
func (s *ArangoSessionStore) ensure(ctx context.Context) error {
	start := time.Now()

	exists, err := s.arangoClient.DatabaseExists(ctx, s.cfg.Database)
	if err != nil {
		return fmt.Errorf("check database exists: %w", err)
	}
	if !exists {
		if _, err := s.arangoClient.CreateDatabase(ctx, s.cfg.Database, nil); err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		slog.InfoContext(ctx, "arangodb database created",
			"database", s.cfg.Database,
			"duration_ms", time.Since(start).Milliseconds())
	}

	db, err := s.arangoClient.GetDatabase(ctx, s.cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("get database: %w", err)
	}
	s.db = db

	colExists, err := db.CollectionExists(ctx, sessionsCollection)
	if err != nil {
		return fmt.Errorf("check collection %s exists: %w", sessionsCollection, err)
	}
	if !colExists {
		if _, err := db.CreateCollectionV2(ctx, sessionsCollection, nil); err != nil {
			return fmt.Errorf("create collection %s: %w", sessionsCollection, err)
		}
	}

	col, err := db.GetCollection(ctx, sessionsCollection, nil)
	if err != nil {
		return fmt.Errorf("get collection %s: %w", sessionsCollection, err)
	}
	s.col = col

	return nil
}

// sessionDocument adds the Arango key field to the session payload.
type sessionDocument struct {
	Key string `json:"_key"`
	model.Session
}

func (s *ArangoSessionStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	var doc sessionDocument
	if _, err := s.col.ReadDocument(ctx, sessionID, &doc); err != nil {
		if shared.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	return &doc.Session, nil
}

func (s *ArangoSessionStore) Create(ctx context.Context, session *model.Session) error {
	doc := sessionDocument{Key: session.ID, Session: *session}
	if _, err := s.col.CreateDocument(ctx, doc); err != nil {
		if shared.IsConflict(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create session %s: %w", session.ID, err)
	}
	return nil
}

func (s *ArangoSessionStore) Put(ctx context.Context, session *model.Session) error {
	doc := sessionDocument{Key: session.ID, Session: *session}
	if _, err := s.col.ReplaceDocument(ctx, session.ID, doc); err != nil {
		if shared.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("replace session %s: %w", session.ID, err)
	}
	return nil
}
