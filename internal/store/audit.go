package store

import (
	"context"
	"fmt"
	"time"

	"planforge.app/forge/core/db"
)

// AuditAction identifies the kind of mutation recorded.
type AuditAction string

const (
	AuditActionConfigure    AuditAction = "configure"
	AuditActionGenerate     AuditAction = "generate"
	AuditActionManualCreate AuditAction = "manual_create"
	AuditActionEdit         AuditAction = "edit"
	AuditActionExport       AuditAction = "export"
	AuditActionRequirements AuditAction = "requirements"
)

// AuditEntry is one row of the append-only mutation log.
type AuditEntry struct {
	SessionID string
	CaseID    string // empty for session-level mutations
	Action    AuditAction
	Actor     string
	At        time.Time
}

// AuditStore appends mutation records to Postgres. Writes are best-effort
// from the caller's point of view: a failed append never fails the request.
type AuditStore struct {
	db *db.DB
}

func NewAuditStore(database *db.DB) *AuditStore {
	return &AuditStore{db: database}
}

// EnsureSchema creates the audit table on first run.
func (s *AuditStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS plan_audit (
			id          BIGSERIAL PRIMARY KEY,
			session_id  TEXT        NOT NULL,
			case_id     TEXT        NOT NULL DEFAULT '',
			action      TEXT        NOT NULL,
			actor       TEXT        NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS plan_audit_session_idx ON plan_audit (session_id, created_at);`

	if _, err := s.db.Pool().Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (s *AuditStore) Append(ctx context.Context, entry AuditEntry) error {
	const insert = `
		INSERT INTO plan_audit (session_id, case_id, action, actor, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.Pool().Exec(ctx, insert,
		entry.SessionID, entry.CaseID, string(entry.Action), entry.Actor, entry.At)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListBySession returns the most recent entries for a session, newest first.
func (s *AuditStore) ListBySession(ctx context.Context, sessionID string, limit int32) ([]AuditEntry, error) {
	const query = `
		SELECT session_id, case_id, action, actor, created_at
		FROM plan_audit
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.Pool().Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var action string
		if err := rows.Scan(&e.SessionID, &e.CaseID, &action, &e.Actor, &e.At); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action = AuditAction(action)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
