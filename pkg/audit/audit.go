// Package audit implements the durable mutation audit trail (spec.md §4.8
// "every mutation tool writes one audit entry", §7 "audit-log failures are
// logged but do not propagate user-visible errors"). Per spec.md §1, audit
// logging is a fire-and-forget collaborator from the mutation tools'
// perspective: Record never blocks the caller on a slow write and never
// returns an error the caller must handle.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"
)

// Entry is one audit record.
type Entry struct {
	Action     string
	EntityType string
	EntityID   *int64
	UserID     int64
	Before     map[string]any
	After      map[string]any
}

// Logger persists audit entries to the audit_log table.
type Logger struct {
	db *sql.DB
}

// NewLogger wraps an open connection pool.
func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

// Record writes one audit entry, masking PII out of Before/After snapshots.
// It is fire-and-forget: the write happens on a background goroutine so a
// slow or failing audit write never blocks or fails the mutation it
// describes; failures are logged only (spec.md §7).
func (l *Logger) Record(ctx context.Context, e Entry) {
	go l.write(e)
}

func (l *Logger) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	beforeJSON, err := marshalSnapshot(e.Before)
	if err != nil {
		slog.Error("audit: marshal before snapshot failed", "action", e.Action, "error", err)
		return
	}
	afterJSON, err := marshalSnapshot(e.After)
	if err != nil {
		slog.Error("audit: marshal after snapshot failed", "action", e.Action, "error", err)
		return
	}

	const q = `
		INSERT INTO audit_log (action, entity_type, entity_id, user_id, before, after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = l.db.ExecContext(ctx, q, e.Action, e.EntityType, e.EntityID, e.UserID,
		beforeJSON, afterJSON, time.Now().UTC())
	if err != nil {
		slog.Error("audit: write failed", "action", e.Action, "entity_type", e.EntityType, "error", err)
	}
}

func marshalSnapshot(fields map[string]any) ([]byte, error) {
	if fields == nil {
		return nil, nil
	}
	return json.Marshal(MaskFields(fields))
}
