package database

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateGINIndexes creates full-text search GIN indexes not expressed in the
// declarative ent/schema (full-text search predicates aren't part of ent's
// field DSL), mirroring the teacher's post-migration index step.
func CreateGINIndexes(db *sql.DB) error {
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_action_gin
		ON audit_log USING gin(to_tsvector('english', action))`)
	if err != nil {
		return fmt.Errorf("create audit_log action GIN index: %w", err)
	}

	return nil
}
