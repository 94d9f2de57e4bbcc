package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RudraKhare/movi-agent/pkg/apperr"
	"github.com/RudraKhare/movi-agent/pkg/flow"
)

// legalTransitions enumerates the only status changes the store accepts
// (spec.md §5 "Session CAS": PENDING -> CONFIRMED|CANCELLED|EXPIRED, and
// CONFIRMED -> DONE once the confirmed action has executed).
// A wizard session's own "confirm" step commits directly, so PENDING->DONE
// is also legal for Kind=wizard sessions (spec.md §4.7 "on the confirm step,
// commit ... then terminate the wizard (mark Session DONE)").
var legalTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusConfirmed: true,
		StatusCancelled: true,
		StatusExpired:   true,
		StatusDone:      true,
	},
	StatusConfirmed: {
		StatusDone: true,
	},
}

// Store persists Session records in Postgres with compare-and-set status
// transitions, mirroring the teacher's direct *sql.DB query style (the ent
// generated client is not part of this build; see ent/schema for the
// declarative schema this table is migrated from).
type Store struct {
	db *sql.DB
}

// NewStore wraps an open connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create persists a new session in PENDING status, returning its generated ID.
func (s *Store) Create(ctx context.Context, sess *Session) (string, error) {
	if sess.UserID == 0 {
		return "", apperr.NewValidationError("user_id", "must be set")
	}
	if sess.Kind != KindPendingConfirmation && sess.Kind != KindWizard {
		return "", apperr.NewValidationError("kind", "must be pending_confirmation or wizard")
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(DefaultExpiry)

	pendingJSON, err := marshalNullable(sess.PendingAction)
	if err != nil {
		return "", fmt.Errorf("marshal pending_action: %w", err)
	}
	wizardJSON, err := marshalNullable(sess.WizardState)
	if err != nil {
		return "", fmt.Errorf("marshal wizard_state: %w", err)
	}
	historyJSON, err := json.Marshal(sess.ConversationHistory)
	if err != nil {
		return "", fmt.Errorf("marshal conversation_history: %w", err)
	}

	const q = `
		INSERT INTO sessions
			(id, user_id, kind, status, pending_action, wizard_state, conversation_history, created_at, updated_at, expires_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $8, $9)`
	_, err = s.db.ExecContext(ctx, q, id, sess.UserID, sess.Kind, StatusPending,
		pendingJSON, wizardJSON, historyJSON, now, expiresAt)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// Get loads a session by ID.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	const q = `
		SELECT id, user_id, kind, status, pending_action, wizard_state, conversation_history,
		       created_at, updated_at, expires_at
		FROM sessions WHERE id = $1`
	row := s.db.QueryRowContext(ctx, q, id)

	var (
		sess                          Session
		pendingJSON, wizardJSON       []byte
		historyJSON                   []byte
	)
	err := row.Scan(&sess.ID, &sess.UserID, &sess.Kind, &sess.Status,
		&pendingJSON, &wizardJSON, &historyJSON, &sess.CreatedAt, &sess.UpdatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if len(pendingJSON) > 0 {
		sess.PendingAction = &PendingAction{}
		if err := json.Unmarshal(pendingJSON, sess.PendingAction); err != nil {
			return nil, fmt.Errorf("unmarshal pending_action: %w", err)
		}
	}
	if len(wizardJSON) > 0 {
		sess.WizardState = &flow.Wizard{}
		if err := json.Unmarshal(wizardJSON, sess.WizardState); err != nil {
			return nil, fmt.Errorf("unmarshal wizard_state: %w", err)
		}
	}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &sess.ConversationHistory); err != nil {
			return nil, fmt.Errorf("unmarshal conversation_history: %w", err)
		}
	}
	return &sess, nil
}

// Transition performs a compare-and-set status change: the row is only
// updated if it is currently in `from` status, and `from`->`to` must be a
// legal transition. ErrConcurrentModification is returned when the row's
// current status no longer matches `from` (another request already acted on
// it), distinguishing that race from a plain not-found.
func (s *Store) Transition(ctx context.Context, id string, from, to Status) error {
	if !legalTransitions[from][to] {
		return apperr.NewValidationError("status", fmt.Sprintf("illegal transition %s -> %s", from, to))
	}
	if from == StatusPending && to == StatusDone {
		sess, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if sess.Kind != KindWizard {
			return apperr.NewValidationError("status", fmt.Sprintf("illegal transition %s -> %s for %s session", from, to, sess.Kind))
		}
	}

	const q = `UPDATE sessions SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := s.db.ExecContext(ctx, q, to, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		if _, getErr := s.Get(ctx, id); errors.Is(getErr, apperr.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return apperr.ErrConcurrentModification
	}
	return nil
}

// UpdateWizardState persists the next step of an in-progress wizard,
// replacing its stored conversation history with history.
func (s *Store) UpdateWizardState(ctx context.Context, id string, w *flow.Wizard, history []flow.Turn) error {
	wizardJSON, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal wizard_state: %w", err)
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal conversation_history: %w", err)
	}
	const q = `
		UPDATE sessions
		SET wizard_state = $1, conversation_history = $2, updated_at = $3
		WHERE id = $4 AND status = $5`
	res, err := s.db.ExecContext(ctx, q, wizardJSON, historyJSON, time.Now().UTC(), id, StatusPending)
	if err != nil {
		return fmt.Errorf("update wizard state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperr.ErrConcurrentModification
	}
	return nil
}

// ExpireOverdue transitions every PENDING session whose expires_at has
// passed to EXPIRED, returning the number of rows affected. Used by Reaper.
func (s *Store) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	const q = `UPDATE sessions SET status = $1, updated_at = $2 WHERE status = $3 AND expires_at < $2`
	res, err := s.db.ExecContext(ctx, q, StatusExpired, now, StatusPending)
	if err != nil {
		return 0, fmt.Errorf("expire overdue sessions: %w", err)
	}
	return res.RowsAffected()
}

func marshalNullable(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case *PendingAction:
		if t == nil {
			return nil, nil
		}
	case *flow.Wizard:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
