// Package session implements the durable Session & Wizard State Store
// (spec.md §4, §3 "Session record"): pending confirmations and multi-turn
// wizard progress, persisted in Postgres with compare-and-set status
// transitions and expiry.
package session

import (
	"time"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

// Kind distinguishes what a Session persists.
type Kind string

const (
	KindPendingConfirmation Kind = "pending_confirmation"
	KindWizard              Kind = "wizard"
)

// Status is the lifecycle state of a Session (spec.md §4 invariants, §5
// "Session CAS").
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusDone      Status = "DONE"
	StatusExpired   Status = "EXPIRED"
)

// DefaultExpiry is the default session lifetime (spec.md §4 "default expiry
// 1 hour").
const DefaultExpiry = 1 * time.Hour

// PendingAction snapshots a risky mutation awaiting confirmation
// (spec.md §3 Session record).
type PendingAction struct {
	Action       string            `json:"action"`
	Parameters   map[string]any    `json:"parameters"`
	ResolvedType flow.EntityType   `json:"resolved_type"`
	ResolvedID   *int64            `json:"resolved_id,omitempty"`
	Consequences flow.Consequences `json:"consequences"`
}

// Session is the durable record backing multi-turn interactions.
type Session struct {
	ID                  string
	UserID              int64
	Kind                Kind
	PendingAction       *PendingAction
	WizardState         *flow.Wizard
	Status              Status
	ConversationHistory []flow.Turn
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ExpiresAt           time.Time
}

// Expired reports whether the session has passed its expiry at instant now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
