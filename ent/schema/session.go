package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Session declares the durable Session record (spec.md §3 "Session record"):
// pending confirmations and multi-turn wizard progress. This schema is kept
// as the declarative source of truth for pkg/database/migrations; the
// runtime store in pkg/session queries the table directly through
// database/sql rather than a generated ent client.
type Session struct {
	ent.Schema
}

func (Session) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("id").
			Unique().
			Immutable(),
		field.Int64("user_id").
			Immutable(),
		field.Enum("kind").
			Values("pending_confirmation", "wizard").
			Immutable(),
		field.Enum("status").
			Values("PENDING", "CONFIRMED", "CANCELLED", "DONE", "EXPIRED").
			Default("PENDING"),
		field.JSON("pending_action", map[string]any{}).
			Optional().
			Nillable(),
		field.JSON("wizard_state", map[string]any{}).
			Optional().
			Nillable(),
		field.JSON("conversation_history", []map[string]any{}).
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
		field.Time("expires_at"),
	}
}

func (Session) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "status"),
		index.Fields("status", "expires_at"),
	}
}
