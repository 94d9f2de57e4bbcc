package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AuditLog declares the durable audit trail written by every mutation tool
// (spec.md §4.8 "every mutation tool writes one audit entry").
type AuditLog struct {
	ent.Schema
}

func (AuditLog) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("id"),
		field.String("action").
			Immutable(),
		field.String("entity_type").
			Immutable(),
		field.Int64("entity_id").
			Optional().
			Nillable().
			Immutable(),
		field.Int64("user_id").
			Immutable(),
		field.JSON("before", map[string]any{}).
			Optional().
			Nillable().
			Immutable(),
		field.JSON("after", map[string]any{}).
			Optional().
			Nillable().
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (AuditLog) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("entity_type", "entity_id"),
		index.Fields("user_id"),
		index.Fields("created_at"),
	}
}
