// Package executor implements the execute_action node (spec.md §4.8):
// dispatching intent.action to the correct tool, coercing parameters,
// enforcing the confirmation/clarification guards, and writing an audit
// entry for every mutation.
package executor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/RudraKhare/movi-agent/pkg/apperr"
	"github.com/RudraKhare/movi-agent/pkg/audit"
	"github.com/RudraKhare/movi-agent/pkg/catalog"
	"github.com/RudraKhare/movi-agent/pkg/domain"
	"github.com/RudraKhare/movi-agent/pkg/flow"
	"github.com/RudraKhare/movi-agent/pkg/session"
)

// Tool is one dispatchable action handler. It returns the executor result
// payload (already shaped as {type, data} for query tools) and, for
// mutations, the before/after snapshots to audit.
type Tool func(ctx context.Context, e *Executor, st *flow.State) (data any, before, after map[string]any, err error)

// Executor dispatches catalog actions to their tool implementations.
type Executor struct {
	Domain  *domain.Store
	Session *session.Store
	Audit   *audit.Logger

	registry map[string]Tool
}

// New builds an Executor with every tool wired into the dispatch table.
func New(d *domain.Store, sessionStore *session.Store, auditLogger *audit.Logger) *Executor {
	e := &Executor{Domain: d, Session: sessionStore, Audit: auditLogger}
	e.registry = buildRegistry()
	return e
}

// Execute dispatches state's intent to its tool and records the result on
// state.ExecutionResult (spec.md §4.8).
func (e *Executor) Execute(ctx context.Context, st *flow.State) error {
	if st.NeedsClarification {
		return fmt.Errorf("executor: refused to run: needs_clarification is set")
	}

	action := st.Intent.Action
	a, ok := catalog.Get(action)
	if !ok {
		st.Error = flow.NewError(flow.ErrUnknownAction, "unknown action", nil)
		return nil
	}

	if a.Risk == catalog.RiskRisky && st.PendingSessionID != "" {
		sess, err := e.Session.Get(ctx, st.PendingSessionID)
		if err != nil {
			return fmt.Errorf("executor: load pending session: %w", err)
		}
		if sess.Status != session.StatusConfirmed {
			return fmt.Errorf("executor: refused to run: pending session %s is not CONFIRMED", st.PendingSessionID)
		}
	}

	if err := coerceParameters(st); err != nil {
		st.Error = flow.NewError(flow.ErrInvalidParameters, err.Error(), err)
		return nil
	}

	tool, ok := e.registry[action]
	if !ok {
		st.Error = flow.NewError(flow.ErrUnknownAction, "action has no executor tool", nil)
		return nil
	}

	data, before, after, err := tool(ctx, e, st)
	if err != nil {
		st.Error = flow.NewError(flow.ErrDatabaseError, "action execution failed", err)
		return nil
	}

	st.ExecutionResult = data

	if a.Category == catalog.CategoryMutate {
		e.Audit.Record(ctx, audit.Entry{
			Action:     action,
			EntityType: string(st.Resolved.EntityType),
			EntityID:   st.Resolved.EntityID,
			UserID:     st.UserID,
			Before:     before,
			After:      after,
		})
	}

	return nil
}

// coerceParameters rewrites string-looking integer parameters into int64
// (spec.md §4.8 "integer-looking strings -> integers").
func coerceParameters(st *flow.State) error {
	for k, v := range st.Intent.Parameters {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			st.Intent.Parameters[k] = n
		}
	}
	return nil
}

func paramInt64(params map[string]any, key string) (int64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func paramString(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func paramFloat64(params map[string]any, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func tableResult(rows any) map[string]any {
	return map[string]any{"type": "table", "data": rows}
}

func objectResult(obj any) map[string]any {
	return map[string]any{"type": "object", "data": obj}
}

func listResult(items any) map[string]any {
	return map[string]any{"type": "list", "data": items}
}

var errNoResolvedTrip = apperr.NewValidationError("resolved.entity_id", "no trip resolved")

// buildRegistry merges every domain-grouped tool table into one dispatch
// map (spec.md §4.8 "Dispatches on intent.action to the correct tool").
func buildRegistry() map[string]Tool {
	reg := map[string]Tool{}
	for _, group := range []map[string]Tool{
		tripTools(),
		vehicleTools(),
		driverTools(),
		configTools(),
		dashboardTools(),
		metaTools(),
	} {
		for name, tool := range group {
			reg[name] = tool
		}
	}
	return reg
}
