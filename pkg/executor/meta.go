// meta.go implements the catalog's "helper" category: actions that never
// mutate anything; all of them except simulate_action are target-free
// (spec.md §4.10, catalog.go CategoryHelper).
package executor

import (
	"context"
	"fmt"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func metaTools() map[string]Tool {
	return map[string]Tool{
		"simulate_action":       simulateActionTool,
		"explain_decision":      explainDecisionTool,
		"create_new_route_help": createNewRouteHelpTool,
		"context_mismatch":      contextMismatchTool,
	}
}

// simulateActionTool reports the named action, the resolved target and
// st.Consequences without executing anything or opening a
// pending-confirmation session. The consequence checker only evaluates risky
// actions and simulate_action is not one, so the reported consequences are
// the zero record; the named action's own consequences are not computed.
func simulateActionTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	targetAction, ok := paramString(st.Intent.Parameters, "action")
	if !ok {
		targetAction = st.Intent.Action
	}
	out := map[string]any{
		"action":       targetAction,
		"would_affect": st.Resolved,
		"consequences": st.Consequences,
	}
	return objectResult(out), nil, nil, nil
}

func explainDecisionTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	explanation := st.Intent.Explanation
	if explanation == "" && st.Error != nil {
		explanation = st.Error.Message
	}
	if explanation == "" {
		explanation = fmt.Sprintf("resolved %s via %s", st.Intent.Action, st.ResolveResult)
	}
	return objectResult(map[string]any{
		"action":         st.Intent.Action,
		"explanation":    explanation,
		"resolve_result": st.ResolveResult,
	}), nil, nil, nil
}

func createNewRouteHelpTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	return objectResult(map[string]any{
		"message": "Say \"create a new route\" to start the route wizard. It collects a name, a path (existing or new), a shift time, and a direction.",
		"wizard":  flow.WizardRouteCreation,
	}), nil, nil, nil
}

func contextMismatchTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	attempted := st.Intent.Action
	if original, ok := paramString(st.Intent.Parameters, "attempted_action"); ok {
		attempted = original
	}
	return objectResult(map[string]any{
		"message": fmt.Sprintf("\"%s\" isn't available on this page.", attempted),
		"page":    st.Page,
	}), nil, nil, nil
}
