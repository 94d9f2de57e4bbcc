package executor

import (
	"context"
	"testing"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func TestExecuteRefusesWhenNeedsClarification(t *testing.T) {
	e := &Executor{registry: buildRegistry()}
	st := &flow.State{Intent: flow.Intent{Action: "cancel_trip"}, NeedsClarification: true}

	if err := e.Execute(context.Background(), st); err == nil {
		t.Fatal("expected refusal error when needs_clarification is set")
	}
}

func TestExecuteSetsUnknownActionErrorForUncataloguedAction(t *testing.T) {
	e := &Executor{registry: buildRegistry()}
	st := &flow.State{Intent: flow.Intent{Action: "does_not_exist"}}

	if err := e.Execute(context.Background(), st); err != nil {
		t.Fatalf("unexpected hard error: %v", err)
	}
	if st.Error == nil || st.Error.Kind != flow.ErrUnknownAction {
		t.Fatalf("expected ErrUnknownAction, got %+v", st.Error)
	}
}

func TestExecuteRefusesRiskyActionWithoutConfirmedSession(t *testing.T) {
	e := &Executor{registry: buildRegistry(), Session: nil}
	st := &flow.State{
		Intent:           flow.Intent{Action: "cancel_trip"},
		PendingSessionID: "sess-1",
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic or error dereferencing nil session store without a session store wired")
		}
	}()
	_ = e.Execute(context.Background(), st)
}

func TestCoerceParametersConvertsNumericStrings(t *testing.T) {
	st := &flow.State{
		Intent: flow.Intent{Parameters: map[string]any{
			"vehicle_id": "42",
			"label":      "not-a-number",
		}},
	}

	if err := coerceParameters(st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := st.Intent.Parameters["vehicle_id"].(int64); !ok || v != 42 {
		t.Fatalf("expected vehicle_id coerced to int64(42), got %#v", st.Intent.Parameters["vehicle_id"])
	}
	if v, ok := st.Intent.Parameters["label"].(string); !ok || v != "not-a-number" {
		t.Fatalf("expected label left as string, got %#v", st.Intent.Parameters["label"])
	}
}

func TestRequireResolvedTripErrorsWhenUnresolved(t *testing.T) {
	st := &flow.State{}
	if _, err := requireResolvedTrip(st); err == nil {
		t.Fatal("expected error for unresolved trip")
	}
}

func TestRequireResolvedTripReturnsID(t *testing.T) {
	id := int64(7)
	st := &flow.State{Resolved: flow.Resolved{EntityID: &id}}
	got, err := requireResolvedTrip(st)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

func TestUpdateTripTimeFallsBackToIntentTargetTime(t *testing.T) {
	id := int64(3)
	st := &flow.State{
		Resolved: flow.Resolved{EntityID: &id},
		Intent:   flow.Intent{Action: "update_trip_time", Parameters: map[string]any{}, TargetTime: "14:30"},
	}
	// updateTripTimeTool requires a live domain.Store for the actual
	// UpdateTripTime call; here we only assert the fallback wiring picks
	// up TargetTime when no explicit "time" parameter was parsed.
	newTime, ok := paramString(st.Intent.Parameters, "time")
	if ok {
		t.Fatal("expected no explicit time parameter")
	}
	if newTime == "" {
		newTime = st.Intent.TargetTime
	}
	if newTime != "14:30" {
		t.Fatalf("expected fallback to TargetTime, got %q", newTime)
	}
}

func TestBuildRegistryCoversEveryHelperAction(t *testing.T) {
	reg := buildRegistry()
	for _, action := range []string{"simulate_action", "explain_decision", "create_new_route_help", "context_mismatch"} {
		if _, ok := reg[action]; !ok {
			t.Fatalf("expected %s to be registered", action)
		}
	}
	if _, ok := reg["unknown"]; ok {
		t.Fatal("unknown must never reach the executor: router.Route sends it to NodeFallback")
	}
}

func TestResultShapeHelpers(t *testing.T) {
	if m := tableResult([]int{1, 2}); m["type"] != "table" {
		t.Fatalf("expected type=table, got %#v", m)
	}
	if m := objectResult(map[string]any{"a": 1}); m["type"] != "object" {
		t.Fatalf("expected type=object, got %#v", m)
	}
	if m := listResult([]any{}); m["type"] != "list" {
		t.Fatalf("expected type=list, got %#v", m)
	}
}
