package orchestrator

import (
	"context"
	"testing"

	"github.com/RudraKhare/movi-agent/pkg/flow"
	"github.com/RudraKhare/movi-agent/pkg/router"
)

func TestEntryRoutesToWizardStepWhenWizardInProgress(t *testing.T) {
	e := &Engine{}
	st := &flow.State{Wizard: &flow.Wizard{StepKeys: []string{"name", "confirm"}, CurrentStep: 0}}

	if err := e.entry(context.Background(), st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.NextNode != string(router.NodeWizardStep) {
		t.Fatalf("expected wizard_step_node, got %q", st.NextNode)
	}
}

func TestEntryRoutesToParseIntentWithNoWizard(t *testing.T) {
	e := &Engine{}
	st := &flow.State{}

	if err := e.entry(context.Background(), st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.NextNode != parseNode {
		t.Fatalf("expected parse_intent_node, got %q", st.NextNode)
	}
}

func TestEntryRoutesToParseIntentWhenWizardAlreadyComplete(t *testing.T) {
	e := &Engine{}
	st := &flow.State{Wizard: &flow.Wizard{StepKeys: []string{"name"}, CurrentStep: 1}}

	if err := e.entry(context.Background(), st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.NextNode != parseNode {
		t.Fatalf("expected parse_intent_node for a completed wizard, got %q", st.NextNode)
	}
}

func TestErrKindForEntityMapsEachEntityType(t *testing.T) {
	cases := map[flow.EntityType]flow.ErrorKind{
		flow.EntityRoute:  flow.ErrRouteNotFound,
		flow.EntityPath:   flow.ErrPathNotFound,
		flow.EntityStop:   flow.ErrStopNotFound,
		flow.EntityTrip:   flow.ErrTripNotFound,
		flow.EntityDriver: flow.ErrTripNotFound,
	}
	for entity, want := range cases {
		if got := errKindForEntity(entity); got != want {
			t.Errorf("errKindForEntity(%v) = %v, want %v", entity, got, want)
		}
	}
}

func TestCatalogSuggestionsAreSafeAndTargetFree(t *testing.T) {
	suggestions := catalogSuggestions()
	if len(suggestions) == 0 {
		t.Fatal("expected at least one suggestion")
	}
	if len(suggestions) > 5 {
		t.Fatalf("expected at most 5 suggestions, got %d", len(suggestions))
	}
}

func TestFallbackBuildsErrorEnvelope(t *testing.T) {
	e := &Engine{}
	st := &flow.State{
		Intent: flow.Intent{Action: "unknown"},
		Error:  flow.NewError(flow.ErrUnknownAction, "unknown action", nil),
	}

	if err := e.fallback(context.Background(), st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.FinalOutput == nil || st.FinalOutput.Status != flow.StatusError {
		t.Fatalf("expected status=error, got %+v", st.FinalOutput)
	}
	if st.FinalOutput.Error == nil || st.FinalOutput.Error.Kind != flow.ErrUnknownAction {
		t.Fatalf("expected error kind unknown_action, got %+v", st.FinalOutput.Error)
	}
	if len(st.FinalOutput.Suggestions) == 0 {
		t.Fatal("expected fallback to carry suggestions")
	}
}

func TestBuildGraphRegistersEveryNode(t *testing.T) {
	e := &Engine{}
	g := e.build()
	if g == nil {
		t.Fatal("expected a non-nil graph")
	}
}
