package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func TestRouteWizardStepWhenWizardActive(t *testing.T) {
	st := &flow.State{Wizard: &flow.Wizard{StepKeys: []string{"a", "b"}, CurrentStep: 0}}
	assert.Equal(t, NodeWizardStep, Route(st))
}

func TestRouteFallbackOnUnknownAction(t *testing.T) {
	st := &flow.State{Intent: flow.Intent{Action: "unknown"}}
	assert.Equal(t, NodeFallback, Route(st))
}

func TestRouteFallbackOnError(t *testing.T) {
	st := &flow.State{Intent: flow.Intent{Action: "cancel_trip"}, Error: flow.NewError(flow.ErrTripNotFound, "x", nil)}
	assert.Equal(t, NodeFallback, Route(st))
}

func TestRouteSelectionWhenAssignDriverLacksTarget(t *testing.T) {
	st := &flow.State{Intent: flow.Intent{Action: "assign_driver", Parameters: map[string]any{}}}
	assert.Equal(t, NodeSelectionDriver, Route(st))
}

func TestRouteReportResultWhenConfirmationNeeded(t *testing.T) {
	st := &flow.State{Intent: flow.Intent{Action: "cancel_trip"}, NeedsConfirmation: true}
	assert.Equal(t, NodeReportResult, Route(st))
}

func TestRouteExecuteWhenSafeAndResolved(t *testing.T) {
	st := &flow.State{Intent: flow.Intent{Action: "get_trip_status", Parameters: map[string]any{}}}
	assert.Equal(t, NodeExecuteAction, Route(st))
}
