// Package router implements the Decision Router (spec.md §4.5): a pure
// predicate over flow.State choosing which node runs next.
package router

import (
	"github.com/RudraKhare/movi-agent/pkg/flow"
	"github.com/RudraKhare/movi-agent/pkg/wizard"
)

// Node names the six destinations the router can choose between
// (spec.md §4.5).
type Node string

const (
	NodeWizardStep         Node = "wizard_step_node"
	NodeSelectionDriver    Node = "selection_provider_node_driver"
	NodeSelectionVehicle   Node = "selection_provider_node_vehicle"
	NodeExecuteAction      Node = "execute_action_node"
	NodeReportResult       Node = "report_result_node"
	NodeFallback           Node = "fallback_node"
)

// Route chooses the next node for st (spec.md §4.5).
func Route(st *flow.State) Node {
	if st.Wizard != nil && !st.Wizard.Cancelled && !wizardComplete(st.Wizard) {
		return NodeWizardStep
	}

	if st.Error != nil || st.Intent.Action == "unknown" {
		return NodeFallback
	}

	// A fresh CategoryWizard action (e.g. create_route) starts its wizard
	// here rather than executing directly (spec.md §4.7 "on first entry,
	// create a wizard Session and return the first step's prompt").
	if st.Wizard == nil && !st.NeedsClarification {
		if _, ok := wizard.FlowForAction(st.Intent.Action); ok {
			return NodeWizardStep
		}
	}

	if needsSelection(st) {
		if st.Intent.Action == "assign_vehicle" {
			return NodeSelectionVehicle
		}
		return NodeSelectionDriver
	}

	if st.NeedsConfirmation || st.NeedsClarification {
		return NodeReportResult
	}

	return NodeExecuteAction
}

func wizardComplete(w *flow.Wizard) bool {
	return w.CurrentStep >= len(w.StepKeys)
}

// needsSelection reports whether an assignment action lacks its target
// (spec.md §4.5 "when an assignment lacks its target").
func needsSelection(st *flow.State) bool {
	switch st.Intent.Action {
	case "assign_driver":
		_, hasParam := st.Intent.Parameters["driver_id"]
		return !hasParam && !st.AwaitingSelection
	case "assign_vehicle":
		_, hasParam := st.Intent.Parameters["vehicle_id"]
		return !hasParam && !st.AwaitingSelection
	default:
		return false
	}
}
