// Package result implements the report_result node (spec.md §4.11):
// building the terminal FinalOutput envelope from flow.State.
package result

import (
	"github.com/RudraKhare/movi-agent/pkg/flow"
)

// Format builds the FinalOutput for a state that has reached a terminal
// point of the graph.
func Format(st *flow.State) *flow.FinalOutput {
	out := &flow.FinalOutput{
		Action: st.Intent.Action,
	}

	switch {
	case st.Error != nil:
		out.Status = flow.StatusError
		out.Success = false
		out.Message = st.Error.Message
		out.Error = &flow.ErrorPayload{Kind: st.Error.Kind}

	case st.Wizard != nil && st.Wizard.Cancelled:
		out.Status = flow.StatusCancelled
		out.Success = true
		out.Message = "wizard cancelled"

	case st.NeedsConfirmation:
		out.Status = flow.StatusAwaitingConfirmation
		out.Success = true
		out.Message = "this action needs your confirmation"
		cons := st.Consequences
		out.Consequences = &cons
		out.SessionID = st.PendingSessionID

	case st.NeedsClarification || st.AwaitingSelection:
		out.Status = flow.StatusAwaitingClarification
		out.Success = true
		out.Message = clarificationMessage(st)
		out.Options = st.ClarificationOptions
		out.SessionID = st.PendingSessionID

	default:
		out.Status = flow.StatusExecuted
		out.Success = true
		out.Message = "done"
		out.Data = passthroughData(st.ExecutionResult)
	}

	return out
}

func clarificationMessage(st *flow.State) string {
	switch st.SelectionType {
	case flow.SelectionDriver:
		return "please pick a driver"
	case flow.SelectionVehicle:
		return "please pick a vehicle"
	default:
		return "please clarify your request"
	}
}

// passthroughData preserves a {type, data} shaped executor payload as-is
// rather than re-wrapping it (spec.md §4.11 "historical bug: an older
// implementation wrapped them in an extra envelope").
func passthroughData(executionResult any) any {
	return executionResult
}
