// Package flow defines the Flow State record threaded through every node of
// the graph runtime, plus the sub-records it carries (intent, resolution,
// consequences, wizard progress, and the final response envelope).
package flow

import "time"

// Page identifies the UI context a request originated from.
type Page string

const (
	PageDashboard   Page = "dashboard"
	PageManageRoute Page = "manageRoute"
	PageNone        Page = ""
)

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry in the carried conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// HistoryLimit bounds conversation_history retention (spec.md §9 Open
// Questions: "implementers should pick a bounded K").
const HistoryLimit = 20

// EntityType enumerates the kinds of domain entity the resolver can bind to.
type EntityType string

const (
	EntityTrip    EntityType = "trip"
	EntityRoute   EntityType = "route"
	EntityPath    EntityType = "path"
	EntityStop    EntityType = "stop"
	EntityVehicle EntityType = "vehicle"
	EntityDriver  EntityType = "driver"
	EntityNone    EntityType = "none"
)

// ResolveResult is the outcome of the resolver ladder.
type ResolveResult string

const (
	ResolveFound     ResolveResult = "found"
	ResolveNotFound  ResolveResult = "not_found"
	ResolveAmbiguous ResolveResult = "ambiguous"
	ResolveSkipped   ResolveResult = "skipped"
)

// SelectionType names the UI picker a selection provider populated.
type SelectionType string

const (
	SelectionDriver  SelectionType = "driver"
	SelectionVehicle SelectionType = "vehicle"
	SelectionTrip    SelectionType = "trip"
	SelectionNone    SelectionType = "none"
)

// Intent captures the parsed user request (spec.md §3, §4.2).
type Intent struct {
	Action        string         `json:"action"`
	Confidence    float64        `json:"confidence"`
	Parameters    map[string]any `json:"parameters"`
	TargetLabel   string         `json:"target_label,omitempty"`
	TargetTripID  *int64         `json:"target_trip_id,omitempty"`
	TargetTime    string         `json:"target_time,omitempty"`
	Explanation   string         `json:"explanation,omitempty"`
}

// Resolved is the outcome of entity resolution (spec.md §4.3).
type Resolved struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   *int64     `json:"entity_id,omitempty"`
}

// Consequences captures the impact analysis of a proposed mutation
// (spec.md §4.4).
type Consequences struct {
	BookingCount      int        `json:"booking_count"`
	BookingPercentage float64    `json:"booking_percentage"`
	HasDeployment     bool       `json:"has_deployment"`
	LiveStatus        string     `json:"live_status,omitempty"`
	Downstream        int        `json:"downstream"`
}

// ClarificationOption is one entry in a clarification/selection option list.
type ClarificationOption struct {
	ID          int64  `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// ErrorKind enumerates the stable, machine-readable error kinds of spec.md §7.
type ErrorKind string

const (
	ErrUnknownAction       ErrorKind = "unknown_action"
	ErrInvalidSelection    ErrorKind = "invalid_selection"
	ErrMissingParameters   ErrorKind = "missing_parameters"
	ErrTripNotFound        ErrorKind = "trip_not_found"
	ErrRouteNotFound       ErrorKind = "route_not_found"
	ErrStopNotFound        ErrorKind = "stop_not_found"
	ErrPathNotFound        ErrorKind = "path_not_found"
	ErrAmbiguousTarget     ErrorKind = "ambiguous_target"
	ErrContextMismatch     ErrorKind = "context_mismatch"
	ErrAlreadyDeployed     ErrorKind = "already_deployed"
	ErrVehicleConflict     ErrorKind = "vehicle_conflict"
	ErrDriverConflict      ErrorKind = "driver_conflict"
	ErrSessionExpired      ErrorKind = "session_expired"
	ErrSessionNotPending   ErrorKind = "session_not_pending"
	ErrGraphCycle          ErrorKind = "graph_cycle"
	ErrLLMTimeout          ErrorKind = "llm_timeout"
	ErrDatabaseError       ErrorKind = "database_error"
	ErrInvalidParameters   ErrorKind = "invalid_parameters"
)

// FlowError is the stable error envelope carried on State.Error. Err is
// retained for logging only and is never serialized in the response.
type FlowError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error      `json:"-"`
}

func (e *FlowError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *FlowError) Unwrap() error { return e.Err }

// NewError builds a FlowError, wrapping an optional underlying cause.
func NewError(kind ErrorKind, message string, cause error) *FlowError {
	return &FlowError{Kind: kind, Message: message, Err: cause}
}

// WizardStep describes one step of a wizard flow (spec.md §3 Wizard record).
type WizardStep struct {
	Key      string
	Prompt   string
	Validate func(input string, collected map[string]any) (any, string, bool)
}

// WizardFlow names one of the four declared wizards (spec.md §4.7).
type WizardFlow string

const (
	WizardTripCreation  WizardFlow = "trip_creation"
	WizardRouteCreation WizardFlow = "route_creation"
	WizardPathCreation  WizardFlow = "path_creation"
	WizardStopCreation  WizardFlow = "stop_creation"
)

// Wizard is the durable, in-progress state of a multi-turn wizard.
type Wizard struct {
	Flow        WizardFlow     `json:"flow"`
	StepKeys    []string       `json:"step_keys"`
	CurrentStep int            `json:"current_step"`
	Collected   map[string]any `json:"collected"`
	Cancelled   bool           `json:"cancelled"`
}

// FinalOutput is the terminal response envelope (spec.md §4.11).
type FinalOutput struct {
	Action         string                 `json:"action"`
	Status         string                 `json:"status"`
	Success        bool                   `json:"success"`
	Message        string                 `json:"message"`
	SessionID      string                 `json:"session_id,omitempty"`
	Consequences   *Consequences          `json:"consequences,omitempty"`
	Options        []ClarificationOption  `json:"options,omitempty"`
	Suggestions    []string               `json:"suggestions,omitempty"`
	Data           any                    `json:"data,omitempty"`
	Error          *ErrorPayload          `json:"error,omitempty"`
}

// ErrorPayload is the machine-readable error surfaced in FinalOutput.
type ErrorPayload struct {
	Kind ErrorKind `json:"kind"`
}

// Status values for FinalOutput.Status (spec.md §4.11, §6.2).
const (
	StatusAwaitingConfirmation = "awaiting_confirmation"
	StatusAwaitingClarification = "awaiting_clarification"
	StatusExecuted              = "executed"
	StatusCancelled              = "cancelled"
	StatusError                  = "error"
)

// State is the Flow State record threaded through every graph node
// (spec.md §3).
type State struct {
	UserID             int64      `json:"user_id"`
	InputText          string     `json:"input_text"`
	Page               Page       `json:"page"`
	SelectedTripID     *int64     `json:"selected_trip_id,omitempty"`
	SelectedRouteID    *int64     `json:"selected_route_id,omitempty"`
	FromImage          bool       `json:"from_image"`
	ConversationHistory []Turn    `json:"conversation_history"`

	Intent Intent `json:"intent"`

	Resolved      Resolved      `json:"resolved"`
	ResolveResult ResolveResult `json:"resolve_result"`

	Consequences      Consequences `json:"consequences"`
	NeedsConfirmation bool         `json:"needs_confirmation"`
	NeedsClarification bool        `json:"needs_clarification"`
	ClarificationOptions []ClarificationOption `json:"clarification_options,omitempty"`
	SelectionType SelectionType `json:"selection_type"`
	AwaitingSelection bool `json:"awaiting_selection"`

	Wizard *Wizard `json:"wizard,omitempty"`

	PendingSessionID string `json:"pending_session_id,omitempty"`

	ExecutionResult any `json:"execution_result,omitempty"`

	Error *FlowError `json:"error,omitempty"`

	FinalOutput *FinalOutput `json:"final_output,omitempty"`

	// NextNode, when set by a node, is consumed by the runtime in place of
	// conditional-edge evaluation (spec.md §4.1).
	NextNode string `json:"-"`

	// RequestTime is stamped by the caller (the graph never calls time.Now
	// itself so node functions stay pure and testable).
	RequestTime time.Time `json:"-"`
}

// AppendTurn appends to the conversation history, truncating to HistoryLimit
// most-recent entries (spec.md §3 "most recent K entries only").
func (s *State) AppendTurn(role Role, content string) {
	s.ConversationHistory = append(s.ConversationHistory, Turn{Role: role, Content: content})
	if len(s.ConversationHistory) > HistoryLimit {
		s.ConversationHistory = s.ConversationHistory[len(s.ConversationHistory)-HistoryLimit:]
	}
}
