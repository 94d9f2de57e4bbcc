// Package orchestrator wires the graph runtime (spec.md §4.1) together with
// every node implementation (intent parsing, resolution, consequence
// checking, selection, wizard stepping, execution, and result formatting)
// into the single directed graph a conversational turn runs through.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/RudraKhare/movi-agent/pkg/catalog"
	"github.com/RudraKhare/movi-agent/pkg/consequence"
	"github.com/RudraKhare/movi-agent/pkg/executor"
	"github.com/RudraKhare/movi-agent/pkg/flow"
	"github.com/RudraKhare/movi-agent/pkg/graph"
	"github.com/RudraKhare/movi-agent/pkg/intent"
	"github.com/RudraKhare/movi-agent/pkg/resolver"
	"github.com/RudraKhare/movi-agent/pkg/result"
	"github.com/RudraKhare/movi-agent/pkg/router"
	"github.com/RudraKhare/movi-agent/pkg/selection"
	"github.com/RudraKhare/movi-agent/pkg/session"
	"github.com/RudraKhare/movi-agent/pkg/wizard"
)

// Node names. entryNode and routeNode are orchestrator-internal hops that
// never appear in router.Node; every other name matches a router.Node
// constant so routeNode can hand the router's verdict straight to
// graph.Graph via state.NextNode.
const (
	entryNode   = "entry_node"
	parseNode   = "parse_intent_node"
	resolveNode = "resolve_target_node"
	checkNode   = "check_consequences_node"
	routeNode   = "route_decision_node"
)

// Engine runs one conversational turn through the full node graph
// (spec.md §4.1-§4.11).
type Engine struct {
	intent      *intent.Parser
	resolver    *resolver.Resolver
	consequence *consequence.Checker
	selection   *selection.Provider
	executor    *executor.Executor
	sessions    *session.Store

	g *graph.Graph
}

// New builds an Engine with every node wired into a single graph
// (spec.md §4.1).
func New(p *intent.Parser, r *resolver.Resolver, c *consequence.Checker, sel *selection.Provider, ex *executor.Executor, sessions *session.Store) *Engine {
	e := &Engine{intent: p, resolver: r, consequence: c, selection: sel, executor: ex, sessions: sessions}
	e.g = e.build()
	return e
}

func (e *Engine) build() *graph.Graph {
	g := graph.New(entryNode)

	g.AddNode(entryNode, e.entry)
	g.AddNode(parseNode, e.parseIntent)
	g.AddNode(resolveNode, e.resolveTarget)
	g.AddNode(checkNode, e.checkConsequences)
	g.AddNode(routeNode, e.routeDecision)
	g.AddNode(string(router.NodeWizardStep), e.wizardStep)
	g.AddNode(string(router.NodeSelectionDriver), e.selectionDriver)
	g.AddNode(string(router.NodeSelectionVehicle), e.selectionVehicle)
	g.AddNode(string(router.NodeExecuteAction), e.executeAction)
	g.AddNode(string(router.NodeReportResult), e.reportResult)
	g.AddNode(string(router.NodeFallback), e.fallback)

	// Every transition after entry_node is driven by state.NextNode
	// (spec.md §4.1 "next_node takes precedence over conditional-edge
	// evaluation"), so the graph carries no conditional edges of its own —
	// the Decision Router (pkg/router) is the single source of branching
	// logic. execute_action always reports its result; selection and
	// wizard_step (mid-flow) and report_result/fallback are terminal.
	g.AddEdge(string(router.NodeExecuteAction), string(router.NodeReportResult), nil)

	return g
}

// Run drives state through the graph for one turn. Callers must have
// already stamped state.RequestTime and restored state.Wizard /
// state.PendingSessionID from a prior session, if any (spec.md §4.7 "wizard
// session restoration").
func (e *Engine) Run(ctx context.Context, st *flow.State) (*flow.FinalOutput, error) {
	if err := e.g.Run(ctx, st); err != nil {
		return nil, err
	}
	if st.FinalOutput == nil {
		// A node terminated without reaching report_result/fallback (e.g. a
		// mid-wizard re-prompt, or a selection provider awaiting a pick) —
		// build the envelope from whatever state those nodes left behind.
		st.FinalOutput = result.Format(st)
	}
	return st.FinalOutput, nil
}

func (e *Engine) entry(ctx context.Context, st *flow.State) error {
	if st.Wizard != nil && st.Wizard.CurrentStep < len(st.Wizard.StepKeys) {
		st.NextNode = string(router.NodeWizardStep)
		return nil
	}
	st.NextNode = parseNode
	return nil
}

// parseIntent runs the intent parser and hands off to resolve_target
// unconditionally; whether the turn ultimately lands on report_result,
// fallback, or execute_action is the Decision Router's call, made once
// resolution and consequence checking have had their say (spec.md §4.5).
func (e *Engine) parseIntent(ctx context.Context, st *flow.State) error {
	var selectedTrip string
	if st.SelectedTripID != nil {
		selectedTrip = fmt.Sprintf("%d", *st.SelectedTripID)
	}
	st.Intent = e.intent.Parse(ctx, st.InputText, string(st.Page), selectedTrip, st.ConversationHistory)

	// A context-mismatched action is redirected to the context_mismatch
	// helper, which is target-free and safe, so it still flows through
	// resolve/check/route like any other action (spec.md §4.2 "Page check").
	if catalog.PageMismatch(st.Intent.Action, string(st.Page)) {
		original := st.Intent.Action
		st.Intent.Action = "context_mismatch"
		if st.Intent.Parameters == nil {
			st.Intent.Parameters = map[string]any{}
		}
		st.Intent.Parameters["attempted_action"] = original
	}

	if intent.NeedsClarification(st.Intent) {
		st.NeedsClarification = true
	}

	st.NextNode = resolveNode
	return nil
}

func (e *Engine) resolveTarget(ctx context.Context, st *flow.State) error {
	resolved, result, options, err := e.resolver.Resolve(ctx, st)
	if err != nil {
		return fmt.Errorf("resolve target: %w", err)
	}

	st.Resolved = resolved
	st.ResolveResult = result

	switch result {
	case flow.ResolveNotFound:
		st.Error = flow.NewError(errKindForEntity(resolved.EntityType), "target not found", nil)
		st.NextNode = string(router.NodeFallback)
		return nil
	case flow.ResolveAmbiguous:
		st.NeedsClarification = true
		st.ClarificationOptions = options
		st.NextNode = string(router.NodeReportResult)
		return nil
	}

	st.NextNode = checkNode
	return nil
}

func errKindForEntity(t flow.EntityType) flow.ErrorKind {
	switch t {
	case flow.EntityRoute:
		return flow.ErrRouteNotFound
	case flow.EntityPath:
		return flow.ErrPathNotFound
	case flow.EntityStop:
		return flow.ErrStopNotFound
	default:
		return flow.ErrTripNotFound
	}
}

func (e *Engine) checkConsequences(ctx context.Context, st *flow.State) error {
	if err := e.consequence.Check(ctx, st); err != nil {
		return fmt.Errorf("check consequences: %w", err)
	}
	st.NextNode = routeNode
	return nil
}

// routeDecision hands the Decision Router's verdict to the graph runtime via
// state.NextNode, which takes precedence over conditional-edge evaluation
// (spec.md §4.1, §4.5).
func (e *Engine) routeDecision(ctx context.Context, st *flow.State) error {
	st.NextNode = string(router.Route(st))
	return nil
}

func (e *Engine) wizardStep(ctx context.Context, st *flow.State) error {
	if st.Wizard == nil {
		return e.startWizard(ctx, st)
	}

	nextPrompt, done, errMsg := wizard.Advance(st.Wizard, st.InputText)
	if errMsg != "" {
		st.FinalOutput = &flow.FinalOutput{
			Action:    "wizard_step",
			Status:    flow.StatusAwaitingClarification,
			Success:   true,
			Message:   errMsg,
			SessionID: st.PendingSessionID,
		}
		_ = nextPrompt
		return nil
	}

	if !done {
		st.FinalOutput = &flow.FinalOutput{
			Action:    "wizard_step",
			Status:    flow.StatusAwaitingClarification,
			Success:   true,
			Message:   nextPrompt,
			SessionID: st.PendingSessionID,
		}
		if e.sessions != nil && st.PendingSessionID != "" {
			if err := e.sessions.UpdateWizardState(ctx, st.PendingSessionID, st.Wizard, st.ConversationHistory); err != nil {
				return fmt.Errorf("persist wizard state: %w", err)
			}
		}
		return nil
	}

	if st.Wizard.Cancelled {
		st.FinalOutput = &flow.FinalOutput{
			Action:    "wizard_step",
			Status:    flow.StatusCancelled,
			Success:   true,
			Message:   "cancelled",
			SessionID: st.PendingSessionID,
		}
		if e.sessions != nil && st.PendingSessionID != "" {
			if err := e.sessions.Transition(ctx, st.PendingSessionID, session.StatusPending, session.StatusCancelled); err != nil {
				return fmt.Errorf("cancel wizard session: %w", err)
			}
		}
		return nil
	}

	data, err := e.commitWizard(ctx, st)
	if err != nil {
		st.Error = flow.NewError(flow.ErrDatabaseError, "wizard commit failed", err)
		st.NextNode = string(router.NodeFallback)
		return nil
	}
	st.ExecutionResult = data
	if e.sessions != nil && st.PendingSessionID != "" {
		if err := e.sessions.Transition(ctx, st.PendingSessionID, session.StatusPending, session.StatusDone); err != nil {
			return fmt.Errorf("complete wizard session: %w", err)
		}
	}
	st.NextNode = string(router.NodeReportResult)
	return nil
}

// startWizard begins a CategoryWizard action's flow: it creates the wizard
// Session, stamps st.Wizard/st.PendingSessionID, and returns the first
// step's prompt (spec.md §4.7 "on first entry, create a wizard Session and
// return the first step's prompt").
func (e *Engine) startWizard(ctx context.Context, st *flow.State) error {
	flowName, ok := wizard.FlowForAction(st.Intent.Action)
	if !ok {
		st.Error = flow.NewError(flow.ErrInvalidParameters, "no wizard in progress", nil)
		return nil
	}

	w, err := wizard.New(flowName)
	if err != nil {
		return fmt.Errorf("start wizard: %w", err)
	}

	sessionID := ""
	if e.sessions != nil {
		sessionID, err = e.sessions.Create(ctx, &session.Session{
			UserID:              st.UserID,
			Kind:                session.KindWizard,
			WizardState:         w,
			ConversationHistory: st.ConversationHistory,
		})
		if err != nil {
			return fmt.Errorf("persist wizard session: %w", err)
		}
	}

	prompt, err := wizard.CurrentPrompt(w)
	if err != nil {
		return fmt.Errorf("wizard prompt: %w", err)
	}

	st.Wizard = w
	st.PendingSessionID = sessionID
	st.FinalOutput = &flow.FinalOutput{
		Action:    st.Intent.Action,
		Status:    flow.StatusAwaitingClarification,
		Success:   true,
		Message:   prompt,
		SessionID: sessionID,
	}
	return nil
}

func (e *Engine) commitWizard(ctx context.Context, st *flow.State) (any, error) {
	switch st.Wizard.Flow {
	case flow.WizardTripCreation:
		return e.executor.CommitTripCreation(ctx, st.UserID, st.Wizard.Collected)
	case flow.WizardRouteCreation:
		return e.executor.CommitRouteCreation(ctx, st.UserID, st.Wizard.Collected)
	case flow.WizardPathCreation:
		return e.executor.CommitPathCreation(ctx, st.UserID, st.Wizard.Collected)
	case flow.WizardStopCreation:
		return e.executor.CommitStopCreation(ctx, st.UserID, st.Wizard.Collected)
	default:
		return nil, fmt.Errorf("commit wizard: unknown flow %q", st.Wizard.Flow)
	}
}

func (e *Engine) selectionDriver(ctx context.Context, st *flow.State) error {
	if err := e.selection.ProvideDrivers(ctx, st); err != nil {
		return fmt.Errorf("provide driver selection: %w", err)
	}
	return nil
}

func (e *Engine) selectionVehicle(ctx context.Context, st *flow.State) error {
	if err := e.selection.ProvideVehicles(ctx, st); err != nil {
		return fmt.Errorf("provide vehicle selection: %w", err)
	}
	return nil
}

func (e *Engine) executeAction(ctx context.Context, st *flow.State) error {
	if err := e.executor.Execute(ctx, st); err != nil {
		return fmt.Errorf("execute action: %w", err)
	}
	return nil
}

func (e *Engine) reportResult(ctx context.Context, st *flow.State) error {
	st.FinalOutput = result.Format(st)
	return nil
}

func (e *Engine) fallback(ctx context.Context, st *flow.State) error {
	msg := "I didn't understand that."
	if st.Error != nil {
		msg = st.Error.Message
	}
	st.FinalOutput = &flow.FinalOutput{
		Action:      st.Intent.Action,
		Status:      flow.StatusError,
		Success:     false,
		Message:     msg,
		Suggestions: catalogSuggestions(),
	}
	if st.Error != nil {
		st.FinalOutput.Error = &flow.ErrorPayload{Kind: st.Error.Kind}
	}
	return nil
}

// catalogSuggestions lists a small sample of safe, target-free actions so
// the fallback message can point a confused user somewhere useful
// (spec.md §4.10).
func catalogSuggestions() []string {
	var out []string
	for _, a := range catalog.All() {
		if a.TargetFree && a.Risk == catalog.RiskSafe {
			out = append(out, a.Name)
		}
		if len(out) >= 5 {
			break
		}
	}
	return out
}
