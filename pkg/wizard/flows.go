// Package wizard declares the four fixed multi-turn wizard flows
// (spec.md §4.7) and drives a single wizard turn: validating input against
// the current step, advancing, or re-prompting on error.
package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RudraKhare/movi-agent/pkg/catalog"
	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func nonEmpty(field string) func(string, map[string]any) (any, string, bool) {
	return func(input string, _ map[string]any) (any, string, bool) {
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			return nil, fmt.Sprintf("%s cannot be empty", field), false
		}
		return trimmed, "", true
	}
}

func dateLike(input string, _ map[string]any) (any, string, bool) {
	trimmed := strings.TrimSpace(input)
	parts := strings.Split(trimmed, "-")
	if len(parts) != 3 {
		return nil, "date must look like YYYY-MM-DD", false
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return nil, "date must look like YYYY-MM-DD", false
		}
	}
	return trimmed, "", true
}

func timeLike(input string, _ map[string]any) (any, string, bool) {
	trimmed := strings.TrimSpace(input)
	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 {
		return nil, "time must look like HH:MM", false
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, "time must look like HH:MM", false
	}
	return trimmed, "", true
}

func integerID(field string) func(string, map[string]any) (any, string, bool) {
	return func(input string, _ map[string]any) (any, string, bool) {
		id, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
		if err != nil {
			return nil, fmt.Sprintf("%s must be a number", field), false
		}
		return id, "", true
	}
}

func latitude(input string, _ map[string]any) (any, string, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || v < -90 || v > 90 {
		return nil, "latitude must be a number between -90 and 90", false
	}
	return v, "", true
}

func longitude(input string, _ map[string]any) (any, string, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || v < -180 || v > 180 {
		return nil, "longitude must be a number between -180 and 180", false
	}
	return v, "", true
}

func directionLike(input string, _ map[string]any) (any, string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed != "inbound" && trimmed != "outbound" {
		return nil, "direction must be inbound or outbound", false
	}
	return trimmed, "", true
}

func stopList(input string, _ map[string]any) (any, string, bool) {
	fields := strings.Split(input, ",")
	var ids []int64
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, "stops must be a comma-separated list of stop ids", false
		}
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return nil, "a path needs at least 2 stops", false
	}
	return ids, "", true
}

func confirmLike(input string, _ map[string]any) (any, string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	switch trimmed {
	case "yes", "y", "confirm":
		return true, "", true
	case "no", "n":
		return false, "", true
	default:
		return nil, `please reply "yes" or "no"`, false
	}
}

// CancelWords are the utterances that abort a wizard at any step
// (spec.md §4.7 "'cancel'/'abort'/'stop' at any step").
var CancelWords = map[string]bool{"cancel": true, "abort": true, "stop": true}

// IsCancelWord reports whether input is a wizard-cancel utterance.
func IsCancelWord(input string) bool {
	return CancelWords[strings.ToLower(strings.TrimSpace(input))]
}

var tripCreationSteps = []flow.WizardStep{
	{Key: "name", Prompt: "What should the trip be called?", Validate: nonEmpty("name")},
	{Key: "date", Prompt: "What date is the trip (YYYY-MM-DD)?", Validate: dateLike},
	{Key: "time", Prompt: "What time does the trip run (HH:MM)?", Validate: timeLike},
	{Key: "route_id", Prompt: "Which route? (pick by id)", Validate: integerID("route_id")},
	{Key: "vehicle_id", Prompt: "Which vehicle? (pick by id)", Validate: integerID("vehicle_id")},
	{Key: "driver_id", Prompt: "Which driver? (pick by id)", Validate: integerID("driver_id")},
	{Key: "confirm", Prompt: "Create this trip?", Validate: confirmLike},
}

var routeCreationSteps = []flow.WizardStep{
	{Key: "name", Prompt: "What should the route be called?", Validate: nonEmpty("name")},
	{Key: "path_id", Prompt: "Which path? (pick by id, or say \"new\" to create one)", Validate: func(input string, collected map[string]any) (any, string, bool) {
		if strings.EqualFold(strings.TrimSpace(input), "new") {
			return "new", "", true
		}
		return integerID("path_id")(input, collected)
	}},
	{Key: "shift_time", Prompt: "What shift time does the route start (HH:MM)?", Validate: timeLike},
	{Key: "direction", Prompt: "Direction: inbound or outbound?", Validate: directionLike},
}

var pathCreationSteps = []flow.WizardStep{
	{Key: "name", Prompt: "What should the path be called?", Validate: nonEmpty("name")},
	{Key: "stop_ids", Prompt: "List stop ids in order, comma-separated (at least 2)", Validate: stopList},
	{Key: "confirm", Prompt: "Create this path?", Validate: confirmLike},
}

var stopCreationSteps = []flow.WizardStep{
	{Key: "name", Prompt: "What should the stop be called?", Validate: nonEmpty("name")},
	{Key: "latitude", Prompt: "Latitude?", Validate: latitude},
	{Key: "longitude", Prompt: "Longitude?", Validate: longitude},
	{Key: "confirm", Prompt: "Create this stop?", Validate: confirmLike},
}

var declared = map[flow.WizardFlow][]flow.WizardStep{
	flow.WizardTripCreation:  tripCreationSteps,
	flow.WizardRouteCreation: routeCreationSteps,
	flow.WizardPathCreation:  pathCreationSteps,
	flow.WizardStopCreation:  stopCreationSteps,
}

// actionFlows maps a catalog wizard-category action to the wizard flow it
// starts (spec.md §3 invariants, §4.7). create_stop is deliberately absent:
// it is a single-shot safe mutate outside any wizard (see pkg/catalog).
var actionFlows = map[string]flow.WizardFlow{
	catalog.ActionCreateFollowupTrip: flow.WizardTripCreation,
	catalog.ActionCreateRoute:        flow.WizardRouteCreation,
	catalog.ActionCreatePath:         flow.WizardPathCreation,
}

// FlowForAction reports the wizard flow a catalog action starts, if any.
func FlowForAction(action string) (flow.WizardFlow, bool) {
	f, ok := actionFlows[action]
	return f, ok
}

// Steps returns the declared ordered step list for a wizard flow.
func Steps(f flow.WizardFlow) ([]flow.WizardStep, bool) {
	steps, ok := declared[f]
	return steps, ok
}

// New creates a fresh Wizard record for flow f, positioned at its first step.
func New(f flow.WizardFlow) (*flow.Wizard, error) {
	steps, ok := Steps(f)
	if !ok {
		return nil, fmt.Errorf("unknown wizard flow %q", f)
	}
	keys := make([]string, len(steps))
	for i, s := range steps {
		keys[i] = s.Key
	}
	return &flow.Wizard{
		Flow:        f,
		StepKeys:    keys,
		CurrentStep: 0,
		Collected:   make(map[string]any),
	}, nil
}

// CurrentPrompt returns the prompt text for the wizard's current step.
func CurrentPrompt(w *flow.Wizard) (string, error) {
	steps, ok := Steps(w.Flow)
	if !ok {
		return "", fmt.Errorf("unknown wizard flow %q", w.Flow)
	}
	if w.CurrentStep >= len(steps) {
		return "", fmt.Errorf("wizard already complete")
	}
	return steps[w.CurrentStep].Prompt, nil
}

// Complete reports whether every step has been collected.
func Complete(w *flow.Wizard) bool {
	steps, ok := Steps(w.Flow)
	return ok && w.CurrentStep >= len(steps)
}

// Advance validates input against the wizard's current step. On success it
// writes the parsed value into w.Collected, increments w.CurrentStep, and
// returns the next prompt (or done=true, nextPrompt="" when the wizard is now
// complete). On validation failure it returns the step's re-prompt and
// leaves the wizard state unchanged (spec.md §4.7 "invalid input: re-prompt
// ... do not advance").
func Advance(w *flow.Wizard, input string) (nextPrompt string, done bool, errMsg string) {
	if IsCancelWord(input) {
		w.Cancelled = true
		return "", true, ""
	}

	steps, ok := Steps(w.Flow)
	if !ok || w.CurrentStep >= len(steps) {
		return "", true, ""
	}

	step := steps[w.CurrentStep]
	value, msg, valid := step.Validate(input, w.Collected)
	if !valid {
		return step.Prompt, false, msg
	}

	w.Collected[step.Key] = value
	w.CurrentStep++

	if w.CurrentStep >= len(steps) {
		return "", true, ""
	}
	next := steps[w.CurrentStep]
	return next.Prompt, false, ""
}
