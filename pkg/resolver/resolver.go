// Package resolver implements the resolve_target node (spec.md §4.3): the
// five-step priority ladder that promotes a parsed intent's target_* fields
// into a concrete resolved.entity_id.
package resolver

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/RudraKhare/movi-agent/pkg/catalog"
	"github.com/RudraKhare/movi-agent/pkg/domain"
	"github.com/RudraKhare/movi-agent/pkg/flow"
)

// targetFreeExtra lists the explicitly enumerated actions that always skip
// resolution, in addition to those the catalog flags TargetFree
// (spec.md §4.3).
var targetFreeExtra = map[string]bool{
	"list_all_stops":    true,
	"context_mismatch":  true,
	"get_today_summary": true,
}

// pathRouteStopActions never fall back to trip resolution (spec.md §4.3
// "a prior bug made 'list stops for Path-2' resolve to a trip").
var pathRouteStopActions = map[string]flow.EntityType{
	"list_stops_for_path":    flow.EntityPath,
	"update_path_stops":      flow.EntityPath,
	"delete_path":            flow.EntityPath,
	"list_routes_using_path": flow.EntityPath,
	"duplicate_route":        flow.EntityRoute,
	"delete_route":           flow.EntityRoute,
	"validate_route":         flow.EntityRoute,
	"rename_stop":            flow.EntityStop,
	"delete_stop":            flow.EntityStop,
}

var labelExtractPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfrom\s+(.+)$`),
	regexp.MustCompile(`(?i)\bcancel\s+(.+)$`),
	regexp.MustCompile(`(?i)\bto\s+(.+)$`),
}

// Resolver resolves a parsed intent's target against the domain store.
type Resolver struct {
	store *domain.Store
}

// NewResolver builds a Resolver over a domain Store.
func NewResolver(store *domain.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve runs the priority ladder against state and returns the resolution
// outcome plus any clarification options for an ambiguous match.
func (r *Resolver) Resolve(ctx context.Context, st *flow.State) (flow.Resolved, flow.ResolveResult, []flow.ClarificationOption, error) {
	action := st.Intent.Action

	if isTargetFree(action) {
		return flow.Resolved{}, flow.ResolveSkipped, nil, nil
	}

	expectedType := expectedEntityType(action)

	// 1. OCR bypass.
	if st.FromImage && st.SelectedTripID != nil {
		return flow.Resolved{EntityType: flow.EntityTrip, EntityID: st.SelectedTripID}, flow.ResolveFound, nil, nil
	}

	// 2. LLM-provided id.
	if st.Intent.TargetTripID != nil && expectedType == flow.EntityTrip {
		trip, err := r.store.GetTripByID(ctx, *st.Intent.TargetTripID)
		if err == nil {
			return flow.Resolved{EntityType: flow.EntityTrip, EntityID: &trip.ID}, flow.ResolveFound, nil, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return flow.Resolved{}, flow.ResolveNotFound, nil, err
		}
	}

	// 3. LLM-provided label.
	if st.Intent.TargetLabel != "" {
		resolved, result, options, err := r.resolveByLabel(ctx, expectedType, st.Intent.TargetLabel)
		if err != nil {
			return flow.Resolved{}, flow.ResolveNotFound, nil, err
		}
		if result != flow.ResolveNotFound {
			return resolved, result, options, nil
		}
	}

	// 4. UI selection for vague input.
	if isVague(st.InputText) {
		if expectedType == flow.EntityTrip && st.SelectedTripID != nil {
			return flow.Resolved{EntityType: flow.EntityTrip, EntityID: st.SelectedTripID}, flow.ResolveFound, nil, nil
		}
		if expectedType == flow.EntityRoute && st.SelectedRouteID != nil {
			return flow.Resolved{EntityType: flow.EntityRoute, EntityID: st.SelectedRouteID}, flow.ResolveFound, nil, nil
		}
	}

	// 5. Regex extraction from text, retry step 3.
	if label, ok := extractLabel(st.InputText); ok {
		resolved, result, options, err := r.resolveByLabel(ctx, expectedType, label)
		if err != nil {
			return flow.Resolved{}, flow.ResolveNotFound, nil, err
		}
		if result != flow.ResolveNotFound {
			return resolved, result, options, nil
		}
	}

	return flow.Resolved{EntityType: expectedType}, flow.ResolveNotFound, nil, nil
}

func isTargetFree(action string) bool {
	if targetFreeExtra[action] {
		return true
	}
	a, ok := catalog.Get(action)
	return ok && a.TargetFree
}

// expectedEntityType declares which entity category an action targets.
// Actions in pathRouteStopActions must never fall back to trip resolution.
func expectedEntityType(action string) flow.EntityType {
	if t, ok := pathRouteStopActions[action]; ok {
		return t
	}
	return flow.EntityTrip
}

func (r *Resolver) resolveByLabel(ctx context.Context, expected flow.EntityType, label string) (flow.Resolved, flow.ResolveResult, []flow.ClarificationOption, error) {
	switch expected {
	case flow.EntityPath:
		p, err := r.store.GetPathByLabel(ctx, label)
		if err != nil {
			return flow.Resolved{}, flow.ResolveNotFound, nil, nilIfNoRows(err)
		}
		return flow.Resolved{EntityType: flow.EntityPath, EntityID: &p.ID}, flow.ResolveFound, nil, nil
	case flow.EntityRoute:
		rt, err := r.store.GetRouteByLabel(ctx, label)
		if err != nil {
			return flow.Resolved{}, flow.ResolveNotFound, nil, nilIfNoRows(err)
		}
		return flow.Resolved{EntityType: flow.EntityRoute, EntityID: &rt.ID}, flow.ResolveFound, nil, nil
	case flow.EntityStop:
		stop, err := r.store.GetStopByLabel(ctx, label)
		if err != nil {
			return flow.Resolved{}, flow.ResolveNotFound, nil, nilIfNoRows(err)
		}
		return flow.Resolved{EntityType: flow.EntityStop, EntityID: &stop.ID}, flow.ResolveFound, nil, nil
	case flow.EntityVehicle:
		v, err := r.store.GetVehicleByLabel(ctx, label)
		if err != nil {
			return flow.Resolved{}, flow.ResolveNotFound, nil, nilIfNoRows(err)
		}
		return flow.Resolved{EntityType: flow.EntityVehicle, EntityID: &v.ID}, flow.ResolveFound, nil, nil
	case flow.EntityDriver:
		d, err := r.store.GetDriverByLabel(ctx, label)
		if err != nil {
			return flow.Resolved{}, flow.ResolveNotFound, nil, nilIfNoRows(err)
		}
		return flow.Resolved{EntityType: flow.EntityDriver, EntityID: &d.ID}, flow.ResolveFound, nil, nil
	default:
		trip, err := r.store.GetTripByLabel(ctx, label)
		if err != nil {
			return flow.Resolved{}, flow.ResolveNotFound, nil, nilIfNoRows(err)
		}
		return flow.Resolved{EntityType: flow.EntityTrip, EntityID: &trip.ID}, flow.ResolveFound, nil, nil
	}
}

func nilIfNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

// vagueMarkers are pronoun/deictic phrasings that indicate the user means
// "whatever is currently selected in the UI" (spec.md §4.3 step 4).
var vagueMarkers = []string{"this trip", "this one", "it", "that trip", "current trip"}

func isVague(inputText string) bool {
	lower := strings.ToLower(inputText)
	for _, m := range vagueMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func extractLabel(inputText string) (string, bool) {
	for _, re := range labelExtractPatterns {
		if m := re.FindStringSubmatch(inputText); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}
