// Package catalog declares the ~50-entry MOVI action catalog: every action's
// category, risk classification, required parameters, and page requirement
// (spec.md §3 "Action Catalog", §6.5). The table is immutable after init,
// mirroring the teacher's config.Registry pattern of loading once at
// start-up and never mutating in-process (spec.md §5 "no in-process mutable
// global state beyond the pool and the action catalog").
package catalog

import "fmt"

// Category classifies what kind of operation an action performs.
type Category string

const (
	CategoryQuery  Category = "query"
	CategoryMutate Category = "mutate"
	CategoryWizard Category = "wizard"
	CategoryHelper Category = "helper"
)

// Risk classifies whether an action requires explicit confirmation before
// executing (spec.md §4.4).
type Risk string

const (
	RiskSafe  Risk = "safe"
	RiskRisky Risk = "risky"
)

// PageRequirement names the UI page an action is gated to.
type PageRequirement string

const (
	PageDashboard   PageRequirement = "dashboard"
	PageManageRoute PageRequirement = "manageRoute"
	PageAny         PageRequirement = "any"
)

// Action is one entry of the action catalog.
type Action struct {
	Name               string
	Category           Category
	Risk               Risk
	PageRequirement    PageRequirement
	RequiredParameters []string
	// TargetFree actions skip the resolver entirely (spec.md §4.3).
	TargetFree bool
}

// Names of the wizard-owning actions (spec.md §3 invariants, §4.7).
const (
	ActionCreateFollowupTrip = "create_followup_trip"
	ActionCreatePath         = "create_path"
	ActionCreateRoute        = "create_route"
	// create_stop itself is a single-shot safe mutate, not wizard-owned; no
	// catalog action starts the stop_creation wizard (see pkg/wizard). The
	// create_stop tool and that wizard's commit both call domain CreateStop.
)

// catalogTable is the full action catalog (spec.md §6.5).
var catalogTable = []Action{
	// Trip
	{Name: "assign_vehicle", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageDashboard, RequiredParameters: []string{"vehicle_id"}},
	{Name: "assign_driver", Category: CategoryMutate, Risk: RiskSafe, PageRequirement: PageDashboard, RequiredParameters: []string{}},
	{Name: "remove_vehicle", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageDashboard},
	{Name: "remove_driver", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageDashboard},
	{Name: "cancel_trip", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageDashboard},
	{Name: "update_trip_time", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageDashboard, RequiredParameters: []string{"time"}},
	{Name: "update_trip_status", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageDashboard, RequiredParameters: []string{"status"}},
	{Name: "delay_trip", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageDashboard, RequiredParameters: []string{"minutes"}},
	{Name: "reschedule_trip", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageDashboard, RequiredParameters: []string{"time"}},
	{Name: "get_trip_status", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},
	{Name: "get_trip_details", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},
	{Name: "get_trip_bookings", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},
	{Name: "check_trip_readiness", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},
	{Name: "duplicate_trip", Category: CategoryMutate, Risk: RiskSafe, PageRequirement: PageDashboard},
	{Name: ActionCreateFollowupTrip, Category: CategoryWizard, Risk: RiskSafe, PageRequirement: PageManageRoute, TargetFree: true},

	// Vehicle
	{Name: "list_all_vehicles", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "get_unassigned_vehicles", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "get_vehicle_status", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},
	{Name: "get_vehicle_trips_today", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},
	{Name: "block_vehicle", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageAny},
	{Name: "unblock_vehicle", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageAny},
	{Name: "add_vehicle", Category: CategoryMutate, Risk: RiskSafe, PageRequirement: PageAny, RequiredParameters: []string{"registration_number", "capacity"}},
	{Name: "recommend_vehicle_for_trip", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},
	{Name: "suggest_alternate_vehicle", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},

	// Driver
	{Name: "list_all_drivers", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "get_available_drivers", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "get_driver_status", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},
	{Name: "get_driver_trips_today", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},
	{Name: "set_driver_availability", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageAny, RequiredParameters: []string{"available"}},
	{Name: "add_driver", Category: CategoryMutate, Risk: RiskSafe, PageRequirement: PageAny, RequiredParameters: []string{"name"}},
	{Name: "find_driver_by_name", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, RequiredParameters: []string{"name"}},

	// Booking
	{Name: "get_booking_count", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},
	{Name: "list_passengers", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},
	{Name: "cancel_all_bookings", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageAny},
	{Name: "find_employee_trips", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, RequiredParameters: []string{"name"}, TargetFree: true},

	// Configuration
	{Name: "list_all_stops", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "create_stop", Category: CategoryMutate, Risk: RiskSafe, PageRequirement: PageManageRoute, RequiredParameters: []string{"name"}, TargetFree: true},
	{Name: "rename_stop", Category: CategoryMutate, Risk: RiskSafe, PageRequirement: PageManageRoute, RequiredParameters: []string{"new_name"}},
	{Name: "delete_stop", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageManageRoute},
	{Name: "list_stops_for_path", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},
	{Name: ActionCreatePath, Category: CategoryWizard, Risk: RiskSafe, PageRequirement: PageManageRoute, TargetFree: true},
	{Name: "update_path_stops", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageManageRoute, RequiredParameters: []string{"stop_ids"}},
	{Name: "delete_path", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageManageRoute},
	{Name: "list_all_paths", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "list_routes_using_path", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},
	{Name: ActionCreateRoute, Category: CategoryWizard, Risk: RiskSafe, PageRequirement: PageManageRoute, TargetFree: true},
	{Name: "duplicate_route", Category: CategoryMutate, Risk: RiskSafe, PageRequirement: PageManageRoute},
	{Name: "delete_route", Category: CategoryMutate, Risk: RiskRisky, PageRequirement: PageManageRoute},
	{Name: "list_all_routes", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "validate_route", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny},

	// Dashboard intelligence
	{Name: "get_trips_needing_attention", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageDashboard, TargetFree: true},
	{Name: "get_today_summary", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "get_recent_changes", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "get_high_demand_offices", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "get_most_used_vehicles", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "detect_overbooking", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "predict_problem_trips", Category: CategoryQuery, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},

	// Meta
	{Name: "simulate_action", Category: CategoryHelper, Risk: RiskSafe, PageRequirement: PageAny},
	{Name: "explain_decision", Category: CategoryHelper, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "create_new_route_help", Category: CategoryHelper, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "context_mismatch", Category: CategoryHelper, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},
	{Name: "unknown", Category: CategoryHelper, Risk: RiskSafe, PageRequirement: PageAny, TargetFree: true},

	// stop/path/route single-shot creations outside a wizard (UI quick-create,
	// e.g. S2's "create stop Odeon Circle" fast path) reuse create_stop above.
}

// byName indexes catalogTable for O(1) lookup.
var byName = func() map[string]Action {
	m := make(map[string]Action, len(catalogTable))
	for _, a := range catalogTable {
		if _, dup := m[a.Name]; dup {
			panic(fmt.Sprintf("catalog: duplicate action %q", a.Name))
		}
		m[a.Name] = a
	}
	return m
}()

// Get returns the catalog entry for name and whether it was found.
func Get(name string) (Action, bool) {
	a, ok := byName[name]
	return a, ok
}

// All returns every catalog entry, in declaration order.
func All() []Action {
	out := make([]Action, len(catalogTable))
	copy(out, catalogTable)
	return out
}

// IsRisky reports whether the named action requires confirmation when it
// mutates state. Unknown actions are treated as safe (never on the mutation
// path — the parser routes them to the fallback node instead).
func IsRisky(name string) bool {
	a, ok := Get(name)
	return ok && a.Risk == RiskRisky
}

// PageMismatch reports whether page disagrees with the action's declared
// PageRequirement. An empty page (non-UI caller) never mismatches
// (spec.md §4.2 "Page check is skipped when state.page is absent").
func PageMismatch(name string, page string) bool {
	if page == "" {
		return false
	}
	a, ok := Get(name)
	if !ok {
		return false
	}
	if a.PageRequirement == PageAny {
		return false
	}
	return string(a.PageRequirement) != page
}

// MissingRequiredParameters returns the subset of the action's required
// parameter keys absent from params.
func MissingRequiredParameters(name string, params map[string]any) []string {
	a, ok := Get(name)
	if !ok {
		return nil
	}
	var missing []string
	for _, key := range a.RequiredParameters {
		if _, present := params[key]; !present {
			missing = append(missing, key)
		}
	}
	return missing
}
