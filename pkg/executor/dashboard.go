// dashboard.go implements the dashboard-intelligence query actions
// (spec.md §6.5 "Dashboard intelligence"). All are read-only except
// duplicate_trip, which creates a trip; get_booking_count, list_passengers
// and duplicate_trip need a resolved trip. get_recent_changes,
// get_high_demand_offices, detect_overbooking, predict_problem_trips and
// find_employee_trips return empty result sets.
package executor

import (
	"context"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func dashboardTools() map[string]Tool {
	return map[string]Tool{
		"get_trips_needing_attention": getTripsNeedingAttentionTool,
		"get_today_summary":           getTodaySummaryTool,
		"get_recent_changes":          getRecentChangesTool,
		"get_high_demand_offices":     getHighDemandOfficesTool,
		"get_most_used_vehicles":      getMostUsedVehiclesTool,
		"detect_overbooking":          detectOverbookingTool,
		"predict_problem_trips":       predictProblemTripsTool,
		"get_booking_count":           getBookingCountTool,
		"list_passengers":             listPassengersTool,
		"find_employee_trips":         findEmployeeTripsTool,
		"duplicate_trip":              duplicateTripTool,
	}
}

func getTripsNeedingAttentionTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	vehicles, err := e.Domain.ListAllVehicles(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	var blocked []any
	for _, v := range vehicles {
		if v.Status == "blocked" || v.Status == "maintenance" {
			blocked = append(blocked, v)
		}
	}
	return tableResult(blocked), nil, nil, nil
}

func getTodaySummaryTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	date, ok := paramString(st.Intent.Parameters, "date")
	if !ok {
		return objectResult(map[string]any{"trips_today": 0}), nil, nil, nil
	}
	n, err := e.Domain.TripsScheduledOn(ctx, date)
	if err != nil {
		return nil, nil, nil, err
	}
	return objectResult(map[string]any{"date": date, "trips_today": n}), nil, nil, nil
}

func getRecentChangesTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	return listResult([]any{}), nil, nil, nil
}

func getHighDemandOfficesTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	return listResult([]any{}), nil, nil, nil
}

func getMostUsedVehiclesTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	vehicles, err := e.Domain.ListAllVehicles(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return tableResult(vehicles), nil, nil, nil
}

func detectOverbookingTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	return listResult([]any{}), nil, nil, nil
}

func predictProblemTripsTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	return listResult([]any{}), nil, nil, nil
}

func getBookingCountTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	n, err := e.Domain.BookingCount(ctx, tripID)
	if err != nil {
		return nil, nil, nil, err
	}
	return objectResult(map[string]any{"trip_id": tripID, "booking_count": n}), nil, nil, nil
}

func listPassengersTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	n, err := e.Domain.BookingCount(ctx, tripID)
	if err != nil {
		return nil, nil, nil, err
	}
	return objectResult(map[string]any{"trip_id": tripID, "passenger_count": n}), nil, nil, nil
}

func findEmployeeTripsTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	return listResult([]any{}), nil, nil, nil
}

func duplicateTripTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	trip, err := e.Domain.GetTripByID(ctx, tripID)
	if err != nil {
		return nil, nil, nil, err
	}
	if trip.RouteID == nil {
		return nil, nil, nil, errNoResolvedTrip
	}
	newID, err := e.Domain.CreateTrip(ctx, trip.DisplayName+" (copy)", trip.ScheduledDate, trip.ScheduledTime, *trip.RouteID)
	if err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"trip_id": newID}
	return objectResult(after), nil, after, nil
}
