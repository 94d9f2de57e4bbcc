package executor

import (
	"context"
	"fmt"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func vehicleTools() map[string]Tool {
	return map[string]Tool{
		"list_all_vehicles":          listAllVehiclesTool,
		"get_unassigned_vehicles":    getUnassignedVehiclesTool,
		"get_vehicle_status":         getVehicleStatusTool,
		"get_vehicle_trips_today":    getVehicleTripsTodayTool,
		"block_vehicle":              blockVehicleTool,
		"unblock_vehicle":            unblockVehicleTool,
		"add_vehicle":                addVehicleTool,
		"recommend_vehicle_for_trip": recommendVehicleForTripTool,
		"suggest_alternate_vehicle":  recommendVehicleForTripTool,
	}
}

func listAllVehiclesTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	vehicles, err := e.Domain.ListAllVehicles(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return tableResult(vehicles), nil, nil, nil
}

func getUnassignedVehiclesTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	vehicles, err := e.Domain.ListAllVehicles(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	var out []any
	for _, v := range vehicles {
		if v.Status == "available" {
			out = append(out, v)
		}
	}
	return tableResult(out), nil, nil, nil
}

func getVehicleStatusTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	if st.Resolved.EntityID == nil {
		return nil, nil, nil, fmt.Errorf("get_vehicle_status: no vehicle resolved")
	}
	vehicles, err := e.Domain.ListAllVehicles(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, v := range vehicles {
		if v.ID == *st.Resolved.EntityID {
			return objectResult(v), nil, nil, nil
		}
	}
	return nil, nil, nil, fmt.Errorf("get_vehicle_status: vehicle not found")
}

func getVehicleTripsTodayTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	id, ok := vehicleTarget(st)
	if !ok {
		return nil, nil, nil, fmt.Errorf("get_vehicle_trips_today: no vehicle resolved")
	}
	date := st.RequestTime.Format("2006-01-02")
	trips, err := e.Domain.TripsForVehicleOn(ctx, id, date)
	if err != nil {
		return nil, nil, nil, err
	}
	return tableResult(trips), nil, nil, nil
}

func blockVehicleTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	id, ok := vehicleTarget(st)
	if !ok {
		return nil, nil, nil, fmt.Errorf("block_vehicle: no vehicle resolved")
	}
	before := map[string]any{"vehicle_id": id, "status": "available"}
	if err := setVehicleStatus(ctx, e, id, "blocked"); err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"vehicle_id": id, "status": "blocked"}
	return objectResult(after), before, after, nil
}

func unblockVehicleTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	id, ok := vehicleTarget(st)
	if !ok {
		return nil, nil, nil, fmt.Errorf("unblock_vehicle: no vehicle resolved")
	}
	before := map[string]any{"vehicle_id": id, "status": "blocked"}
	if err := setVehicleStatus(ctx, e, id, "available"); err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"vehicle_id": id, "status": "available"}
	return objectResult(after), before, after, nil
}

func vehicleTarget(st *flow.State) (int64, bool) {
	if st.Resolved.EntityID != nil {
		return *st.Resolved.EntityID, true
	}
	return 0, false
}

func setVehicleStatus(ctx context.Context, e *Executor, id int64, status string) error {
	return e.Domain.SetVehicleStatus(ctx, id, status)
}

func addVehicleTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	reg, ok := paramString(st.Intent.Parameters, "registration_number")
	if !ok {
		return nil, nil, nil, fmt.Errorf("add_vehicle: missing registration_number")
	}
	capacity, ok := paramInt64(st.Intent.Parameters, "capacity")
	if !ok {
		return nil, nil, nil, fmt.Errorf("add_vehicle: missing capacity")
	}
	id, err := e.Domain.AddVehicle(ctx, reg, int(capacity))
	if err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"vehicle_id": id, "registration_number": reg, "capacity": capacity}
	return objectResult(after), nil, after, nil
}

// recommendVehicleForTripTool reuses the selection-provider filtering logic
// to surface the same candidate list as a plain query (spec.md §9 Open
// Questions: "simulate_action ... read-only preview reusing the consequence
// checker" established the pattern of reusing existing filters for
// read-only recommendation tools).
func recommendVehicleForTripTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	trip, err := e.Domain.GetTripByID(ctx, tripID)
	if err != nil {
		return nil, nil, nil, err
	}
	vehicles, err := e.Domain.AvailableVehicles(ctx, trip.ScheduledDate, trip.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return tableResult(vehicles), nil, nil, nil
}
