package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func tripTools() map[string]Tool {
	return map[string]Tool{
		"assign_vehicle":        assignVehicleTool,
		"assign_driver":         assignDriverTool,
		"remove_vehicle":        removeVehicleTool,
		"remove_driver":         removeDriverTool,
		"cancel_trip":           cancelTripTool,
		"update_trip_time":      updateTripTimeTool,
		"update_trip_status":    updateTripStatusTool,
		"delay_trip":            delayTripTool,
		"reschedule_trip":       updateTripTimeTool,
		"get_trip_status":       getTripStatusTool,
		"get_trip_details":      getTripDetailsTool,
		"get_trip_bookings":     getTripBookingsTool,
		"cancel_all_bookings":   cancelAllBookingsTool,
		"check_trip_readiness":  checkTripReadinessTool,
	}
}

func requireResolvedTrip(st *flow.State) (int64, error) {
	if st.Resolved.EntityID == nil {
		return 0, errNoResolvedTrip
	}
	return *st.Resolved.EntityID, nil
}

func assignVehicleTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	vehicleID, ok := paramInt64(st.Intent.Parameters, "vehicle_id")
	if !ok {
		return nil, nil, nil, fmt.Errorf("assign_vehicle: missing vehicle_id")
	}
	before := map[string]any{"trip_id": tripID}
	if err := e.Domain.AssignVehicle(ctx, tripID, vehicleID); err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"trip_id": tripID, "vehicle_id": vehicleID}
	return objectResult(after), before, after, nil
}

func assignDriverTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	driverID, ok := paramInt64(st.Intent.Parameters, "driver_id")
	if !ok {
		return nil, nil, nil, fmt.Errorf("assign_driver: missing driver_id")
	}
	before := map[string]any{"trip_id": tripID}
	if err := e.Domain.AssignDriver(ctx, tripID, driverID); err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"trip_id": tripID, "driver_id": driverID}
	return objectResult(after), before, after, nil
}

func removeVehicleTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	before := map[string]any{"trip_id": tripID}
	if err := e.Domain.RemoveVehicle(ctx, tripID); err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"trip_id": tripID, "vehicle_id": nil}
	return objectResult(after), before, after, nil
}

func removeDriverTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	before := map[string]any{"trip_id": tripID}
	if err := e.Domain.RemoveDriver(ctx, tripID); err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"trip_id": tripID, "driver_id": nil}
	return objectResult(after), before, after, nil
}

func cancelTripTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	before := map[string]any{"trip_id": tripID, "live_status": st.Consequences.LiveStatus}
	if err := e.Domain.CancelTrip(ctx, tripID); err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"trip_id": tripID, "live_status": "CANCELLED"}
	return objectResult(after), before, after, nil
}

func updateTripTimeTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	newTime, ok := paramString(st.Intent.Parameters, "time")
	if !ok {
		newTime = st.Intent.TargetTime
	}
	if newTime == "" {
		return nil, nil, nil, fmt.Errorf("update_trip_time: missing time")
	}
	before := map[string]any{"trip_id": tripID}
	if err := e.Domain.UpdateTripTime(ctx, tripID, newTime); err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"trip_id": tripID, "time": newTime}
	return objectResult(after), before, after, nil
}

// delayTripTool shifts a trip's scheduled_time forward by the requested
// number of minutes, then reuses the same display_name rewrite
// update_trip_time already does (spec.md §4.8).
func delayTripTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	minutes, ok := paramInt64(st.Intent.Parameters, "minutes")
	if !ok {
		return nil, nil, nil, fmt.Errorf("delay_trip: missing minutes")
	}
	trip, err := e.Domain.GetTripByID(ctx, tripID)
	if err != nil {
		return nil, nil, nil, err
	}
	parsed, err := time.Parse("15:04", trip.ScheduledTime)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("delay_trip: unparsable scheduled_time %q", trip.ScheduledTime)
	}
	newTime := parsed.Add(time.Duration(minutes) * time.Minute).Format("15:04")

	before := map[string]any{"trip_id": tripID, "time": trip.ScheduledTime}
	if err := e.Domain.UpdateTripTime(ctx, tripID, newTime); err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"trip_id": tripID, "time": newTime, "delayed_by_minutes": minutes}
	return objectResult(after), before, after, nil
}

func updateTripStatusTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	status, ok := paramString(st.Intent.Parameters, "status")
	if !ok {
		return nil, nil, nil, fmt.Errorf("update_trip_status: missing status")
	}
	before := map[string]any{"trip_id": tripID}
	if err := e.Domain.UpdateTripStatus(ctx, tripID, status); err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"trip_id": tripID, "status": status}
	return objectResult(after), before, after, nil
}

func getTripStatusTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	trip, err := e.Domain.GetTripByID(ctx, tripID)
	if err != nil {
		return nil, nil, nil, err
	}
	return objectResult(map[string]any{"trip_id": trip.ID, "live_status": trip.LiveStatus}), nil, nil, nil
}

func getTripDetailsTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	trip, err := e.Domain.GetTripByID(ctx, tripID)
	if err != nil {
		return nil, nil, nil, err
	}
	return objectResult(trip), nil, nil, nil
}

func getTripBookingsTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	count, err := e.Domain.BookingCount(ctx, tripID)
	if err != nil {
		return nil, nil, nil, err
	}
	return objectResult(map[string]any{"trip_id": tripID, "booking_count": count}), nil, nil, nil
}

func cancelAllBookingsTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	before := map[string]any{"trip_id": tripID, "booking_count": st.Consequences.BookingCount}
	if err := e.Domain.CancelAllBookings(ctx, tripID); err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"trip_id": tripID, "booking_count": 0}
	return objectResult(after), before, after, nil
}

func checkTripReadinessTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	tripID, err := requireResolvedTrip(st)
	if err != nil {
		return nil, nil, nil, err
	}
	trip, err := e.Domain.GetTripByID(ctx, tripID)
	if err != nil {
		return nil, nil, nil, err
	}
	ready := trip.VehicleID != nil && trip.DeploymentID != nil
	return objectResult(map[string]any{"trip_id": tripID, "ready": ready}), nil, nil, nil
}
