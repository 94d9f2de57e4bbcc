// wizardcommit.go implements the "confirm step" commit for each of the four
// wizards (spec.md §4.7 "On the confirm step, commit by calling the
// corresponding creation tool").
package executor

import (
	"context"
	"fmt"

	"github.com/RudraKhare/movi-agent/pkg/audit"
)

// CommitTripCreation creates a trip from a completed trip_creation wizard's
// collected values.
func (e *Executor) CommitTripCreation(ctx context.Context, userID int64, collected map[string]any) (any, error) {
	name, _ := collected["name"].(string)
	date, _ := collected["date"].(string)
	scheduledTime, _ := collected["time"].(string)
	routeID, ok := toInt64(collected["route_id"])
	if name == "" || date == "" || scheduledTime == "" || !ok {
		return nil, fmt.Errorf("commit trip_creation: incomplete wizard state")
	}

	tripID, err := e.Domain.CreateTrip(ctx, name, date, scheduledTime, routeID)
	if err != nil {
		return nil, err
	}

	if vehicleID, ok := toInt64(collected["vehicle_id"]); ok {
		_ = e.Domain.AssignVehicle(ctx, tripID, vehicleID)
	}
	if driverID, ok := toInt64(collected["driver_id"]); ok {
		_ = e.Domain.AssignDriver(ctx, tripID, driverID)
	}

	after := map[string]any{"trip_id": tripID, "name": name, "date": date, "time": scheduledTime}
	e.Audit.Record(ctx, audit.Entry{
		Action:     "create_followup_trip",
		EntityType: "trip",
		EntityID:   &tripID,
		UserID:     userID,
		After:      after,
	})
	return objectResult(after), nil
}

// CommitRouteCreation creates a route from a completed route_creation
// wizard. A collected path_id of "new" means the caller already ran
// path_creation as a sub-wizard and must pass its resulting id instead;
// this function expects an already-resolved integer path_id.
func (e *Executor) CommitRouteCreation(ctx context.Context, userID int64, collected map[string]any) (any, error) {
	name, _ := collected["name"].(string)
	shiftTime, _ := collected["shift_time"].(string)
	direction, _ := collected["direction"].(string)
	pathID, ok := toInt64(collected["path_id"])
	if name == "" || shiftTime == "" || direction == "" || !ok {
		return nil, fmt.Errorf("commit route_creation: incomplete wizard state")
	}

	routeID, err := e.Domain.CreateRoute(ctx, name, pathID, shiftTime, direction)
	if err != nil {
		return nil, err
	}
	after := map[string]any{"route_id": routeID, "name": name}
	e.Audit.Record(ctx, audit.Entry{
		Action:     "create_route",
		EntityType: "route",
		EntityID:   &routeID,
		UserID:     userID,
		After:      after,
	})
	return objectResult(after), nil
}

// CommitPathCreation creates a path from a completed path_creation wizard.
func (e *Executor) CommitPathCreation(ctx context.Context, userID int64, collected map[string]any) (any, error) {
	name, _ := collected["name"].(string)
	stopIDs, ok := collected["stop_ids"].([]int64)
	if name == "" || !ok || len(stopIDs) < 2 {
		return nil, fmt.Errorf("commit path_creation: incomplete wizard state")
	}

	pathID, err := e.Domain.CreatePath(ctx, name, stopIDs)
	if err != nil {
		return nil, err
	}
	after := map[string]any{"path_id": pathID, "name": name, "stop_ids": stopIDs}
	e.Audit.Record(ctx, audit.Entry{
		Action:     "create_path",
		EntityType: "path",
		EntityID:   &pathID,
		UserID:     userID,
		After:      after,
	})
	return objectResult(after), nil
}

// CommitStopCreation creates a stop from a completed stop_creation wizard.
func (e *Executor) CommitStopCreation(ctx context.Context, userID int64, collected map[string]any) (any, error) {
	name, _ := collected["name"].(string)
	lat, latOK := collected["latitude"].(float64)
	lon, lonOK := collected["longitude"].(float64)
	if name == "" || !latOK || !lonOK {
		return nil, fmt.Errorf("commit stop_creation: incomplete wizard state")
	}

	stopID, err := e.Domain.CreateStop(ctx, name, lat, lon)
	if err != nil {
		return nil, err
	}
	after := map[string]any{"stop_id": stopID, "name": name, "latitude": lat, "longitude": lon}
	e.Audit.Record(ctx, audit.Entry{
		Action:     "create_stop",
		EntityType: "stop",
		EntityID:   &stopID,
		UserID:     userID,
		After:      after,
	})
	return objectResult(after), nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
