package executor

import (
	"context"
	"fmt"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func driverTools() map[string]Tool {
	return map[string]Tool{
		"list_all_drivers":        listAllDriversTool,
		"get_available_drivers":   getAvailableDriversTool,
		"get_driver_status":       getDriverStatusTool,
		"get_driver_trips_today":  getDriverTripsTodayTool,
		"set_driver_availability": setDriverAvailabilityTool,
		"add_driver":              addDriverTool,
		"find_driver_by_name":     findDriverByNameTool,
	}
}

func listAllDriversTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	drivers, err := e.Domain.ListAllDrivers(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return tableResult(drivers), nil, nil, nil
}

func getAvailableDriversTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	date, _ := paramString(st.Intent.Parameters, "date")
	scheduledTime, _ := paramString(st.Intent.Parameters, "time")
	if date == "" || scheduledTime == "" {
		drivers, err := e.Domain.ListAllDrivers(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		return tableResult(drivers), nil, nil, nil
	}
	drivers, err := e.Domain.AvailableDrivers(ctx, date, scheduledTime)
	if err != nil {
		return nil, nil, nil, err
	}
	return tableResult(drivers), nil, nil, nil
}

func getDriverStatusTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	if st.Resolved.EntityID == nil {
		return nil, nil, nil, fmt.Errorf("get_driver_status: no driver resolved")
	}
	drivers, err := e.Domain.ListAllDrivers(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, d := range drivers {
		if d.ID == *st.Resolved.EntityID {
			return objectResult(d), nil, nil, nil
		}
	}
	return nil, nil, nil, fmt.Errorf("get_driver_status: driver not found")
}

func getDriverTripsTodayTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	if st.Resolved.EntityID == nil {
		return nil, nil, nil, fmt.Errorf("get_driver_trips_today: no driver resolved")
	}
	date := st.RequestTime.Format("2006-01-02")
	trips, err := e.Domain.TripsForDriverOn(ctx, *st.Resolved.EntityID, date)
	if err != nil {
		return nil, nil, nil, err
	}
	return tableResult(trips), nil, nil, nil
}

func setDriverAvailabilityTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	if st.Resolved.EntityID == nil {
		return nil, nil, nil, fmt.Errorf("set_driver_availability: no driver resolved")
	}
	available, ok := st.Intent.Parameters["available"].(bool)
	if !ok {
		return nil, nil, nil, fmt.Errorf("set_driver_availability: missing available")
	}
	id := *st.Resolved.EntityID
	before := map[string]any{"driver_id": id}
	if err := e.Domain.SetDriverAvailability(ctx, id, available); err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"driver_id": id, "available": available}
	return objectResult(after), before, after, nil
}

func addDriverTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	name, ok := paramString(st.Intent.Parameters, "name")
	if !ok {
		return nil, nil, nil, fmt.Errorf("add_driver: missing name")
	}
	id, err := e.Domain.AddDriver(ctx, name)
	if err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"driver_id": id, "name": name}
	return objectResult(after), nil, after, nil
}

func findDriverByNameTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	name, ok := paramString(st.Intent.Parameters, "name")
	if !ok {
		return nil, nil, nil, fmt.Errorf("find_driver_by_name: missing name")
	}
	d, err := e.Domain.GetDriverByLabel(ctx, name)
	if err != nil {
		return nil, nil, nil, err
	}
	return objectResult(d), nil, nil, nil
}
