package executor

import (
	"context"
	"fmt"

	"github.com/RudraKhare/movi-agent/pkg/domain"
	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func configTools() map[string]Tool {
	return map[string]Tool{
		"list_all_stops":         listAllStopsTool,
		"create_stop":            createStopTool,
		"rename_stop":            renameStopTool,
		"delete_stop":            deleteStopTool,
		"list_stops_for_path":    listStopsForPathTool,
		"update_path_stops":      updatePathStopsTool,
		"delete_path":            deletePathTool,
		"list_all_paths":         listAllPathsTool,
		"list_routes_using_path": listRoutesUsingPathTool,
		"duplicate_route":        duplicateRouteTool,
		"delete_route":           deleteRouteTool,
		"list_all_routes":        listAllRoutesTool,
		"validate_route":         validateRouteTool,
	}
}

func listAllStopsTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	stops, err := e.Domain.ListAllStops(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return tableResult(stops), nil, nil, nil
}

// createStopTool uses the physical column name (name, not stop_name)
// (spec.md §4.8).
func createStopTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	name, ok := paramString(st.Intent.Parameters, "name")
	if !ok {
		return nil, nil, nil, fmt.Errorf("create_stop: missing name")
	}
	lat, _ := paramFloat64(st.Intent.Parameters, "latitude")
	lon, _ := paramFloat64(st.Intent.Parameters, "longitude")
	id, err := e.Domain.CreateStop(ctx, name, lat, lon)
	if err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"stop_id": id, "name": name, "latitude": lat, "longitude": lon}
	return objectResult(after), nil, after, nil
}

func renameStopTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	if st.Resolved.EntityID == nil {
		return nil, nil, nil, fmt.Errorf("rename_stop: no stop resolved")
	}
	newName, ok := paramString(st.Intent.Parameters, "new_name")
	if !ok {
		return nil, nil, nil, fmt.Errorf("rename_stop: missing new_name")
	}
	id := *st.Resolved.EntityID
	before := map[string]any{"stop_id": id}
	if err := e.Domain.RenameStop(ctx, id, newName); err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"stop_id": id, "name": newName}
	return objectResult(after), before, after, nil
}

func deleteStopTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	if st.Resolved.EntityID == nil {
		return nil, nil, nil, fmt.Errorf("delete_stop: no stop resolved")
	}
	id := *st.Resolved.EntityID
	before := map[string]any{"stop_id": id}
	if err := e.Domain.DeleteStop(ctx, id); err != nil {
		return nil, nil, nil, err
	}
	return objectResult(map[string]any{"stop_id": id, "deleted": true}), before, nil, nil
}

func listStopsForPathTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	if st.Resolved.EntityID == nil {
		return nil, nil, nil, fmt.Errorf("list_stops_for_path: no path resolved")
	}
	stops, err := e.Domain.ListStopsForPath(ctx, *st.Resolved.EntityID)
	if err != nil {
		return nil, nil, nil, err
	}
	return tableResult(stops), nil, nil, nil
}

func updatePathStopsTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	if st.Resolved.EntityID == nil {
		return nil, nil, nil, fmt.Errorf("update_path_stops: no path resolved")
	}
	id := *st.Resolved.EntityID
	stopIDsRaw, ok := st.Intent.Parameters["stop_ids"].([]int64)
	if !ok {
		return nil, nil, nil, fmt.Errorf("update_path_stops: missing stop_ids")
	}
	paths, err := e.Domain.ListAllPaths(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	var name string
	for _, p := range paths {
		if p.ID == id {
			name = p.PathName
		}
	}
	before := map[string]any{"path_id": id}
	if err := e.Domain.ReplacePathStops(ctx, id, stopIDsRaw); err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"path_id": id, "path_name": name, "stop_ids": stopIDsRaw}
	return objectResult(after), before, after, nil
}

func deletePathTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	if st.Resolved.EntityID == nil {
		return nil, nil, nil, fmt.Errorf("delete_path: no path resolved")
	}
	id := *st.Resolved.EntityID
	before := map[string]any{"path_id": id}
	if err := e.Domain.DeletePath(ctx, id); err != nil {
		return nil, nil, nil, err
	}
	return objectResult(map[string]any{"path_id": id, "deleted": true}), before, nil, nil
}

func listAllPathsTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	paths, err := e.Domain.ListAllPaths(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return tableResult(paths), nil, nil, nil
}

func listRoutesUsingPathTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	if st.Resolved.EntityID == nil {
		return nil, nil, nil, fmt.Errorf("list_routes_using_path: no path resolved")
	}
	routes, err := e.Domain.ListAllRoutes(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	var out []any
	for _, r := range routes {
		if r.PathID != nil && *r.PathID == *st.Resolved.EntityID {
			out = append(out, r)
		}
	}
	return tableResult(out), nil, nil, nil
}

func duplicateRouteTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	if st.Resolved.EntityID == nil {
		return nil, nil, nil, fmt.Errorf("duplicate_route: no route resolved")
	}
	routes, err := e.Domain.ListAllRoutes(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	var src *domain.Route
	for i := range routes {
		if routes[i].ID == *st.Resolved.EntityID {
			src = &routes[i]
			break
		}
	}
	if src == nil {
		return nil, nil, nil, fmt.Errorf("duplicate_route: route not found")
	}
	if src.PathID == nil {
		return nil, nil, nil, fmt.Errorf("duplicate_route: source route has no path")
	}
	newID, err := e.Domain.CreateRoute(ctx, src.RouteName+" (copy)", *src.PathID, src.ShiftTime, src.Direction)
	if err != nil {
		return nil, nil, nil, err
	}
	after := map[string]any{"route_id": newID, "route_name": src.RouteName + " (copy)"}
	return objectResult(after), nil, after, nil
}

func deleteRouteTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	if st.Resolved.EntityID == nil {
		return nil, nil, nil, fmt.Errorf("delete_route: no route resolved")
	}
	id := *st.Resolved.EntityID
	before := map[string]any{"route_id": id}
	if err := e.Domain.DeleteRoute(ctx, id); err != nil {
		return nil, nil, nil, err
	}
	return objectResult(map[string]any{"route_id": id, "deleted": true}), before, nil, nil
}

func listAllRoutesTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	routes, err := e.Domain.ListAllRoutes(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return tableResult(routes), nil, nil, nil
}

func validateRouteTool(ctx context.Context, e *Executor, st *flow.State) (any, map[string]any, map[string]any, error) {
	if st.Resolved.EntityID == nil {
		return nil, nil, nil, fmt.Errorf("validate_route: no route resolved")
	}
	routes, err := e.Domain.ListAllRoutes(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, r := range routes {
		if r.ID == *st.Resolved.EntityID {
			valid := r.PathID != nil
			return objectResult(map[string]any{"route_id": r.ID, "valid": valid}), nil, nil, nil
		}
	}
	return nil, nil, nil, fmt.Errorf("validate_route: route not found")
}
