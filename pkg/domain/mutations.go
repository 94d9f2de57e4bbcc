package domain

import (
	"context"
	"regexp"
)

// AssignVehicle attaches vehicleID to tripID. If the trip already has an
// orphan deployment row (vehicle_id IS NULL), it UPDATEs that row instead of
// inserting a new one, avoiding a unique-constraint violation on
// (trip_id) (spec.md §4.8 "historical unique-constraint bug").
func (s *Store) AssignVehicle(ctx context.Context, tripID, vehicleID int64) error {
	var orphanID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM deployments WHERE trip_id = $1 AND vehicle_id IS NULL`, tripID).Scan(&orphanID)
	if err == nil {
		_, err = s.db.ExecContext(ctx, `UPDATE deployments SET vehicle_id = $1 WHERE id = $2`, vehicleID, orphanID)
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO deployments (trip_id, vehicle_id) VALUES ($1, $2)
		 ON CONFLICT (trip_id) DO UPDATE SET vehicle_id = EXCLUDED.vehicle_id`,
		tripID, vehicleID)
	return err
}

// AssignDriver attaches driverID to tripID, reusing an orphan deployment row
// the same way AssignVehicle does.
func (s *Store) AssignDriver(ctx context.Context, tripID, driverID int64) error {
	var orphanID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM deployments WHERE trip_id = $1 AND driver_id IS NULL`, tripID).Scan(&orphanID)
	if err == nil {
		_, err = s.db.ExecContext(ctx, `UPDATE deployments SET driver_id = $1 WHERE id = $2`, driverID, orphanID)
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO deployments (trip_id, driver_id) VALUES ($1, $2)
		 ON CONFLICT (trip_id) DO UPDATE SET driver_id = EXCLUDED.driver_id`,
		tripID, driverID)
	return err
}

// RemoveVehicle clears the vehicle_id on a trip's deployment row.
func (s *Store) RemoveVehicle(ctx context.Context, tripID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE deployments SET vehicle_id = NULL WHERE trip_id = $1`, tripID)
	return err
}

// RemoveDriver clears the driver_id on a trip's deployment row.
func (s *Store) RemoveDriver(ctx context.Context, tripID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE deployments SET driver_id = NULL WHERE trip_id = $1`, tripID)
	return err
}

// CancelTrip marks a trip cancelled.
func (s *Store) CancelTrip(ctx context.Context, tripID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE trips SET live_status = 'CANCELLED' WHERE id = $1`, tripID)
	return err
}

// CancelAllBookings marks every active booking on a trip cancelled.
func (s *Store) CancelAllBookings(ctx context.Context, tripID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE bookings SET status = 'cancelled' WHERE trip_id = $1`, tripID)
	return err
}

// timeTokenPattern matches an HH:MM token embedded in a display name
// (spec.md §4.8 "rewrites the trip's display_name ... by regex substitution
// on the HH:MM token").
var timeTokenPattern = regexp.MustCompile(`\d{1,2}:\d{2}`)

// UpdateTripTime sets a trip's scheduled_time and rewrites any HH:MM token
// embedded in its display_name to match.
func (s *Store) UpdateTripTime(ctx context.Context, tripID int64, newTime string) error {
	trip, err := s.GetTripByID(ctx, tripID)
	if err != nil {
		return err
	}
	newDisplayName := timeTokenPattern.ReplaceAllString(trip.DisplayName, newTime)

	_, err = s.db.ExecContext(ctx,
		`UPDATE trips SET scheduled_time = $1, display_name = $2 WHERE id = $3`,
		newTime, newDisplayName, tripID)
	return err
}

// UpdateTripStatus sets a trip's live_status.
func (s *Store) UpdateTripStatus(ctx context.Context, tripID int64, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE trips SET live_status = $1 WHERE id = $2`, status, tripID)
	return err
}

// CreateStop inserts a new stop. Column is name, never stop_name
// (spec.md §4.8).
func (s *Store) CreateStop(ctx context.Context, name string, lat, lon float64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO stops (name, latitude, longitude) VALUES ($1, $2, $3) RETURNING id`,
		name, lat, lon).Scan(&id)
	return id, err
}

// RenameStop renames a stop. Column is name, never stop_name (spec.md §4.8).
func (s *Store) RenameStop(ctx context.Context, id int64, newName string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE stops SET name = $1 WHERE id = $2`, newName, id)
	return err
}

// DeleteStop removes a stop.
func (s *Store) DeleteStop(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM stops WHERE id = $1`, id)
	return err
}

// CreatePath inserts a path and its ordered stops. Column is path_name,
// never name (spec.md §4.8).
func (s *Store) CreatePath(ctx context.Context, name string, stopIDs []int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx, `INSERT INTO paths (path_name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
		return 0, err
	}
	for seq, stopID := range stopIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO path_stops (path_id, stop_id, sequence) VALUES ($1, $2, $3)`, id, stopID, seq); err != nil {
			return 0, err
		}
	}
	return id, tx.Commit()
}

// ReplacePathStops overwrites a path's ordered stop list.
func (s *Store) ReplacePathStops(ctx context.Context, pathID int64, stopIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM path_stops WHERE path_id = $1`, pathID); err != nil {
		return err
	}
	for seq, stopID := range stopIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO path_stops (path_id, stop_id, sequence) VALUES ($1, $2, $3)`, pathID, stopID, seq); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeletePath removes a path and its stop associations.
func (s *Store) DeletePath(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM path_stops WHERE path_id = $1`, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM paths WHERE id = $1`, id)
	return err
}

// CreateRoute inserts a route. Column is route_name, never name
// (spec.md §4.8).
func (s *Store) CreateRoute(ctx context.Context, name string, pathID int64, shiftTime, direction string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO routes (route_name, path_id, shift_time, direction) VALUES ($1, $2, $3, $4) RETURNING id`,
		name, pathID, shiftTime, direction).Scan(&id)
	return id, err
}

// DeleteRoute removes a route.
func (s *Store) DeleteRoute(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM routes WHERE id = $1`, id)
	return err
}

// CreateTrip inserts a new trip scheduled against a route.
func (s *Store) CreateTrip(ctx context.Context, displayName, date, scheduledTime string, routeID int64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO trips (display_name, route_id, scheduled_date, scheduled_time, live_status)
		 VALUES ($1, $2, $3, $4, 'SCHEDULED') RETURNING id`,
		displayName, routeID, date, scheduledTime).Scan(&id)
	return id, err
}

// ListAllStops lists every stop.
func (s *Store) ListAllStops(ctx context.Context) ([]Stop, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, latitude, longitude FROM stops ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Stop
	for rows.Next() {
		var st Stop
		if err := rows.Scan(&st.ID, &st.Name, &st.Latitude, &st.Longitude); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// ListStopsForPath lists a single path's stops, ordered by their position in
// path_stops (spec.md §4.3 "a prior bug made 'list stops for Path-2' resolve
// to a trip" — the fix also means the listing itself must join path_stops
// rather than returning every stop in the system).
func (s *Store) ListStopsForPath(ctx context.Context, pathID int64) ([]Stop, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.latitude, s.longitude
		FROM stops s
		JOIN path_stops ps ON ps.stop_id = s.id
		WHERE ps.path_id = $1
		ORDER BY ps.sequence`, pathID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Stop
	for rows.Next() {
		var st Stop
		if err := rows.Scan(&st.ID, &st.Name, &st.Latitude, &st.Longitude); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// ListAllPaths lists every path.
func (s *Store) ListAllPaths(ctx context.Context) ([]Path, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, path_name FROM paths ORDER BY path_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Path
	for rows.Next() {
		var p Path
		if err := rows.Scan(&p.ID, &p.PathName); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListAllRoutes lists every route.
func (s *Store) ListAllRoutes(ctx context.Context) ([]Route, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, route_name, path_id, shift_time, direction FROM routes ORDER BY route_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Route
	for rows.Next() {
		var r Route
		if err := rows.Scan(&r.ID, &r.RouteName, &r.PathID, &r.ShiftTime, &r.Direction); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListAllVehicles lists every vehicle.
func (s *Store) ListAllVehicles(ctx context.Context) ([]Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, registration_number, capacity, status FROM vehicles ORDER BY registration_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.RegistrationNumber, &v.Capacity, &v.Status); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListAllDrivers lists every driver.
func (s *Store) ListAllDrivers(ctx context.Context) ([]Driver, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, shift_start, shift_end FROM drivers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Driver
	for rows.Next() {
		var d Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.ShiftStart, &d.ShiftEnd); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TripsScheduledOn counts trips scheduled on a given date
// (used by get_today_summary).
func (s *Store) TripsScheduledOn(ctx context.Context, date string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM trips WHERE scheduled_date = $1`, date).Scan(&n)
	return n, err
}

// AddVehicle inserts a new vehicle.
func (s *Store) AddVehicle(ctx context.Context, registration string, capacity int) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO vehicles (registration_number, capacity, status) VALUES ($1, $2, 'available') RETURNING id`,
		registration, capacity).Scan(&id)
	return id, err
}

// SetVehicleStatus updates a vehicle's status (e.g. available/blocked).
func (s *Store) SetVehicleStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE vehicles SET status = $1 WHERE id = $2`, status, id)
	return err
}

// SetDriverAvailability updates whichever of the drivers table's optional
// active/status columns exists (spec.md §4.6 "Schema resilience").
func (s *Store) SetDriverAvailability(ctx context.Context, id int64, available bool) error {
	hasActive, hasStatus, err := s.driverOptionalColumns(ctx)
	if err != nil {
		return err
	}
	switch {
	case hasActive:
		_, err = s.db.ExecContext(ctx, `UPDATE drivers SET active = $1 WHERE id = $2`, available, id)
	case hasStatus:
		status := "inactive"
		if available {
			status = "active"
		}
		_, err = s.db.ExecContext(ctx, `UPDATE drivers SET status = $1 WHERE id = $2`, status, id)
	}
	return err
}

// AddDriver inserts a new driver.
func (s *Store) AddDriver(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO drivers (name, shift_start, shift_end) VALUES ($1, '00:00', '23:59') RETURNING id`,
		name).Scan(&id)
	return id, err
}
