// Package domain is the query/mutation layer over the pre-existing
// relational schema (trips, routes, paths, stops, vehicles, drivers,
// bookings, deployments). The schema itself is an external collaborator
// MOVI does not own or migrate; this package only reads and writes rows
// through plain SQL, matching the physical column names the domain actually
// uses (spec.md §4.8 "stops use name, not stop_name; paths use path_name;
// routes use route_name").
package domain

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store wraps the shared connection pool for all domain-table access.
type Store struct {
	db *sql.DB
}

// NewStore builds a Store over an already-configured pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Trip is a row of the trips table as MOVI needs it.
type Trip struct {
	ID              int64
	DisplayName     string
	RouteID         *int64
	ScheduledDate   string
	ScheduledTime   string
	LiveStatus      string
	VehicleID       *int64
	DeploymentID    *int64
}

// GetTripByID fetches a trip by primary key, joining the current
// deployment (if any) so callers can see vehicle_id/deployment_id together
// (spec.md §4.4 "vehicle_id or deployment_id is non-null — both must be
// checked").
func (s *Store) GetTripByID(ctx context.Context, id int64) (*Trip, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.display_name, t.route_id, t.scheduled_date, t.scheduled_time, t.live_status,
		       d.vehicle_id, d.id
		FROM trips t
		LEFT JOIN deployments d ON d.trip_id = t.id
		WHERE t.id = $1`, id)
	return scanTrip(row)
}

// GetTripByLabel matches a trip by display_name: exact match first, then
// case-insensitive (spec.md §4.3 step 3).
func (s *Store) GetTripByLabel(ctx context.Context, label string) (*Trip, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.display_name, t.route_id, t.scheduled_date, t.scheduled_time, t.live_status,
		       d.vehicle_id, d.id
		FROM trips t
		LEFT JOIN deployments d ON d.trip_id = t.id
		WHERE t.display_name = $1
		LIMIT 2`, label)
	trip, err := scanTrip(row)
	if err == nil {
		return trip, nil
	}

	row = s.db.QueryRowContext(ctx, `
		SELECT t.id, t.display_name, t.route_id, t.scheduled_date, t.scheduled_time, t.live_status,
		       d.vehicle_id, d.id
		FROM trips t
		LEFT JOIN deployments d ON d.trip_id = t.id
		WHERE lower(t.display_name) = lower($1)
		LIMIT 2`, label)
	return scanTrip(row)
}

func scanTrip(row *sql.Row) (*Trip, error) {
	var t Trip
	err := row.Scan(&t.ID, &t.DisplayName, &t.RouteID, &t.ScheduledDate, &t.ScheduledTime, &t.LiveStatus,
		&t.VehicleID, &t.DeploymentID)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Route is a row of the routes table.
type Route struct {
	ID        int64
	RouteName string
	PathID    *int64
	ShiftTime string
	Direction string
}

func (s *Store) GetRouteByLabel(ctx context.Context, label string) (*Route, error) {
	r, err := scanRoute(s.db.QueryRowContext(ctx,
		`SELECT id, route_name, path_id, shift_time, direction FROM routes WHERE route_name = $1`, label))
	if err == nil {
		return r, nil
	}
	return scanRoute(s.db.QueryRowContext(ctx,
		`SELECT id, route_name, path_id, shift_time, direction FROM routes WHERE lower(route_name) = lower($1)`, label))
}

func scanRoute(row *sql.Row) (*Route, error) {
	var r Route
	if err := row.Scan(&r.ID, &r.RouteName, &r.PathID, &r.ShiftTime, &r.Direction); err != nil {
		return nil, err
	}
	return &r, nil
}

// Path is a row of the paths table.
type Path struct {
	ID       int64
	PathName string
}

func (s *Store) GetPathByLabel(ctx context.Context, label string) (*Path, error) {
	var p Path
	err := s.db.QueryRowContext(ctx, `SELECT id, path_name FROM paths WHERE path_name = $1`, label).Scan(&p.ID, &p.PathName)
	if err == nil {
		return &p, nil
	}
	err = s.db.QueryRowContext(ctx, `SELECT id, path_name FROM paths WHERE lower(path_name) = lower($1)`, label).Scan(&p.ID, &p.PathName)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Stop is a row of the stops table.
type Stop struct {
	ID        int64
	Name      string
	Latitude  float64
	Longitude float64
}

func (s *Store) GetStopByLabel(ctx context.Context, label string) (*Stop, error) {
	stop, err := s.matchStop(ctx, `name = $1`, label)
	if err == nil {
		return stop, nil
	}
	stop, err = s.matchStop(ctx, `lower(name) = lower($1)`, label)
	if err == nil {
		return stop, nil
	}
	return s.matchStop(ctx, `lower(split_part(name, ' ', 1)) = lower($1)`, label)
}

func (s *Store) matchStop(ctx context.Context, where, arg string) (*Stop, error) {
	var st Stop
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT id, name, latitude, longitude FROM stops WHERE %s`, where), arg).
		Scan(&st.ID, &st.Name, &st.Latitude, &st.Longitude)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Vehicle is a row of the vehicles table.
type Vehicle struct {
	ID                 int64
	RegistrationNumber string
	Capacity           int
	Status             string
}

func (s *Store) GetVehicleByLabel(ctx context.Context, label string) (*Vehicle, error) {
	var v Vehicle
	err := s.db.QueryRowContext(ctx,
		`SELECT id, registration_number, capacity, status FROM vehicles WHERE registration_number = $1`, label).
		Scan(&v.ID, &v.RegistrationNumber, &v.Capacity, &v.Status)
	if err == nil {
		return &v, nil
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT id, registration_number, capacity, status FROM vehicles WHERE lower(registration_number) = lower($1)`, label).
		Scan(&v.ID, &v.RegistrationNumber, &v.Capacity, &v.Status)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Driver is a row of the drivers table.
type Driver struct {
	ID         int64
	Name       string
	ShiftStart string
	ShiftEnd   string
}

// GetDriverByLabel matches first on exact case-insensitive name, then on the
// first token (spec.md §4.3 "'Sarah' matches 'Sarah Johnson'").
func (s *Store) GetDriverByLabel(ctx context.Context, label string) (*Driver, error) {
	var d Driver
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, shift_start, shift_end FROM drivers WHERE lower(name) = lower($1)`, label).
		Scan(&d.ID, &d.Name, &d.ShiftStart, &d.ShiftEnd)
	if err == nil {
		return &d, nil
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT id, name, shift_start, shift_end FROM drivers WHERE lower(split_part(name, ' ', 1)) = lower($1)`, label).
		Scan(&d.ID, &d.Name, &d.ShiftStart, &d.ShiftEnd)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// BookingCount returns the number of active bookings on a trip.
func (s *Store) BookingCount(ctx context.Context, tripID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM bookings WHERE trip_id = $1 AND status = 'active'`, tripID).Scan(&n)
	return n, err
}

// DownstreamCount reports how many rows reference entity (used by
// delete_stop/delete_path/delete_route confirmation gating).
func (s *Store) DownstreamCount(ctx context.Context, entity string, id int64) (int, error) {
	var query string
	switch entity {
	case "stop":
		query = `SELECT count(*) FROM path_stops WHERE stop_id = $1`
	case "path":
		query = `SELECT count(*) FROM routes WHERE path_id = $1`
	case "route":
		query = `SELECT count(*) FROM trips WHERE route_id = $1`
	default:
		return 0, fmt.Errorf("domain: unknown downstream entity %q", entity)
	}
	var n int
	err := s.db.QueryRowContext(ctx, query, id).Scan(&n)
	return n, err
}

// VehicleConflicts returns the ids of trips the vehicle is already deployed
// to on the same date, other than excludeTripID; scheduled times are not
// compared (spec.md §4.4 "Vehicle availability").
func (s *Store) VehicleConflicts(ctx context.Context, vehicleID, excludeTripID int64, date string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id FROM trips t
		JOIN deployments d ON d.trip_id = t.id
		WHERE d.vehicle_id = $1 AND t.scheduled_date = $2 AND t.id != $3`,
		vehicleID, date, excludeTripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TripsForVehicleOn lists trips the vehicle is deployed to on date.
func (s *Store) TripsForVehicleOn(ctx context.Context, vehicleID int64, date string) ([]Trip, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.display_name, t.route_id, t.scheduled_date, t.scheduled_time, t.live_status,
		       d.vehicle_id, d.id
		FROM trips t
		JOIN deployments d ON d.trip_id = t.id
		WHERE d.vehicle_id = $1 AND t.scheduled_date = $2`, vehicleID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTripRows(rows)
}

// TripsForDriverOn lists trips the driver is deployed to on date.
func (s *Store) TripsForDriverOn(ctx context.Context, driverID int64, date string) ([]Trip, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.display_name, t.route_id, t.scheduled_date, t.scheduled_time, t.live_status,
		       d.vehicle_id, d.id
		FROM trips t
		JOIN deployments d ON d.trip_id = t.id
		WHERE d.driver_id = $1 AND t.scheduled_date = $2`, driverID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTripRows(rows)
}

func scanTripRows(rows *sql.Rows) ([]Trip, error) {
	var out []Trip
	for rows.Next() {
		var t Trip
		if err := rows.Scan(&t.ID, &t.DisplayName, &t.RouteID, &t.ScheduledDate, &t.ScheduledTime, &t.LiveStatus,
			&t.VehicleID, &t.DeploymentID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// driverColumnSet caches which of the optional drivers columns exist, since
// the introspection query only needs to run once per process.
var driverColumnSet *struct{ active, status bool }

// driverOptionalColumns introspects information_schema to determine whether
// drivers carries active/status columns, so the availability query can
// build a safe projection regardless of schema variant (spec.md §4.6
// "Schema resilience").
func (s *Store) driverOptionalColumns(ctx context.Context) (hasActive, hasStatus bool, err error) {
	if driverColumnSet != nil {
		return driverColumnSet.active, driverColumnSet.status, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_name = 'drivers' AND column_name IN ('active', 'status')`)
	if err != nil {
		return false, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return false, false, err
		}
		switch col {
		case "active":
			hasActive = true
		case "status":
			hasStatus = true
		}
	}
	driverColumnSet = &struct{ active, status bool }{hasActive, hasStatus}
	return hasActive, hasStatus, rows.Err()
}

// AvailableDrivers lists drivers whose shift covers scheduledTime and who
// have no assignment within a 90-minute window of it (spec.md §4.6, §4.4).
func (s *Store) AvailableDrivers(ctx context.Context, scheduledDate, scheduledTime string) ([]Driver, error) {
	hasActive, hasStatus, err := s.driverOptionalColumns(ctx)
	if err != nil {
		return nil, err
	}

	where := ""
	switch {
	case hasActive:
		where = "AND active = true"
	case hasStatus:
		where = "AND status = 'active'"
	}

	query := fmt.Sprintf(`
		SELECT id, name, shift_start, shift_end FROM drivers
		WHERE shift_start <= $1 AND shift_end >= $1 %s`, where)
	rows, err := s.db.QueryContext(ctx, query, scheduledTime)
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
		conflict, err := s.driverHasConflict(ctx, d.ID, scheduledDate, scheduledTime)
		if err != nil {
			return nil, err
		}
		if !conflict {
			out = append(out, d)
		}
	}
	return out, rows.Err()
}

// DriverConflictWindow is the overlap window checked before assigning a
// driver (spec.md §4.4 "90-minute overlap window").
const DriverConflictWindow = 90 * time.Minute

func (s *Store) driverHasConflict(ctx context.Context, driverID int64, date, scheduledTime string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.scheduled_time FROM trips t
		JOIN deployments d ON d.trip_id = t.id
		WHERE d.driver_id = $1 AND t.scheduled_date = $2`, driverID, date)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	target, err := parseClock(scheduledTime)
	if err != nil {
		return false, err
	}
	for rows.Next() {
		var other string
		if err := rows.Scan(&other); err != nil {
			return false, err
		}
		ot, err := parseClock(other)
		if err != nil {
			continue
		}
		diff := target.Sub(ot)
		if diff < 0 {
			diff = -diff
		}
		if diff < DriverConflictWindow {
			return true, nil
		}
	}
	return false, rows.Err()
}

func parseClock(hhmm string) (time.Time, error) {
	return time.Parse("15:04", hhmm)
}

// AvailableVehicles lists vehicles not in maintenance/blocked status with no
// deployment overlapping the trip's date (spec.md §4.6).
func (s *Store) AvailableVehicles(ctx context.Context, date string, excludeTripID int64) ([]Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, registration_number, capacity, status FROM vehicles
		WHERE status NOT IN ('maintenance', 'blocked')`)
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
		conflicts, err := s.VehicleConflicts(ctx, v.ID, excludeTripID, date)
		if err != nil {
			return nil, err
		}
		if len(conflicts) == 0 {
			out = append(out, v)
		}
	}
	return out, rows.Err()
}
