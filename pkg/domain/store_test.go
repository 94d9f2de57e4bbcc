package domain

import (
	"context"
	stdsql "database/sql"
	"strconv"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx driver for database/sql
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestStore spins up a disposable postgres container and lays down the
// fleet schema by hand, since domain deliberately does not own or migrate it
// (see package doc) — this mirrors the ad hoc schema pkg/database's own
// tests build for tables outside MOVI's migrations.
func newTestStore(t *testing.T) *Store {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("movi"),
		postgres.WithUsername("movi"),
		postgres.WithPassword("movi"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	dsn := "postgres://movi:movi@" + host + ":" + strconv.Itoa(portNum) + "/movi?sslmode=disable"
	db, err := stdsql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.PingContext(ctx))

	for _, stmt := range []string{
		`CREATE TABLE paths (id BIGSERIAL PRIMARY KEY, path_name TEXT NOT NULL)`,
		`CREATE TABLE routes (id BIGSERIAL PRIMARY KEY, route_name TEXT NOT NULL, path_id BIGINT, shift_time TEXT, direction TEXT)`,
		`CREATE TABLE stops (id BIGSERIAL PRIMARY KEY, name TEXT NOT NULL, latitude DOUBLE PRECISION, longitude DOUBLE PRECISION)`,
		`CREATE TABLE path_stops (path_id BIGINT, stop_id BIGINT, sequence INT)`,
		`CREATE TABLE vehicles (id BIGSERIAL PRIMARY KEY, registration_number TEXT NOT NULL, capacity INT, status TEXT)`,
		`CREATE TABLE drivers (id BIGSERIAL PRIMARY KEY, name TEXT NOT NULL, shift_start TEXT, shift_end TEXT)`,
		`CREATE TABLE trips (id BIGSERIAL PRIMARY KEY, display_name TEXT NOT NULL, route_id BIGINT, scheduled_date TEXT, scheduled_time TEXT, live_status TEXT)`,
		`CREATE TABLE deployments (id BIGSERIAL PRIMARY KEY, trip_id BIGINT, vehicle_id BIGINT, driver_id BIGINT)`,
		`CREATE TABLE bookings (id BIGSERIAL PRIMARY KEY, trip_id BIGINT, status TEXT)`,
	} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	return NewStore(db)
}

func TestGetTripByLabel_CaseInsensitiveFallback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO trips (id, display_name, scheduled_date, scheduled_time, live_status) VALUES (1, 'Morning Express', '2026-07-30', '08:00', 'scheduled')`)
	require.NoError(t, err)

	trip, err := store.GetTripByLabel(ctx, "morning express")
	require.NoError(t, err)
	assert.Equal(t, int64(1), trip.ID)
}

func TestGetDriverByLabel_MatchesFirstToken(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO drivers (id, name, shift_start, shift_end) VALUES (1, 'Sarah Johnson', '06:00', '18:00')`)
	require.NoError(t, err)

	driver, err := store.GetDriverByLabel(ctx, "Sarah")
	require.NoError(t, err)
	assert.Equal(t, "Sarah Johnson", driver.Name)
}

func TestVehicleConflicts_ExcludesSameTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO trips (id, display_name, scheduled_date, scheduled_time, live_status) VALUES
			(1, 'Trip A', '2026-07-30', '08:00', 'scheduled'),
			(2, 'Trip B', '2026-07-30', '09:00', 'scheduled')`)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx,
		`INSERT INTO deployments (trip_id, vehicle_id) VALUES (1, 5), (2, 5)`)
	require.NoError(t, err)

	conflicts, err := store.VehicleConflicts(ctx, 5, 1, "2026-07-30")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, conflicts)
}

func TestAvailableDrivers_ExcludesConflictingWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO drivers (id, name, shift_start, shift_end) VALUES
			(1, 'Available Driver', '06:00', '20:00'),
			(2, 'Busy Driver', '06:00', '20:00')`)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx,
		`INSERT INTO trips (id, display_name, scheduled_date, scheduled_time, live_status) VALUES (1, 'Existing Trip', '2026-07-30', '08:00', 'scheduled')`)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx,
		`INSERT INTO deployments (trip_id, driver_id) VALUES (1, 2)`)
	require.NoError(t, err)

	drivers, err := store.AvailableDrivers(ctx, "2026-07-30", "08:30")
	require.NoError(t, err)

	var names []string
	for _, d := range drivers {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "Available Driver")
	assert.NotContains(t, names, "Busy Driver")
}

func TestListStopsForPath_JoinsPathStopsOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO paths (id, path_name) VALUES (1, 'Path-2'), (2, 'Other Path')`)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx,
		`INSERT INTO stops (id, name, latitude, longitude) VALUES
			(1, 'Stop A', 0, 0), (2, 'Stop B', 0, 0), (3, 'Unrelated Stop', 0, 0)`)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx,
		`INSERT INTO path_stops (path_id, stop_id, sequence) VALUES (1, 2, 0), (1, 1, 1), (2, 3, 0)`)
	require.NoError(t, err)

	stops, err := store.ListStopsForPath(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stops, 2)
	assert.Equal(t, "Stop B", stops[0].Name)
	assert.Equal(t, "Stop A", stops[1].Name)
}

func TestDownstreamCount_UnknownEntity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.DownstreamCount(ctx, "vehicle_type", 1)
	assert.Error(t, err)
}
