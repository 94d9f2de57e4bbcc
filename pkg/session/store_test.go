package session

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/RudraKhare/movi-agent/pkg/apperr"
	"github.com/RudraKhare/movi-agent/pkg/database"
	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func newTestStore(t *testing.T) *Store {
	if testing.Short() {
		t.Skip("skipping testcontainers-backed test in short mode")
	}

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
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pgContainer) })

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	db, err := database.NewPool(ctx, database.Config{
		Host: host, Port: portNum, User: "movi", Password: "movi", Database: "movi",
		SSLMode: "disable", MaxOpenConns: 5, MaxIdleConns: 2,
		ConnMaxLifetime: time.Hour, ConnMaxIdleTime: 15 * time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewStore(db)
}

func TestStoreCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, &Session{
		UserID: 7,
		Kind:   KindPendingConfirmation,
		PendingAction: &PendingAction{
			Action:       "cancel_trip",
			Parameters:   map[string]any{"trip_id": float64(8)},
			ResolvedType: flow.EntityTrip,
			Consequences: flow.Consequences{BookingCount: 8},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, StatusPending, got.Status)
	require.NotNil(t, got.PendingAction)
	assert.Equal(t, "cancel_trip", got.PendingAction.Action)
	assert.Equal(t, 8, got.PendingAction.Consequences.BookingCount)
}

func TestStoreGetMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStoreTransitionLegalPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, &Session{UserID: 1, Kind: KindPendingConfirmation, PendingAction: &PendingAction{Action: "cancel_trip"}})
	require.NoError(t, err)

	require.NoError(t, store.Transition(ctx, id, StatusPending, StatusConfirmed))
	require.NoError(t, store.Transition(ctx, id, StatusConfirmed, StatusDone))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got.Status)
}

func TestStoreTransitionRejectsIllegalPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, &Session{UserID: 1, Kind: KindPendingConfirmation, PendingAction: &PendingAction{Action: "cancel_trip"}})
	require.NoError(t, err)

	err = store.Transition(ctx, id, StatusPending, StatusDone)
	assert.True(t, apperr.IsValidationError(err))
}

func TestStoreTransitionIsCompareAndSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, &Session{UserID: 1, Kind: KindPendingConfirmation, PendingAction: &PendingAction{Action: "cancel_trip"}})
	require.NoError(t, err)

	require.NoError(t, store.Transition(ctx, id, StatusPending, StatusConfirmed))

	// The same PENDING -> CONFIRMED transition can no longer apply: the row
	// is already CONFIRMED, so this is a lost-race, not a legality error.
	err = store.Transition(ctx, id, StatusPending, StatusConfirmed)
	assert.ErrorIs(t, err, apperr.ErrConcurrentModification)
}

func TestStoreExpireOverdue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, &Session{UserID: 1, Kind: KindPendingConfirmation, PendingAction: &PendingAction{Action: "cancel_trip"}})
	require.NoError(t, err)

	n, err := store.ExpireOverdue(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	sess := Session{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, sess.Expired(now))
	assert.True(t, sess.Expired(now.Add(2*time.Hour)))
}
