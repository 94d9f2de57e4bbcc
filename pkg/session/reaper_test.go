package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaperImmediateSweepLeavesUnexpiredSessionPending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, &Session{UserID: 1, Kind: KindPendingConfirmation, PendingAction: &PendingAction{Action: "cancel_trip"}})
	require.NoError(t, err)

	// The session was just created and has not expired yet, so the
	// reaper's immediate first sweep on Start must leave it PENDING.
	reaper := NewReaper(store, 50*time.Millisecond)
	reaper.Start(ctx)
	t.Cleanup(reaper.Stop)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status, "session not yet expired should survive the reaper's immediate sweep")
}

func TestReaperStopIsIdempotentBeforeStart(t *testing.T) {
	store := newTestStore(t)
	reaper := NewReaper(store, time.Minute)
	assert.NotPanics(t, func() { reaper.Stop() })
}
