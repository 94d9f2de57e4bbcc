package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func TestFormatErrorStatus(t *testing.T) {
	st := &flow.State{Error: flow.NewError(flow.ErrTripNotFound, "no such trip", nil)}
	out := Format(st)
	assert.Equal(t, flow.StatusError, out.Status)
	assert.False(t, out.Success)
	require.NotNil(t, out.Error)
	assert.Equal(t, flow.ErrTripNotFound, out.Error.Kind)
}

func TestFormatAwaitingConfirmationCarriesSessionID(t *testing.T) {
	st := &flow.State{
		NeedsConfirmation: true,
		PendingSessionID:  "sess-1",
		Consequences:      flow.Consequences{BookingCount: 4},
	}
	out := Format(st)
	assert.Equal(t, flow.StatusAwaitingConfirmation, out.Status)
	assert.Equal(t, "sess-1", out.SessionID)
	require.NotNil(t, out.Consequences)
	assert.Equal(t, 4, out.Consequences.BookingCount)
}

func TestFormatPassesThroughTypedDataUnchanged(t *testing.T) {
	payload := map[string]any{"type": "table", "data": []any{1, 2, 3}}
	st := &flow.State{ExecutionResult: payload}
	out := Format(st)
	assert.Equal(t, flow.StatusExecuted, out.Status)
	assert.Equal(t, payload, out.Data)
}

func TestFormatWizardCancelled(t *testing.T) {
	st := &flow.State{Wizard: &flow.Wizard{Cancelled: true}}
	out := Format(st)
	assert.Equal(t, flow.StatusCancelled, out.Status)
}
