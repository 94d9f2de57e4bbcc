package consequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingGatedActionsMatchSpecList(t *testing.T) {
	for _, a := range []string{"cancel_trip", "remove_vehicle", "remove_driver", "update_trip_time", "cancel_all_bookings"} {
		assert.True(t, bookingGatedActions[a], a)
	}
	assert.False(t, bookingGatedActions["assign_vehicle"])
}

func TestDownstreamGatedActionsMapToEntity(t *testing.T) {
	assert.Equal(t, "stop", downstreamGatedActions["delete_stop"])
	assert.Equal(t, "path", downstreamGatedActions["delete_path"])
	assert.Equal(t, "route", downstreamGatedActions["delete_route"])
}

func TestToInt64HandlesCommonTypes(t *testing.T) {
	v, ok := toInt64(float64(8))
	assert.True(t, ok)
	assert.Equal(t, int64(8), v)

	v, ok = toInt64(int64(3))
	assert.True(t, ok)
	assert.Equal(t, int64(3), v)

	_, ok = toInt64("nope")
	assert.False(t, ok)
}
