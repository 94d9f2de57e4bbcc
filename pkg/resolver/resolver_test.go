package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RudraKhare/movi-agent/pkg/flow"
)

func TestIsTargetFreeHonorsCatalogFlag(t *testing.T) {
	assert.True(t, isTargetFree("list_all_stops"))
	assert.True(t, isTargetFree("get_today_summary"))
	assert.False(t, isTargetFree("cancel_trip"))
}

func TestExpectedEntityTypeNeverFallsBackToTripForPathRouteStop(t *testing.T) {
	assert.Equal(t, flow.EntityPath, expectedEntityType("delete_path"))
	assert.Equal(t, flow.EntityRoute, expectedEntityType("delete_route"))
	assert.Equal(t, flow.EntityStop, expectedEntityType("delete_stop"))
	assert.Equal(t, flow.EntityTrip, expectedEntityType("cancel_trip"))
}

func TestIsVagueDetectsDeicticPhrasing(t *testing.T) {
	assert.True(t, isVague("cancel this trip"))
	assert.True(t, isVague("assign a driver to it"))
	assert.False(t, isVague("cancel trip Odeon Express"))
}

func TestExtractLabelFromPatterns(t *testing.T) {
	label, ok := extractLabel("remove vehicle from Odeon Express")
	assert.True(t, ok)
	assert.Equal(t, "Odeon Express", label)

	label, ok = extractLabel("cancel Odeon Express")
	assert.True(t, ok)
	assert.Equal(t, "Odeon Express", label)

	_, ok = extractLabel("list all stops")
	assert.False(t, ok)
}
