package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogHasNoDuplicateNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, a := range All() {
		require.Falsef(t, seen[a.Name], "duplicate action %q", a.Name)
		seen[a.Name] = true
	}
}

func TestCatalogCoversSpecEntryCount(t *testing.T) {
	// spec.md §2 budgets the catalog at "~50 entries".
	assert.GreaterOrEqual(t, len(All()), 45)
}

func TestGetRoundTrips(t *testing.T) {
	a, ok := Get("cancel_trip")
	require.True(t, ok)
	assert.Equal(t, RiskRisky, a.Risk)
	assert.Equal(t, PageDashboard, a.PageRequirement)
}

func TestAssignDriverIsSafe(t *testing.T) {
	// spec.md §9 Open Question: assign_driver is classified safe here.
	assert.False(t, IsRisky("assign_driver"))
}

func TestPageMismatch(t *testing.T) {
	assert.True(t, PageMismatch("create_path", "dashboard"))
	assert.False(t, PageMismatch("create_path", "manageRoute"))
	assert.False(t, PageMismatch("create_path", ""), "absent page bypasses gating")
	assert.False(t, PageMismatch("get_trip_status", "dashboard"), "page=any never mismatches")
}

func TestMissingRequiredParameters(t *testing.T) {
	missing := MissingRequiredParameters("add_vehicle", map[string]any{"registration_number": "ABC123"})
	assert.Equal(t, []string{"capacity"}, missing)

	missing = MissingRequiredParameters("add_vehicle", map[string]any{"registration_number": "ABC123", "capacity": 12})
	assert.Empty(t, missing)
}

func TestUnknownActionLookupsAreSafe(t *testing.T) {
	_, ok := Get("does_not_exist")
	assert.False(t, ok)
	assert.False(t, IsRisky("does_not_exist"))
	assert.False(t, PageMismatch("does_not_exist", "dashboard"))
	assert.Nil(t, MissingRequiredParameters("does_not_exist", nil))
}
