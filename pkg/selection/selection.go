// Package selection implements the driver_selection_provider and
// vehicle_selection_provider nodes (spec.md §4.6): computing a filtered
// option list for the UI to render as buttons.
package selection

import (
	"context"
	"fmt"

	"github.com/RudraKhare/movi-agent/pkg/domain"
	"github.com/RudraKhare/movi-agent/pkg/flow"
)

// Provider populates awaiting_selection / selection_type / options on state.
type Provider struct {
	store *domain.Store
}

// NewProvider builds a Provider over the domain Store.
func NewProvider(store *domain.Store) *Provider {
	return &Provider{store: store}
}

// ProvideVehicles fills state with the vehicle selection option list
// (spec.md §4.6 "Vehicle").
func (p *Provider) ProvideVehicles(ctx context.Context, st *flow.State) error {
	if st.Resolved.EntityID == nil {
		return fmt.Errorf("selection: no trip resolved for vehicle selection")
	}
	trip, err := p.store.GetTripByID(ctx, *st.Resolved.EntityID)
	if err != nil {
		return fmt.Errorf("selection: load trip: %w", err)
	}

	vehicles, err := p.store.AvailableVehicles(ctx, trip.ScheduledDate, trip.ID)
	if err != nil {
		return fmt.Errorf("selection: list available vehicles: %w", err)
	}

	options := make([]flow.ClarificationOption, 0, len(vehicles))
	for _, v := range vehicles {
		options = append(options, flow.ClarificationOption{
			ID:          v.ID,
			Label:       v.RegistrationNumber,
			Description: fmt.Sprintf("capacity %d", v.Capacity),
		})
	}

	st.AwaitingSelection = true
	st.SelectionType = flow.SelectionVehicle
	st.ClarificationOptions = options
	return nil
}

// ProvideDrivers fills state with the driver selection option list
// (spec.md §4.6 "Driver"). Conflicting drivers are excluded entirely rather
// than listed with a disabled state, matching AvailableDrivers' filtering.
func (p *Provider) ProvideDrivers(ctx context.Context, st *flow.State) error {
	if st.Resolved.EntityID == nil {
		return fmt.Errorf("selection: no trip resolved for driver selection")
	}
	trip, err := p.store.GetTripByID(ctx, *st.Resolved.EntityID)
	if err != nil {
		return fmt.Errorf("selection: load trip: %w", err)
	}

	drivers, err := p.store.AvailableDrivers(ctx, trip.ScheduledDate, trip.ScheduledTime)
	if err != nil {
		return fmt.Errorf("selection: list available drivers: %w", err)
	}

	options := make([]flow.ClarificationOption, 0, len(drivers))
	for _, d := range drivers {
		options = append(options, flow.ClarificationOption{
			ID:          d.ID,
			Label:       d.Name,
			Description: fmt.Sprintf("shift %s-%s", d.ShiftStart, d.ShiftEnd),
		})
	}

	st.AwaitingSelection = true
	st.SelectionType = flow.SelectionDriver
	st.ClarificationOptions = options
	return nil
}
