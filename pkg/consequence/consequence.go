// Package consequence implements the check_consequences node (spec.md
// §4.4): computing the impact of a proposed mutation and deciding whether
// to block execution pending explicit user confirmation.
package consequence

import (
	"context"
	"fmt"

	"github.com/RudraKhare/movi-agent/pkg/catalog"
	"github.com/RudraKhare/movi-agent/pkg/domain"
	"github.com/RudraKhare/movi-agent/pkg/flow"
	"github.com/RudraKhare/movi-agent/pkg/session"
)

// bookingGatedActions require confirmation whenever booking_count>0
// or live_status=IN_PROGRESS (spec.md §4.4).
var bookingGatedActions = map[string]bool{
	"cancel_trip":         true,
	"remove_vehicle":      true,
	"remove_driver":       true,
	"update_trip_time":    true,
	"cancel_all_bookings": true,
}

// downstreamGatedActions require confirmation whenever downstream > 0.
var downstreamGatedActions = map[string]string{
	"delete_stop":  "stop",
	"delete_path":  "path",
	"delete_route": "route",
}

// Checker decides whether a risky mutation needs confirmation and, if so,
// opens a pending Session.
type Checker struct {
	domain  *domain.Store
	session *session.Store
}

// NewChecker builds a Checker over the domain and session stores.
func NewChecker(d *domain.Store, s *session.Store) *Checker {
	return &Checker{domain: d, session: s}
}

// Check evaluates state and, when confirmation is required, writes a
// pending_confirmation Session and sets state.PendingSessionID. It never
// mutates the domain database.
func (c *Checker) Check(ctx context.Context, st *flow.State) error {
	action := st.Intent.Action

	if !catalog.IsRisky(action) {
		return nil
	}

	cons, confirm, errKind, err := c.evaluate(ctx, st)
	if err != nil {
		return err
	}
	if errKind != "" {
		st.Error = flow.NewError(errKind, "consequence check failed", nil)
		return nil
	}

	st.Consequences = cons
	if !confirm {
		return nil
	}

	st.NeedsConfirmation = true

	var entityID *int64
	if st.Resolved.EntityID != nil {
		entityID = st.Resolved.EntityID
	}
	sess := &session.Session{
		UserID: st.UserID,
		Kind:   session.KindPendingConfirmation,
		PendingAction: &session.PendingAction{
			Action:       action,
			Parameters:   st.Intent.Parameters,
			ResolvedType: st.Resolved.EntityType,
			ResolvedID:   entityID,
			Consequences: cons,
		},
	}
	id, err := c.session.Create(ctx, sess)
	if err != nil {
		return fmt.Errorf("open pending confirmation session: %w", err)
	}
	st.PendingSessionID = id
	return nil
}

func (c *Checker) evaluate(ctx context.Context, st *flow.State) (flow.Consequences, bool, flow.ErrorKind, error) {
	action := st.Intent.Action

	if bookingGatedActions[action] {
		return c.evaluateBookingGated(ctx, st)
	}

	if action == "assign_vehicle" {
		return c.evaluateAssignVehicle(ctx, st)
	}

	if entity, ok := downstreamGatedActions[action]; ok {
		return c.evaluateDownstreamGated(ctx, entity, st)
	}

	return flow.Consequences{}, false, "", nil
}

func (c *Checker) evaluateBookingGated(ctx context.Context, st *flow.State) (flow.Consequences, bool, flow.ErrorKind, error) {
	if st.Resolved.EntityID == nil {
		return flow.Consequences{}, false, "", nil
	}
	trip, err := c.domain.GetTripByID(ctx, *st.Resolved.EntityID)
	if err != nil {
		return flow.Consequences{}, false, "", fmt.Errorf("load trip for consequence check: %w", err)
	}
	count, err := c.domain.BookingCount(ctx, trip.ID)
	if err != nil {
		return flow.Consequences{}, false, "", fmt.Errorf("count bookings: %w", err)
	}

	cons := flow.Consequences{BookingCount: count, LiveStatus: trip.LiveStatus}
	confirm := count > 0 || trip.LiveStatus == "IN_PROGRESS"
	return cons, confirm, "", nil
}

func (c *Checker) evaluateAssignVehicle(ctx context.Context, st *flow.State) (flow.Consequences, bool, flow.ErrorKind, error) {
	if st.Resolved.EntityID == nil {
		return flow.Consequences{}, false, "", nil
	}
	trip, err := c.domain.GetTripByID(ctx, *st.Resolved.EntityID)
	if err != nil {
		return flow.Consequences{}, false, "", fmt.Errorf("load trip for consequence check: %w", err)
	}

	// Vehicle availability must be checked before a new assignment
	// (spec.md §4.4 "Vehicle availability").
	if vehicleID, ok := st.Intent.Parameters["vehicle_id"]; ok {
		id, ok := toInt64(vehicleID)
		if ok {
			conflicts, err := c.domain.VehicleConflicts(ctx, id, trip.ID, trip.ScheduledDate)
			if err != nil {
				return flow.Consequences{}, false, "", fmt.Errorf("check vehicle conflicts: %w", err)
			}
			if len(conflicts) > 0 {
				return flow.Consequences{}, false, flow.ErrVehicleConflict, nil
			}
		}
	}

	// A historical bug checked only vehicle_id; deployment_id must be
	// checked too (spec.md §4.4).
	hasDeployment := trip.VehicleID != nil || trip.DeploymentID != nil
	cons := flow.Consequences{HasDeployment: hasDeployment}
	return cons, hasDeployment, "", nil
}

func (c *Checker) evaluateDownstreamGated(ctx context.Context, entity string, st *flow.State) (flow.Consequences, bool, flow.ErrorKind, error) {
	if st.Resolved.EntityID == nil {
		return flow.Consequences{}, false, "", nil
	}
	n, err := c.domain.DownstreamCount(ctx, entity, *st.Resolved.EntityID)
	if err != nil {
		return flow.Consequences{}, false, "", fmt.Errorf("count downstream refs: %w", err)
	}
	cons := flow.Consequences{Downstream: n}
	return cons, n > 0, "", nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
