package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/routing"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/pkg/utils"
)

// UpdateLegCommand edits a single leg from the dispatch board: assign or
// unassign a courier, move an endpoint to another warehouse, change the
// status, or amend the note. COMPLETED legs are immutable.
type UpdateLegCommand struct {
	LegID int64
	// CourierID assigns when non-empty; Unassign clears instead
	CourierID string
	Unassign  bool
	// OriginWarehouseID / DestinationWarehouseID move a pending leg's
	// endpoints; the estimate is recomputed when either changes
	OriginWarehouseID      *string
	DestinationWarehouseID *string
	// Status drives the leg state machine; IN_PROGRESS requires an
	// assigned courier
	Status *journey.LegStatus
	Note   *string
}

// UpdateLegHandler handles dispatcher leg edits
type UpdateLegHandler struct {
	uow      common.UnitOfWork
	provider routing.Provider
	clock    shared.Clock
}

// NewUpdateLegHandler creates the handler
func NewUpdateLegHandler(uow common.UnitOfWork, provider routing.Provider, clock shared.Clock) *UpdateLegHandler {
	return &UpdateLegHandler{uow: uow, provider: provider, clock: clock}
}

// Handle applies the edit under the order lock
func (h *UpdateLegHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(UpdateLegCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type for UpdateLegHandler")
	}
	if cmd.CourierID != "" && cmd.Unassign {
		return nil, shared.NewValidationError("courier_id", "cannot assign and unassign at once")
	}

	var updated *journey.Leg
	err := h.uow.Execute(ctx, func(repos common.Repositories) error {
		leg, err := repos.Legs().FindByID(ctx, cmd.LegID)
		if err != nil {
			return err
		}
		order, err := repos.Orders().FindByIDForUpdate(ctx, leg.OrderID)
		if err != nil {
			return err
		}
		// Re-read under the lock
		leg, err = repos.Legs().FindByID(ctx, cmd.LegID)
		if err != nil {
			return err
		}
		if leg.Status == journey.LegCompleted {
			return shared.NewInvalidStateError(fmt.Sprintf("leg %d is COMPLETED and cannot be edited", leg.ID))
		}

		now := h.clock.Now()
		switch {
		case cmd.Unassign:
			if err := leg.Unassign(now); err != nil {
				return err
			}
		case cmd.CourierID != "":
			c, err := repos.Couriers().FindByID(ctx, cmd.CourierID)
			if err != nil {
				return err
			}
			if err := c.EnsureCanServe(leg.Type); err != nil {
				return err
			}
			if err := leg.Assign(c.ID, now); err != nil {
				return err
			}
		}

		endpointChanged, err := h.moveEndpoints(ctx, repos, leg, cmd, now)
		if err != nil {
			return err
		}
		if endpointChanged {
			h.recomputeDistance(ctx, repos, order, leg)
		}

		if cmd.Status != nil {
			if err := h.transition(leg, *cmd.Status, now); err != nil {
				return err
			}
		}
		if cmd.Note != nil {
			leg.Note = *cmd.Note
			leg.UpdatedAt = now
		}

		if err := repos.Legs().Update(ctx, leg); err != nil {
			return err
		}
		updated = leg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// moveEndpoints applies warehouse changes to a pending leg and validates
// the resulting shape.
func (h *UpdateLegHandler) moveEndpoints(ctx context.Context, repos common.Repositories, leg *journey.Leg, cmd UpdateLegCommand, now time.Time) (bool, error) {
	if cmd.OriginWarehouseID == nil && cmd.DestinationWarehouseID == nil {
		return false, nil
	}
	if leg.Status != journey.LegPending {
		return false, shared.NewInvalidStateError(fmt.Sprintf("leg %d is %s, endpoints can only move on PENDING legs", leg.ID, leg.Status))
	}

	if cmd.OriginWarehouseID != nil {
		w, err := repos.Warehouses().FindByID(ctx, *cmd.OriginWarehouseID)
		if err != nil {
			return false, err
		}
		id := w.ID
		leg.OriginWarehouseID = &id
	}
	if cmd.DestinationWarehouseID != nil {
		w, err := repos.Warehouses().FindByID(ctx, *cmd.DestinationWarehouseID)
		if err != nil {
			return false, err
		}
		id := w.ID
		leg.DestinationWarehouseID = &id
	}
	if err := leg.ValidateEndpoints(); err != nil {
		return false, err
	}
	leg.UpdatedAt = now
	return true, nil
}

// recomputeDistance refreshes the estimate after an endpoint move. The
// assigned courier's vehicle picks the routing profile, defaulting to a
// motorbike; a failed lookup leaves the estimate unset with a warning.
func (h *UpdateLegHandler) recomputeDistance(ctx context.Context, repos common.Repositories, order *journey.Order, leg *journey.Leg) {
	logger := common.LoggerFromContext(ctx)
	leg.EstimatedDistanceKm = nil

	origin, ok := h.endpointCoordinate(ctx, repos, order, leg.OriginWarehouseID, leg.OriginSMEID, false)
	if !ok {
		logger.Warn("leg origin has no coordinates, leaving estimate unset", "leg_id", leg.ID)
		return
	}
	dest, ok := h.endpointCoordinate(ctx, repos, order, leg.DestinationWarehouseID, nil, leg.DestinationIsReceiver)
	if !ok {
		logger.Warn("leg destination has no coordinates, leaving estimate unset", "leg_id", leg.ID)
		return
	}

	mode := routing.ModeBike
	if leg.CourierID != nil {
		if c, err := repos.Couriers().FindByID(ctx, *leg.CourierID); err == nil {
			mode = routing.ModeForVehicle(c.Vehicle)
		}
	}

	km, err := h.provider.DistanceKm(ctx, origin, dest, mode)
	if err != nil {
		logger.Warn("distance recompute failed, leaving estimate unset", "leg_id", leg.ID, "error", err)
		return
	}
	if km > 0 {
		rounded := utils.RoundKm(km)
		leg.EstimatedDistanceKm = &rounded
	}
}

// endpointCoordinate resolves one polymorphic leg endpoint to a coordinate
func (h *UpdateLegHandler) endpointCoordinate(ctx context.Context, repos common.Repositories, order *journey.Order, warehouseID, smeID *string, isReceiver bool) (shared.Coordinate, bool) {
	switch {
	case warehouseID != nil:
		w, err := repos.Warehouses().FindByID(ctx, *warehouseID)
		if err != nil {
			return shared.Coordinate{}, false
		}
		return w.Coordinate()
	case smeID != nil:
		s, err := repos.SMEs().FindByID(ctx, *smeID)
		if err != nil {
			return shared.Coordinate{}, false
		}
		return s.Coordinate()
	case isReceiver:
		return order.ReceiverCoordinate()
	default:
		return shared.Coordinate{}, false
	}
}

// transition drives the leg state machine from a dispatcher edit
func (h *UpdateLegHandler) transition(leg *journey.Leg, status journey.LegStatus, now time.Time) error {
	switch status {
	case journey.LegPending:
		if leg.Status != journey.LegPending {
			return shared.NewInvalidStateError(fmt.Sprintf("leg %d cannot return to PENDING", leg.ID))
		}
		return nil
	case journey.LegInProgress:
		if leg.CourierID == nil {
			return shared.NewInvalidStateError(fmt.Sprintf("leg %d cannot start without an assigned courier", leg.ID))
		}
		return leg.Start(now)
	case journey.LegCompleted:
		return leg.Complete(now)
	case journey.LegCancelled:
		return leg.Cancel(now)
	default:
		return shared.NewValidationError("status", fmt.Sprintf("unknown leg status %q", status))
	}
}
