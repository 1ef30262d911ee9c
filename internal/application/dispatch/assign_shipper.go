package dispatch

import (
	"context"
	"fmt"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/application/planner"
	"github.com/andrescamacho/dispatch-go/internal/domain/courier"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/domain/warehouse"
)

// AssignShipperCommand is the dispatcher's manual assignment: build the
// order's journey through an explicitly chosen entry hub and exit satellite
// and put the pickup courier on the first leg. A delivery courier may be
// attached up front; the transfer leg stays unassigned until a truck claims
// it.
type AssignShipperCommand struct {
	OrderID           string
	PickupCourierID   string
	EntryHubID        string
	ExitSatelliteID   string
	DeliveryCourierID string
}

// AssignShipperResult reports the created journey
type AssignShipperResult struct {
	OrderID string  `json:"order_id"`
	LegIDs  []int64 `json:"leg_ids"`
	TotalKm float64 `json:"total_km"`
}

// AssignShipperHandler handles manual journey assignment
type AssignShipperHandler struct {
	uow     common.UnitOfWork
	planner *planner.Planner
	clock   shared.Clock
}

// NewAssignShipperHandler creates the handler
func NewAssignShipperHandler(uow common.UnitOfWork, p *planner.Planner, clock shared.Clock) *AssignShipperHandler {
	return &AssignShipperHandler{uow: uow, planner: p, clock: clock}
}

// Handle creates the legs, assignments and status changes in one
// transaction.
func (h *AssignShipperHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(AssignShipperCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type for AssignShipperHandler")
	}
	if cmd.OrderID == "" || cmd.PickupCourierID == "" || cmd.EntryHubID == "" {
		return nil, shared.NewValidationError("assignment", "order_id, shipper_id and entry hub are required")
	}
	logger := common.LoggerFromContext(ctx)

	var result AssignShipperResult
	err := h.uow.Execute(ctx, func(repos common.Repositories) error {
		order, err := repos.Orders().FindByIDForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if order.Status != journey.OrderPending && order.Status != journey.OrderInTransit {
			return shared.NewInvalidStateError("order " + order.ID + " is " + string(order.Status) + " and cannot be assigned")
		}

		existing, err := repos.Legs().FindByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if journey.NextActionable(existing) != nil {
			return shared.NewInvalidStateError("order " + order.ID + " already has journey legs")
		}

		entry, err := h.locatedWarehouse(ctx, repos, cmd.EntryHubID)
		if err != nil {
			return err
		}
		// Without an exit satellite the journey collapses around the hub
		exit := entry
		if cmd.ExitSatelliteID != "" {
			if exit, err = h.locatedWarehouse(ctx, repos, cmd.ExitSatelliteID); err != nil {
				return err
			}
		}

		pickupCourier, err := repos.Couriers().FindByID(ctx, cmd.PickupCourierID)
		if err != nil {
			return err
		}
		if pickupCourier.Status != courier.StatusOnline {
			return shared.NewInvalidStateError("courier " + pickupCourier.ID + " is " + string(pickupCourier.Status) + ", not ONLINE")
		}
		if err := pickupCourier.EnsureCanServe(journey.LegPickup); err != nil {
			return err
		}

		var deliveryCourier *courier.Courier
		if cmd.DeliveryCourierID != "" {
			deliveryCourier, err = repos.Couriers().FindByID(ctx, cmd.DeliveryCourierID)
			if err != nil {
				return err
			}
			if err := deliveryCourier.EnsureCanServe(journey.LegDelivery); err != nil {
				return err
			}
		}

		plan, err := h.planner.PlanWithWarehouses(ctx, repos, order, entry, exit)
		if err != nil {
			return err
		}

		now := h.clock.Now()
		pickup := journey.LegOfType(plan.Legs, journey.LegPickup)
		if err := pickup.Assign(pickupCourier.ID, now); err != nil {
			return err
		}
		if deliveryCourier != nil {
			delivery := journey.LegOfType(plan.Legs, journey.LegDelivery)
			if err := delivery.Assign(deliveryCourier.ID, now); err != nil {
				return err
			}
		}

		if err := repos.Legs().CreateBatch(ctx, plan.Legs); err != nil {
			return err
		}
		if plan.TotalKm > 0 {
			total := plan.TotalKm
			order.TotalDistanceKm = &total
		}
		if err := order.TransitionTo(journey.OrderInTransit, now); err != nil {
			return err
		}
		if err := repos.Orders().Update(ctx, order); err != nil {
			return err
		}

		pickupCourier.Status = courier.StatusDelivering
		pickupCourier.UpdatedAt = now
		if err := repos.Couriers().Update(ctx, pickupCourier); err != nil {
			return err
		}

		result.OrderID = order.ID
		result.TotalKm = plan.TotalKm
		for _, l := range plan.Legs {
			result.LegIDs = append(result.LegIDs, l.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("manual assignment created journey",
		"order_id", cmd.OrderID,
		"pickup_courier", cmd.PickupCourierID,
		"entry_hub", cmd.EntryHubID,
		"exit_satellite", cmd.ExitSatelliteID,
		"legs", len(result.LegIDs))
	return result, nil
}

// locatedWarehouse loads a warehouse and requires its coordinates
func (h *AssignShipperHandler) locatedWarehouse(ctx context.Context, repos common.Repositories, id string) (*warehouse.Warehouse, error) {
	w, err := repos.Warehouses().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := w.Coordinate(); !ok {
		return nil, shared.NewValidationError("warehouse", "warehouse "+w.ID+" has no coordinates")
	}
	return w, nil
}
