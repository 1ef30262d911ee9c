package dispatch

import (
	"context"
	"fmt"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// AssignTransferCommand lets a courier claim an order's pending transfer
// leg. Only truck and car drivers qualify.
type AssignTransferCommand struct {
	OrderID   string
	CourierID string
}

// AssignDeliveryCommand lets a courier claim an order's pending delivery leg
type AssignDeliveryCommand struct {
	OrderID   string
	CourierID string
}

// SelfAssignHandler handles courier-initiated leg claims
type SelfAssignHandler struct {
	uow   common.UnitOfWork
	clock shared.Clock
}

// NewSelfAssignHandler creates the handler
func NewSelfAssignHandler(uow common.UnitOfWork, clock shared.Clock) *SelfAssignHandler {
	return &SelfAssignHandler{uow: uow, clock: clock}
}

// Handle claims the matching leg under the order lock
func (h *SelfAssignHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	var orderID, courierID string
	var legType journey.LegType

	switch cmd := request.(type) {
	case AssignTransferCommand:
		orderID, courierID, legType = cmd.OrderID, cmd.CourierID, journey.LegTransfer
	case AssignDeliveryCommand:
		orderID, courierID, legType = cmd.OrderID, cmd.CourierID, journey.LegDelivery
	default:
		return nil, fmt.Errorf("invalid request type for SelfAssignHandler")
	}

	var claimed *journey.Leg
	err := h.uow.Execute(ctx, func(repos common.Repositories) error {
		if _, err := repos.Orders().FindByIDForUpdate(ctx, orderID); err != nil {
			return err
		}
		c, err := repos.Couriers().FindByID(ctx, courierID)
		if err != nil {
			return err
		}
		if err := c.EnsureCanServe(legType); err != nil {
			return err
		}
		if !c.Available() {
			return shared.NewInvalidStateError("courier " + c.ID + " is " + string(c.Status))
		}

		legs, err := repos.Legs().FindByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		leg := journey.LegOfType(legs, legType)
		if leg == nil {
			return shared.NewNotFoundError(string(legType)+" leg for order", orderID)
		}
		if leg.CourierID != nil {
			return shared.NewInvalidStateError(fmt.Sprintf("leg %d is already assigned", leg.ID))
		}
		if err := leg.Assign(c.ID, h.clock.Now()); err != nil {
			return err
		}
		if err := repos.Legs().Update(ctx, leg); err != nil {
			return err
		}
		claimed = leg
		return nil
	})
	if err != nil {
		return nil, err
	}

	common.LoggerFromContext(ctx).Info("leg claimed",
		"order_id", orderID, "courier_id", courierID, "leg_type", string(legType))
	return claimed, nil
}
