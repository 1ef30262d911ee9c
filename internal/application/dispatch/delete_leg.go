package dispatch

import (
	"context"
	"fmt"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// DeleteLegCommand removes a pending TRANSFER leg, collapsing the journey
// to the two-leg variant. PICKUP and DELIVERY legs cannot be removed.
type DeleteLegCommand struct {
	LegID int64
}

// DeleteLegHandler handles transfer leg removal
type DeleteLegHandler struct {
	uow   common.UnitOfWork
	clock shared.Clock
}

// NewDeleteLegHandler creates the handler
func NewDeleteLegHandler(uow common.UnitOfWork, clock shared.Clock) *DeleteLegHandler {
	return &DeleteLegHandler{uow: uow, clock: clock}
}

// Handle deletes the leg, relinks the successor to the deleted leg's
// origin, resequences, and re-validates the journey shape.
func (h *DeleteLegHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(DeleteLegCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type for DeleteLegHandler")
	}

	err := h.uow.Execute(ctx, func(repos common.Repositories) error {
		leg, err := repos.Legs().FindByID(ctx, cmd.LegID)
		if err != nil {
			return err
		}
		if _, err := repos.Orders().FindByIDForUpdate(ctx, leg.OrderID); err != nil {
			return err
		}
		leg, err = repos.Legs().FindByID(ctx, cmd.LegID)
		if err != nil {
			return err
		}

		if leg.Type != journey.LegTransfer {
			return shared.NewInvalidStateError("only TRANSFER legs can be removed")
		}
		if leg.Status != journey.LegPending {
			return shared.NewInvalidStateError(fmt.Sprintf("leg %d is %s and cannot be removed", leg.ID, leg.Status))
		}

		if err := repos.Legs().Delete(ctx, leg.ID); err != nil {
			return err
		}

		legs, err := repos.Legs().FindByOrder(ctx, leg.OrderID)
		if err != nil {
			return err
		}

		now := h.clock.Now()
		seq := 0
		for _, l := range legs {
			if l.Status == journey.LegCancelled {
				continue
			}
			seq++
			changed := false
			if l.Sequence != seq {
				l.Sequence = seq
				changed = true
			}
			// Relink the leg that followed the removed transfer
			if l.Sequence >= leg.Sequence && l.OriginWarehouseID != nil &&
				*l.OriginWarehouseID == *leg.DestinationWarehouseID {
				l.OriginWarehouseID = leg.OriginWarehouseID
				changed = true
			}
			if changed {
				l.UpdatedAt = now
				if err := repos.Legs().Update(ctx, l); err != nil {
					return err
				}
			}
		}

		remaining, err := repos.Legs().FindByOrder(ctx, leg.OrderID)
		if err != nil {
			return err
		}
		return journey.ValidateLegs(remaining)
	})
	if err != nil {
		return nil, err
	}

	common.LoggerFromContext(ctx).Info("transfer leg removed", "leg_id", cmd.LegID)
	return struct{}{}, nil
}
