package dispatch

import (
	"context"
	"fmt"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/application/planner"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// CreateJourneyCommand plans the leg template for a pending order
type CreateJourneyCommand struct {
	OrderID string
}

// JourneyResponse carries an order together with its legs
type JourneyResponse struct {
	Order *journey.Order
	Legs  []*journey.Leg
}

// CreateJourneyHandler handles journey planning for a single order
type CreateJourneyHandler struct {
	uow     common.UnitOfWork
	planner *planner.Planner
	clock   shared.Clock
}

// NewCreateJourneyHandler creates the handler
func NewCreateJourneyHandler(uow common.UnitOfWork, p *planner.Planner, clock shared.Clock) *CreateJourneyHandler {
	return &CreateJourneyHandler{uow: uow, planner: p, clock: clock}
}

// Handle locks the order, plans its legs, and persists the journey.
// Replanning an order that already has live legs is rejected.
func (h *CreateJourneyHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(CreateJourneyCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type for CreateJourneyHandler")
	}

	var resp JourneyResponse
	err := h.uow.Execute(ctx, func(repos common.Repositories) error {
		order, err := repos.Orders().FindByIDForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if order.Status != journey.OrderPending {
			return shared.NewInvalidStateError("order " + order.ID + " is " + string(order.Status) + ", only PENDING orders can be planned")
		}

		existing, err := repos.Legs().FindByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		for _, l := range existing {
			if l.Status != journey.LegCancelled {
				return shared.NewInvalidStateError("order " + order.ID + " already has a planned journey")
			}
		}

		plan, err := h.planner.PlanJourney(ctx, repos, order)
		if err != nil {
			return err
		}
		if err := repos.Legs().CreateBatch(ctx, plan.Legs); err != nil {
			return err
		}

		if plan.TotalKm > 0 {
			total := plan.TotalKm
			order.TotalDistanceKm = &total
		}
		order.UpdatedAt = h.clock.Now()
		if err := repos.Orders().Update(ctx, order); err != nil {
			return err
		}

		resp = JourneyResponse{Order: order, Legs: plan.Legs}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
