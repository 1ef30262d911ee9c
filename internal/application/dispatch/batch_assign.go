package dispatch

import (
	"context"
	"fmt"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/application/planner"
	"github.com/andrescamacho/dispatch-go/internal/domain/courier"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// AssignmentPair matches one pending order to the pickup courier chosen
// for it.
type AssignmentPair struct {
	OrderID   string `json:"order_id"`
	CourierID string `json:"shipper_id"`
}

// BatchAssignCommand executes a batch of pickup assignments for an area.
// Each pair plans the order's journey when it has no legs yet and puts the
// courier on the pickup leg. Transfer and delivery legs stay unassigned;
// trucks claim transfers later and the exit warehouse releases deliveries.
type BatchAssignCommand struct {
	AreaID string
	Pairs  []AssignmentPair
}

// BatchAssignResult summarizes one batch run
type BatchAssignResult struct {
	Planned  int               `json:"planned"`
	Assigned int               `json:"assigned"`
	Failures map[string]string `json:"failures,omitempty"`
}

// BatchAssignHandler handles batch journey planning for an area
type BatchAssignHandler struct {
	uow     common.UnitOfWork
	planner *planner.Planner
	clock   shared.Clock
}

// NewBatchAssignHandler creates the handler
func NewBatchAssignHandler(uow common.UnitOfWork, p *planner.Planner, clock shared.Clock) *BatchAssignHandler {
	return &BatchAssignHandler{uow: uow, planner: p, clock: clock}
}

// Handle processes the pairs one transaction each, so a single bad order
// cannot roll back the whole batch.
func (h *BatchAssignHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(BatchAssignCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type for BatchAssignHandler")
	}
	logger := common.LoggerFromContext(ctx)

	result := BatchAssignResult{Failures: map[string]string{}}
	for _, pair := range cmd.Pairs {
		var planned bool
		err := h.uow.Execute(ctx, func(repos common.Repositories) error {
			planned = false
			return h.planAndAssign(ctx, repos, pair, &planned)
		})
		if err != nil {
			logger.Warn("batch assignment skipped order",
				"order_id", pair.OrderID, "courier_id", pair.CourierID, "error", err)
			result.Failures[pair.OrderID] = err.Error()
			continue
		}
		if planned {
			result.Planned++
		}
		result.Assigned++
	}
	if len(result.Failures) == 0 {
		result.Failures = nil
	}

	logger.Info("batch assignment finished",
		"area_id", cmd.AreaID,
		"pairs", len(cmd.Pairs),
		"planned", result.Planned,
		"assigned", result.Assigned,
		"failed", len(result.Failures))
	return result, nil
}

func (h *BatchAssignHandler) planAndAssign(ctx context.Context, repos common.Repositories, pair AssignmentPair, planned *bool) error {
	order, err := repos.Orders().FindByIDForUpdate(ctx, pair.OrderID)
	if err != nil {
		return err
	}
	if order.Status != journey.OrderPending {
		return shared.NewInvalidStateError("order " + order.ID + " is " + string(order.Status) + ", not PENDING")
	}

	c, err := repos.Couriers().FindByID(ctx, pair.CourierID)
	if err != nil {
		return err
	}
	if !c.Available() {
		return shared.NewInvalidStateError("courier " + c.ID + " is " + string(c.Status))
	}
	if err := c.EnsureCanServe(journey.LegPickup); err != nil {
		return err
	}

	legs, err := repos.Legs().FindByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	if journey.NextActionable(legs) == nil {
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
		legs = plan.Legs
		*planned = true
	}

	pickup := journey.LegOfType(legs, journey.LegPickup)
	if pickup == nil {
		return shared.NewInvalidStateError("order " + order.ID + " has no pickup leg")
	}
	if pickup.CourierID != nil {
		return shared.NewInvalidStateError("order " + order.ID + " already has a pickup courier")
	}

	now := h.clock.Now()
	if err := pickup.Assign(c.ID, now); err != nil {
		return err
	}
	if err := repos.Legs().Update(ctx, pickup); err != nil {
		return err
	}

	if err := order.TransitionTo(journey.OrderInTransit, now); err != nil {
		return err
	}
	if err := repos.Orders().Update(ctx, order); err != nil {
		return err
	}

	c.Status = courier.StatusDelivering
	c.UpdatedAt = now
	return repos.Couriers().Update(ctx, c)
}
