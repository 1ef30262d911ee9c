package dispatch

import (
	"context"
	"fmt"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/pkg/utils"
)

// GetOrderJourneyQuery fetches an order with its legs and barcode
type GetOrderJourneyQuery struct {
	OrderID string
}

// OrderJourneyView is the full journey read model. CourierNames resolves
// each assigned courier id to its display name.
type OrderJourneyView struct {
	Order        *journey.Order
	Legs         []*journey.Leg
	Barcode      *journey.Barcode
	CourierNames map[string]string
}

// GetCourierTasksQuery lists a courier's live legs
type GetCourierTasksQuery struct {
	CourierID string
}

// GetDispatchSummaryQuery aggregates an area's order pipeline
type GetDispatchSummaryQuery struct {
	AreaID string
}

// DispatchSummary is the aggregate read model
type DispatchSummary struct {
	AreaID          string
	OrdersByStatus  map[journey.OrderStatus]int64
	TotalDistanceKm float64
}

// QueryHandler serves the dispatch read side
type QueryHandler struct {
	uow common.UnitOfWork
}

// NewQueryHandler creates the handler
func NewQueryHandler(uow common.UnitOfWork) *QueryHandler {
	return &QueryHandler{uow: uow}
}

// Handle serves one of the dispatch queries
func (h *QueryHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	switch q := request.(type) {
	case GetOrderJourneyQuery:
		return h.orderJourney(ctx, q)
	case GetCourierTasksQuery:
		return h.uow.Legs().FindAssigned(ctx, q.CourierID)
	case GetDispatchSummaryQuery:
		return h.summary(ctx, q)
	default:
		return nil, fmt.Errorf("invalid request type for QueryHandler")
	}
}

func (h *QueryHandler) orderJourney(ctx context.Context, q GetOrderJourneyQuery) (*OrderJourneyView, error) {
	order, err := h.uow.Orders().FindByID(ctx, q.OrderID)
	if err != nil {
		return nil, err
	}
	legs, err := h.uow.Legs().FindByOrder(ctx, q.OrderID)
	if err != nil {
		return nil, err
	}
	barcode, err := h.uow.Barcodes().FindByOrder(ctx, q.OrderID)
	if err != nil {
		// Legacy orders may predate labeling
		barcode = nil
	}
	names := map[string]string{}
	for _, l := range legs {
		if l.CourierID == nil {
			continue
		}
		if _, seen := names[*l.CourierID]; seen {
			continue
		}
		if c, err := h.uow.Couriers().FindByID(ctx, *l.CourierID); err == nil {
			names[c.ID] = c.Name
		}
	}
	return &OrderJourneyView{Order: order, Legs: legs, Barcode: barcode, CourierNames: names}, nil
}

func (h *QueryHandler) summary(ctx context.Context, q GetDispatchSummaryQuery) (*DispatchSummary, error) {
	counts, err := h.uow.Orders().CountByStatus(ctx, q.AreaID)
	if err != nil {
		return nil, err
	}
	total, err := h.uow.Orders().SumTotalDistanceKm(ctx, q.AreaID)
	if err != nil {
		return nil, err
	}
	return &DispatchSummary{
		AreaID:          q.AreaID,
		OrdersByStatus:  counts,
		TotalDistanceKm: utils.RoundKm(total),
	}, nil
}
