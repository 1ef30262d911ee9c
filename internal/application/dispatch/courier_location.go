package dispatch

import (
	"context"
	"fmt"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// UpdateCourierLocationCommand records a courier GPS report. Proximity
// assignment and incident rerouting read the latest position.
type UpdateCourierLocationCommand struct {
	CourierID string
	Lat       float64
	Lon       float64
}

// UpdateCourierLocationHandler handles GPS reports
type UpdateCourierLocationHandler struct {
	uow   common.UnitOfWork
	clock shared.Clock
}

// NewUpdateCourierLocationHandler creates the handler
func NewUpdateCourierLocationHandler(uow common.UnitOfWork, clock shared.Clock) *UpdateCourierLocationHandler {
	return &UpdateCourierLocationHandler{uow: uow, clock: clock}
}

// Handle validates and stores the position
func (h *UpdateCourierLocationHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(UpdateCourierLocationCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type for UpdateCourierLocationHandler")
	}

	c, err := h.uow.Couriers().FindByID(ctx, cmd.CourierID)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateLocation(shared.Coordinate{Lat: cmd.Lat, Lon: cmd.Lon}, h.clock.Now()); err != nil {
		return nil, err
	}
	if err := h.uow.Couriers().Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
