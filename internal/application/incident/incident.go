package incident

import (
	"context"
	"fmt"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/domain/courier"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// ReportCommand reports that a courier cannot continue (breakdown,
// accident). Their live legs move to the nearest compatible peer and the
// courier goes offline.
type ReportCommand struct {
	CourierID   string
	Description string
	Lat         *float64
	Lon         *float64
}

// Reassignment records one moved leg
type Reassignment struct {
	LegID        int64
	OrderID      string
	NewCourierID string
}

// Result summarizes the incident handling
type Result struct {
	CourierID    string
	Reassigned   []Reassignment
	FailedLegIDs []int64
}

// Handler handles courier incidents
type Handler struct {
	uow      common.UnitOfWork
	notifier common.NotificationSink
	clock    shared.Clock
}

// NewHandler creates the incident handler
func NewHandler(uow common.UnitOfWork, notifier common.NotificationSink, clock shared.Clock) *Handler {
	return &Handler{uow: uow, notifier: notifier, clock: clock}
}

// Handle takes the courier offline and reroutes every live leg. Each order
// is rerouted in its own transaction so one contested order cannot block
// the rest of the rescue.
func (h *Handler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(ReportCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type for incident.Handler")
	}
	logger := common.LoggerFromContext(ctx)

	reporter, err := h.uow.Couriers().FindByID(ctx, cmd.CourierID)
	if err != nil {
		return nil, err
	}

	incidentCoord, hasCoord := shared.CoordinateFrom(cmd.Lat, cmd.Lon)
	if !hasCoord {
		incidentCoord, hasCoord = reporter.Coordinate()
	}

	legs, err := h.uow.Legs().FindAssigned(ctx, cmd.CourierID)
	if err != nil {
		return nil, err
	}

	result := Result{CourierID: cmd.CourierID}
	for _, leg := range legs {
		var moved *Reassignment
		err := h.uow.Execute(ctx, func(repos common.Repositories) error {
			var rerr error
			moved, rerr = h.reroute(ctx, repos, reporter, cmd, leg.ID, incidentCoord, hasCoord)
			return rerr
		})
		if err != nil {
			logger.Warn("incident reroute failed for leg", "leg_id", leg.ID, "error", err)
			result.FailedLegIDs = append(result.FailedLegIDs, leg.ID)
			continue
		}
		if moved != nil {
			result.Reassigned = append(result.Reassigned, *moved)
		}
	}

	// Take the courier out of rotation regardless of reroute outcomes
	err = h.uow.Execute(ctx, func(repos common.Repositories) error {
		c, err := repos.Couriers().FindByID(ctx, cmd.CourierID)
		if err != nil {
			return err
		}
		c.Status = courier.StatusOffline
		c.UpdatedAt = h.clock.Now()
		return repos.Couriers().Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("incident handled",
		"courier_id", cmd.CourierID,
		"reassigned", len(result.Reassigned),
		"failed", len(result.FailedLegIDs))
	return result, nil
}

func (h *Handler) reroute(ctx context.Context, repos common.Repositories, reporter *courier.Courier, cmd ReportCommand, legID int64, incidentCoord shared.Coordinate, hasCoord bool) (*Reassignment, error) {
	leg, err := repos.Legs().FindByID(ctx, legID)
	if err != nil {
		return nil, err
	}
	if _, err := repos.Orders().FindByIDForUpdate(ctx, leg.OrderID); err != nil {
		return nil, err
	}
	leg, err = repos.Legs().FindByID(ctx, legID)
	if err != nil {
		return nil, err
	}
	if !leg.IsAssignedTo(cmd.CourierID) {
		return nil, nil // already moved by someone else
	}

	var vehicles []courier.VehicleType
	if leg.Type == journey.LegTransfer {
		vehicles = []courier.VehicleType{courier.VehicleTruck, courier.VehicleCar}
	}
	peers, err := repos.Couriers().FindAvailableExcept(ctx, reporter.AreaID, reporter.ID, vehicles)
	if err != nil {
		return nil, err
	}

	peer := nearestPeer(peers, incidentCoord, hasCoord)
	if peer == nil {
		return nil, shared.NewCapacityExhaustedError(fmt.Sprintf("no replacement courier for leg %d", leg.ID))
	}

	now := h.clock.Now()
	peerID := peer.ID
	leg.CourierID = &peerID
	leg.Note = fmt.Sprintf("EMERGENCY TRANSFER: from %s (%s)", cmd.CourierID, cmd.Description)
	leg.UpdatedAt = now
	if err := repos.Legs().Update(ctx, leg); err != nil {
		return nil, err
	}

	if h.notifier != nil {
		if err := h.notifier.Push(ctx, peer.ID, "Emergency handover",
			fmt.Sprintf("You were assigned leg %d of order %s", leg.ID, leg.OrderID)); err != nil {
			common.LoggerFromContext(ctx).Warn("handover notification failed", "courier_id", peer.ID, "error", err)
		}
	}

	return &Reassignment{LegID: leg.ID, OrderID: leg.OrderID, NewCourierID: peer.ID}, nil
}

// nearestPeer prefers the closest peer by straight line; without a usable
// incident location the highest-rated peer wins (the repository orders by
// rating).
func nearestPeer(peers []*courier.Courier, from shared.Coordinate, hasFrom bool) *courier.Courier {
	if len(peers) == 0 {
		return nil
	}
	if !hasFrom {
		return peers[0]
	}

	var best *courier.Courier
	bestKm := 0.0
	for _, p := range peers {
		coord, ok := p.Coordinate()
		if !ok {
			continue
		}
		km := shared.HaversineKm(from, coord)
		if best == nil || km < bestKm {
			best = p
			bestKm = km
		}
	}
	if best == nil {
		return peers[0]
	}
	return best
}
