package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/domain/courier"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// DedupWindow is how long an identical scan is answered idempotently
const DedupWindow = 60 * time.Second

// Actor roles understood by the scan state machine. The identity adapter
// maps concrete upstream roles onto these two.
const (
	RoleCourier        = "COURIER"
	RoleWarehouseStaff = "WAREHOUSE_STAFF"
)

// Command is one barcode scan
type Command struct {
	CodeValue   string
	Action      journey.ScanAction
	ActorID     string
	ActorRole   string
	WarehouseID string
	Lat         *float64
	Lon         *float64
	Note        string
}

// Result reports what the scan did
type Result struct {
	Order     *journey.Order
	Leg       *journey.Leg
	Action    journey.ScanAction
	Duplicate bool
	Warning   string
}

// Handler drives the barcode scan state machine
type Handler struct {
	uow      common.UnitOfWork
	notifier common.NotificationSink
	clock    shared.Clock
}

// NewHandler creates the scan handler
func NewHandler(uow common.UnitOfWork, notifier common.NotificationSink, clock shared.Clock) *Handler {
	return &Handler{uow: uow, notifier: notifier, clock: clock}
}

// Handle resolves the barcode, serializes on the order row, applies the
// requested transition, and appends the audit record. A repeat of an
// identical accepted scan inside the dedup window succeeds without
// mutating anything.
func (h *Handler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(Command)
	if !ok {
		return nil, fmt.Errorf("invalid request type for scan.Handler")
	}

	var result Result
	var notifyOrder *journey.Order
	err := h.uow.Execute(ctx, func(repos common.Repositories) error {
		barcode, err := repos.Barcodes().FindByCodeValue(ctx, cmd.CodeValue)
		if err != nil {
			return err
		}

		order, err := repos.Orders().FindByIDForUpdate(ctx, barcode.OrderID)
		if err != nil {
			return err
		}
		legs, err := repos.Legs().FindByOrder(ctx, order.ID)
		if err != nil {
			return err
		}

		action, leg, err := h.resolve(cmd, legs)
		if err != nil {
			return err
		}

		now := h.clock.Now()
		dup, err := repos.ScanLogs().FindRecentDuplicate(ctx, cmd.CodeValue, action, cmd.ActorID, now.Add(-DedupWindow))
		if err != nil {
			return err
		}
		if dup != nil {
			result = Result{Order: order, Leg: leg, Action: action, Duplicate: true}
			return nil
		}

		warning, err := h.apply(ctx, repos, cmd, action, order, leg, now)
		if err != nil {
			return err
		}

		if err := repos.Orders().Update(ctx, order); err != nil {
			return err
		}
		if err := h.trackCourier(ctx, repos, cmd, now); err != nil {
			return err
		}

		log := &journey.ScanLog{
			OrderID:   order.ID,
			CodeValue: cmd.CodeValue,
			Action:    action,
			ActorID:   cmd.ActorID,
			ActorRole: cmd.ActorRole,
			Lat:       cmd.Lat,
			Lon:       cmd.Lon,
			Note:      cmd.Note,
			ScannedAt: now,
		}
		if cmd.WarehouseID != "" {
			wid := cmd.WarehouseID
			log.WarehouseID = &wid
		}
		if warning != "" {
			log.Note = warning
		}
		if err := repos.ScanLogs().Create(ctx, log); err != nil {
			return err
		}

		if order.Status == journey.OrderCompleted {
			notifyOrder = order
		}
		result = Result{Order: order, Leg: leg, Action: action, Warning: warning}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if notifyOrder != nil {
		h.notifyDelivered(ctx, notifyOrder)
	}
	return result, nil
}

// resolve maps the command to a concrete action and the leg it acts on.
// UNIVERSAL picks the earliest unfinished leg: PENDING means start it,
// IN_PROGRESS means finish it.
func (h *Handler) resolve(cmd Command, legs []*journey.Leg) (journey.ScanAction, *journey.Leg, error) {
	if cmd.Action == journey.ScanUniversal {
		leg := journey.NextActionable(legs)
		if leg == nil {
			return "", nil, shared.NewInvalidStateError("journey is already complete")
		}
		switch {
		case leg.Type == journey.LegPickup && leg.Status == journey.LegPending:
			return journey.ScanPickupConfirm, leg, nil
		case leg.Type == journey.LegTransfer && leg.Status == journey.LegPending:
			return journey.ScanWarehouseOut, leg, nil
		case leg.Type == journey.LegDelivery && leg.Status == journey.LegPending:
			return journey.ScanDeliveryStart, leg, nil
		case leg.Status == journey.LegInProgress && leg.Type == journey.LegDelivery:
			return journey.ScanDeliveryComplete, leg, nil
		case leg.Status == journey.LegInProgress:
			return journey.ScanWarehouseIn, leg, nil
		default:
			return "", nil, shared.NewInvalidStateError(fmt.Sprintf("leg %d is %s and cannot be scanned", leg.ID, leg.Status))
		}
	}

	var leg *journey.Leg
	switch cmd.Action {
	case journey.ScanPickupConfirm:
		leg = journey.LegOfType(legs, journey.LegPickup)
	case journey.ScanWarehouseIn, journey.ScanWarehouseOut:
		leg = journey.NextActionable(legs)
	case journey.ScanDeliveryStart, journey.ScanDeliveryComplete:
		leg = journey.LegOfType(legs, journey.LegDelivery)
	default:
		return "", nil, shared.NewValidationError("action", fmt.Sprintf("unknown scan action %q", cmd.Action))
	}
	if leg == nil {
		return "", nil, shared.NewInvalidStateError("order has no leg for action " + string(cmd.Action))
	}
	return cmd.Action, leg, nil
}

// apply executes the resolved action against order and leg state
func (h *Handler) apply(ctx context.Context, repos common.Repositories, cmd Command, action journey.ScanAction, order *journey.Order, leg *journey.Leg, now time.Time) (string, error) {
	switch action {
	case journey.ScanPickupConfirm:
		return "", h.pickupConfirm(ctx, repos, cmd, order, leg, now)
	case journey.ScanWarehouseIn:
		return h.warehouseIn(ctx, repos, cmd, order, leg, now)
	case journey.ScanWarehouseOut:
		return "", h.warehouseOut(ctx, repos, cmd, order, leg, now)
	case journey.ScanDeliveryStart:
		return "", h.deliveryStart(ctx, repos, cmd, order, leg, now)
	case journey.ScanDeliveryComplete:
		return "", h.deliveryComplete(ctx, repos, cmd, order, leg, now)
	}
	return "", shared.NewValidationError("action", fmt.Sprintf("unknown scan action %q", action))
}

func (h *Handler) pickupConfirm(ctx context.Context, repos common.Repositories, cmd Command, order *journey.Order, leg *journey.Leg, now time.Time) error {
	if err := requireRole(cmd, RoleCourier); err != nil {
		return err
	}
	if !leg.IsAssignedTo(cmd.ActorID) {
		return shared.NewNotAssignedError("courier " + cmd.ActorID + " is not assigned to this pickup")
	}
	if err := leg.Start(now); err != nil {
		return err
	}
	if err := repos.Legs().Update(ctx, leg); err != nil {
		return err
	}
	if err := h.engageCourier(ctx, repos, leg, now); err != nil {
		return err
	}
	return order.TransitionTo(journey.OrderInTransit, now)
}

// warehouseIn completes the inbound leg at the receiving warehouse. A scan
// at a warehouse other than the planned destination is accepted as an
// unplanned drop and flagged with a warning instead of being rejected, so
// physical reality always wins over the plan.
func (h *Handler) warehouseIn(ctx context.Context, repos common.Repositories, cmd Command, order *journey.Order, leg *journey.Leg, now time.Time) (string, error) {
	if err := requireRole(cmd, RoleWarehouseStaff); err != nil {
		return "", err
	}
	if leg.Status != journey.LegInProgress {
		return "", shared.NewInvalidStateError(fmt.Sprintf("leg %d is %s, WAREHOUSE_IN needs an inbound leg in progress", leg.ID, leg.Status))
	}
	if leg.Type == journey.LegDelivery {
		return "", shared.NewInvalidStateError("delivery legs do not pass through warehouses")
	}

	var warning string
	if cmd.WarehouseID != "" && leg.DestinationWarehouseID != nil && *leg.DestinationWarehouseID != cmd.WarehouseID {
		warning = fmt.Sprintf("unplanned drop: planned destination %s, scanned at %s", *leg.DestinationWarehouseID, cmd.WarehouseID)
		wid := cmd.WarehouseID
		leg.DestinationWarehouseID = &wid
	}

	if err := leg.Complete(now); err != nil {
		return "", err
	}
	if err := repos.Legs().Update(ctx, leg); err != nil {
		return "", err
	}
	if err := h.releaseCourier(ctx, repos, leg, now); err != nil {
		return "", err
	}
	return warning, order.TransitionTo(journey.OrderAtWarehouse, now)
}

// warehouseOut releases a transfer leg from its origin hub. Staff scan the
// parcel out; a courier whose vehicle can run transfers may scan it out
// themselves, claiming the leg if nobody holds it yet.
func (h *Handler) warehouseOut(ctx context.Context, repos common.Repositories, cmd Command, order *journey.Order, leg *journey.Leg, now time.Time) error {
	if leg.Type != journey.LegTransfer {
		return shared.NewInvalidStateError("WAREHOUSE_OUT only releases transfer legs")
	}
	switch cmd.ActorRole {
	case RoleWarehouseStaff:
	case RoleCourier:
		c, err := repos.Couriers().FindByID(ctx, cmd.ActorID)
		if err != nil {
			return err
		}
		if err := c.EnsureCanServe(journey.LegTransfer); err != nil {
			return err
		}
		if leg.CourierID == nil {
			if err := leg.Assign(c.ID, now); err != nil {
				return err
			}
		} else if !leg.IsAssignedTo(cmd.ActorID) {
			return shared.NewNotAssignedError("transfer is assigned to another courier")
		}
	default:
		return shared.NewNotAssignedError("action " + string(cmd.Action) + " requires warehouse staff or a transfer courier")
	}
	if cmd.WarehouseID != "" && leg.OriginWarehouseID != nil && *leg.OriginWarehouseID != cmd.WarehouseID {
		return shared.NewInvalidStateError("order is not held at warehouse " + cmd.WarehouseID)
	}
	if err := leg.Start(now); err != nil {
		return err
	}
	if err := repos.Legs().Update(ctx, leg); err != nil {
		return err
	}
	if err := h.engageCourier(ctx, repos, leg, now); err != nil {
		return err
	}
	return order.TransitionTo(journey.OrderInTransit, now)
}

// deliveryStart releases the last leg. An unassigned delivery is claimed
// by the scanning courier on the spot.
func (h *Handler) deliveryStart(ctx context.Context, repos common.Repositories, cmd Command, order *journey.Order, leg *journey.Leg, now time.Time) error {
	if err := requireRole(cmd, RoleCourier); err != nil {
		return err
	}

	legs, err := repos.Legs().FindByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	if err := journey.EnsurePredecessorsCompleted(legs, leg); err != nil {
		return err
	}

	if leg.CourierID == nil {
		if err := leg.Assign(cmd.ActorID, now); err != nil {
			return err
		}
	} else if !leg.IsAssignedTo(cmd.ActorID) {
		return shared.NewNotAssignedError("delivery is assigned to another courier")
	}

	if err := leg.Start(now); err != nil {
		return err
	}
	if err := repos.Legs().Update(ctx, leg); err != nil {
		return err
	}
	if err := h.engageCourier(ctx, repos, leg, now); err != nil {
		return err
	}
	return order.TransitionTo(journey.OrderDelivering, now)
}

func (h *Handler) deliveryComplete(ctx context.Context, repos common.Repositories, cmd Command, order *journey.Order, leg *journey.Leg, now time.Time) error {
	if err := requireRole(cmd, RoleCourier); err != nil {
		return err
	}
	if !leg.IsAssignedTo(cmd.ActorID) {
		return shared.NewNotAssignedError("courier " + cmd.ActorID + " is not assigned to this delivery")
	}
	if err := leg.Complete(now); err != nil {
		return err
	}
	if err := repos.Legs().Update(ctx, leg); err != nil {
		return err
	}
	if err := h.releaseCourier(ctx, repos, leg, now); err != nil {
		return err
	}
	return order.TransitionTo(journey.OrderCompleted, now)
}

// trackCourier stores GPS riding along on a courier's scan
func (h *Handler) trackCourier(ctx context.Context, repos common.Repositories, cmd Command, now time.Time) error {
	if cmd.ActorRole != RoleCourier || cmd.Lat == nil || cmd.Lon == nil {
		return nil
	}
	c, err := repos.Couriers().FindByID(ctx, cmd.ActorID)
	if err != nil {
		return nil // unknown actor id: GPS tracking is best effort
	}
	if err := c.UpdateLocation(shared.Coordinate{Lat: *cmd.Lat, Lon: *cmd.Lon}, now); err != nil {
		return nil
	}
	return repos.Couriers().Update(ctx, c)
}

// engageCourier marks the leg's courier as DELIVERING when a leg starts
func (h *Handler) engageCourier(ctx context.Context, repos common.Repositories, leg *journey.Leg, now time.Time) error {
	if leg.CourierID == nil {
		return nil
	}
	c, err := repos.Couriers().FindByID(ctx, *leg.CourierID)
	if err != nil {
		return nil
	}
	if c.Status == courier.StatusOnline {
		c.Status = courier.StatusDelivering
		c.UpdatedAt = now
		return repos.Couriers().Update(ctx, c)
	}
	return nil
}

// releaseCourier flips a courier back to ONLINE when the completed leg was
// their last live assignment.
func (h *Handler) releaseCourier(ctx context.Context, repos common.Repositories, leg *journey.Leg, now time.Time) error {
	if leg.CourierID == nil {
		return nil
	}
	remaining, err := repos.Legs().FindAssigned(ctx, *leg.CourierID)
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		return nil
	}
	c, err := repos.Couriers().FindByID(ctx, *leg.CourierID)
	if err != nil {
		return nil
	}
	if c.Status == courier.StatusDelivering {
		c.Status = courier.StatusOnline
		c.UpdatedAt = now
		return repos.Couriers().Update(ctx, c)
	}
	return nil
}

func (h *Handler) notifyDelivered(ctx context.Context, order *journey.Order) {
	if h.notifier == nil {
		return
	}
	logger := common.LoggerFromContext(ctx)
	err := h.notifier.Push(ctx, order.SMEID,
		"Order delivered",
		fmt.Sprintf("Order %s was delivered to %s", order.Code, order.ReceiverName))
	if err != nil {
		logger.Warn("delivered notification failed", "order_id", order.ID, "error", err)
	}
}

func requireRole(cmd Command, role string) error {
	if cmd.ActorRole != role {
		return shared.NewNotAssignedError("action " + string(cmd.Action) + " requires role " + role)
	}
	return nil
}
