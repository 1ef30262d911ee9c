package journey

import (
	"fmt"
	"sort"

	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// ValidateLegs enforces the journey shape over an order's active legs:
// sequences are contiguous from 1, the types read PICKUP, zero or more
// TRANSFERs, DELIVERY, and each leg starts where the previous one ended.
// Cancelled legs are ignored; the caller passes the live set.
func ValidateLegs(legs []*Leg) error {
	active := activeLegs(legs)
	if len(active) < 2 {
		return shared.NewValidationError("legs", "a journey needs at least a PICKUP and a DELIVERY leg")
	}
	for i, l := range active {
		if l.Sequence != i+1 {
			return shared.NewValidationError("legs", fmt.Sprintf("sequence gap at position %d: got %d", i+1, l.Sequence))
		}
		if err := l.ValidateEndpoints(); err != nil {
			return err
		}
	}
	if active[0].Type != LegPickup {
		return shared.NewValidationError("legs", "journey must begin with a PICKUP leg")
	}
	last := active[len(active)-1]
	if last.Type != LegDelivery {
		return shared.NewValidationError("legs", "journey must end with a DELIVERY leg")
	}
	for _, l := range active[1 : len(active)-1] {
		if l.Type != LegTransfer {
			return shared.NewValidationError("legs", "middle legs must be TRANSFER")
		}
	}
	for i := 1; i < len(active); i++ {
		prev, cur := active[i-1], active[i]
		if prev.DestinationWarehouseID == nil || cur.OriginWarehouseID == nil ||
			*prev.DestinationWarehouseID != *cur.OriginWarehouseID {
			return shared.NewValidationError("legs", fmt.Sprintf("leg %d does not start at the warehouse leg %d ends at", cur.Sequence, prev.Sequence))
		}
	}
	return nil
}

// EnsurePredecessorsCompleted rejects starting a leg before every earlier
// active leg has completed.
func EnsurePredecessorsCompleted(legs []*Leg, target *Leg) error {
	for _, l := range activeLegs(legs) {
		if l.Sequence < target.Sequence && l.Status != LegCompleted {
			return shared.NewInvalidStateError(fmt.Sprintf(
				"leg %d cannot start: leg %d is still %s", target.Sequence, l.Sequence, l.Status))
		}
	}
	return nil
}

// NextActionable returns the earliest active leg that has not completed.
// This is the leg a universal scan acts on. Returns nil when the journey
// is finished.
func NextActionable(legs []*Leg) *Leg {
	for _, l := range activeLegs(legs) {
		if l.Status != LegCompleted {
			return l
		}
	}
	return nil
}

// LegOfType returns the first active leg of the given type, if any
func LegOfType(legs []*Leg, t LegType) *Leg {
	for _, l := range activeLegs(legs) {
		if l.Type == t {
			return l
		}
	}
	return nil
}

// OrderStatusAfter derives the order status from a leg event
func OrderStatusAfter(leg *Leg, event LegStatus) OrderStatus {
	switch leg.Type {
	case LegPickup:
		if event == LegInProgress {
			return OrderInTransit
		}
		return OrderAtWarehouse
	case LegTransfer:
		if event == LegInProgress {
			return OrderInTransit
		}
		return OrderAtWarehouse
	case LegDelivery:
		if event == LegInProgress {
			return OrderDelivering
		}
		return OrderCompleted
	}
	return OrderPending
}

func activeLegs(legs []*Leg) []*Leg {
	active := make([]*Leg, 0, len(legs))
	for _, l := range legs {
		if l.Status != LegCancelled {
			active = append(active, l)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Sequence < active[j].Sequence })
	return active
}
