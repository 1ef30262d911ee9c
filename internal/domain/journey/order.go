package journey

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// OrderStatus tracks the coarse order lifecycle. Fine-grained progress lives
// on the legs; the order status is derived from leg transitions.
type OrderStatus string

const (
	OrderPending     OrderStatus = "PENDING"
	OrderInTransit   OrderStatus = "IN_TRANSIT"
	OrderAtWarehouse OrderStatus = "AT_WAREHOUSE"
	OrderDelivering  OrderStatus = "DELIVERING"
	OrderCompleted   OrderStatus = "COMPLETED"
	OrderCancelled   OrderStatus = "CANCELLED"
)

// Order is a shipment from an SME sender to an end receiver
type Order struct {
	ID              string
	Code            string
	SMEID           string
	AreaID          string
	ReceiverName    string
	ReceiverPhone   string
	ReceiverAddress string
	ReceiverLat     *float64
	ReceiverLon     *float64
	WeightKg        float64
	Status          OrderStatus
	TotalDistanceKm *float64
	Note            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewOrder creates a pending order for an SME sender
func NewOrder(smeID, areaID, receiverName, receiverPhone, receiverAddress string, weightKg float64, now time.Time) (*Order, error) {
	if smeID == "" {
		return nil, shared.NewValidationError("sme_id", "is required")
	}
	if strings.TrimSpace(receiverAddress) == "" {
		return nil, shared.NewValidationError("receiver_address", "is required")
	}
	if weightKg < 0 {
		return nil, shared.NewValidationError("weight_kg", "must not be negative")
	}
	id := uuid.New().String()
	return &Order{
		ID:              id,
		Code:            OrderCode(id),
		SMEID:           smeID,
		AreaID:          areaID,
		ReceiverName:    strings.TrimSpace(receiverName),
		ReceiverPhone:   strings.TrimSpace(receiverPhone),
		ReceiverAddress: NormalizeAddress(receiverAddress),
		WeightKg:        weightKg,
		Status:          OrderPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ReceiverCoordinate returns the geocoded destination, if known
func (o *Order) ReceiverCoordinate() (shared.Coordinate, bool) {
	return shared.CoordinateFrom(o.ReceiverLat, o.ReceiverLon)
}

// SetReceiverCoordinate stores a geocoded destination
func (o *Order) SetReceiverCoordinate(c shared.Coordinate) {
	lat, lon := c.Lat, c.Lon
	o.ReceiverLat = &lat
	o.ReceiverLon = &lon
}

// IsTerminal reports whether the order can no longer progress
func (o *Order) IsTerminal() bool {
	return o.Status == OrderCompleted || o.Status == OrderCancelled
}

// TransitionTo moves the order to a new status. Terminal orders reject every
// transition; everything else is driven by leg events, which already enforce
// ordering, so only the terminal guard lives here.
func (o *Order) TransitionTo(status OrderStatus, now time.Time) error {
	if o.IsTerminal() {
		return shared.NewInvalidStateError("order " + o.ID + " is " + string(o.Status) + " and cannot transition to " + string(status))
	}
	o.Status = status
	o.UpdatedAt = now
	return nil
}

// NormalizeAddress collapses whitespace and stray commas before geocoding
func NormalizeAddress(addr string) string {
	addr = strings.Join(strings.Fields(addr), " ")
	addr = strings.Trim(addr, ", ")
	for strings.Contains(addr, ",,") {
		addr = strings.ReplaceAll(addr, ",,", ",")
	}
	return addr
}
