package journey

import (
	"fmt"
	"time"

	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// LegType identifies the stage of a journey a leg covers
type LegType string

const (
	LegPickup   LegType = "PICKUP"
	LegTransfer LegType = "TRANSFER"
	LegDelivery LegType = "DELIVERY"
)

// LegStatus is the per-leg execution state
type LegStatus string

const (
	LegPending    LegStatus = "PENDING"
	LegInProgress LegStatus = "IN_PROGRESS"
	LegCompleted  LegStatus = "COMPLETED"
	LegCancelled  LegStatus = "CANCELLED"
)

// EndpointKind tells which table a leg endpoint references
type EndpointKind string

const (
	EndpointSME       EndpointKind = "SME"
	EndpointWarehouse EndpointKind = "WAREHOUSE"
	EndpointReceiver  EndpointKind = "RECEIVER"
)

// Leg is one stage of an order's journey. Endpoints are polymorphic: exactly
// one origin and one destination reference is set, matching the leg type.
type Leg struct {
	ID       int64
	OrderID  string
	Sequence int
	Type     LegType

	OriginSMEID            *string
	OriginWarehouseID      *string
	DestinationWarehouseID *string
	DestinationIsReceiver  bool

	CourierID           *string
	Status              LegStatus
	EstimatedDistanceKm *float64
	Note                string
	StartedAt           *time.Time
	CompletedAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewPickupLeg creates the SME -> warehouse first leg
func NewPickupLeg(orderID, smeID, destWarehouseID string, now time.Time) *Leg {
	return &Leg{
		OrderID:                orderID,
		Sequence:               1,
		Type:                   LegPickup,
		OriginSMEID:            &smeID,
		DestinationWarehouseID: &destWarehouseID,
		Status:                 LegPending,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// NewTransferLeg creates a warehouse -> warehouse middle leg
func NewTransferLeg(orderID string, sequence int, fromWarehouseID, toWarehouseID string, now time.Time) *Leg {
	return &Leg{
		OrderID:                orderID,
		Sequence:               sequence,
		Type:                   LegTransfer,
		OriginWarehouseID:      &fromWarehouseID,
		DestinationWarehouseID: &toWarehouseID,
		Status:                 LegPending,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// NewDeliveryLeg creates the warehouse -> receiver last leg
func NewDeliveryLeg(orderID string, sequence int, fromWarehouseID string, now time.Time) *Leg {
	return &Leg{
		OrderID:               orderID,
		Sequence:              sequence,
		Type:                  LegDelivery,
		OriginWarehouseID:     &fromWarehouseID,
		DestinationIsReceiver: true,
		Status:                LegPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// OriginKind returns the kind of the leg's origin endpoint
func (l *Leg) OriginKind() EndpointKind {
	if l.OriginSMEID != nil {
		return EndpointSME
	}
	return EndpointWarehouse
}

// DestinationKind returns the kind of the leg's destination endpoint
func (l *Leg) DestinationKind() EndpointKind {
	if l.DestinationIsReceiver {
		return EndpointReceiver
	}
	return EndpointWarehouse
}

// ValidateEndpoints checks the endpoint shape against the leg type
func (l *Leg) ValidateEndpoints() error {
	switch l.Type {
	case LegPickup:
		if l.OriginSMEID == nil || l.DestinationWarehouseID == nil || l.DestinationIsReceiver {
			return shared.NewValidationError("leg", "PICKUP must run from an SME to a warehouse")
		}
	case LegTransfer:
		if l.OriginWarehouseID == nil || l.DestinationWarehouseID == nil || l.DestinationIsReceiver {
			return shared.NewValidationError("leg", "TRANSFER must run between two warehouses")
		}
		if *l.OriginWarehouseID == *l.DestinationWarehouseID {
			return shared.NewValidationError("leg", "TRANSFER endpoints must differ")
		}
	case LegDelivery:
		if l.OriginWarehouseID == nil || !l.DestinationIsReceiver {
			return shared.NewValidationError("leg", "DELIVERY must run from a warehouse to the receiver")
		}
	default:
		return shared.NewValidationError("leg", fmt.Sprintf("unknown leg type %q", l.Type))
	}
	return nil
}

// Assign sets the courier on a pending leg
func (l *Leg) Assign(courierID string, now time.Time) error {
	if l.Status != LegPending {
		return shared.NewInvalidStateError(fmt.Sprintf("leg %d is %s, only PENDING legs can be assigned", l.ID, l.Status))
	}
	l.CourierID = &courierID
	l.UpdatedAt = now
	return nil
}

// Unassign clears the courier on a pending leg
func (l *Leg) Unassign(now time.Time) error {
	if l.Status != LegPending {
		return shared.NewInvalidStateError(fmt.Sprintf("leg %d is %s, only PENDING legs can be unassigned", l.ID, l.Status))
	}
	l.CourierID = nil
	l.UpdatedAt = now
	return nil
}

// Start moves PENDING -> IN_PROGRESS
func (l *Leg) Start(now time.Time) error {
	if l.Status != LegPending {
		return shared.NewInvalidStateError(fmt.Sprintf("leg %d cannot start: status is %s", l.ID, l.Status))
	}
	l.Status = LegInProgress
	l.StartedAt = &now
	l.UpdatedAt = now
	return nil
}

// Complete moves IN_PROGRESS -> COMPLETED
func (l *Leg) Complete(now time.Time) error {
	if l.Status != LegInProgress {
		return shared.NewInvalidStateError(fmt.Sprintf("leg %d cannot complete: status is %s", l.ID, l.Status))
	}
	l.Status = LegCompleted
	l.CompletedAt = &now
	l.UpdatedAt = now
	return nil
}

// Cancel voids a pending leg. Started legs cannot be cancelled; they are
// rerouted through the incident path instead.
func (l *Leg) Cancel(now time.Time) error {
	if l.Status != LegPending {
		return shared.NewInvalidStateError(fmt.Sprintf("leg %d cannot be cancelled: status is %s", l.ID, l.Status))
	}
	l.Status = LegCancelled
	l.UpdatedAt = now
	return nil
}

// IsAssignedTo reports whether the leg is assigned to the given courier
func (l *Leg) IsAssignedTo(courierID string) bool {
	return l.CourierID != nil && *l.CourierID == courierID
}
