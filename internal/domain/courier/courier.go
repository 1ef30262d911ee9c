package courier

import (
	"time"

	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// VehicleType is the courier's registered vehicle
type VehicleType string

const (
	VehicleMotorbike VehicleType = "MOTORBIKE"
	VehicleCar       VehicleType = "CAR"
	VehicleTruck     VehicleType = "TRUCK"
	VehicleBicycle   VehicleType = "BICYCLE"
)

// Status is the courier's availability
type Status string

const (
	StatusOffline    Status = "OFFLINE"
	StatusOnline     Status = "ONLINE"
	StatusDelivering Status = "DELIVERING"
)

// Courier is a driver who executes journey legs
type Courier struct {
	ID              string
	Name            string
	Phone           string
	Vehicle         VehicleType
	Status          Status
	AreaID          string
	HomeWarehouseID *string
	CurrentLat      *float64
	CurrentLon      *float64
	LocationAt      *time.Time
	Rating          float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CanServe reports whether the vehicle may execute the given leg type.
// TRANSFER moves consolidated warehouse loads and needs a truck or car;
// PICKUP and DELIVERY are street-level work for motorbikes, cars and
// bicycles.
func (v VehicleType) CanServe(legType journey.LegType) bool {
	if legType == journey.LegTransfer {
		return v == VehicleTruck || v == VehicleCar
	}
	return v == VehicleMotorbike || v == VehicleCar || v == VehicleBicycle
}

// Available reports whether the courier can take new work
func (c *Courier) Available() bool {
	return c.Status == StatusOnline || c.Status == StatusDelivering
}

// Coordinate returns the courier's last reported GPS position
func (c *Courier) Coordinate() (shared.Coordinate, bool) {
	return shared.CoordinateFrom(c.CurrentLat, c.CurrentLon)
}

// UpdateLocation records a GPS report
func (c *Courier) UpdateLocation(coord shared.Coordinate, now time.Time) error {
	if !coord.Valid() {
		return shared.NewValidationError("location", "coordinates out of bounds")
	}
	lat, lon := coord.Lat, coord.Lon
	c.CurrentLat = &lat
	c.CurrentLon = &lon
	c.LocationAt = &now
	c.UpdatedAt = now
	return nil
}

// EnsureCanServe rejects assigning a leg type the vehicle cannot execute
func (c *Courier) EnsureCanServe(legType journey.LegType) error {
	if !c.Vehicle.CanServe(legType) {
		return shared.NewInvalidStateError(
			"courier " + c.ID + " drives a " + string(c.Vehicle) + " and cannot take " + string(legType) + " legs")
	}
	return nil
}
