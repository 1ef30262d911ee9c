package routing

import (
	"context"
	"errors"

	"github.com/andrescamacho/dispatch-go/internal/domain/courier"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// Mode is the travel profile the routing provider understands
type Mode string

const (
	ModeBike  Mode = "bike"
	ModeCar   Mode = "car"
	ModeTruck Mode = "truck"
)

// Provider-level sentinels, wrapped in shared.DomainError by the adapter
var (
	ErrAddressNotFound = errors.New("address could not be geocoded")
	ErrNoRoute         = errors.New("no route between points")
)

// ModeForVehicle maps a registered vehicle to a routing profile.
// Unknown vehicles route as cars.
func ModeForVehicle(v courier.VehicleType) Mode {
	switch v {
	case courier.VehicleTruck:
		return ModeTruck
	case courier.VehicleMotorbike, courier.VehicleBicycle:
		return ModeBike
	default:
		return ModeCar
	}
}

// MatrixElement is one origin->destination result of a distance matrix.
// OK is false when the provider found no route for that pair.
type MatrixElement struct {
	OK         bool
	DistanceKm float64
	DurationS  float64
}

// Provider computes real-road distances and geocodes addresses
type Provider interface {
	// Geocode resolves a street address to a coordinate
	Geocode(ctx context.Context, address string) (shared.Coordinate, error)
	// DistanceKm returns the road distance between two points
	DistanceKm(ctx context.Context, origin, dest shared.Coordinate, mode Mode) (float64, error)
	// DistanceMatrix returns one element per destination, in order
	DistanceMatrix(ctx context.Context, origin shared.Coordinate, dests []shared.Coordinate, mode Mode) ([]MatrixElement, error)
}
