package courier

import "context"

// Repository persists couriers
type Repository interface {
	FindByID(ctx context.Context, courierID string) (*Courier, error)
	Update(ctx context.Context, c *Courier) error
	// FindAvailableByArea returns couriers able to take work in an area,
	// optionally filtered to vehicles that may serve the given leg type.
	FindAvailableByArea(ctx context.Context, areaID string, vehicles []VehicleType) ([]*Courier, error)
	// FindAvailableExcept is FindAvailableByArea minus one courier, used by
	// incident rerouting to find a replacement peer.
	FindAvailableExcept(ctx context.Context, areaID, excludeCourierID string, vehicles []VehicleType) ([]*Courier, error)
	// FindOnlineByArea returns strictly ONLINE couriers in an area,
	// optionally filtered by vehicle type. DELIVERING couriers are busy
	// and excluded.
	FindOnlineByArea(ctx context.Context, areaID string, vehicles []VehicleType) ([]*Courier, error)
}
