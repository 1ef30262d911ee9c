package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/dispatch-go/internal/domain/courier"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// CourierRepository implements courier.Repository using GORM
type CourierRepository struct {
	db *gorm.DB
}

// NewCourierRepository creates a new GORM-based courier repository
func NewCourierRepository(db *gorm.DB) *CourierRepository {
	return &CourierRepository{db: db}
}

// FindByID retrieves a courier by id
func (r *CourierRepository) FindByID(ctx context.Context, courierID string) (*courier.Courier, error) {
	var model CourierModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", courierID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("courier", courierID)
		}
		return nil, fmt.Errorf("failed to find courier: %w", err)
	}
	return courierToDomain(&model), nil
}

// Update persists courier changes
func (r *CourierRepository) Update(ctx context.Context, c *courier.Courier) error {
	model := courierToModel(c)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to update courier: %w", err)
	}
	return nil
}

// FindAvailableByArea returns ONLINE/DELIVERING couriers in an area,
// optionally filtered by vehicle type.
func (r *CourierRepository) FindAvailableByArea(ctx context.Context, areaID string, vehicles []courier.VehicleType) ([]*courier.Courier, error) {
	return r.findAvailable(ctx, areaID, "", vehicles)
}

// FindAvailableExcept is FindAvailableByArea minus one courier
func (r *CourierRepository) FindAvailableExcept(ctx context.Context, areaID, excludeCourierID string, vehicles []courier.VehicleType) ([]*courier.Courier, error) {
	return r.findAvailable(ctx, areaID, excludeCourierID, vehicles)
}

// FindOnlineByArea returns strictly ONLINE couriers in an area, optionally
// filtered by vehicle type.
func (r *CourierRepository) FindOnlineByArea(ctx context.Context, areaID string, vehicles []courier.VehicleType) ([]*courier.Courier, error) {
	q := r.db.WithContext(ctx).
		Where("area_id = ? AND status = ?", areaID, string(courier.StatusOnline))
	if len(vehicles) > 0 {
		names := make([]string, len(vehicles))
		for i, v := range vehicles {
			names[i] = string(v)
		}
		q = q.Where("vehicle IN ?", names)
	}

	var models []CourierModel
	if err := q.Order("rating DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list online couriers: %w", err)
	}

	couriers := make([]*courier.Courier, len(models))
	for i := range models {
		couriers[i] = courierToDomain(&models[i])
	}
	return couriers, nil
}

func (r *CourierRepository) findAvailable(ctx context.Context, areaID, excludeID string, vehicles []courier.VehicleType) ([]*courier.Courier, error) {
	q := r.db.WithContext(ctx).
		Where("area_id = ? AND status IN ?", areaID,
			[]string{string(courier.StatusOnline), string(courier.StatusDelivering)})
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if len(vehicles) > 0 {
		names := make([]string, len(vehicles))
		for i, v := range vehicles {
			names[i] = string(v)
		}
		q = q.Where("vehicle IN ?", names)
	}

	var models []CourierModel
	if err := q.Order("rating DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list available couriers: %w", err)
	}

	couriers := make([]*courier.Courier, len(models))
	for i := range models {
		couriers[i] = courierToDomain(&models[i])
	}
	return couriers, nil
}

func courierToModel(c *courier.Courier) *CourierModel {
	return &CourierModel{
		ID:              c.ID,
		Name:            c.Name,
		Phone:           c.Phone,
		Vehicle:         string(c.Vehicle),
		Status:          string(c.Status),
		AreaID:          c.AreaID,
		HomeWarehouseID: c.HomeWarehouseID,
		CurrentLat:      c.CurrentLat,
		CurrentLon:      c.CurrentLon,
		LocationAt:      c.LocationAt,
		Rating:          c.Rating,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func courierToDomain(m *CourierModel) *courier.Courier {
	return &courier.Courier{
		ID:              m.ID,
		Name:            m.Name,
		Phone:           m.Phone,
		Vehicle:         courier.VehicleType(m.Vehicle),
		Status:          courier.Status(m.Status),
		AreaID:          m.AreaID,
		HomeWarehouseID: m.HomeWarehouseID,
		CurrentLat:      m.CurrentLat,
		CurrentLon:      m.CurrentLon,
		LocationAt:      m.LocationAt,
		Rating:          m.Rating,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
