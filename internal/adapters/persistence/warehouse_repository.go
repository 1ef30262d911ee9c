package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/domain/warehouse"
)

// WarehouseRepository implements warehouse.Repository using GORM
type WarehouseRepository struct {
	db *gorm.DB
}

// NewWarehouseRepository creates a new GORM-based warehouse repository
func NewWarehouseRepository(db *gorm.DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

// FindByID retrieves a warehouse by id
func (r *WarehouseRepository) FindByID(ctx context.Context, warehouseID string) (*warehouse.Warehouse, error) {
	var model WarehouseModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", warehouseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("warehouse", warehouseID)
		}
		return nil, fmt.Errorf("failed to find warehouse: %w", err)
	}
	return warehouseToDomain(&model), nil
}

// FindActiveByArea lists ACTIVE warehouses in an area filtered by type.
// Rows come back ordered by id so distance ties resolve to the lowest
// warehouse id.
func (r *WarehouseRepository) FindActiveByArea(ctx context.Context, areaID string, types []warehouse.Type) ([]*warehouse.Warehouse, error) {
	q := r.db.WithContext(ctx).Where("area_id = ? AND status = ?", areaID, string(warehouse.StatusActive))
	if len(types) > 0 {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		q = q.Where("type IN ?", names)
	}

	var models []WarehouseModel
	if err := q.Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	return warehousesToDomain(models), nil
}

// Update persists warehouse changes
func (r *WarehouseRepository) Update(ctx context.Context, w *warehouse.Warehouse) error {
	model := warehouseToModel(w)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to update warehouse: %w", err)
	}
	return nil
}

// SetCurrentLoad writes the load computed by the periodic sync job
func (r *WarehouseRepository) SetCurrentLoad(ctx context.Context, warehouseID string, load int) error {
	result := r.db.WithContext(ctx).
		Model(&WarehouseModel{}).
		Where("id = ?", warehouseID).
		Update("current_load", load)
	if result.Error != nil {
		return fmt.Errorf("failed to set warehouse load: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("warehouse", warehouseID)
	}
	return nil
}

// FindAllActive lists every ACTIVE warehouse
func (r *WarehouseRepository) FindAllActive(ctx context.Context) ([]*warehouse.Warehouse, error) {
	var models []WarehouseModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(warehouse.StatusActive)).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	return warehousesToDomain(models), nil
}

func warehouseToModel(w *warehouse.Warehouse) *WarehouseModel {
	return &WarehouseModel{
		ID:            w.ID,
		Name:          w.Name,
		Type:          string(w.Type),
		AreaID:        w.AreaID,
		Address:       w.Address,
		Lat:           w.Lat,
		Lon:           w.Lon,
		CapacityLimit: w.CapacityLimit,
		CurrentLoad:   w.CurrentLoad,
		Status:        string(w.Status),
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

func warehouseToDomain(m *WarehouseModel) *warehouse.Warehouse {
	return &warehouse.Warehouse{
		ID:            m.ID,
		Name:          m.Name,
		Type:          warehouse.Type(m.Type),
		AreaID:        m.AreaID,
		Address:       m.Address,
		Lat:           m.Lat,
		Lon:           m.Lon,
		CapacityLimit: m.CapacityLimit,
		CurrentLoad:   m.CurrentLoad,
		Status:        warehouse.Status(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func warehousesToDomain(models []WarehouseModel) []*warehouse.Warehouse {
	out := make([]*warehouse.Warehouse, len(models))
	for i := range models {
		out[i] = warehouseToDomain(&models[i])
	}
	return out
}
