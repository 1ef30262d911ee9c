package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/domain/warehouse"
)

// AreaRepository implements warehouse.AreaRepository using GORM
type AreaRepository struct {
	db *gorm.DB
}

// NewAreaRepository creates a new GORM-based area repository
func NewAreaRepository(db *gorm.DB) *AreaRepository {
	return &AreaRepository{db: db}
}

// FindByID retrieves an area by id
func (r *AreaRepository) FindByID(ctx context.Context, areaID string) (*warehouse.Area, error) {
	var model AreaModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", areaID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("area", areaID)
		}
		return nil, fmt.Errorf("failed to find area: %w", err)
	}
	return areaToDomain(&model), nil
}

// FindAllActive lists active service areas
func (r *AreaRepository) FindAllActive(ctx context.Context) ([]*warehouse.Area, error) {
	var models []AreaModel
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}

	areas := make([]*warehouse.Area, len(models))
	for i := range models {
		areas[i] = areaToDomain(&models[i])
	}
	return areas, nil
}

func areaToDomain(m *AreaModel) *warehouse.Area {
	return &warehouse.Area{
		ID:        m.ID,
		Name:      m.Name,
		CenterLat: m.CenterLat,
		CenterLon: m.CenterLon,
		RadiusKm:  m.RadiusKm,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
	}
}
