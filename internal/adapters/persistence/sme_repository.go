package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/domain/warehouse"
)

// SMERepository implements warehouse.SMERepository using GORM
type SMERepository struct {
	db *gorm.DB
}

// NewSMERepository creates a new GORM-based SME repository
func NewSMERepository(db *gorm.DB) *SMERepository {
	return &SMERepository{db: db}
}

// FindByID retrieves an SME by id
func (r *SMERepository) FindByID(ctx context.Context, smeID string) (*warehouse.SME, error) {
	var model SMEModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", smeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("sme", smeID)
		}
		return nil, fmt.Errorf("failed to find sme: %w", err)
	}
	return smeToDomain(&model), nil
}

// Update persists SME changes
func (r *SMERepository) Update(ctx context.Context, s *warehouse.SME) error {
	model := &SMEModel{
		ID:        s.ID,
		Name:      s.Name,
		Phone:     s.Phone,
		Address:   s.Address,
		AreaID:    s.AreaID,
		Lat:       s.Lat,
		Lon:       s.Lon,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to update sme: %w", err)
	}
	return nil
}

func smeToDomain(m *SMEModel) *warehouse.SME {
	return &warehouse.SME{
		ID:        m.ID,
		Name:      m.Name,
		Phone:     m.Phone,
		Address:   m.Address,
		AreaID:    m.AreaID,
		Lat:       m.Lat,
		Lon:       m.Lon,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
