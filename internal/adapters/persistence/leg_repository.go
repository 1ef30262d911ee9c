package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// LegRepository implements journey.LegRepository using GORM
type LegRepository struct {
	db *gorm.DB
}

// NewLegRepository creates a new GORM-based leg repository
func NewLegRepository(db *gorm.DB) *LegRepository {
	return &LegRepository{db: db}
}

// Create persists a new leg and backfills its generated id
func (r *LegRepository) Create(ctx context.Context, leg *journey.Leg) error {
	model := legToModel(leg)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create leg: %w", err)
	}
	leg.ID = model.ID
	return nil
}

// CreateBatch persists a set of legs in one insert
func (r *LegRepository) CreateBatch(ctx context.Context, legs []*journey.Leg) error {
	if len(legs) == 0 {
		return nil
	}
	models := make([]*LegModel, len(legs))
	for i, l := range legs {
		models[i] = legToModel(l)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return fmt.Errorf("failed to create legs: %w", err)
	}
	for i, m := range models {
		legs[i].ID = m.ID
	}
	return nil
}

// FindByID retrieves a leg by its id
func (r *LegRepository) FindByID(ctx context.Context, legID int64) (*journey.Leg, error) {
	var model LegModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", legID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("leg", strconv.FormatInt(legID, 10))
		}
		return nil, fmt.Errorf("failed to find leg: %w", err)
	}
	return legToDomain(&model), nil
}

// FindByOrder retrieves all legs of an order ordered by sequence
func (r *LegRepository) FindByOrder(ctx context.Context, orderID string) ([]*journey.Leg, error) {
	var models []LegModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("sequence ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list legs: %w", err)
	}

	legs := make([]*journey.Leg, len(models))
	for i := range models {
		legs[i] = legToDomain(&models[i])
	}
	return legs, nil
}

// Update persists leg changes
func (r *LegRepository) Update(ctx context.Context, leg *journey.Leg) error {
	model := legToModel(leg)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to update leg: %w", err)
	}
	return nil
}

// Delete removes a leg row
func (r *LegRepository) Delete(ctx context.Context, legID int64) error {
	result := r.db.WithContext(ctx).Delete(&LegModel{}, "id = ?", legID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete leg: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("leg", strconv.FormatInt(legID, 10))
	}
	return nil
}

// FindAssigned returns a courier's PENDING and IN_PROGRESS legs
func (r *LegRepository) FindAssigned(ctx context.Context, courierID string) ([]*journey.Leg, error) {
	var models []LegModel
	err := r.db.WithContext(ctx).
		Where("courier_id = ? AND status IN ?", courierID,
			[]string{string(journey.LegPending), string(journey.LegInProgress)}).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned legs: %w", err)
	}

	legs := make([]*journey.Leg, len(models))
	for i := range models {
		legs[i] = legToDomain(&models[i])
	}
	return legs, nil
}

// CountAssignedByType counts live legs of one type per courier
func (r *LegRepository) CountAssignedByType(ctx context.Context, courierIDs []string, legType journey.LegType) (map[string]int, error) {
	counts := make(map[string]int, len(courierIDs))
	for _, id := range courierIDs {
		counts[id] = 0
	}
	if len(courierIDs) == 0 {
		return counts, nil
	}

	type row struct {
		CourierID string
		N         int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&LegModel{}).
		Select("courier_id, COUNT(*) AS n").
		Where("courier_id IN ? AND type = ? AND status IN ?", courierIDs, string(legType),
			[]string{string(journey.LegPending), string(journey.LegInProgress)}).
		Group("courier_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count assigned legs: %w", err)
	}

	for _, rw := range rows {
		counts[rw.CourierID] = rw.N
	}
	return counts, nil
}

// CountCompletedPickupsByWarehouse counts parcels brought into a warehouse
// by completed PICKUP legs whose order has not yet left it.
func (r *LegRepository) CountCompletedPickupsByWarehouse(ctx context.Context, warehouseID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LegModel{}).
		Where("destination_warehouse_id = ? AND type = ? AND status = ?",
			warehouseID, string(journey.LegPickup), string(journey.LegCompleted)).
		Where("order_id IN (?)", r.db.Model(&OrderModel{}).
			Select("id").
			Where("status = ?", string(journey.OrderAtWarehouse))).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count warehouse load: %w", err)
	}
	return count, nil
}

// FindPendingTransfersByOrigins returns PENDING TRANSFER legs at the given
// warehouses, optionally restricted to orders whose PICKUP is COMPLETED.
func (r *LegRepository) FindPendingTransfersByOrigins(ctx context.Context, warehouseIDs []string, readyOnly bool) ([]*journey.Leg, error) {
	if len(warehouseIDs) == 0 {
		return nil, nil
	}

	q := r.db.WithContext(ctx).
		Where("type = ? AND status = ? AND origin_warehouse_id IN ?",
			string(journey.LegTransfer), string(journey.LegPending), warehouseIDs)
	if readyOnly {
		q = q.Where("order_id IN (?)", r.db.Model(&LegModel{}).
			Select("order_id").
			Where("type = ? AND status = ?", string(journey.LegPickup), string(journey.LegCompleted)))
	}

	var models []LegModel
	if err := q.Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending transfers: %w", err)
	}

	legs := make([]*journey.Leg, len(models))
	for i := range models {
		legs[i] = legToDomain(&models[i])
	}
	return legs, nil
}

func legToModel(l *journey.Leg) *LegModel {
	return &LegModel{
		ID:                     l.ID,
		OrderID:                l.OrderID,
		Sequence:               l.Sequence,
		Type:                   string(l.Type),
		OriginSMEID:            l.OriginSMEID,
		OriginWarehouseID:      l.OriginWarehouseID,
		DestinationWarehouseID: l.DestinationWarehouseID,
		DestinationIsReceiver:  l.DestinationIsReceiver,
		CourierID:              l.CourierID,
		Status:                 string(l.Status),
		EstimatedDistanceKm:    l.EstimatedDistanceKm,
		Note:                   l.Note,
		StartedAt:              l.StartedAt,
		CompletedAt:            l.CompletedAt,
		CreatedAt:              l.CreatedAt,
		UpdatedAt:              l.UpdatedAt,
	}
}

func legToDomain(m *LegModel) *journey.Leg {
	return &journey.Leg{
		ID:                     m.ID,
		OrderID:                m.OrderID,
		Sequence:               m.Sequence,
		Type:                   journey.LegType(m.Type),
		OriginSMEID:            m.OriginSMEID,
		OriginWarehouseID:      m.OriginWarehouseID,
		DestinationWarehouseID: m.DestinationWarehouseID,
		DestinationIsReceiver:  m.DestinationIsReceiver,
		CourierID:              m.CourierID,
		Status:                 journey.LegStatus(m.Status),
		EstimatedDistanceKm:    m.EstimatedDistanceKm,
		Note:                   m.Note,
		StartedAt:              m.StartedAt,
		CompletedAt:            m.CompletedAt,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}
