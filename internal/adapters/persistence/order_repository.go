package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// OrderRepository implements journey.OrderRepository using GORM
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new GORM-based order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists a new order
func (r *OrderRepository) Create(ctx context.Context, order *journey.Order) error {
	model := orderToModel(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// FindByID retrieves an order by its id
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (*journey.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("order", orderID)
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return orderToDomain(&model), nil
}

// FindByIDForUpdate retrieves an order with a row lock held until the
// surrounding transaction ends. SQLite has no row locks; its single-writer
// transactions give the same serialization in tests.
func (r *OrderRepository) FindByIDForUpdate(ctx context.Context, orderID string) (*journey.Order, error) {
	tx := r.db.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var model OrderModel
	err := tx.First(&model, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("order", orderID)
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return orderToDomain(&model), nil
}

// Update persists order changes
func (r *OrderRepository) Update(ctx context.Context, order *journey.Order) error {
	model := orderToModel(order)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

// FindPendingByArea lists unplanned orders in an area, oldest first
func (r *OrderRepository) FindPendingByArea(ctx context.Context, areaID string, limit int) ([]*journey.Order, error) {
	var models []OrderModel
	q := r.db.WithContext(ctx).
		Where("area_id = ? AND status = ?", areaID, string(journey.OrderPending)).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending orders: %w", err)
	}

	orders := make([]*journey.Order, len(models))
	for i := range models {
		orders[i] = orderToDomain(&models[i])
	}
	return orders, nil
}

// CountByStatus aggregates orders per status for the dispatch summary
func (r *OrderRepository) CountByStatus(ctx context.Context, areaID string) (map[journey.OrderStatus]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	q := r.db.WithContext(ctx).Model(&OrderModel{}).Select("status, COUNT(*) AS n")
	if areaID != "" {
		q = q.Where("area_id = ?", areaID)
	}
	if err := q.Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}

	counts := make(map[journey.OrderStatus]int64, len(rows))
	for _, rw := range rows {
		counts[journey.OrderStatus(rw.Status)] = rw.N
	}
	return counts, nil
}

// SumTotalDistanceKm totals estimated journey distances in an area
func (r *OrderRepository) SumTotalDistanceKm(ctx context.Context, areaID string) (float64, error) {
	var total *float64
	q := r.db.WithContext(ctx).Model(&OrderModel{}).Select("SUM(total_distance_km)")
	if areaID != "" {
		q = q.Where("area_id = ?", areaID)
	}
	if err := q.Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to sum journey distances: %w", err)
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func orderToModel(o *journey.Order) *OrderModel {
	return &OrderModel{
		ID:              o.ID,
		Code:            o.Code,
		SMEID:           o.SMEID,
		AreaID:          o.AreaID,
		ReceiverName:    o.ReceiverName,
		ReceiverPhone:   o.ReceiverPhone,
		ReceiverAddress: o.ReceiverAddress,
		ReceiverLat:     o.ReceiverLat,
		ReceiverLon:     o.ReceiverLon,
		WeightKg:        o.WeightKg,
		Status:          string(o.Status),
		TotalDistanceKm: o.TotalDistanceKm,
		Note:            o.Note,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func orderToDomain(m *OrderModel) *journey.Order {
	return &journey.Order{
		ID:              m.ID,
		Code:            m.Code,
		SMEID:           m.SMEID,
		AreaID:          m.AreaID,
		ReceiverName:    m.ReceiverName,
		ReceiverPhone:   m.ReceiverPhone,
		ReceiverAddress: m.ReceiverAddress,
		ReceiverLat:     m.ReceiverLat,
		ReceiverLon:     m.ReceiverLon,
		WeightKg:        m.WeightKg,
		Status:          journey.OrderStatus(m.Status),
		TotalDistanceKm: m.TotalDistanceKm,
		Note:            m.Note,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
