package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
)

// ScanLogRepository implements journey.ScanLogRepository using GORM
type ScanLogRepository struct {
	db *gorm.DB
}

// NewScanLogRepository creates a new GORM-based scan log repository
func NewScanLogRepository(db *gorm.DB) *ScanLogRepository {
	return &ScanLogRepository{db: db}
}

// Create appends an audit record
func (r *ScanLogRepository) Create(ctx context.Context, log *journey.ScanLog) error {
	model := scanLogToModel(log)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create scan log: %w", err)
	}
	log.ID = model.ID
	return nil
}

// FindByOrder returns an order's scan history, oldest first
func (r *ScanLogRepository) FindByOrder(ctx context.Context, orderID string) ([]*journey.ScanLog, error) {
	var models []ScanLogModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("scanned_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scan logs: %w", err)
	}
	return scanLogsToDomain(models), nil
}

// FindByWarehouse returns recent scans recorded at a warehouse
func (r *ScanLogRepository) FindByWarehouse(ctx context.Context, warehouseID string, limit int) ([]*journey.ScanLog, error) {
	var models []ScanLogModel
	q := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("scanned_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list warehouse scan logs: %w", err)
	}
	return scanLogsToDomain(models), nil
}

// FindRecentDuplicate returns the latest identical scan at or after since
func (r *ScanLogRepository) FindRecentDuplicate(ctx context.Context, codeValue string, action journey.ScanAction, actorID string, since time.Time) (*journey.ScanLog, error) {
	var model ScanLogModel
	err := r.db.WithContext(ctx).
		Where("code_value = ? AND action = ? AND actor_id = ? AND scanned_at >= ?",
			codeValue, string(action), actorID, since).
		Order("scanned_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check duplicate scan: %w", err)
	}
	return scanLogToDomain(&model), nil
}

func scanLogToModel(l *journey.ScanLog) *ScanLogModel {
	return &ScanLogModel{
		ID:          l.ID,
		OrderID:     l.OrderID,
		CodeValue:   l.CodeValue,
		Action:      string(l.Action),
		ActorID:     l.ActorID,
		ActorRole:   l.ActorRole,
		WarehouseID: l.WarehouseID,
		Lat:         l.Lat,
		Lon:         l.Lon,
		Note:        l.Note,
		ScannedAt:   l.ScannedAt,
	}
}

func scanLogToDomain(m *ScanLogModel) *journey.ScanLog {
	return &journey.ScanLog{
		ID:          m.ID,
		OrderID:     m.OrderID,
		CodeValue:   m.CodeValue,
		Action:      journey.ScanAction(m.Action),
		ActorID:     m.ActorID,
		ActorRole:   m.ActorRole,
		WarehouseID: m.WarehouseID,
		Lat:         m.Lat,
		Lon:         m.Lon,
		Note:        m.Note,
		ScannedAt:   m.ScannedAt,
	}
}

func scanLogsToDomain(models []ScanLogModel) []*journey.ScanLog {
	logs := make([]*journey.ScanLog, len(models))
	for i := range models {
		logs[i] = scanLogToDomain(&models[i])
	}
	return logs
}
