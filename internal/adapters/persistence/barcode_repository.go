package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// BarcodeRepository implements journey.BarcodeRepository using GORM
type BarcodeRepository struct {
	db *gorm.DB
}

// NewBarcodeRepository creates a new GORM-based barcode repository
func NewBarcodeRepository(db *gorm.DB) *BarcodeRepository {
	return &BarcodeRepository{db: db}
}

// Create persists a new barcode label
func (r *BarcodeRepository) Create(ctx context.Context, barcode *journey.Barcode) error {
	model := &BarcodeModel{
		ID:        barcode.ID,
		OrderID:   barcode.OrderID,
		CodeValue: barcode.CodeValue,
		CreatedAt: barcode.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create barcode: %w", err)
	}
	return nil
}

// FindByCodeValue resolves a scanned code to its label
func (r *BarcodeRepository) FindByCodeValue(ctx context.Context, codeValue string) (*journey.Barcode, error) {
	var model BarcodeModel
	err := r.db.WithContext(ctx).First(&model, "code_value = ?", codeValue).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("barcode", codeValue)
		}
		return nil, fmt.Errorf("failed to find barcode: %w", err)
	}
	return barcodeToDomain(&model), nil
}

// FindByOrder retrieves an order's label
func (r *BarcodeRepository) FindByOrder(ctx context.Context, orderID string) (*journey.Barcode, error) {
	var model BarcodeModel
	err := r.db.WithContext(ctx).First(&model, "order_id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("barcode for order", orderID)
		}
		return nil, fmt.Errorf("failed to find barcode: %w", err)
	}
	return barcodeToDomain(&model), nil
}

func barcodeToDomain(m *BarcodeModel) *journey.Barcode {
	return &journey.Barcode{
		ID:        m.ID,
		OrderID:   m.OrderID,
		CodeValue: m.CodeValue,
		CreatedAt: m.CreatedAt,
	}
}
