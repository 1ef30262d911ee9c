package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/domain/courier"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/warehouse"
)

// GormUnitOfWork implements common.UnitOfWork over a GORM connection.
// Outside Execute it serves repositories bound to the shared connection;
// inside Execute every repository is bound to the transaction.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a unit of work over the given connection
func NewUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn inside one transaction; an error rolls everything back
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(repos common.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormUnitOfWork{db: tx})
	})
}

// Orders returns the order repository
func (u *GormUnitOfWork) Orders() journey.OrderRepository {
	return NewOrderRepository(u.db)
}

// Legs returns the leg repository
func (u *GormUnitOfWork) Legs() journey.LegRepository {
	return NewLegRepository(u.db)
}

// Barcodes returns the barcode repository
func (u *GormUnitOfWork) Barcodes() journey.BarcodeRepository {
	return NewBarcodeRepository(u.db)
}

// ScanLogs returns the scan log repository
func (u *GormUnitOfWork) ScanLogs() journey.ScanLogRepository {
	return NewScanLogRepository(u.db)
}

// Couriers returns the courier repository
func (u *GormUnitOfWork) Couriers() courier.Repository {
	return NewCourierRepository(u.db)
}

// Warehouses returns the warehouse repository
func (u *GormUnitOfWork) Warehouses() warehouse.Repository {
	return NewWarehouseRepository(u.db)
}

// Areas returns the area repository
func (u *GormUnitOfWork) Areas() warehouse.AreaRepository {
	return NewAreaRepository(u.db)
}

// SMEs returns the SME repository
func (u *GormUnitOfWork) SMEs() warehouse.SMERepository {
	return NewSMERepository(u.db)
}
