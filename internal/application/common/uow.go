package common

import (
	"context"

	"github.com/andrescamacho/dispatch-go/internal/domain/courier"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/warehouse"
)

// Repositories bundles every repository port behind one accessor set, so a
// handler can reach whatever it needs inside a single transaction.
type Repositories interface {
	Orders() journey.OrderRepository
	Legs() journey.LegRepository
	Barcodes() journey.BarcodeRepository
	ScanLogs() journey.ScanLogRepository
	Couriers() courier.Repository
	Warehouses() warehouse.Repository
	Areas() warehouse.AreaRepository
	SMEs() warehouse.SMERepository
}

// UnitOfWork runs fn inside one database transaction. The Repositories
// passed to fn are transaction-scoped; an error from fn rolls everything
// back.
type UnitOfWork interface {
	Repositories
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}
