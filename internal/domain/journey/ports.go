package journey

import (
	"context"
	"time"
)

// OrderRepository persists orders
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, orderID string) (*Order, error)
	// FindByIDForUpdate locks the order row for the rest of the transaction.
	// Every journey mutation takes this lock first, serializing concurrent
	// scans and dispatch edits per order.
	FindByIDForUpdate(ctx context.Context, orderID string) (*Order, error)
	Update(ctx context.Context, order *Order) error
	FindPendingByArea(ctx context.Context, areaID string, limit int) ([]*Order, error)
	// CountByStatus aggregates orders per status for the dispatch summary
	CountByStatus(ctx context.Context, areaID string) (map[OrderStatus]int64, error)
	// SumTotalDistanceKm totals estimated journey distances in an area
	SumTotalDistanceKm(ctx context.Context, areaID string) (float64, error)
}

// LegRepository persists journey legs
type LegRepository interface {
	Create(ctx context.Context, leg *Leg) error
	CreateBatch(ctx context.Context, legs []*Leg) error
	FindByID(ctx context.Context, legID int64) (*Leg, error)
	FindByOrder(ctx context.Context, orderID string) ([]*Leg, error)
	Update(ctx context.Context, leg *Leg) error
	Delete(ctx context.Context, legID int64) error
	// FindAssigned returns non-terminal legs assigned to a courier
	FindAssigned(ctx context.Context, courierID string) ([]*Leg, error)
	// CountAssignedByType counts PENDING+IN_PROGRESS legs per courier for a
	// leg type, used by the workload balancer.
	CountAssignedByType(ctx context.Context, courierIDs []string, legType LegType) (map[string]int, error)
	// CountCompletedPickupsByWarehouse feeds the warehouse load sync
	CountCompletedPickupsByWarehouse(ctx context.Context, warehouseID string) (int64, error)
	// FindPendingTransfersByOrigins returns PENDING TRANSFER legs whose
	// origin is one of the given warehouses. With readyOnly the result is
	// restricted to orders whose PICKUP leg is COMPLETED, meaning the
	// parcel is physically at the hub.
	FindPendingTransfersByOrigins(ctx context.Context, warehouseIDs []string, readyOnly bool) ([]*Leg, error)
}

// BarcodeRepository persists barcode labels
type BarcodeRepository interface {
	Create(ctx context.Context, barcode *Barcode) error
	FindByCodeValue(ctx context.Context, codeValue string) (*Barcode, error)
	FindByOrder(ctx context.Context, orderID string) (*Barcode, error)
}

// ScanLogRepository persists the scan audit trail
type ScanLogRepository interface {
	Create(ctx context.Context, log *ScanLog) error
	FindByOrder(ctx context.Context, orderID string) ([]*ScanLog, error)
	FindByWarehouse(ctx context.Context, warehouseID string, limit int) ([]*ScanLog, error)
	// FindRecentDuplicate returns the latest matching scan at or after since,
	// or nil when none exists.
	FindRecentDuplicate(ctx context.Context, codeValue string, action ScanAction, actorID string, since time.Time) (*ScanLog, error)
}
