package warehouse

import "context"

// Repository persists warehouses
type Repository interface {
	FindByID(ctx context.Context, warehouseID string) (*Warehouse, error)
	FindActiveByArea(ctx context.Context, areaID string, types []Type) ([]*Warehouse, error)
	Update(ctx context.Context, w *Warehouse) error
	// SetCurrentLoad writes the load computed by the periodic sync job
	SetCurrentLoad(ctx context.Context, warehouseID string, load int) error
	FindAllActive(ctx context.Context) ([]*Warehouse, error)
}

// AreaRepository persists service areas
type AreaRepository interface {
	FindByID(ctx context.Context, areaID string) (*Area, error)
	FindAllActive(ctx context.Context) ([]*Area, error)
}

// SMERepository persists SME senders
type SMERepository interface {
	FindByID(ctx context.Context, smeID string) (*SME, error)
	Update(ctx context.Context, s *SME) error
}
