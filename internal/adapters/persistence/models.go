package persistence

import "time"

// AreaModel is the persistence model for service areas
type AreaModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	CenterLat *float64
	CenterLon *float64
	RadiusKm  float64
	Active    bool `gorm:"default:true;index"`
	CreatedAt time.Time
}

// TableName specifies the table name for GORM
func (AreaModel) TableName() string {
	return "areas"
}

// SMEModel is the persistence model for SME senders
type SMEModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Phone     string
	Address   string
	AreaID    string `gorm:"index"`
	Lat       *float64
	Lon       *float64
	Active    bool `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (SMEModel) TableName() string {
	return "smes"
}

// WarehouseModel is the persistence model for warehouses
type WarehouseModel struct {
	ID            string `gorm:"primaryKey"`
	Name          string `gorm:"not null"`
	Type          string `gorm:"not null;index"`
	AreaID        string `gorm:"index"`
	Address       string
	Lat           *float64
	Lon           *float64
	CapacityLimit int
	CurrentLoad   int
	Status        string `gorm:"not null;default:ACTIVE;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// CourierModel is the persistence model for couriers
type CourierModel struct {
	ID              string `gorm:"primaryKey"`
	Name            string `gorm:"not null"`
	Phone           string
	Vehicle         string `gorm:"not null;index"`
	Status          string `gorm:"not null;index"`
	AreaID          string `gorm:"index"`
	HomeWarehouseID *string
	CurrentLat      *float64
	CurrentLon      *float64
	LocationAt      *time.Time
	Rating          float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (CourierModel) TableName() string {
	return "couriers"
}

// OrderModel is the persistence model for orders
type OrderModel struct {
	ID              string `gorm:"primaryKey"`
	Code            string `gorm:"uniqueIndex"`
	SMEID           string `gorm:"column:sme_id;index"`
	AreaID          string `gorm:"index"`
	ReceiverName    string
	ReceiverPhone   string
	ReceiverAddress string
	ReceiverLat     *float64
	ReceiverLon     *float64
	WeightKg        float64
	Status          string `gorm:"not null;index"`
	TotalDistanceKm *float64
	Note            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// LegModel is the persistence model for journey legs
type LegModel struct {
	ID                     int64   `gorm:"primaryKey;autoIncrement"`
	OrderID                string  `gorm:"index;not null"`
	Sequence               int     `gorm:"not null"`
	Type                   string  `gorm:"not null"`
	OriginSMEID            *string `gorm:"column:origin_sme_id"`
	OriginWarehouseID      *string
	DestinationWarehouseID *string
	DestinationIsReceiver  bool
	CourierID              *string `gorm:"index"`
	Status                 string  `gorm:"not null;index"`
	EstimatedDistanceKm    *float64
	Note                   string
	StartedAt              *time.Time
	CompletedAt            *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// TableName specifies the table name for GORM
func (LegModel) TableName() string {
	return "order_legs"
}

// BarcodeModel is the persistence model for barcode labels
type BarcodeModel struct {
	ID        string `gorm:"primaryKey"`
	OrderID   string `gorm:"uniqueIndex"`
	CodeValue string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

// TableName specifies the table name for GORM
func (BarcodeModel) TableName() string {
	return "barcodes"
}

// ScanLogModel is the persistence model for the scan audit trail
type ScanLogModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	OrderID     string `gorm:"index;not null"`
	CodeValue   string `gorm:"index;not null"`
	Action      string `gorm:"not null"`
	ActorID     string `gorm:"index;not null"`
	ActorRole   string
	WarehouseID *string `gorm:"index"`
	Lat         *float64
	Lon         *float64
	Note        string
	ScannedAt   time.Time `gorm:"index"`
}

// TableName specifies the table name for GORM
func (ScanLogModel) TableName() string {
	return "order_scan_logs"
}
