package journey

import "time"

// ScanAction is a handheld scanner action
type ScanAction string

const (
	ScanPickupConfirm    ScanAction = "PICKUP_CONFIRM"
	ScanWarehouseIn      ScanAction = "WAREHOUSE_IN"
	ScanWarehouseOut     ScanAction = "WAREHOUSE_OUT"
	ScanDeliveryStart    ScanAction = "DELIVERY_START"
	ScanDeliveryComplete ScanAction = "DELIVERY_COMPLETE"
	// ScanUniversal resolves to the appropriate action from journey state
	ScanUniversal ScanAction = "UNIVERSAL"
)

// ScanLog is the audit record of an accepted scan. It doubles as the
// idempotency source: a repeat of the same code/action/actor inside the
// dedup window is answered from here without re-mutating the journey.
type ScanLog struct {
	ID          int64
	OrderID     string
	CodeValue   string
	Action      ScanAction
	ActorID     string
	ActorRole   string
	WarehouseID *string
	Lat         *float64
	Lon         *float64
	Note        string
	ScannedAt   time.Time
}
