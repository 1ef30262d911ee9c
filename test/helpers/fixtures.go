package helpers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrescamacho/dispatch-go/internal/adapters/persistence"
)

// FixedTime is the reference instant seeded fixtures are created at
var FixedTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// SeedArea inserts an active service area
func SeedArea(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	SeedAreaAt(t, db, id, 21.0278, 105.8342)
}

// SeedAreaAt inserts an active service area with an explicit centroid
func SeedAreaAt(t *testing.T, db *gorm.DB, id string, lat, lon float64) {
	t.Helper()
	m := &persistence.AreaModel{
		ID:        id,
		Name:      "Area " + id,
		CenterLat: &lat,
		CenterLon: &lon,
		RadiusKm:  30,
		Active:    true,
		CreatedAt: FixedTime,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to seed area: %v", err)
	}
}

// SeedSME inserts an active SME sender at the given location
func SeedSME(t *testing.T, db *gorm.DB, id, areaID string, lat, lon float64) {
	t.Helper()
	m := &persistence.SMEModel{
		ID:        id,
		Name:      "SME " + id,
		Phone:     "0900000001",
		Address:   "12 Hang Bac, Hoan Kiem, Hanoi",
		AreaID:    areaID,
		Lat:       &lat,
		Lon:       &lon,
		Active:    true,
		CreatedAt: FixedTime,
		UpdatedAt: FixedTime,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to seed sme: %v", err)
	}
}

// SeedSMEWithoutLocation inserts an SME with an address but no coordinates
func SeedSMEWithoutLocation(t *testing.T, db *gorm.DB, id, areaID, address string) {
	t.Helper()
	m := &persistence.SMEModel{
		ID:        id,
		Name:      "SME " + id,
		Address:   address,
		AreaID:    areaID,
		Active:    true,
		CreatedAt: FixedTime,
		UpdatedAt: FixedTime,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to seed sme: %v", err)
	}
}

// SeedWarehouse inserts an ACTIVE warehouse of the given type
func SeedWarehouse(t *testing.T, db *gorm.DB, id, areaID, whType string, lat, lon float64) {
	t.Helper()
	SeedWarehouseWithStatus(t, db, id, areaID, whType, "ACTIVE", lat, lon)
}

// SeedWarehouseWithStatus inserts a warehouse with an explicit status
func SeedWarehouseWithStatus(t *testing.T, db *gorm.DB, id, areaID, whType, status string, lat, lon float64) {
	t.Helper()
	m := &persistence.WarehouseModel{
		ID:        id,
		Name:      "Warehouse " + id,
		Type:      whType,
		AreaID:    areaID,
		Address:   "Warehouse " + id + " address",
		Lat:       &lat,
		Lon:       &lon,
		Status:    status,
		CreatedAt: FixedTime,
		UpdatedAt: FixedTime,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to seed warehouse: %v", err)
	}
}

// SeedCourier inserts a courier with the given vehicle and status
func SeedCourier(t *testing.T, db *gorm.DB, id, areaID, vehicle, status string) {
	t.Helper()
	m := &persistence.CourierModel{
		ID:        id,
		Name:      "Courier " + id,
		Phone:     "0900000002",
		Vehicle:   vehicle,
		Status:    status,
		AreaID:    areaID,
		Rating:    4.5,
		CreatedAt: FixedTime,
		UpdatedAt: FixedTime,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to seed courier: %v", err)
	}
}

// SeedCourierAt inserts a courier with a known GPS position
func SeedCourierAt(t *testing.T, db *gorm.DB, id, areaID, vehicle, status string, lat, lon float64) {
	t.Helper()
	at := FixedTime
	m := &persistence.CourierModel{
		ID:         id,
		Name:       "Courier " + id,
		Vehicle:    vehicle,
		Status:     status,
		AreaID:     areaID,
		CurrentLat: &lat,
		CurrentLon: &lon,
		LocationAt: &at,
		Rating:     4.0,
		CreatedAt:  FixedTime,
		UpdatedAt:  FixedTime,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to seed courier: %v", err)
	}
}

// SeedOrder inserts an order and returns its id
func SeedOrder(t *testing.T, db *gorm.DB, smeID, areaID, status string) string {
	t.Helper()
	id := uuid.New().String()
	lat, lon := 21.0180, 105.8500
	m := &persistence.OrderModel{
		ID:              id,
		Code:            "ORD-" + id[:8],
		SMEID:           smeID,
		AreaID:          areaID,
		ReceiverName:    "Nguyen Van A",
		ReceiverPhone:   "0900000003",
		ReceiverAddress: "45 Tran Hung Dao, Hanoi",
		ReceiverLat:     &lat,
		ReceiverLon:     &lon,
		WeightKg:        2.5,
		Status:          status,
		CreatedAt:       FixedTime,
		UpdatedAt:       FixedTime,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}
	return id
}

// SeedBarcode inserts a barcode label for an order and returns the code value
func SeedBarcode(t *testing.T, db *gorm.DB, orderID string) string {
	t.Helper()
	code := "ORD" + orderID[:8] + "000001"
	m := &persistence.BarcodeModel{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		CodeValue: code,
		CreatedAt: FixedTime,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to seed barcode: %v", err)
	}
	return code
}

// LegSpec describes one leg to seed
type LegSpec struct {
	Sequence   int
	Type       string
	OriginSME  string
	OriginWH   string
	DestWH     string
	ToReceiver bool
	CourierID  string
	Status     string
}

// SeedLegs inserts the given legs for an order and returns their ids in order
func SeedLegs(t *testing.T, db *gorm.DB, orderID string, specs []LegSpec) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(specs))
	for _, s := range specs {
		m := &persistence.LegModel{
			OrderID:               orderID,
			Sequence:              s.Sequence,
			Type:                  s.Type,
			DestinationIsReceiver: s.ToReceiver,
			Status:                s.Status,
			CreatedAt:             FixedTime,
			UpdatedAt:             FixedTime,
		}
		if s.OriginSME != "" {
			v := s.OriginSME
			m.OriginSMEID = &v
		}
		if s.OriginWH != "" {
			v := s.OriginWH
			m.OriginWarehouseID = &v
		}
		if s.DestWH != "" {
			v := s.DestWH
			m.DestinationWarehouseID = &v
		}
		if s.CourierID != "" {
			v := s.CourierID
			m.CourierID = &v
		}
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("failed to seed leg: %v", err)
		}
		ids = append(ids, m.ID)
	}
	return ids
}
