package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/dispatch-go/internal/adapters/persistence"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/test/helpers"
)

func TestOrderRepositoryRoundtrip(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewOrderRepository(db)
	helpers.SeedArea(t, db, "area-1")
	helpers.SeedSME(t, db, "sme-1", "area-1", 21.0400, 105.8300)

	order := &journey.Order{
		ID:              uuid.NewString(),
		Code:            "ORD-0A1B2C3D",
		SMEID:           "sme-1",
		AreaID:          "area-1",
		ReceiverName:    "Tran Thi B",
		ReceiverPhone:   "0912345678",
		ReceiverAddress: "45 lang ha, dong da, hanoi",
		WeightKg:        2.5,
		Status:          journey.OrderPending,
		CreatedAt:       helpers.FixedTime,
		UpdatedAt:       helpers.FixedTime,
	}

	// Act
	require.NoError(t, repo.Create(context.Background(), order))
	found, err := repo.FindByID(context.Background(), order.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, order.Code, found.Code)
	assert.Equal(t, order.ReceiverAddress, found.ReceiverAddress)
	assert.Equal(t, journey.OrderPending, found.Status)
}

func TestOrderRepositoryNotFound(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewOrderRepository(db)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.True(t, shared.IsKind(err, shared.KindNotFound))

	_, err = repo.FindByIDForUpdate(context.Background(), "missing")
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestFindPendingByArea(t *testing.T) {
	// Arrange: three pending orders created at different times, one completed
	db := helpers.NewTestDB(t)
	repo := persistence.NewOrderRepository(db)
	helpers.SeedArea(t, db, "area-1")
	helpers.SeedSME(t, db, "sme-1", "area-1", 21.0400, 105.8300)

	newOrder := func(status journey.OrderStatus, createdAt time.Time) *journey.Order {
		return &journey.Order{
			ID:              uuid.NewString(),
			Code:            "ORD-" + uuid.NewString()[:8],
			SMEID:           "sme-1",
			AreaID:          "area-1",
			ReceiverName:    "r",
			ReceiverPhone:   "0900000000",
			ReceiverAddress: "a",
			Status:          status,
			CreatedAt:       createdAt,
			UpdatedAt:       createdAt,
		}
	}
	second := newOrder(journey.OrderPending, helpers.FixedTime.Add(time.Hour))
	first := newOrder(journey.OrderPending, helpers.FixedTime)
	third := newOrder(journey.OrderPending, helpers.FixedTime.Add(2*time.Hour))
	done := newOrder(journey.OrderCompleted, helpers.FixedTime)
	for _, o := range []*journey.Order{second, first, third, done} {
		require.NoError(t, repo.Create(context.Background(), o))
	}

	// Act
	pending, err := repo.FindPendingByArea(context.Background(), "area-1", 2)

	// Assert: oldest first, limit honored, completed excluded
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
}

func TestCountByStatusAndSumDistance(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewOrderRepository(db)
	helpers.SeedArea(t, db, "area-1")
	helpers.SeedSME(t, db, "sme-1", "area-1", 21.0400, 105.8300)
	helpers.SeedOrder(t, db, "sme-1", "area-1", "PENDING")
	helpers.SeedOrder(t, db, "sme-1", "area-1", "PENDING")
	helpers.SeedOrder(t, db, "sme-1", "area-1", "DELIVERING")

	counts, err := repo.CountByStatus(context.Background(), "area-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[journey.OrderPending])
	assert.Equal(t, int64(1), counts[journey.OrderDelivering])

	// No distances recorded yet: the sum is zero, not an error
	total, err := repo.SumTotalDistanceKm(context.Background(), "area-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
}

func TestLegRepositoryDeleteNotFound(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewLegRepository(db)

	err := repo.Delete(context.Background(), 4242)

	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestCountAssignedByType(t *testing.T) {
	// Arrange: live and completed legs across two couriers
	db := helpers.NewTestDB(t)
	repo := persistence.NewLegRepository(db)
	helpers.SeedArea(t, db, "area-1")
	helpers.SeedSME(t, db, "sme-1", "area-1", 21.0400, 105.8300)
	helpers.SeedWarehouse(t, db, "hub-1", "area-1", "HUB", 21.0300, 105.8400)
	helpers.SeedCourier(t, db, "c1", "area-1", "MOTORBIKE", "ONLINE")
	helpers.SeedCourier(t, db, "c2", "area-1", "MOTORBIKE", "ONLINE")

	for _, spec := range []struct {
		courier string
		status  string
	}{
		{"c1", "PENDING"},
		{"c1", "IN_PROGRESS"},
		{"c1", "COMPLETED"},
		{"c2", "PENDING"},
	} {
		orderID := helpers.SeedOrder(t, db, "sme-1", "area-1", "AT_WAREHOUSE")
		helpers.SeedLegs(t, db, orderID, []helpers.LegSpec{
			{Sequence: 1, Type: "PICKUP", OriginSME: "sme-1", DestWH: "hub-1", Status: "COMPLETED"},
			{Sequence: 2, Type: "DELIVERY", OriginWH: "hub-1", ToReceiver: true, CourierID: spec.courier, Status: spec.status},
		})
	}

	// Act
	counts, err := repo.CountAssignedByType(context.Background(), []string{"c1", "c2", "c3"}, journey.LegDelivery)

	// Assert: completed legs do not count, absent couriers report zero
	require.NoError(t, err)
	assert.Equal(t, 2, counts["c1"])
	assert.Equal(t, 1, counts["c2"])
	assert.Equal(t, 0, counts["c3"])
}

func TestCountCompletedPickupsByWarehouse(t *testing.T) {
	// Arrange: two parcels waiting at the hub, one already out for delivery
	db := helpers.NewTestDB(t)
	repo := persistence.NewLegRepository(db)
	helpers.SeedArea(t, db, "area-1")
	helpers.SeedSME(t, db, "sme-1", "area-1", 21.0400, 105.8300)
	helpers.SeedWarehouse(t, db, "hub-1", "area-1", "HUB", 21.0300, 105.8400)

	seed := func(orderStatus string) {
		orderID := helpers.SeedOrder(t, db, "sme-1", "area-1", orderStatus)
		helpers.SeedLegs(t, db, orderID, []helpers.LegSpec{
			{Sequence: 1, Type: "PICKUP", OriginSME: "sme-1", DestWH: "hub-1", Status: "COMPLETED"},
			{Sequence: 2, Type: "DELIVERY", OriginWH: "hub-1", ToReceiver: true, Status: "PENDING"},
		})
	}
	seed("AT_WAREHOUSE")
	seed("AT_WAREHOUSE")
	seed("DELIVERING")

	// Act
	count, err := repo.CountCompletedPickupsByWarehouse(context.Background(), "hub-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestBarcodeRepository(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewBarcodeRepository(db)
	helpers.SeedArea(t, db, "area-1")
	helpers.SeedSME(t, db, "sme-1", "area-1", 21.0400, 105.8300)
	orderID := helpers.SeedOrder(t, db, "sme-1", "area-1", "PENDING")
	code := helpers.SeedBarcode(t, db, orderID)

	found, err := repo.FindByCodeValue(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, orderID, found.OrderID)

	byOrder, err := repo.FindByOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, code, byOrder.CodeValue)

	_, err = repo.FindByCodeValue(context.Background(), "ORDXXXXXXXX000000")
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestFindRecentDuplicate(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewScanLogRepository(db)
	helpers.SeedArea(t, db, "area-1")
	helpers.SeedSME(t, db, "sme-1", "area-1", 21.0400, 105.8300)
	orderID := helpers.SeedOrder(t, db, "sme-1", "area-1", "PENDING")
	code := helpers.SeedBarcode(t, db, orderID)

	// No history yet: nil without error
	dup, err := repo.FindRecentDuplicate(context.Background(), code, journey.ScanPickupConfirm, "c1", helpers.FixedTime.Add(-time.Minute))
	require.NoError(t, err)
	assert.Nil(t, dup)

	require.NoError(t, repo.Create(context.Background(), &journey.ScanLog{
		OrderID:   orderID,
		CodeValue: code,
		Action:    journey.ScanPickupConfirm,
		ActorID:   "c1",
		ActorRole: "COURIER",
		ScannedAt: helpers.FixedTime,
	}))

	// Act
	dup, err = repo.FindRecentDuplicate(context.Background(), code, journey.ScanPickupConfirm, "c1", helpers.FixedTime.Add(-time.Minute))
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, orderID, dup.OrderID)

	// A different actor or an older window is not a duplicate
	dup, err = repo.FindRecentDuplicate(context.Background(), code, journey.ScanPickupConfirm, "c2", helpers.FixedTime.Add(-time.Minute))
	require.NoError(t, err)
	assert.Nil(t, dup)

	dup, err = repo.FindRecentDuplicate(context.Background(), code, journey.ScanPickupConfirm, "c1", helpers.FixedTime.Add(time.Second))
	require.NoError(t, err)
	assert.Nil(t, dup)
}

func TestFindByWarehouseOrdersNewestFirst(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewScanLogRepository(db)
	helpers.SeedArea(t, db, "area-1")
	helpers.SeedSME(t, db, "sme-1", "area-1", 21.0400, 105.8300)
	helpers.SeedWarehouse(t, db, "hub-1", "area-1", "HUB", 21.0300, 105.8400)
	orderID := helpers.SeedOrder(t, db, "sme-1", "area-1", "AT_WAREHOUSE")
	code := helpers.SeedBarcode(t, db, orderID)

	wh := "hub-1"
	for i, action := range []journey.ScanAction{journey.ScanWarehouseIn, journey.ScanWarehouseOut} {
		require.NoError(t, repo.Create(context.Background(), &journey.ScanLog{
			OrderID:     orderID,
			CodeValue:   code,
			Action:      action,
			ActorID:     "staff-1",
			ActorRole:   "WAREHOUSE_STAFF",
			WarehouseID: &wh,
			ScannedAt:   helpers.FixedTime.Add(time.Duration(i) * time.Minute),
		}))
	}

	logs, err := repo.FindByWarehouse(context.Background(), "hub-1", 10)

	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, journey.ScanWarehouseOut, logs[0].Action)
	assert.Equal(t, journey.ScanWarehouseIn, logs[1].Action)
}
