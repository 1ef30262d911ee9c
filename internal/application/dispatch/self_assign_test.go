package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/test/helpers"
)

func seedPlannedOrder(t *testing.T, f *fixture) (string, []int64) {
	t.Helper()
	orderID := helpers.SeedOrder(t, f.db, "sme-1", "area-1", "PENDING")
	legIDs := helpers.SeedLegs(t, f.db, orderID, []helpers.LegSpec{
		{Sequence: 1, Type: "PICKUP", OriginSME: "sme-1", DestWH: "hub-1", Status: "PENDING"},
		{Sequence: 2, Type: "TRANSFER", OriginWH: "hub-1", DestWH: "sat-1", Status: "PENDING"},
		{Sequence: 3, Type: "DELIVERY", OriginWH: "sat-1", ToReceiver: true, Status: "PENDING"},
	})
	return orderID, legIDs
}

func TestSelfAssignTransfer(t *testing.T) {
	// Arrange
	f := newFixture(t)
	handler := NewSelfAssignHandler(f.uow, f.clock)
	orderID, _ := seedPlannedOrder(t, f)

	// Act
	resp, err := handler.Handle(context.Background(), AssignTransferCommand{OrderID: orderID, CourierID: "courier-truck"})

	// Assert
	require.NoError(t, err)
	leg := resp.(*journey.Leg)
	assert.Equal(t, journey.LegTransfer, leg.Type)
	require.NotNil(t, leg.CourierID)
	assert.Equal(t, "courier-truck", *leg.CourierID)
}

func TestSelfAssignTransferRejectsMotorbike(t *testing.T) {
	f := newFixture(t)
	handler := NewSelfAssignHandler(f.uow, f.clock)
	orderID, _ := seedPlannedOrder(t, f)

	_, err := handler.Handle(context.Background(), AssignTransferCommand{OrderID: orderID, CourierID: "courier-bike"})

	assert.True(t, shared.IsKind(err, shared.KindInvalidState))
}

func TestSelfAssignDelivery(t *testing.T) {
	f := newFixture(t)
	handler := NewSelfAssignHandler(f.uow, f.clock)
	orderID, _ := seedPlannedOrder(t, f)

	resp, err := handler.Handle(context.Background(), AssignDeliveryCommand{OrderID: orderID, CourierID: "courier-bike"})

	require.NoError(t, err)
	leg := resp.(*journey.Leg)
	assert.Equal(t, journey.LegDelivery, leg.Type)
	assert.Equal(t, "courier-bike", *leg.CourierID)
}

func TestSelfAssignRejectsSecondClaim(t *testing.T) {
	f := newFixture(t)
	handler := NewSelfAssignHandler(f.uow, f.clock)
	orderID, _ := seedPlannedOrder(t, f)

	_, err := handler.Handle(context.Background(), AssignDeliveryCommand{OrderID: orderID, CourierID: "courier-bike"})
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(), AssignDeliveryCommand{OrderID: orderID, CourierID: "courier-truck"})
	assert.True(t, shared.IsKind(err, shared.KindInvalidState))
}

func TestSelfAssignOfflineCourierRejected(t *testing.T) {
	f := newFixture(t)
	helpers.SeedCourier(t, f.db, "courier-off", "area-1", "CAR", "OFFLINE")
	handler := NewSelfAssignHandler(f.uow, f.clock)
	orderID, _ := seedPlannedOrder(t, f)

	_, err := handler.Handle(context.Background(), AssignDeliveryCommand{OrderID: orderID, CourierID: "courier-off"})

	assert.True(t, shared.IsKind(err, shared.KindInvalidState))
}
