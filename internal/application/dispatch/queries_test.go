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

func TestGetOrderJourney(t *testing.T) {
	// Arrange
	f := newFixture(t)
	handler := NewQueryHandler(f.uow)
	orderID, _ := seedPlannedOrder(t, f)
	code := helpers.SeedBarcode(t, f.db, orderID)

	// Act
	resp, err := handler.Handle(context.Background(), GetOrderJourneyQuery{OrderID: orderID})

	// Assert
	require.NoError(t, err)
	view := resp.(*OrderJourneyView)
	assert.Equal(t, orderID, view.Order.ID)
	assert.Len(t, view.Legs, 3)
	require.NotNil(t, view.Barcode)
	assert.Equal(t, code, view.Barcode.CodeValue)
}

func TestGetOrderJourneyWithoutBarcode(t *testing.T) {
	f := newFixture(t)
	handler := NewQueryHandler(f.uow)
	orderID, _ := seedPlannedOrder(t, f)

	resp, err := handler.Handle(context.Background(), GetOrderJourneyQuery{OrderID: orderID})

	require.NoError(t, err)
	assert.Nil(t, resp.(*OrderJourneyView).Barcode)
}

func TestGetOrderJourneyResolvesCourierNames(t *testing.T) {
	f := newFixture(t)
	handler := NewQueryHandler(f.uow)
	orderID := helpers.SeedOrder(t, f.db, "sme-1", "area-1", "IN_TRANSIT")
	helpers.SeedLegs(t, f.db, orderID, []helpers.LegSpec{
		{Sequence: 1, Type: "PICKUP", OriginSME: "sme-1", DestWH: "hub-1", CourierID: "courier-bike", Status: "COMPLETED"},
		{Sequence: 2, Type: "TRANSFER", OriginWH: "hub-1", DestWH: "sat-1", CourierID: "courier-truck", Status: "PENDING"},
		{Sequence: 3, Type: "DELIVERY", OriginWH: "sat-1", ToReceiver: true, Status: "PENDING"},
	})

	resp, err := handler.Handle(context.Background(), GetOrderJourneyQuery{OrderID: orderID})

	require.NoError(t, err)
	view := resp.(*OrderJourneyView)
	assert.Equal(t, "Courier courier-bike", view.CourierNames["courier-bike"])
	assert.Equal(t, "Courier courier-truck", view.CourierNames["courier-truck"])
	assert.Len(t, view.CourierNames, 2)
}

func TestGetOrderJourneyNotFound(t *testing.T) {
	f := newFixture(t)
	handler := NewQueryHandler(f.uow)

	_, err := handler.Handle(context.Background(), GetOrderJourneyQuery{OrderID: "nope"})

	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestGetCourierTasks(t *testing.T) {
	f := newFixture(t)
	handler := NewQueryHandler(f.uow)
	orderID := helpers.SeedOrder(t, f.db, "sme-1", "area-1", "IN_TRANSIT")
	helpers.SeedLegs(t, f.db, orderID, []helpers.LegSpec{
		{Sequence: 1, Type: "PICKUP", OriginSME: "sme-1", DestWH: "hub-1", CourierID: "courier-bike", Status: "IN_PROGRESS"},
		{Sequence: 2, Type: "DELIVERY", OriginWH: "hub-1", ToReceiver: true, CourierID: "courier-bike", Status: "COMPLETED"},
	})

	resp, err := handler.Handle(context.Background(), GetCourierTasksQuery{CourierID: "courier-bike"})

	require.NoError(t, err)
	tasks := resp.([]*journey.Leg)
	require.Len(t, tasks, 1)
	assert.Equal(t, journey.LegInProgress, tasks[0].Status)
}

func TestGetDispatchSummary(t *testing.T) {
	f := newFixture(t)
	handler := NewQueryHandler(f.uow)
	helpers.SeedOrder(t, f.db, "sme-1", "area-1", "PENDING")
	helpers.SeedOrder(t, f.db, "sme-1", "area-1", "PENDING")
	helpers.SeedOrder(t, f.db, "sme-1", "area-1", "COMPLETED")

	resp, err := handler.Handle(context.Background(), GetDispatchSummaryQuery{AreaID: "area-1"})

	require.NoError(t, err)
	summary := resp.(*DispatchSummary)
	assert.Equal(t, int64(2), summary.OrdersByStatus[journey.OrderPending])
	assert.Equal(t, int64(1), summary.OrdersByStatus[journey.OrderCompleted])
}

func TestUpdateCourierLocation(t *testing.T) {
	f := newFixture(t)
	handler := NewUpdateCourierLocationHandler(f.uow, f.clock)

	_, err := handler.Handle(context.Background(), UpdateCourierLocationCommand{
		CourierID: "courier-bike",
		Lat:       21.0333,
		Lon:       105.8441,
	})
	require.NoError(t, err)

	c, err := f.uow.Couriers().FindByID(context.Background(), "courier-bike")
	require.NoError(t, err)
	require.NotNil(t, c.CurrentLat)
	assert.Equal(t, 21.0333, *c.CurrentLat)

	_, err = handler.Handle(context.Background(), UpdateCourierLocationCommand{CourierID: "courier-bike", Lat: 99, Lon: 200})
	assert.True(t, shared.IsKind(err, shared.KindValidation))
}
