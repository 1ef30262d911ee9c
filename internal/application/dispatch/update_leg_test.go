package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/routing"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/pkg/utils"
	"github.com/andrescamacho/dispatch-go/test/helpers"
)

func TestUpdateLegAssign(t *testing.T) {
	// Arrange
	f := newFixture(t)
	handler := NewUpdateLegHandler(f.uow, f.provider, f.clock)
	_, legIDs := seedPlannedOrder(t, f)

	// Act
	resp, err := handler.Handle(context.Background(), UpdateLegCommand{LegID: legIDs[0], CourierID: "courier-bike"})

	// Assert
	require.NoError(t, err)
	leg := resp.(*journey.Leg)
	require.NotNil(t, leg.CourierID)
	assert.Equal(t, "courier-bike", *leg.CourierID)
}

func TestUpdateLegAssignChecksVehicle(t *testing.T) {
	f := newFixture(t)
	handler := NewUpdateLegHandler(f.uow, f.provider, f.clock)
	_, legIDs := seedPlannedOrder(t, f)

	_, err := handler.Handle(context.Background(), UpdateLegCommand{LegID: legIDs[1], CourierID: "courier-bike"})

	assert.True(t, shared.IsKind(err, shared.KindInvalidState))
}

func TestUpdateLegUnassignAndNote(t *testing.T) {
	f := newFixture(t)
	handler := NewUpdateLegHandler(f.uow, f.provider, f.clock)
	_, legIDs := seedPlannedOrder(t, f)

	_, err := handler.Handle(context.Background(), UpdateLegCommand{LegID: legIDs[0], CourierID: "courier-bike"})
	require.NoError(t, err)

	resp, err := handler.Handle(context.Background(), UpdateLegCommand{
		LegID:    legIDs[0],
		Unassign: true,
		Note:     utils.Ptr("handed back by dispatcher"),
	})
	require.NoError(t, err)
	leg := resp.(*journey.Leg)
	assert.Nil(t, leg.CourierID)
	assert.Equal(t, "handed back by dispatcher", leg.Note)
}

func TestUpdateLegRejectsConflictingEdit(t *testing.T) {
	f := newFixture(t)
	handler := NewUpdateLegHandler(f.uow, f.provider, f.clock)
	_, legIDs := seedPlannedOrder(t, f)

	_, err := handler.Handle(context.Background(), UpdateLegCommand{LegID: legIDs[0], CourierID: "courier-bike", Unassign: true})

	assert.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestUpdateLegStartedLegImmutable(t *testing.T) {
	f := newFixture(t)
	handler := NewUpdateLegHandler(f.uow, f.provider, f.clock)
	orderID := helpers.SeedOrder(t, f.db, "sme-1", "area-1", "IN_TRANSIT")
	legIDs := helpers.SeedLegs(t, f.db, orderID, []helpers.LegSpec{
		{Sequence: 1, Type: "PICKUP", OriginSME: "sme-1", DestWH: "hub-1", CourierID: "courier-bike", Status: "IN_PROGRESS"},
		{Sequence: 2, Type: "DELIVERY", OriginWH: "hub-1", ToReceiver: true, Status: "PENDING"},
	})

	_, err := handler.Handle(context.Background(), UpdateLegCommand{LegID: legIDs[0], Unassign: true})

	assert.True(t, shared.IsKind(err, shared.KindInvalidState))
}

func TestUpdateLegMoveDestinationRecomputesWithCourierVehicle(t *testing.T) {
	// Arrange
	f := newFixture(t)
	handler := NewUpdateLegHandler(f.uow, f.provider, f.clock)
	helpers.SeedWarehouse(t, f.db, "sat-2", "area-1", "SATELLITE", 21.0050, 105.8600)
	_, legIDs := seedPlannedOrder(t, f)
	_, err := handler.Handle(context.Background(), UpdateLegCommand{LegID: legIDs[1], CourierID: "courier-truck"})
	require.NoError(t, err)

	// Act
	resp, err := handler.Handle(context.Background(), UpdateLegCommand{
		LegID:                  legIDs[1],
		DestinationWarehouseID: utils.Ptr("sat-2"),
	})

	// Assert
	require.NoError(t, err)
	leg := resp.(*journey.Leg)
	require.NotNil(t, leg.DestinationWarehouseID)
	assert.Equal(t, "sat-2", *leg.DestinationWarehouseID)
	require.NotNil(t, leg.EstimatedDistanceKm)
	assert.Greater(t, *leg.EstimatedDistanceKm, 0.0)
	require.NotEmpty(t, f.provider.DistanceModes)
	assert.Equal(t, routing.ModeTruck, f.provider.DistanceModes[len(f.provider.DistanceModes)-1])
}

func TestUpdateLegMoveOriginDefaultsToMotorbike(t *testing.T) {
	f := newFixture(t)
	handler := NewUpdateLegHandler(f.uow, f.provider, f.clock)
	helpers.SeedWarehouse(t, f.db, "sat-2", "area-1", "SATELLITE", 21.0050, 105.8600)
	_, legIDs := seedPlannedOrder(t, f)

	resp, err := handler.Handle(context.Background(), UpdateLegCommand{
		LegID:             legIDs[2],
		OriginWarehouseID: utils.Ptr("sat-2"),
	})

	require.NoError(t, err)
	leg := resp.(*journey.Leg)
	require.NotNil(t, leg.EstimatedDistanceKm)
	require.NotEmpty(t, f.provider.DistanceModes)
	assert.Equal(t, routing.ModeBike, f.provider.DistanceModes[len(f.provider.DistanceModes)-1])
}

func TestUpdateLegMoveEndpointDistanceFailureLeavesEstimateUnset(t *testing.T) {
	f := newFixture(t)
	handler := NewUpdateLegHandler(f.uow, f.provider, f.clock)
	helpers.SeedWarehouse(t, f.db, "sat-2", "area-1", "SATELLITE", 21.0050, 105.8600)
	_, legIDs := seedPlannedOrder(t, f)
	f.provider.DistanceErr = errors.New("osrm unavailable")

	resp, err := handler.Handle(context.Background(), UpdateLegCommand{
		LegID:                  legIDs[1],
		DestinationWarehouseID: utils.Ptr("sat-2"),
	})

	require.NoError(t, err)
	leg := resp.(*journey.Leg)
	assert.Equal(t, "sat-2", *leg.DestinationWarehouseID)
	assert.Nil(t, leg.EstimatedDistanceKm)
}

func TestUpdateLegMoveEndpointRejectsMissingWarehouse(t *testing.T) {
	f := newFixture(t)
	handler := NewUpdateLegHandler(f.uow, f.provider, f.clock)
	_, legIDs := seedPlannedOrder(t, f)

	_, err := handler.Handle(context.Background(), UpdateLegCommand{
		LegID:                  legIDs[1],
		DestinationWarehouseID: utils.Ptr("no-such-wh"),
	})

	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestUpdateLegStartRequiresCourier(t *testing.T) {
	f := newFixture(t)
	handler := NewUpdateLegHandler(f.uow, f.provider, f.clock)
	_, legIDs := seedPlannedOrder(t, f)

	_, err := handler.Handle(context.Background(), UpdateLegCommand{
		LegID:  legIDs[0],
		Status: utils.Ptr(journey.LegInProgress),
	})

	assert.True(t, shared.IsKind(err, shared.KindInvalidState))
}

func TestUpdateLegAssignAndStart(t *testing.T) {
	f := newFixture(t)
	handler := NewUpdateLegHandler(f.uow, f.provider, f.clock)
	_, legIDs := seedPlannedOrder(t, f)

	resp, err := handler.Handle(context.Background(), UpdateLegCommand{
		LegID:     legIDs[0],
		CourierID: "courier-bike",
		Status:    utils.Ptr(journey.LegInProgress),
	})

	require.NoError(t, err)
	leg := resp.(*journey.Leg)
	assert.Equal(t, journey.LegInProgress, leg.Status)
	require.NotNil(t, leg.StartedAt)
}

func TestUpdateLegRejectsCompletedLeg(t *testing.T) {
	f := newFixture(t)
	handler := NewUpdateLegHandler(f.uow, f.provider, f.clock)
	orderID := helpers.SeedOrder(t, f.db, "sme-1", "area-1", "IN_TRANSIT")
	legIDs := helpers.SeedLegs(t, f.db, orderID, []helpers.LegSpec{
		{Sequence: 1, Type: "PICKUP", OriginSME: "sme-1", DestWH: "hub-1", CourierID: "courier-bike", Status: "COMPLETED"},
		{Sequence: 2, Type: "DELIVERY", OriginWH: "hub-1", ToReceiver: true, Status: "PENDING"},
	})

	_, err := handler.Handle(context.Background(), UpdateLegCommand{LegID: legIDs[0], Note: utils.Ptr("late edit")})

	assert.True(t, shared.IsKind(err, shared.KindInvalidState))
}
