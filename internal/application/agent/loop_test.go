package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/andrescamacho/dispatch-go/internal/adapters/persistence"
	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/application/dispatch"
	"github.com/andrescamacho/dispatch-go/internal/application/incident"
	"github.com/andrescamacho/dispatch-go/internal/application/planner"
	"github.com/andrescamacho/dispatch-go/internal/domain/courier"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/test/helpers"
)

// scriptedChat replays a fixed sequence of model replies
type scriptedChat struct {
	replies []ChatMessage
	err     error
	calls   int
}

func (s *scriptedChat) Complete(ctx context.Context, messages []ChatMessage, tools []ToolSpec) (*ChatMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.calls >= len(s.replies) {
		return &ChatMessage{Role: "assistant", Content: "done"}, nil
	}
	reply := s.replies[s.calls]
	s.calls++
	return &reply, nil
}

type loopFixture struct {
	executor *Executor
	mediator common.Mediator
	db       *gorm.DB
	uow      *persistence.GormUnitOfWork
	sink     *helpers.RecorderSink
}

func newLoopFixture(t *testing.T) *loopFixture {
	t.Helper()
	db := helpers.NewTestDB(t)
	uow := persistence.NewUnitOfWork(db)
	clock := shared.NewMockClock(helpers.FixedTime)
	provider := &helpers.StubRoutingProvider{}
	sink := &helpers.RecorderSink{}

	mediator := common.NewMediator()
	batch := dispatch.NewBatchAssignHandler(uow, planner.NewPlanner(provider, clock), clock)
	require.NoError(t, common.RegisterHandler[dispatch.BatchAssignCommand](mediator, batch))
	require.NoError(t, common.RegisterHandler[incident.ReportCommand](mediator, incident.NewHandler(uow, sink, clock)))

	executor := NewExecutor(mediator, uow, provider, clock, 5)

	helpers.SeedArea(t, db, "area-1")
	helpers.SeedSME(t, db, "sme-1", "area-1", 21.0400, 105.8300)
	helpers.SeedWarehouse(t, db, "hub-1", "area-1", "HUB", 21.0300, 105.8400)
	helpers.SeedWarehouse(t, db, "sat-1", "area-1", "SATELLITE", 21.0150, 105.8520)

	return &loopFixture{executor: executor, mediator: mediator, db: db, uow: uow, sink: sink}
}

func (f *loopFixture) run(t *testing.T, chat ChatClient) OptimizeResult {
	t.Helper()
	loop := NewLoop(chat, f.executor, f.mediator, 6)
	resp, err := loop.Handle(context.Background(), OptimizeCommand{AreaID: "area-1"})
	require.NoError(t, err)
	return resp.(OptimizeResult)
}

func TestLoopTwoPhaseCycle(t *testing.T) {
	// Arrange: one pending order, one free courier, and a model that walks
	// both phases then summarizes.
	f := newLoopFixture(t)
	helpers.SeedCourierAt(t, f.db, "courier-bike", "area-1", "MOTORBIKE", "ONLINE", 21.0395, 105.8305)
	orderID := helpers.SeedOrder(t, f.db, "sme-1", "area-1", "PENDING")

	chat := &scriptedChat{replies: []ChatMessage{
		{Role: "assistant", ToolCalls: []ToolCall{
			{ID: "call-1", Name: "process_batch_assignments",
				Arguments: fmt.Sprintf(`{"assignments":[{"order_id":%q,"shipper_id":"courier-bike"}]}`, orderID)},
		}},
		{Role: "assistant", ToolCalls: []ToolCall{
			{ID: "call-2", Name: "get_area_transfer_queue"},
			{ID: "call-3", Name: "sync_warehouse_loads"},
		}},
		{Role: "assistant", Content: "Assigned one pending order and synced warehouse loads."},
	}}

	// Act
	result := f.run(t, chat)

	// Assert
	assert.Equal(t, 3, result.Turns)
	assert.True(t, result.Phase1Done)
	assert.True(t, result.Phase2Done)
	assert.False(t, result.Fallback)
	assert.Equal(t, []string{"process_batch_assignments", "get_area_transfer_queue", "sync_warehouse_loads"}, result.ToolsRun)
	assert.Equal(t, "Assigned one pending order and synced warehouse loads.", result.Summary)

	// The batch tool really planned and assigned the order
	legs, err := f.uow.Legs().FindByOrder(context.Background(), orderID)
	require.NoError(t, err)
	require.NotEmpty(t, legs)
	pickup := journey.LegOfType(legs, journey.LegPickup)
	require.NotNil(t, pickup.CourierID)
	assert.Equal(t, "courier-bike", *pickup.CourierID)
}

func TestLoopSkipsPhaseOne(t *testing.T) {
	f := newLoopFixture(t)
	chat := &scriptedChat{replies: []ChatMessage{
		{Role: "assistant", Content: SkipPhase1},
		{Role: "assistant", ToolCalls: []ToolCall{
			{ID: "call-1", Name: "sync_warehouse_loads"},
		}},
		{Role: "assistant", Content: "Nothing pending; loads are fresh."},
	}}

	result := f.run(t, chat)

	assert.Equal(t, 3, result.Turns)
	assert.True(t, result.Phase1Done)
	assert.Equal(t, []string{"sync_warehouse_loads"}, result.ToolsRun)
	assert.Equal(t, "Nothing pending; loads are fresh.", result.Summary)
}

func TestLoopStopsAfterIncident(t *testing.T) {
	// Arrange: the model reports a courier down on its first turn
	f := newLoopFixture(t)
	helpers.SeedCourier(t, f.db, "courier-down", "area-1", "MOTORBIKE", "DELIVERING")
	chat := &scriptedChat{replies: []ChatMessage{
		{Role: "assistant", ToolCalls: []ToolCall{
			{ID: "call-1", Name: "report_incident", Arguments: `{"shipper_id":"courier-down","description":"crash"}`},
		}},
	}}

	// Act
	result := f.run(t, chat)

	// Assert: cycle ends immediately and the courier is out of rotation
	assert.Equal(t, 1, result.Turns)
	assert.Equal(t, "stopped after incident handling", result.Summary)
	assert.Contains(t, result.ToolsRun, "report_incident")

	down, err := f.uow.Couriers().FindByID(context.Background(), "courier-down")
	require.NoError(t, err)
	assert.Equal(t, courier.StatusOffline, down.Status)
}

func TestLoopFallsBackWhenModelUnavailable(t *testing.T) {
	// Arrange: one pending order, one courier, a dead model
	f := newLoopFixture(t)
	helpers.SeedCourierAt(t, f.db, "courier-bike", "area-1", "MOTORBIKE", "ONLINE", 21.0395, 105.8305)
	orderID := helpers.SeedOrder(t, f.db, "sme-1", "area-1", "PENDING")
	chat := &scriptedChat{err: errors.New("gateway timeout")}

	// Act
	result := f.run(t, chat)

	// Assert: the deterministic fallback still assigned the pickup
	assert.True(t, result.Fallback)
	assert.True(t, result.Phase1Done)
	assert.True(t, result.Phase2Done)
	assert.Equal(t, []string{"process_batch_assignments", "sync_warehouse_loads"}, result.ToolsRun)
	assert.Equal(t, "deterministic fallback: greedy batch assignment, truck batching and load sync", result.Summary)

	legs, err := f.uow.Legs().FindByOrder(context.Background(), orderID)
	require.NoError(t, err)
	require.NotEmpty(t, legs)
	pickup := journey.LegOfType(legs, journey.LegPickup)
	require.NotNil(t, pickup.CourierID)
	assert.Equal(t, "courier-bike", *pickup.CourierID)
}

func TestLoopFallbackBatchesTransfersByDestination(t *testing.T) {
	// Arrange: two parcels at the hub bound for the same satellite, one
	// truck in the area, no pending orders and no model.
	f := newLoopFixture(t)
	helpers.SeedCourier(t, f.db, "truck-1", "area-1", "TRUCK", "ONLINE")

	var transferIDs []int64
	for i := 0; i < 2; i++ {
		orderID := helpers.SeedOrder(t, f.db, "sme-1", "area-1", "AT_WAREHOUSE")
		ids := helpers.SeedLegs(t, f.db, orderID, []helpers.LegSpec{
			{Sequence: 1, Type: "PICKUP", OriginSME: "sme-1", DestWH: "hub-1", Status: "COMPLETED"},
			{Sequence: 2, Type: "TRANSFER", OriginWH: "hub-1", DestWH: "sat-1", Status: "PENDING"},
			{Sequence: 3, Type: "DELIVERY", OriginWH: "sat-1", ToReceiver: true, Status: "PENDING"},
		})
		transferIDs = append(transferIDs, ids[1])
	}
	chat := &scriptedChat{err: errors.New("gateway timeout")}

	// Act
	result := f.run(t, chat)

	// Assert: both transfers ride the same truck and wait for its scan
	assert.True(t, result.Fallback)
	assert.True(t, result.Phase2Done)
	assert.Contains(t, result.ToolsRun, "assign_batch_to_truck")

	for _, id := range transferIDs {
		leg, err := f.uow.Legs().FindByID(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, leg.CourierID)
		assert.Equal(t, "truck-1", *leg.CourierID)
		assert.Equal(t, journey.LegPending, leg.Status)
	}
}

func TestLoopToolErrorReportedToModel(t *testing.T) {
	// Arrange: the model asks for a hub that does not exist, recovers, and
	// summarizes.
	f := newLoopFixture(t)
	chat := &scriptedChat{replies: []ChatMessage{
		{Role: "assistant", ToolCalls: []ToolCall{
			{ID: "call-1", Name: "get_hub_transfer_queue", Arguments: `{"hub_id":"hub-ghost"}`},
		}},
		{Role: "assistant", Content: "Hub not found; nothing to do."},
	}}

	// Act
	result := f.run(t, chat)

	// Assert: the failed call is not counted as a run tool
	assert.Equal(t, 2, result.Turns)
	assert.Empty(t, result.ToolsRun)
	assert.Equal(t, "Hub not found; nothing to do.", result.Summary)
}
