package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/application/dispatch"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// SkipPhase1 is the sentinel answered when the area has no pending orders
// to assign.
const SkipPhase1 = "SKIP_PHASE_1"

const systemPrompt = `You are the dispatch optimizer for a last-mile logistics network.
Work in two phases for the given area.
Phase 1 (first mile): call get_pending_orders. If it returns the ` + SkipPhase1 + ` sentinel, move on. Otherwise call get_available_shippers or find_nearest_shippers to rank candidates, match each order to its nearest shipper without re-using a shipper, and commit the pairs with process_batch_assignments. If there are more pending orders than online shippers, call rebalance_shippers first.
Phase 2 (middle mile): call get_area_transfer_queue (or get_hub_transfer_queue). If legs are ready, call get_trucks_in_area and batch legs with the same destination satellite onto one truck via assign_batch_to_truck. Call optimize_hub_routing when destinations look wrong.
Call sync_warehouse_loads once per cycle. If a shipper is reported unable to continue, call report_incident and stop.
Be conservative: prefer no action over a doubtful one. When both phases are handled, summarize what you did in one sentence.`

// OptimizeCommand runs one optimization cycle for an area
type OptimizeCommand struct {
	AreaID string
}

// OptimizeResult summarizes one cycle
type OptimizeResult struct {
	AreaID     string
	Turns      int
	ToolsRun   []string
	Phase1Done bool
	Phase2Done bool
	Summary    string
	Fallback   bool
}

// Loop drives the language-model tool loop for one area at a time
type Loop struct {
	chat     ChatClient
	executor *Executor
	mediator common.Mediator
	maxTurns int
}

// NewLoop creates the optimization loop
func NewLoop(chat ChatClient, executor *Executor, mediator common.Mediator, maxTurns int) *Loop {
	return &Loop{chat: chat, executor: executor, mediator: mediator, maxTurns: maxTurns}
}

// Handle runs one cycle: seed the conversation with the area overview,
// then let the model call tools until both phases are done, an incident
// stops the cycle, or the turn budget runs out. A failing model degrades
// to the deterministic fallback so dispatch never stalls on the LM.
func (l *Loop) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(OptimizeCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type for agent.Loop")
	}
	logger := common.LoggerFromContext(ctx)

	overview, err := l.executor.Execute(ctx, cmd.AreaID, AreaOverviewRequest{})
	if err != nil {
		return nil, err
	}

	messages := []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Area %s overview: %s", cmd.AreaID, overview)},
	}

	result := OptimizeResult{AreaID: cmd.AreaID}
	for result.Turns < l.maxTurns {
		result.Turns++

		reply, err := l.chat.Complete(ctx, messages, toolSpecs())
		if err != nil {
			logger.Warn("language model unavailable, running deterministic fallback",
				"area_id", cmd.AreaID, "error", err)
			return l.fallback(ctx, cmd.AreaID, result)
		}
		messages = append(messages, *reply)

		if len(reply.ToolCalls) == 0 {
			content := strings.TrimSpace(reply.Content)
			if strings.Contains(content, SkipPhase1) {
				result.Phase1Done = true
				messages = append(messages, ChatMessage{
					Role:    "user",
					Content: "Phase 1 skipped. Proceed with phase 2 and the load sync.",
				})
				continue
			}
			result.Summary = content
			break
		}

		stop := false
		for _, call := range reply.ToolCalls {
			output := l.runTool(ctx, cmd.AreaID, call, &result)
			messages = append(messages, ChatMessage{
				Role:       "tool",
				ToolCallID: call.ID,
				Name:       call.Name,
				Content:    output,
			})
			if call.Name == toolReportIncident {
				stop = true
			}
		}
		if stop {
			result.Summary = "stopped after incident handling"
			break
		}
	}

	logger.Info("optimization cycle finished",
		"area_id", cmd.AreaID,
		"turns", result.Turns,
		"tools", strings.Join(result.ToolsRun, ","),
		"phase1", result.Phase1Done,
		"phase2", result.Phase2Done)
	return result, nil
}

// runTool decodes and executes one tool call; errors are reported back to
// the model as tool output rather than aborting the cycle.
func (l *Loop) runTool(ctx context.Context, areaID string, call ToolCall, result *OptimizeResult) string {
	req, err := DecodeToolCall(call)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}

	output, err := l.executor.Execute(ctx, areaID, req)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}

	result.ToolsRun = append(result.ToolsRun, call.Name)
	switch call.Name {
	case toolBatchAssign:
		result.Phase1Done = true
	case toolPendingOrders:
		if strings.Contains(output, SkipPhase1) {
			result.Phase1Done = true
		}
	case toolAssignBatchTruck, toolOptimizeHub:
		result.Phase2Done = true
	case toolAreaTransferQueue, toolHubTransferQueue:
		// An empty queue is the phase-2 terminal observation
		if strings.TrimSpace(output) == "[]" {
			result.Phase2Done = true
		}
	}
	return output
}

// fallback keeps the network moving without the model: greedy
// nearest-first pickup pairs, truck batches grouped by destination
// satellite, and a load refresh.
func (l *Loop) fallback(ctx context.Context, areaID string, result OptimizeResult) (OptimizeResult, error) {
	result.Fallback = true

	if err := l.fallbackPhase1(ctx, areaID, &result); err != nil {
		return result, err
	}
	if err := l.fallbackPhase2(ctx, areaID, &result); err != nil {
		return result, err
	}

	if _, err := l.executor.Execute(ctx, areaID, SyncLoadsRequest{}); err != nil {
		return result, err
	}
	result.ToolsRun = append(result.ToolsRun, toolSyncLoads)
	result.Summary = "deterministic fallback: greedy batch assignment, truck batching and load sync"
	return result, nil
}

// fallbackPhase1 pairs each pending order with its nearest unused courier
// and commits the batch, pulling in neighbors first when the area is
// overloaded.
func (l *Loop) fallbackPhase1(ctx context.Context, areaID string, result *OptimizeResult) error {
	orders, err := l.executor.pendingOrders(ctx, areaID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		result.Phase1Done = true
		return nil
	}

	shippers, err := l.executor.availableShippers(ctx, areaID)
	if err != nil {
		return err
	}
	if len(orders) > len(shippers) {
		if _, err := l.executor.rebalanceShippers(ctx, areaID, defaultRebalanceKm, 0); err != nil {
			return err
		}
		result.ToolsRun = append(result.ToolsRun, toolRebalance)
		if shippers, err = l.executor.availableShippers(ctx, areaID); err != nil {
			return err
		}
	}

	used := map[string]bool{}
	var pairs []dispatch.AssignmentPair
	for _, o := range orders {
		origin := shared.Coordinate{Lat: o.PickupLat, Lon: o.PickupLon}
		bestID := ""
		bestKm := 0.0
		for _, s := range shippers {
			if used[s.ShipperID] {
				continue
			}
			km := shared.HaversineKm(origin, shared.Coordinate{Lat: s.Lat, Lon: s.Lon})
			if km > nearestRadiusKm {
				continue
			}
			if bestID == "" || km < bestKm {
				bestID = s.ShipperID
				bestKm = km
			}
		}
		if bestID == "" {
			continue
		}
		used[bestID] = true
		pairs = append(pairs, dispatch.AssignmentPair{OrderID: o.OrderID, CourierID: bestID})
	}

	if len(pairs) > 0 {
		if _, err := l.mediator.Send(ctx, dispatch.BatchAssignCommand{AreaID: areaID, Pairs: pairs}); err != nil {
			return err
		}
		result.ToolsRun = append(result.ToolsRun, toolBatchAssign)
	}
	result.Phase1Done = true
	return nil
}

// fallbackPhase2 groups ready transfer legs by destination satellite and
// spreads the groups across the area's online trucks.
func (l *Loop) fallbackPhase2(ctx context.Context, areaID string, result *OptimizeResult) error {
	queue, err := l.executor.transferQueue(ctx, areaID, "")
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		result.Phase2Done = true
		return nil
	}

	trucks, err := l.executor.trucksInArea(ctx, areaID)
	if err != nil {
		return err
	}
	if len(trucks) == 0 {
		// Nothing to batch onto; leave the queue for the next tick
		result.Phase2Done = true
		return nil
	}

	byDest := map[string][]int64{}
	var dests []string
	for _, entry := range queue {
		if _, seen := byDest[entry.DestinationSat]; !seen {
			dests = append(dests, entry.DestinationSat)
		}
		byDest[entry.DestinationSat] = append(byDest[entry.DestinationSat], entry.LegID)
	}

	for i, dest := range dests {
		truck := trucks[i%len(trucks)]
		req := AssignBatchToTruckRequest{TruckID: truck.ShipperID, LegIDs: byDest[dest]}
		if _, err := l.executor.assignBatchToTruck(ctx, req); err != nil {
			return err
		}
		result.ToolsRun = append(result.ToolsRun, toolAssignBatchTruck)
	}
	result.Phase2Done = true
	return nil
}
