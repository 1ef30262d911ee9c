package agent

import (
	"encoding/json"
	"fmt"

	"github.com/andrescamacho/dispatch-go/internal/application/dispatch"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

// Tool names exposed to the model. The model references tools by name, so
// these strings are part of the contract.
const (
	toolAreaOverview      = "get_area_overview"
	toolPendingOrders     = "get_pending_orders"
	toolAvailableShippers = "get_available_shippers"
	toolNearestShippers   = "find_nearest_shippers"
	toolBatchAssign       = "process_batch_assignments"
	toolRebalance         = "rebalance_shippers"
	toolAreaTransferQueue = "get_area_transfer_queue"
	toolHubTransferQueue  = "get_hub_transfer_queue"
	toolTrucksInArea      = "get_trucks_in_area"
	toolAssignBatchTruck  = "assign_batch_to_truck"
	toolOptimizeHub       = "optimize_hub_routing"
	toolReportIncident    = "report_incident"
	toolSyncLoads         = "sync_warehouse_loads"
)

// ToolRequest is a decoded, typed tool invocation. Exactly one variant
// exists per tool, so executors never touch raw JSON.
type ToolRequest interface {
	toolName() string
}

// AreaOverviewRequest asks for the area snapshot
type AreaOverviewRequest struct{}

// PendingOrdersRequest lists the area's pending orders with pickup
// locations
type PendingOrdersRequest struct{}

// AvailableShippersRequest lists ONLINE motorbike couriers with their
// last-known GPS
type AvailableShippersRequest struct{}

// NearestShippersRequest ranks available couriers by straight-line
// distance from a pickup point
type NearestShippersRequest struct {
	Lat   float64 `json:"order_lat"`
	Lon   float64 `json:"order_lon"`
	Limit int     `json:"limit"`
}

// BatchAssignRequest commits a batch of (order, courier) pickup pairs
type BatchAssignRequest struct {
	Assignments []dispatch.AssignmentPair `json:"assignments"`
}

// RebalanceRequest pulls idle motorbike couriers in from neighboring areas
type RebalanceRequest struct {
	MaxKm    float64 `json:"max_km"`
	MaxMoves int     `json:"max_moves"`
}

// AreaTransferQueueRequest lists transfer legs ready to leave the area's
// hubs
type AreaTransferQueueRequest struct{}

// HubTransferQueueRequest lists transfer legs ready to leave one hub
type HubTransferQueueRequest struct {
	HubID string `json:"hub_id"`
}

// TrucksInAreaRequest lists ONLINE truck couriers in the area
type TrucksInAreaRequest struct{}

// AssignBatchToTruckRequest puts one truck on a batch of transfer legs
type AssignBatchToTruckRequest struct {
	TruckID string  `json:"truck_id"`
	LegIDs  []int64 `json:"leg_ids"`
}

// OptimizeHubRoutingRequest re-points pending transfers to the satellite
// nearest each receiver
type OptimizeHubRoutingRequest struct {
	HubID string `json:"hub_id"`
}

// ReportIncidentRequest takes a courier out of rotation
type ReportIncidentRequest struct {
	CourierID   string   `json:"shipper_id"`
	Description string   `json:"description"`
	Lat         *float64 `json:"current_lat"`
	Lon         *float64 `json:"current_lon"`
}

// SyncLoadsRequest recomputes warehouse current loads
type SyncLoadsRequest struct{}

func (AreaOverviewRequest) toolName() string       { return toolAreaOverview }
func (PendingOrdersRequest) toolName() string      { return toolPendingOrders }
func (AvailableShippersRequest) toolName() string  { return toolAvailableShippers }
func (NearestShippersRequest) toolName() string    { return toolNearestShippers }
func (BatchAssignRequest) toolName() string        { return toolBatchAssign }
func (RebalanceRequest) toolName() string          { return toolRebalance }
func (AreaTransferQueueRequest) toolName() string  { return toolAreaTransferQueue }
func (HubTransferQueueRequest) toolName() string   { return toolHubTransferQueue }
func (TrucksInAreaRequest) toolName() string       { return toolTrucksInArea }
func (AssignBatchToTruckRequest) toolName() string { return toolAssignBatchTruck }
func (OptimizeHubRoutingRequest) toolName() string { return toolOptimizeHub }
func (ReportIncidentRequest) toolName() string     { return toolReportIncident }
func (SyncLoadsRequest) toolName() string          { return toolSyncLoads }

// DecodeToolCall turns a model tool call into its typed request
func DecodeToolCall(call ToolCall) (ToolRequest, error) {
	raw := call.Arguments
	if raw == "" {
		raw = "{}"
	}
	badArgs := func(err error) error {
		return shared.NewValidationError("arguments", fmt.Sprintf("bad %s arguments: %v", call.Name, err))
	}

	switch call.Name {
	case toolAreaOverview:
		return AreaOverviewRequest{}, nil
	case toolPendingOrders:
		return PendingOrdersRequest{}, nil
	case toolAvailableShippers:
		return AvailableShippersRequest{}, nil
	case toolNearestShippers:
		var req NearestShippersRequest
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return nil, badArgs(err)
		}
		return req, nil
	case toolBatchAssign:
		var req BatchAssignRequest
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return nil, badArgs(err)
		}
		if len(req.Assignments) == 0 {
			return nil, shared.NewValidationError("assignments", "at least one (order_id, shipper_id) pair is required")
		}
		for _, p := range req.Assignments {
			if p.OrderID == "" || p.CourierID == "" {
				return nil, shared.NewValidationError("assignments", "each pair needs order_id and shipper_id")
			}
		}
		return req, nil
	case toolRebalance:
		var req RebalanceRequest
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return nil, badArgs(err)
		}
		return req, nil
	case toolAreaTransferQueue:
		return AreaTransferQueueRequest{}, nil
	case toolHubTransferQueue:
		var req HubTransferQueueRequest
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return nil, badArgs(err)
		}
		if req.HubID == "" {
			return nil, shared.NewValidationError("hub_id", "is required")
		}
		return req, nil
	case toolTrucksInArea:
		return TrucksInAreaRequest{}, nil
	case toolAssignBatchTruck:
		var req AssignBatchToTruckRequest
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return nil, badArgs(err)
		}
		if req.TruckID == "" {
			return nil, shared.NewValidationError("truck_id", "is required")
		}
		if len(req.LegIDs) == 0 {
			return nil, shared.NewValidationError("leg_ids", "at least one leg is required")
		}
		return req, nil
	case toolOptimizeHub:
		var req OptimizeHubRoutingRequest
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return nil, badArgs(err)
		}
		return req, nil
	case toolReportIncident:
		var req ReportIncidentRequest
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return nil, badArgs(err)
		}
		if req.CourierID == "" {
			return nil, shared.NewValidationError("shipper_id", "is required")
		}
		return req, nil
	case toolSyncLoads:
		return SyncLoadsRequest{}, nil
	default:
		return nil, shared.NewValidationError("tool", fmt.Sprintf("unknown tool %q", call.Name))
	}
}

// toolSpecs advertises the tool set to the model
func toolSpecs() []ToolSpec {
	return []ToolSpec{
		{
			Name:        toolAreaOverview,
			Description: "Get the current snapshot of the area: pending orders, courier availability, warehouse loads.",
			Parameters:  objectSchema(nil, nil),
		},
		{
			Name:        toolPendingOrders,
			Description: "List pending orders in the area with their pickup coordinates and weights. Returns the SKIP_PHASE_1 sentinel when none exist.",
			Parameters:  objectSchema(nil, nil),
		},
		{
			Name:        toolAvailableShippers,
			Description: "List ONLINE motorbike shippers in the area with their real-time GPS, falling back to the area centroid.",
			Parameters:  objectSchema(nil, nil),
		},
		{
			Name:        toolNearestShippers,
			Description: "Rank available shippers by straight-line distance from a pickup point, within 15 km.",
			Parameters: objectSchema(map[string]any{
				"order_lat": map[string]any{"type": "number"},
				"order_lon": map[string]any{"type": "number"},
				"limit":     map[string]any{"type": "integer", "description": "How many candidates to return. Default 3."},
			}, []string{"order_lat", "order_lon"}),
		},
		{
			Name:        toolBatchAssign,
			Description: "Commit a batch of (order_id, shipper_id) pickup assignments. Plans each order's journey and puts the shipper on the pickup leg.",
			Parameters: objectSchema(map[string]any{
				"assignments": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"order_id":   map[string]any{"type": "string"},
							"shipper_id": map[string]any{"type": "string"},
						},
						"required": []string{"order_id", "shipper_id"},
					},
				},
			}, []string{"assignments"}),
		},
		{
			Name:        toolRebalance,
			Description: "Move up to 5 idle ONLINE motorbike shippers from neighboring areas into this overloaded area.",
			Parameters: objectSchema(map[string]any{
				"max_km":    map[string]any{"type": "number", "description": "Neighbor radius from this area's centroid. Default 10."},
				"max_moves": map[string]any{"type": "integer", "description": "Upper bound on moves, capped at 5."},
			}, nil),
		},
		{
			Name:        toolAreaTransferQueue,
			Description: "List PENDING transfer legs at the area's hubs whose parcel has physically arrived (pickup completed).",
			Parameters:  objectSchema(nil, nil),
		},
		{
			Name:        toolHubTransferQueue,
			Description: "List PENDING transfer legs ready to leave one hub (pickup completed).",
			Parameters: objectSchema(map[string]any{
				"hub_id": map[string]any{"type": "string"},
			}, []string{"hub_id"}),
		},
		{
			Name:        toolTrucksInArea,
			Description: "List ONLINE truck shippers in the area.",
			Parameters:  objectSchema(nil, nil),
		},
		{
			Name:        toolAssignBatchTruck,
			Description: "Assign one truck to a batch of ready transfer legs. Legs stay PENDING until the truck scans out of the hub.",
			Parameters: objectSchema(map[string]any{
				"truck_id": map[string]any{"type": "string"},
				"leg_ids":  map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
			}, []string{"truck_id", "leg_ids"}),
		},
		{
			Name:        toolOptimizeHub,
			Description: "Re-point pending transfers to the satellite nearest each receiver and refresh their distances. Scans every hub in the area unless hub_id is given.",
			Parameters: objectSchema(map[string]any{
				"hub_id": map[string]any{"type": "string"},
			}, nil),
		},
		{
			Name:        toolReportIncident,
			Description: "Report that a shipper cannot continue. Reroutes their legs and stops this optimization cycle.",
			Parameters: objectSchema(map[string]any{
				"shipper_id":  map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
				"current_lat": map[string]any{"type": "number"},
				"current_lon": map[string]any{"type": "number"},
			}, []string{"shipper_id", "description"}),
		},
		{
			Name:        toolSyncLoads,
			Description: "Recompute warehouse current_load values from completed pickups.",
			Parameters:  objectSchema(nil, nil),
		},
	}
}

func objectSchema(props map[string]any, required []string) map[string]any {
	if props == nil {
		props = map[string]any{}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
