package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/application/dispatch"
	"github.com/andrescamacho/dispatch-go/internal/application/incident"
	"github.com/andrescamacho/dispatch-go/internal/domain/courier"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/routing"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/domain/warehouse"
	"github.com/andrescamacho/dispatch-go/pkg/utils"
)

const (
	// nearestRadiusKm bounds the coarse haversine filter for pickup
	// candidates
	nearestRadiusKm = 15.0
	// defaultNearestLimit is how many candidates find_nearest_shippers
	// returns when the model gives no limit
	defaultNearestLimit = 3
	// defaultRebalanceKm is the neighbor radius when the model gives none
	defaultRebalanceKm = 10.0
)

// Executor runs typed tool requests against the rest of the application.
// Mutating tools go through the mediator like any other caller; read-only
// snapshots hit the repositories directly.
type Executor struct {
	mediator     common.Mediator
	uow          common.UnitOfWork
	provider     routing.Provider
	clock        shared.Clock
	rebalanceCap int
}

// NewExecutor creates the tool executor
func NewExecutor(mediator common.Mediator, uow common.UnitOfWork, provider routing.Provider, clock shared.Clock, rebalanceCap int) *Executor {
	return &Executor{mediator: mediator, uow: uow, provider: provider, clock: clock, rebalanceCap: rebalanceCap}
}

// Execute runs one typed tool request for an area and returns the tool
// result serialized for the model.
func (e *Executor) Execute(ctx context.Context, areaID string, req ToolRequest) (string, error) {
	switch r := req.(type) {
	case AreaOverviewRequest:
		overview, err := e.areaOverview(ctx, areaID)
		if err != nil {
			return "", err
		}
		return toJSON(overview)

	case PendingOrdersRequest:
		orders, err := e.pendingOrders(ctx, areaID)
		if err != nil {
			return "", err
		}
		if len(orders) == 0 {
			return SkipPhase1 + ": no pending orders in this area, proceed to the transfer phase", nil
		}
		return toJSON(orders)

	case AvailableShippersRequest:
		shippers, err := e.availableShippers(ctx, areaID)
		if err != nil {
			return "", err
		}
		return toJSON(shippers)

	case NearestShippersRequest:
		ranked, err := e.nearestShippers(ctx, areaID, r)
		if err != nil {
			return "", err
		}
		return toJSON(ranked)

	case BatchAssignRequest:
		resp, err := e.mediator.Send(ctx, dispatch.BatchAssignCommand{AreaID: areaID, Pairs: r.Assignments})
		if err != nil {
			return "", err
		}
		return toJSON(resp)

	case RebalanceRequest:
		moves, err := e.rebalanceShippers(ctx, areaID, r.MaxKm, r.MaxMoves)
		if err != nil {
			return "", err
		}
		return toJSON(map[string]any{"moved": len(moves), "moves": moves})

	case AreaTransferQueueRequest:
		queue, err := e.transferQueue(ctx, areaID, "")
		if err != nil {
			return "", err
		}
		return toJSON(queue)

	case HubTransferQueueRequest:
		queue, err := e.transferQueue(ctx, areaID, r.HubID)
		if err != nil {
			return "", err
		}
		return toJSON(queue)

	case TrucksInAreaRequest:
		trucks, err := e.trucksInArea(ctx, areaID)
		if err != nil {
			return "", err
		}
		return toJSON(trucks)

	case AssignBatchToTruckRequest:
		resp, err := e.assignBatchToTruck(ctx, r)
		if err != nil {
			return "", err
		}
		return toJSON(resp)

	case OptimizeHubRoutingRequest:
		resp, err := e.optimizeHubRouting(ctx, areaID, r.HubID)
		if err != nil {
			return "", err
		}
		return toJSON(resp)

	case ReportIncidentRequest:
		resp, err := e.mediator.Send(ctx, incident.ReportCommand{
			CourierID:   r.CourierID,
			Description: r.Description,
			Lat:         r.Lat,
			Lon:         r.Lon,
		})
		if err != nil {
			return "", err
		}
		return toJSON(resp)

	case SyncLoadsRequest:
		synced, err := e.syncWarehouseLoads(ctx, areaID)
		if err != nil {
			return "", err
		}
		return toJSON(map[string]any{"warehouses_synced": synced})

	default:
		return "", shared.NewValidationError("tool", fmt.Sprintf("unhandled tool request %T", req))
	}
}

// AreaOverview is the snapshot handed to the model at the start of a cycle
type AreaOverview struct {
	AreaID            string                        `json:"area_id"`
	OrdersByStatus    map[journey.OrderStatus]int64 `json:"orders_by_status"`
	AvailableCouriers int                           `json:"available_couriers"`
	CourierLoads      map[string]int                `json:"courier_loads"`
	WarehouseLoads    map[string]int                `json:"warehouse_loads"`
}

func (e *Executor) areaOverview(ctx context.Context, areaID string) (*AreaOverview, error) {
	counts, err := e.uow.Orders().CountByStatus(ctx, areaID)
	if err != nil {
		return nil, err
	}
	couriers, err := e.uow.Couriers().FindAvailableByArea(ctx, areaID, nil)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(couriers))
	for i, c := range couriers {
		ids[i] = c.ID
	}
	deliveries, err := e.uow.Legs().CountAssignedByType(ctx, ids, journey.LegDelivery)
	if err != nil {
		return nil, err
	}
	pickups, err := e.uow.Legs().CountAssignedByType(ctx, ids, journey.LegPickup)
	if err != nil {
		return nil, err
	}
	loads := make(map[string]int, len(ids))
	for _, id := range ids {
		loads[id] = deliveries[id] + pickups[id]
	}

	warehouses, err := e.uow.Warehouses().FindActiveByArea(ctx, areaID, nil)
	if err != nil {
		return nil, err
	}
	whLoads := make(map[string]int, len(warehouses))
	for _, w := range warehouses {
		whLoads[w.ID] = w.CurrentLoad
	}

	return &AreaOverview{
		AreaID:            areaID,
		OrdersByStatus:    counts,
		AvailableCouriers: len(couriers),
		CourierLoads:      loads,
		WarehouseLoads:    whLoads,
	}, nil
}

// PendingOrderView is one pending order with its pickup point
type PendingOrderView struct {
	OrderID   string  `json:"order_id"`
	PickupLat float64 `json:"pickup_lat"`
	PickupLon float64 `json:"pickup_lon"`
	WeightKg  float64 `json:"weight"`
}

// pendingOrders lists PENDING orders whose sender and receiver locations
// are both known, the precondition for a pickup assignment.
func (e *Executor) pendingOrders(ctx context.Context, areaID string) ([]PendingOrderView, error) {
	orders, err := e.uow.Orders().FindPendingByArea(ctx, areaID, 0)
	if err != nil {
		return nil, err
	}

	smeCoords := map[string]shared.Coordinate{}
	views := make([]PendingOrderView, 0, len(orders))
	for _, o := range orders {
		if _, ok := o.ReceiverCoordinate(); !ok {
			continue
		}
		coord, ok := smeCoords[o.SMEID]
		if !ok {
			sme, err := e.uow.SMEs().FindByID(ctx, o.SMEID)
			if err != nil {
				return nil, err
			}
			if coord, ok = sme.Coordinate(); !ok {
				continue
			}
			smeCoords[o.SMEID] = coord
		}
		views = append(views, PendingOrderView{
			OrderID:   o.ID,
			PickupLat: coord.Lat,
			PickupLon: coord.Lon,
			WeightKg:  o.WeightKg,
		})
	}
	return views, nil
}

// ShipperView is one courier candidate with its working position
type ShipperView struct {
	ShipperID      string  `json:"shipper_id"`
	Name           string  `json:"name"`
	Lat            float64 `json:"current_lat"`
	Lon            float64 `json:"current_lon"`
	Vehicle        string  `json:"vehicle"`
	LocationSource string  `json:"location_source"`
}

// availableShippers lists ONLINE motorbike couriers, preferring each
// courier's last GPS report and falling back to the area centroid.
func (e *Executor) availableShippers(ctx context.Context, areaID string) ([]ShipperView, error) {
	couriers, err := e.uow.Couriers().FindOnlineByArea(ctx, areaID,
		[]courier.VehicleType{courier.VehicleMotorbike})
	if err != nil {
		return nil, err
	}

	area, err := e.uow.Areas().FindByID(ctx, areaID)
	if err != nil {
		return nil, err
	}
	center, hasCenter := area.Center()

	views := make([]ShipperView, 0, len(couriers))
	for _, c := range couriers {
		view := ShipperView{ShipperID: c.ID, Name: c.Name, Vehicle: string(c.Vehicle)}
		if coord, ok := c.Coordinate(); ok {
			view.Lat, view.Lon = coord.Lat, coord.Lon
			view.LocationSource = "GPS"
		} else if hasCenter {
			view.Lat, view.Lon = center.Lat, center.Lon
			view.LocationSource = "AREA_CENTER"
		} else {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

// RankedShipperView is a courier candidate with its distance from the
// pickup point
type RankedShipperView struct {
	ShipperView
	DistanceKm float64 `json:"distance_km"`
}

// nearestShippers is the coarse phase-1 filter: haversine only, no routing
// calls, candidates within 15 km sorted nearest first.
func (e *Executor) nearestShippers(ctx context.Context, areaID string, req NearestShippersRequest) ([]RankedShipperView, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultNearestLimit
	}
	origin := shared.Coordinate{Lat: req.Lat, Lon: req.Lon}
	if !origin.Valid() {
		return nil, shared.NewValidationError("order_lat", "pickup coordinates out of bounds")
	}

	shippers, err := e.availableShippers(ctx, areaID)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedShipperView, 0, len(shippers))
	for _, s := range shippers {
		km := shared.HaversineKm(origin, shared.Coordinate{Lat: s.Lat, Lon: s.Lon})
		if km > nearestRadiusKm {
			continue
		}
		ranked = append(ranked, RankedShipperView{ShipperView: s, DistanceKm: utils.RoundKm(km)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].DistanceKm < ranked[j].DistanceKm })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// RebalanceMove records one courier pulled into the overloaded area
type RebalanceMove struct {
	CourierID  string  `json:"shipper_id"`
	FromArea   string  `json:"from_area"`
	ToArea     string  `json:"to_area"`
	NeighborKm float64 `json:"neighbor_km"`
}

// rebalanceShippers pulls idle ONLINE motorbike couriers from neighboring
// areas into the overloaded one by reassigning their area_id. Neighbors
// are other active areas whose centroid lies within maxKm of this area's
// centroid, nearest first; at most min(maxMoves, cap) couriers move.
func (e *Executor) rebalanceShippers(ctx context.Context, areaID string, maxKm float64, maxMoves int) ([]RebalanceMove, error) {
	if maxMoves <= 0 || maxMoves > e.rebalanceCap {
		maxMoves = e.rebalanceCap
	}
	if maxKm <= 0 {
		maxKm = defaultRebalanceKm
	}

	target, err := e.uow.Areas().FindByID(ctx, areaID)
	if err != nil {
		return nil, err
	}
	center, ok := target.Center()
	if !ok {
		return nil, shared.NewValidationError("area", "area "+areaID+" has no centroid")
	}

	areas, err := e.uow.Areas().FindAllActive(ctx)
	if err != nil {
		return nil, err
	}
	var others []*warehouse.Area
	var centers []shared.Coordinate
	for _, a := range areas {
		if a.ID == areaID {
			continue
		}
		c, ok := a.Center()
		if !ok {
			continue
		}
		others = append(others, a)
		centers = append(centers, c)
	}
	if len(others) == 0 {
		return []RebalanceMove{}, nil
	}

	// Neighbor discovery, so a matrix failure degrades to straight line
	elements, err := e.provider.DistanceMatrix(ctx, center, centers, routing.ModeBike)
	if err != nil {
		common.LoggerFromContext(ctx).Warn("distance matrix failed, ranking neighbors by straight line", "error", err)
		elements = make([]routing.MatrixElement, len(centers))
		for i, c := range centers {
			elements[i] = routing.MatrixElement{OK: true, DistanceKm: shared.HaversineKm(center, c)}
		}
	}

	type neighbor struct {
		area *warehouse.Area
		km   float64
	}
	var neighbors []neighbor
	for i, el := range elements {
		if !el.OK || el.DistanceKm > maxKm {
			continue
		}
		neighbors = append(neighbors, neighbor{area: others[i], km: el.DistanceKm})
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].km < neighbors[j].km })

	moves := []RebalanceMove{}
	err = e.uow.Execute(ctx, func(repos common.Repositories) error {
		for _, n := range neighbors {
			if len(moves) >= maxMoves {
				break
			}
			idle, err := repos.Couriers().FindOnlineByArea(ctx, n.area.ID,
				[]courier.VehicleType{courier.VehicleMotorbike})
			if err != nil {
				return err
			}
			for _, c := range idle {
				if len(moves) >= maxMoves {
					break
				}
				c.AreaID = areaID
				c.UpdatedAt = e.clock.Now()
				if err := repos.Couriers().Update(ctx, c); err != nil {
					return err
				}
				moves = append(moves, RebalanceMove{
					CourierID:  c.ID,
					FromArea:   n.area.ID,
					ToArea:     areaID,
					NeighborKm: utils.RoundKm(n.km),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moves, nil
}

// TransferQueueEntry is one transfer leg whose parcel sits at its hub
type TransferQueueEntry struct {
	LegID          int64    `json:"leg_id"`
	OrderID        string   `json:"order_id"`
	OriginHub      string   `json:"origin_hub"`
	DestinationSat string   `json:"destination_satellite"`
	EstimatedKm    *float64 `json:"estimated_km"`
}

// transferQueue lists PENDING transfer legs whose PICKUP leg is COMPLETED,
// either for one hub or for every hub in the area.
func (e *Executor) transferQueue(ctx context.Context, areaID, hubID string) ([]TransferQueueEntry, error) {
	var hubIDs []string
	if hubID != "" {
		hub, err := e.uow.Warehouses().FindByID(ctx, hubID)
		if err != nil {
			return nil, err
		}
		hubIDs = []string{hub.ID}
	} else {
		hubs, err := e.uow.Warehouses().FindActiveByArea(ctx, areaID, []warehouse.Type{warehouse.TypeHub})
		if err != nil {
			return nil, err
		}
		for _, h := range hubs {
			hubIDs = append(hubIDs, h.ID)
		}
	}

	legs, err := e.uow.Legs().FindPendingTransfersByOrigins(ctx, hubIDs, true)
	if err != nil {
		return nil, err
	}

	queue := make([]TransferQueueEntry, 0, len(legs))
	for _, l := range legs {
		entry := TransferQueueEntry{LegID: l.ID, OrderID: l.OrderID, EstimatedKm: l.EstimatedDistanceKm}
		if l.OriginWarehouseID != nil {
			entry.OriginHub = *l.OriginWarehouseID
		}
		if l.DestinationWarehouseID != nil {
			entry.DestinationSat = *l.DestinationWarehouseID
		}
		queue = append(queue, entry)
	}
	return queue, nil
}

// trucksInArea lists ONLINE truck couriers available for transfer batches
func (e *Executor) trucksInArea(ctx context.Context, areaID string) ([]ShipperView, error) {
	trucks, err := e.uow.Couriers().FindOnlineByArea(ctx, areaID,
		[]courier.VehicleType{courier.VehicleTruck})
	if err != nil {
		return nil, err
	}

	views := make([]ShipperView, 0, len(trucks))
	for _, c := range trucks {
		view := ShipperView{ShipperID: c.ID, Name: c.Name, Vehicle: string(c.Vehicle)}
		if coord, ok := c.Coordinate(); ok {
			view.Lat, view.Lon = coord.Lat, coord.Lon
			view.LocationSource = "GPS"
		}
		views = append(views, view)
	}
	return views, nil
}

// TruckBatchResult summarizes one truck batch assignment
type TruckBatchResult struct {
	TruckID  string            `json:"truck_id"`
	Assigned []int64           `json:"assigned"`
	Skipped  map[string]string `json:"skipped,omitempty"`
}

// assignBatchToTruck puts one truck on a batch of transfer legs. Legs whose
// parcel has not reached the hub, or that are no longer PENDING and
// unassigned, are skipped with a reason. The legs stay PENDING; the truck's
// warehouse-out scan starts them.
func (e *Executor) assignBatchToTruck(ctx context.Context, req AssignBatchToTruckRequest) (*TruckBatchResult, error) {
	result := &TruckBatchResult{TruckID: req.TruckID, Assigned: []int64{}, Skipped: map[string]string{}}

	err := e.uow.Execute(ctx, func(repos common.Repositories) error {
		truck, err := repos.Couriers().FindByID(ctx, req.TruckID)
		if err != nil {
			return err
		}
		if err := truck.EnsureCanServe(journey.LegTransfer); err != nil {
			return err
		}
		if !truck.Available() {
			return shared.NewInvalidStateError("truck " + truck.ID + " is " + string(truck.Status))
		}

		for _, legID := range req.LegIDs {
			key := fmt.Sprintf("%d", legID)
			leg, err := repos.Legs().FindByID(ctx, legID)
			if err != nil {
				if shared.IsKind(err, shared.KindNotFound) {
					result.Skipped[key] = "leg not found"
					continue
				}
				return err
			}
			if leg.Type != journey.LegTransfer {
				result.Skipped[key] = "not a transfer leg"
				continue
			}
			if leg.Status != journey.LegPending || leg.CourierID != nil {
				result.Skipped[key] = "leg is not pending and unassigned"
				continue
			}

			if _, err := repos.Orders().FindByIDForUpdate(ctx, leg.OrderID); err != nil {
				return err
			}
			siblings, err := repos.Legs().FindByOrder(ctx, leg.OrderID)
			if err != nil {
				return err
			}
			pickup := journey.LegOfType(siblings, journey.LegPickup)
			if pickup == nil || pickup.Status != journey.LegCompleted {
				result.Skipped[key] = "parcel has not reached the hub"
				continue
			}

			if err := leg.Assign(truck.ID, e.clock.Now()); err != nil {
				return err
			}
			if err := repos.Legs().Update(ctx, leg); err != nil {
				return err
			}
			result.Assigned = append(result.Assigned, leg.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(result.Skipped) == 0 {
		result.Skipped = nil
	}
	return result, nil
}

// HubRoutingResult summarizes one optimize_hub_routing run
type HubRoutingResult struct {
	Updated int `json:"updated"`
	Scanned int `json:"scanned"`
}

// optimizeHubRouting re-points each pending transfer to the active
// satellite nearest its receiver and refreshes the transfer and delivery
// estimates. One hub when hubID is set, every hub in the area otherwise.
func (e *Executor) optimizeHubRouting(ctx context.Context, areaID, hubID string) (*HubRoutingResult, error) {
	logger := common.LoggerFromContext(ctx)
	result := &HubRoutingResult{}

	err := e.uow.Execute(ctx, func(repos common.Repositories) error {
		satellites, err := repos.Warehouses().FindActiveByArea(ctx, areaID,
			[]warehouse.Type{warehouse.TypeSatellite, warehouse.TypeLocalDepot})
		if err != nil {
			return err
		}
		var located []*warehouse.Warehouse
		var satCoords []shared.Coordinate
		for _, s := range satellites {
			if c, ok := s.Coordinate(); ok {
				located = append(located, s)
				satCoords = append(satCoords, c)
			}
		}
		if len(located) == 0 {
			return shared.NewCapacityExhaustedError("no active satellite in area " + areaID)
		}

		var hubIDs []string
		if hubID != "" {
			hubIDs = []string{hubID}
		} else {
			hubs, err := repos.Warehouses().FindActiveByArea(ctx, areaID, []warehouse.Type{warehouse.TypeHub})
			if err != nil {
				return err
			}
			for _, h := range hubs {
				hubIDs = append(hubIDs, h.ID)
			}
		}

		transfers, err := repos.Legs().FindPendingTransfersByOrigins(ctx, hubIDs, false)
		if err != nil {
			return err
		}
		result.Scanned = len(transfers)

		hubCache := map[string]*warehouse.Warehouse{}
		transferKmCache := map[string]float64{}
		for _, transfer := range transfers {
			order, err := repos.Orders().FindByIDForUpdate(ctx, transfer.OrderID)
			if err != nil {
				return err
			}
			receiver, ok := order.ReceiverCoordinate()
			if !ok {
				continue
			}

			hub, ok := hubCache[*transfer.OriginWarehouseID]
			if !ok {
				hub, err = repos.Warehouses().FindByID(ctx, *transfer.OriginWarehouseID)
				if err != nil {
					return err
				}
				hubCache[hub.ID] = hub
			}
			hubCoord, ok := hub.Coordinate()
			if !ok {
				continue
			}

			// Last mile rides a bike, so the satellite choice does too
			elements, err := e.provider.DistanceMatrix(ctx, receiver, satCoords, routing.ModeBike)
			if err != nil {
				logger.Warn("distance matrix failed, keeping current routing",
					"order_id", order.ID, "error", err)
				continue
			}
			best := -1
			bestKm := 0.0
			for i, el := range elements {
				if !el.OK {
					continue
				}
				if best == -1 || el.DistanceKm < bestKm {
					best = i
					bestKm = el.DistanceKm
				}
			}
			if best == -1 {
				continue
			}
			sat := located[best]
			if transfer.DestinationWarehouseID != nil && *transfer.DestinationWarehouseID == sat.ID {
				continue
			}

			cacheKey := hub.ID + "|" + sat.ID
			transferKm, cached := transferKmCache[cacheKey]
			if !cached {
				satCoord, _ := sat.Coordinate()
				transferKm, err = e.provider.DistanceKm(ctx, hubCoord, satCoord, routing.ModeTruck)
				if err != nil {
					logger.Warn("transfer distance lookup failed, leaving estimate unset",
						"order_id", order.ID, "error", err)
					transferKm = 0
				}
				transferKmCache[cacheKey] = transferKm
			}

			satID := sat.ID
			transfer.DestinationWarehouseID = &satID
			transfer.EstimatedDistanceKm = nil
			if transferKm > 0 {
				rounded := utils.RoundKm(transferKm)
				transfer.EstimatedDistanceKm = &rounded
			}
			transfer.UpdatedAt = e.clock.Now()
			if err := repos.Legs().Update(ctx, transfer); err != nil {
				return err
			}

			siblings, err := repos.Legs().FindByOrder(ctx, transfer.OrderID)
			if err != nil {
				return err
			}
			if delivery := journey.LegOfType(siblings, journey.LegDelivery); delivery != nil && delivery.Status == journey.LegPending {
				delivery.OriginWarehouseID = &satID
				deliveryKm := utils.RoundKm(bestKm)
				delivery.EstimatedDistanceKm = &deliveryKm
				delivery.UpdatedAt = e.clock.Now()
				if err := repos.Legs().Update(ctx, delivery); err != nil {
					return err
				}
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// syncWarehouseLoads recomputes current_load from completed pickups
func (e *Executor) syncWarehouseLoads(ctx context.Context, areaID string) (int, error) {
	warehouses, err := e.uow.Warehouses().FindActiveByArea(ctx, areaID, nil)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, w := range warehouses {
		count, err := e.uow.Legs().CountCompletedPickupsByWarehouse(ctx, w.ID)
		if err != nil {
			return synced, err
		}
		if err := e.uow.Warehouses().SetCurrentLoad(ctx, w.ID, int(count)); err != nil {
			return synced, err
		}
		synced++
	}
	return synced, nil
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(b), nil
}
