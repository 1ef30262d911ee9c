package planner

import (
	"context"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/routing"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/domain/warehouse"
	"github.com/andrescamacho/dispatch-go/pkg/utils"
)

// Planner builds the leg template for an order: SME -> entry hub
// [-> exit satellite] -> receiver. The transfer leg is emitted only when the
// entry and exit warehouses differ.
type Planner struct {
	provider routing.Provider
	clock    shared.Clock
}

// NewPlanner creates a leg planner
func NewPlanner(provider routing.Provider, clock shared.Clock) *Planner {
	return &Planner{provider: provider, clock: clock}
}

// Plan is the planner output: the legs in sequence order plus the summed
// estimated distance. Legs are not yet persisted.
type Plan struct {
	Legs    []*journey.Leg
	TotalKm float64
}

// PlanJourney selects the entry hub nearest the sender and the exit
// satellite nearest the receiver, then emits the two-or-three leg template.
// Missing sender/receiver coordinates are geocoded and written back.
func (p *Planner) PlanJourney(ctx context.Context, repos common.Repositories, order *journey.Order) (*Plan, error) {
	logger := common.LoggerFromContext(ctx)

	sme, err := repos.SMEs().FindByID(ctx, order.SMEID)
	if err != nil {
		return nil, err
	}

	smeCoord, err := p.smeCoordinate(ctx, repos, sme)
	if err != nil {
		return nil, err
	}
	receiverCoord, err := p.receiverCoordinate(ctx, repos, order)
	if err != nil {
		return nil, err
	}

	hubs, err := p.candidates(ctx, repos, order.AreaID, []warehouse.Type{warehouse.TypeHub})
	if err != nil {
		return nil, err
	}
	satellites, err := p.candidates(ctx, repos, order.AreaID,
		[]warehouse.Type{warehouse.TypeSatellite, warehouse.TypeLocalDepot})
	if err != nil {
		return nil, err
	}
	if len(hubs) == 0 {
		return nil, shared.NewCapacityExhaustedError("no active entry hub in area " + order.AreaID)
	}
	if len(satellites) == 0 {
		return nil, shared.NewCapacityExhaustedError("no active exit satellite in area " + order.AreaID)
	}

	// First-mile and last-mile run on motorbikes, so both warehouse
	// selections use bike distances.
	entry, pickupKm, err := p.nearest(ctx, smeCoord, hubs, routing.ModeBike)
	if err != nil {
		return nil, err
	}
	exit, _, err := p.nearest(ctx, receiverCoord, satellites, routing.ModeBike)
	if err != nil {
		return nil, err
	}
	for _, w := range []*warehouse.Warehouse{entry, exit} {
		if !w.HasCapacity() {
			logger.Warn("selected warehouse is over capacity",
				"warehouse_id", w.ID, "load", w.CurrentLoad, "limit", w.CapacityLimit)
		}
	}

	plan := p.buildPlan(ctx, order, sme.ID, entry, exit, pickupKm, receiverCoord)

	logger.Info("journey planned",
		"order_id", order.ID,
		"entry_hub", entry.ID,
		"exit_satellite", exit.ID,
		"legs", len(plan.Legs),
		"total_km", plan.TotalKm)

	return plan, nil
}

// PlanWithWarehouses builds the leg template for explicitly chosen entry and
// exit warehouses, as a dispatcher's manual assignment supplies them. The
// pickup distance is looked up here instead of coming from candidate
// selection.
func (p *Planner) PlanWithWarehouses(ctx context.Context, repos common.Repositories, order *journey.Order, entry, exit *warehouse.Warehouse) (*Plan, error) {
	sme, err := repos.SMEs().FindByID(ctx, order.SMEID)
	if err != nil {
		return nil, err
	}
	smeCoord, err := p.smeCoordinate(ctx, repos, sme)
	if err != nil {
		return nil, err
	}
	receiverCoord, err := p.receiverCoordinate(ctx, repos, order)
	if err != nil {
		return nil, err
	}

	var pickupKm float64
	if entryCoord, ok := entry.Coordinate(); ok {
		pickupKm = p.distance(ctx, smeCoord, entryCoord, routing.ModeBike)
	}
	return p.buildPlan(ctx, order, sme.ID, entry, exit, pickupKm, receiverCoord), nil
}

// buildPlan emits the two-or-three leg template with per-leg distances.
// Transfer legs ride trucks, pickup and delivery ride bikes. A distance the
// provider cannot compute is left NULL, never estimated by straight line.
func (p *Planner) buildPlan(ctx context.Context, order *journey.Order, smeID string, entry, exit *warehouse.Warehouse, pickupKm float64, receiverCoord shared.Coordinate) *Plan {
	now := p.clock.Now()
	var legs []*journey.Leg
	total := pickupKm

	pickup := journey.NewPickupLeg(order.ID, smeID, entry.ID, now)
	setLegDistance(pickup, pickupKm)
	legs = append(legs, pickup)

	deliverySequence := 2
	deliveryOrigin := entry
	if entry.ID != exit.ID {
		var transferKm float64
		entryCoord, entryOK := entry.Coordinate()
		exitCoord, exitOK := exit.Coordinate()
		if entryOK && exitOK {
			transferKm = p.distance(ctx, entryCoord, exitCoord, routing.ModeTruck)
		}
		transfer := journey.NewTransferLeg(order.ID, 2, entry.ID, exit.ID, now)
		setLegDistance(transfer, transferKm)
		legs = append(legs, transfer)
		total += transferKm
		deliverySequence = 3
		deliveryOrigin = exit
	}

	var deliveryKm float64
	if originCoord, ok := deliveryOrigin.Coordinate(); ok {
		deliveryKm = p.distance(ctx, originCoord, receiverCoord, routing.ModeBike)
	}
	delivery := journey.NewDeliveryLeg(order.ID, deliverySequence, deliveryOrigin.ID, now)
	setLegDistance(delivery, deliveryKm)
	legs = append(legs, delivery)
	total += deliveryKm

	return &Plan{Legs: legs, TotalKm: utils.RoundKm(total)}
}

// smeCoordinate returns the sender location, geocoding and persisting it on
// first use.
func (p *Planner) smeCoordinate(ctx context.Context, repos common.Repositories, sme *warehouse.SME) (shared.Coordinate, error) {
	if coord, ok := sme.Coordinate(); ok {
		return coord, nil
	}
	if sme.Address == "" {
		return shared.Coordinate{}, shared.NewValidationError("sme", "sender "+sme.ID+" has no address or coordinates")
	}

	coord, err := p.provider.Geocode(ctx, journey.NormalizeAddress(sme.Address))
	if err != nil {
		return shared.Coordinate{}, err
	}
	sme.Lat, sme.Lon = &coord.Lat, &coord.Lon
	if err := repos.SMEs().Update(ctx, sme); err != nil {
		return shared.Coordinate{}, err
	}
	return coord, nil
}

// receiverCoordinate returns the destination, geocoding the receiver
// address and writing it back to the order when missing.
func (p *Planner) receiverCoordinate(ctx context.Context, repos common.Repositories, order *journey.Order) (shared.Coordinate, error) {
	if coord, ok := order.ReceiverCoordinate(); ok {
		return coord, nil
	}

	coord, err := p.provider.Geocode(ctx, journey.NormalizeAddress(order.ReceiverAddress))
	if err != nil {
		return shared.Coordinate{}, err
	}
	order.SetReceiverCoordinate(coord)
	if err := repos.Orders().Update(ctx, order); err != nil {
		return shared.Coordinate{}, err
	}
	return coord, nil
}

// candidates lists ACTIVE warehouses of the given types with a known
// location. Capacity is not filtered here: an over-capacity warehouse can
// still be selected, with a warning.
func (p *Planner) candidates(ctx context.Context, repos common.Repositories, areaID string, types []warehouse.Type) ([]*warehouse.Warehouse, error) {
	all, err := repos.Warehouses().FindActiveByArea(ctx, areaID, types)
	if err != nil {
		return nil, err
	}

	candidates := make([]*warehouse.Warehouse, 0, len(all))
	for _, w := range all {
		if _, ok := w.Coordinate(); !ok {
			continue
		}
		candidates = append(candidates, w)
	}
	return candidates, nil
}

// nearest picks the candidate with the smallest road distance from origin.
// Candidates arrive ordered by id, and only a strictly smaller distance
// displaces the current best, so ties resolve to the lowest warehouse id.
// Elements the provider could not route are skipped; when no element routes
// the choice degrades to haversine.
func (p *Planner) nearest(ctx context.Context, origin shared.Coordinate, candidates []*warehouse.Warehouse, mode routing.Mode) (*warehouse.Warehouse, float64, error) {
	if len(candidates) == 0 {
		return nil, 0, shared.NewCapacityExhaustedError("no active warehouse available")
	}

	dests := make([]shared.Coordinate, len(candidates))
	for i, w := range candidates {
		dests[i], _ = w.Coordinate()
	}

	elements, err := p.provider.DistanceMatrix(ctx, origin, dests, mode)
	if err != nil {
		logger := common.LoggerFromContext(ctx)
		logger.Warn("distance matrix failed, choosing by straight line", "error", err)
		elements = make([]routing.MatrixElement, len(dests))
		for i, d := range dests {
			elements[i] = routing.MatrixElement{OK: true, DistanceKm: shared.HaversineKm(origin, d)}
		}
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
		logger := common.LoggerFromContext(ctx)
		logger.Warn("no routable warehouse candidate, choosing by straight line",
			"candidates", len(candidates))
		for i, d := range dests {
			km := shared.HaversineKm(origin, d)
			if best == -1 || km < bestKm {
				best = i
				bestKm = km
			}
		}
	}
	return candidates[best], bestKm, nil
}

// distance is a single origin->dest road distance lookup. Failure is not
// fatal: the leg commits with a NULL estimate and a warning.
func (p *Planner) distance(ctx context.Context, origin, dest shared.Coordinate, mode routing.Mode) float64 {
	km, err := p.provider.DistanceKm(ctx, origin, dest, mode)
	if err != nil {
		logger := common.LoggerFromContext(ctx)
		logger.Warn("distance lookup failed, leaving estimate unset", "error", err)
		return 0
	}
	return km
}

// setLegDistance stores a positive estimate; zero stays NULL
func setLegDistance(leg *journey.Leg, km float64) {
	if km > 0 {
		rounded := utils.RoundKm(km)
		leg.EstimatedDistanceKm = &rounded
	}
}
