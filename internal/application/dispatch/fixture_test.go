package dispatch

import (
	"testing"

	"gorm.io/gorm"

	"github.com/andrescamacho/dispatch-go/internal/adapters/persistence"
	"github.com/andrescamacho/dispatch-go/internal/application/planner"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/test/helpers"
)

type fixture struct {
	db       *gorm.DB
	uow      *persistence.GormUnitOfWork
	clock    *shared.MockClock
	planner  *planner.Planner
	provider *helpers.StubRoutingProvider
}

// newFixture seeds one area with a sender, a hub, a satellite, and two
// online couriers.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(helpers.FixedTime)
	provider := &helpers.StubRoutingProvider{Geocodes: map[string]shared.Coordinate{}}

	helpers.SeedArea(t, db, "area-1")
	helpers.SeedSME(t, db, "sme-1", "area-1", 21.0400, 105.8300)
	helpers.SeedWarehouse(t, db, "hub-1", "area-1", "HUB", 21.0300, 105.8400)
	helpers.SeedWarehouse(t, db, "sat-1", "area-1", "SATELLITE", 21.0150, 105.8520)
	helpers.SeedCourier(t, db, "courier-bike", "area-1", "MOTORBIKE", "ONLINE")
	helpers.SeedCourier(t, db, "courier-truck", "area-1", "TRUCK", "ONLINE")

	uow := persistence.NewUnitOfWork(db)
	return &fixture{
		db:       db,
		uow:      uow,
		clock:    clock,
		planner:  planner.NewPlanner(provider, clock),
		provider: provider,
	}
}
