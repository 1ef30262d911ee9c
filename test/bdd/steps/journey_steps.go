package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"gorm.io/gorm"

	"github.com/andrescamacho/dispatch-go/internal/adapters/persistence"
	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/application/dispatch"
	"github.com/andrescamacho/dispatch-go/internal/application/planner"
	"github.com/andrescamacho/dispatch-go/internal/application/scan"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/infrastructure/database"
	"github.com/andrescamacho/dispatch-go/test/helpers"
)

type journeyContext struct {
	db       *gorm.DB
	uow      *persistence.GormUnitOfWork
	mediator common.Mediator
	clock    *shared.MockClock
	sink     *helpers.RecorderSink

	orderID   string
	codeValue string
	scanErr   error
	lastScan  *scan.Result
}

func (jc *journeyContext) reset() error {
	if jc.db != nil {
		_ = database.Close(jc.db)
	}

	db, err := database.NewTestConnection()
	if err != nil {
		return fmt.Errorf("failed to create scenario database: %w", err)
	}
	jc.db = db
	jc.uow = persistence.NewUnitOfWork(db)
	jc.clock = shared.NewMockClock(helpers.FixedTime)
	jc.sink = &helpers.RecorderSink{}
	jc.mediator = common.NewMediator()
	jc.orderID = ""
	jc.codeValue = ""
	jc.scanErr = nil
	jc.lastScan = nil

	provider := &helpers.StubRoutingProvider{}
	p := planner.NewPlanner(provider, jc.clock)
	registrations := []func() error{
		func() error {
			return common.RegisterHandler[dispatch.CreateOrderCommand](jc.mediator, dispatch.NewCreateOrderHandler(jc.uow, jc.clock))
		},
		func() error {
			return common.RegisterHandler[dispatch.CreateJourneyCommand](jc.mediator, dispatch.NewCreateJourneyHandler(jc.uow, p, jc.clock))
		},
		func() error {
			return common.RegisterHandler[dispatch.UpdateLegCommand](jc.mediator, dispatch.NewUpdateLegHandler(jc.uow, provider, jc.clock))
		},
		func() error {
			return common.RegisterHandler[scan.Command](jc.mediator, scan.NewHandler(jc.uow, jc.sink, jc.clock))
		},
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}

func (jc *journeyContext) aServiceAreaWithWarehouses() error {
	smeLat, smeLon := 21.0400, 105.8300
	hubLat, hubLon := 21.0300, 105.8400
	satLat, satLon := 21.0150, 105.8520
	areaLat, areaLon := 21.0278, 105.8342

	models := []interface{}{
		&persistence.AreaModel{
			ID: "area-1", Name: "Hoan Kiem", CenterLat: &areaLat, CenterLon: &areaLon,
			RadiusKm: 30, Active: true, CreatedAt: helpers.FixedTime,
		},
		&persistence.SMEModel{
			ID: "sme-1", Name: "Pho 24", Phone: "0900000001",
			Address: "12 Hang Bac, Hoan Kiem, Hanoi", AreaID: "area-1",
			Lat: &smeLat, Lon: &smeLon, Active: true,
			CreatedAt: helpers.FixedTime, UpdatedAt: helpers.FixedTime,
		},
		&persistence.WarehouseModel{
			ID: "hub-1", Name: "Central Hub", Type: "HUB", AreaID: "area-1",
			Address: "1 Trang Tien, Hanoi", Lat: &hubLat, Lon: &hubLon, Status: "ACTIVE",
			CreatedAt: helpers.FixedTime, UpdatedAt: helpers.FixedTime,
		},
		&persistence.WarehouseModel{
			ID: "sat-1", Name: "South Satellite", Type: "SATELLITE", AreaID: "area-1",
			Address: "8 Giai Phong, Hanoi", Lat: &satLat, Lon: &satLon, Status: "ACTIVE",
			CreatedAt: helpers.FixedTime, UpdatedAt: helpers.FixedTime,
		},
	}
	for _, m := range models {
		if err := jc.db.Create(m).Error; err != nil {
			return fmt.Errorf("failed to seed fixture: %w", err)
		}
	}
	return nil
}

func (jc *journeyContext) anOnlineCourier(id, vehicle string) error {
	m := &persistence.CourierModel{
		ID: id, Name: "Courier " + id, Phone: "0900000002",
		Vehicle: vehicle, Status: "ONLINE", AreaID: "area-1", Rating: 4.5,
		CreatedAt: helpers.FixedTime, UpdatedAt: helpers.FixedTime,
	}
	if err := jc.db.Create(m).Error; err != nil {
		return fmt.Errorf("failed to seed courier: %w", err)
	}
	return nil
}

func (jc *journeyContext) anOrderIsCreated(receiver string) error {
	resp, err := jc.mediator.Send(context.Background(), dispatch.CreateOrderCommand{
		SMEID:           "sme-1",
		ReceiverName:    receiver,
		ReceiverPhone:   "0912345678",
		ReceiverAddress: "45 Lang Ha, Dong Da, Hanoi",
		WeightKg:        2.5,
	})
	if err != nil {
		return err
	}
	created := resp.(dispatch.CreateOrderResponse)
	jc.orderID = created.Order.ID
	jc.codeValue = created.Barcode.CodeValue
	return nil
}

func (jc *journeyContext) aJourneyIsPlanned() error {
	_, err := jc.mediator.Send(context.Background(), dispatch.CreateJourneyCommand{OrderID: jc.orderID})
	return err
}

func (jc *journeyContext) theJourneyHasLegs(count int) error {
	legs, err := jc.uow.Legs().FindByOrder(context.Background(), jc.orderID)
	if err != nil {
		return err
	}
	if len(legs) != count {
		return fmt.Errorf("expected %d legs, got %d", count, len(legs))
	}
	return nil
}

func (jc *journeyContext) theLegIsAssignedTo(legType, courierID string) error {
	legs, err := jc.uow.Legs().FindByOrder(context.Background(), jc.orderID)
	if err != nil {
		return err
	}
	leg := journey.LegOfType(legs, journey.LegType(legType))
	if leg == nil {
		return fmt.Errorf("order has no %s leg", legType)
	}
	_, err = jc.mediator.Send(context.Background(), dispatch.UpdateLegCommand{
		LegID:     leg.ID,
		CourierID: courierID,
	})
	return err
}

func (jc *journeyContext) runScan(cmd scan.Command) error {
	resp, err := jc.mediator.Send(context.Background(), cmd)
	jc.scanErr = err
	jc.lastScan = nil
	if err == nil {
		result := resp.(scan.Result)
		jc.lastScan = &result
	}
	return nil
}

func (jc *journeyContext) courierScans(courierID, action string) error {
	// Step outside the dedup window so consecutive scans are distinct
	jc.clock.Advance(2 * time.Minute)
	return jc.runScan(scan.Command{
		CodeValue: jc.codeValue,
		Action:    journey.ScanAction(action),
		ActorID:   courierID,
		ActorRole: scan.RoleCourier,
	})
}

func (jc *journeyContext) courierRepeatsScan(courierID, action string) error {
	return jc.runScan(scan.Command{
		CodeValue: jc.codeValue,
		Action:    journey.ScanAction(action),
		ActorID:   courierID,
		ActorRole: scan.RoleCourier,
	})
}

func (jc *journeyContext) warehouseStaffScans(staffID, warehouseID, action string) error {
	jc.clock.Advance(2 * time.Minute)
	return jc.runScan(scan.Command{
		CodeValue:   jc.codeValue,
		Action:      journey.ScanAction(action),
		ActorID:     staffID,
		ActorRole:   scan.RoleWarehouseStaff,
		WarehouseID: warehouseID,
	})
}

func (jc *journeyContext) theOrderStatusIs(status string) error {
	order, err := jc.uow.Orders().FindByID(context.Background(), jc.orderID)
	if err != nil {
		return err
	}
	if string(order.Status) != status {
		return fmt.Errorf("expected order status %s, got %s (last scan error: %v)", status, order.Status, jc.scanErr)
	}
	return nil
}

func (jc *journeyContext) theScanIsADuplicate() error {
	if jc.scanErr != nil {
		return fmt.Errorf("scan was rejected: %v", jc.scanErr)
	}
	if jc.lastScan == nil || !jc.lastScan.Duplicate {
		return fmt.Errorf("scan was not marked as a duplicate")
	}
	return nil
}

func (jc *journeyContext) theScanIsRejected() error {
	if jc.scanErr == nil {
		return fmt.Errorf("expected the scan to be rejected, but it was accepted")
	}
	return nil
}

func (jc *journeyContext) theSenderIsNotified() error {
	for _, push := range jc.sink.Sent() {
		if push.RecipientID == "sme-1" {
			return nil
		}
	}
	return fmt.Errorf("no delivery notification reached the sender")
}

// InitializeJourneyScenario registers the order lifecycle step definitions
func InitializeJourneyScenario(sc *godog.ScenarioContext) {
	jc := &journeyContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		return ctx, jc.reset()
	})
	sc.After(func(ctx context.Context, s *godog.Scenario, err error) (context.Context, error) {
		if jc.db != nil {
			_ = database.Close(jc.db)
			jc.db = nil
		}
		return ctx, nil
	})

	sc.Step(`^a service area with a hub and a satellite warehouse$`, jc.aServiceAreaWithWarehouses)
	sc.Step(`^an online courier "([^"]*)" with vehicle "([^"]*)"$`, jc.anOnlineCourier)
	sc.Step(`^an order is created for receiver "([^"]*)"$`, jc.anOrderIsCreated)
	sc.Step(`^a journey is planned for the order$`, jc.aJourneyIsPlanned)
	sc.Step(`^the journey has (\d+) legs$`, jc.theJourneyHasLegs)
	sc.Step(`^the "([^"]*)" leg is assigned to "([^"]*)"$`, jc.theLegIsAssignedTo)
	sc.Step(`^"([^"]*)" scans the barcode with action "([^"]*)"$`, jc.courierScans)
	sc.Step(`^"([^"]*)" immediately repeats the scan with action "([^"]*)"$`, jc.courierRepeatsScan)
	sc.Step(`^warehouse staff "([^"]*)" scans the barcode at "([^"]*)" with action "([^"]*)"$`, jc.warehouseStaffScans)
	sc.Step(`^the order status is "([^"]*)"$`, jc.theOrderStatusIs)
	sc.Step(`^the scan is acknowledged as a duplicate$`, jc.theScanIsADuplicate)
	sc.Step(`^the scan is rejected$`, jc.theScanIsRejected)
	sc.Step(`^the sender is notified of the delivery$`, jc.theSenderIsNotified)
}
