package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/dispatch-go/internal/adapters/barcode"
	"github.com/andrescamacho/dispatch-go/internal/adapters/httpapi"
	"github.com/andrescamacho/dispatch-go/internal/adapters/identity"
	"github.com/andrescamacho/dispatch-go/internal/adapters/llm"
	"github.com/andrescamacho/dispatch-go/internal/adapters/metrics"
	"github.com/andrescamacho/dispatch-go/internal/adapters/notify"
	"github.com/andrescamacho/dispatch-go/internal/adapters/persistence"
	routingadapter "github.com/andrescamacho/dispatch-go/internal/adapters/routing"
	"github.com/andrescamacho/dispatch-go/internal/application/agent"
	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/application/dispatch"
	"github.com/andrescamacho/dispatch-go/internal/application/incident"
	"github.com/andrescamacho/dispatch-go/internal/application/planner"
	"github.com/andrescamacho/dispatch-go/internal/application/scan"
	"github.com/andrescamacho/dispatch-go/internal/domain/routing"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/infrastructure/config"
	"github.com/andrescamacho/dispatch-go/internal/infrastructure/database"
	"github.com/andrescamacho/dispatch-go/internal/infrastructure/logging"
)

// app holds the wired object graph shared by the CLI commands
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	db         *gorm.DB
	uow        common.UnitOfWork
	mediator   common.Mediator
	clock      shared.Clock
	collectors *metrics.Collectors
	server     *httpapi.Server
	scheduler  *agent.Scheduler
}

// buildApp loads configuration and wires every adapter and handler
func buildApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	clock := shared.NewRealClock()
	uow := persistence.NewUnitOfWork(db)

	provider, err := buildRoutingProvider(cfg, clock, logger)
	if err != nil {
		return nil, err
	}
	legPlanner := planner.NewPlanner(provider, clock)

	var sink common.NotificationSink
	if cfg.Notification.Enabled {
		sink = notify.NewClient(&cfg.Notification)
	} else {
		sink = &notify.NoopSink{Logger: logger}
	}

	mediator := common.NewMediator()
	collectors := metrics.NewCollectors()

	executor := agent.NewExecutor(mediator, uow, provider, clock, cfg.Agent.RebalanceCap)
	chat := llm.NewClient(&cfg.Agent.LM)
	loop := agent.NewLoop(chat, executor, mediator, cfg.Agent.MaxTurns)

	if err := registerHandlers(mediator, uow, legPlanner, provider, sink, clock, loop); err != nil {
		return nil, err
	}

	var validator identity.Validator
	if cfg.Identity.Disabled {
		validator = &identity.StaticValidator{Actor: identity.Actor{ID: "dev", Name: "dev", Role: scan.RoleCourier}}
	} else {
		validator = identity.NewClient(&cfg.Identity)
	}

	probes := &httpapi.HealthProbes{
		DB: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		// Stale means the scheduler missed a whole tick
		Routing: func() error { return provider.Check(2 * cfg.Agent.TickInterval) },
	}

	server := httpapi.NewServer(&cfg.Server, mediator, uow, validator, barcode.NewRenderer(), collectors, probes, logger)

	scheduler := agent.NewScheduler(mediator, uow, cfg.Agent.TickInterval, logger.With("component", "agent"))
	scheduler.Observe = func(d time.Duration) { collectors.AgentTickDuration.Observe(d.Seconds()) }
	scheduler.Ping = provider.Ping

	return &app{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		uow:        uow,
		mediator:   mediator,
		clock:      clock,
		collectors: collectors,
		server:     server,
		scheduler:  scheduler,
	}, nil
}

func buildRoutingProvider(cfg *config.Config, clock shared.Clock, logger *slog.Logger) (*routingadapter.StatusTracker, error) {
	var provider routing.Provider = routingadapter.NewClient(&cfg.Routing)
	if cfg.Routing.Cache.Enabled {
		cached, err := routingadapter.NewCachedProvider(provider, &cfg.Routing.Cache)
		if err != nil {
			return nil, err
		}
		provider = cached
	}
	fallback := routingadapter.NewFallbackProvider(provider, logger.With("component", "routing"))
	return routingadapter.NewStatusTracker(fallback, clock), nil
}

func registerHandlers(
	mediator common.Mediator,
	uow common.UnitOfWork,
	legPlanner *planner.Planner,
	provider routing.Provider,
	sink common.NotificationSink,
	clock shared.Clock,
	loop *agent.Loop,
) error {
	queryHandler := dispatch.NewQueryHandler(uow)
	selfAssign := dispatch.NewSelfAssignHandler(uow, clock)
	historyHandler := scan.NewHistoryHandler(uow)

	registrations := []struct {
		register func() error
	}{
		{func() error {
			return common.RegisterHandler[dispatch.CreateOrderCommand](mediator, dispatch.NewCreateOrderHandler(uow, clock))
		}},
		{func() error {
			return common.RegisterHandler[dispatch.CreateJourneyCommand](mediator, dispatch.NewCreateJourneyHandler(uow, legPlanner, clock))
		}},
		{func() error {
			return common.RegisterHandler[dispatch.BatchAssignCommand](mediator, dispatch.NewBatchAssignHandler(uow, legPlanner, clock))
		}},
		{func() error {
			return common.RegisterHandler[dispatch.AssignShipperCommand](mediator, dispatch.NewAssignShipperHandler(uow, legPlanner, clock))
		}},
		{func() error {
			return common.RegisterHandler[dispatch.UpdateLegCommand](mediator, dispatch.NewUpdateLegHandler(uow, provider, clock))
		}},
		{func() error {
			return common.RegisterHandler[dispatch.DeleteLegCommand](mediator, dispatch.NewDeleteLegHandler(uow, clock))
		}},
		{func() error { return common.RegisterHandler[dispatch.AssignTransferCommand](mediator, selfAssign) }},
		{func() error { return common.RegisterHandler[dispatch.AssignDeliveryCommand](mediator, selfAssign) }},
		{func() error {
			return common.RegisterHandler[dispatch.UpdateCourierLocationCommand](mediator, dispatch.NewUpdateCourierLocationHandler(uow, clock))
		}},
		{func() error { return common.RegisterHandler[dispatch.GetOrderJourneyQuery](mediator, queryHandler) }},
		{func() error { return common.RegisterHandler[dispatch.GetCourierTasksQuery](mediator, queryHandler) }},
		{func() error { return common.RegisterHandler[dispatch.GetDispatchSummaryQuery](mediator, queryHandler) }},
		{func() error { return common.RegisterHandler[scan.Command](mediator, scan.NewHandler(uow, sink, clock)) }},
		{func() error { return common.RegisterHandler[scan.HistoryQuery](mediator, historyHandler) }},
		{func() error { return common.RegisterHandler[scan.WarehouseLogsQuery](mediator, historyHandler) }},
		{func() error {
			return common.RegisterHandler[incident.ReportCommand](mediator, incident.NewHandler(uow, sink, clock))
		}},
		{func() error { return common.RegisterHandler[agent.OptimizeCommand](mediator, loop) }},
	}

	for _, r := range registrations {
		if err := r.register(); err != nil {
			return fmt.Errorf("failed to register handler: %w", err)
		}
	}
	return nil
}
