package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/andrescamacho/dispatch-go/internal/application/common"
)

// Scheduler runs an optimization cycle for every active area on a fixed
// interval. Areas are processed sequentially within a tick; a slow area
// delays the others rather than piling up concurrent cycles.
type Scheduler struct {
	mediator common.Mediator
	uow      common.UnitOfWork
	interval time.Duration
	logger   *slog.Logger

	// Observe, when set, receives the duration of each cycle
	Observe func(d time.Duration)

	// Ping, when set, probes the routing upstream once per tick so the
	// health endpoint can report its freshness
	Ping func(ctx context.Context) error
}

// NewScheduler creates the periodic scheduler
func NewScheduler(mediator common.Mediator, uow common.UnitOfWork, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{mediator: mediator, uow: uow, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, firing one pass immediately and then
// one per interval.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("agent scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	start := time.Now()
	if s.Ping != nil {
		if err := s.Ping(ctx); err != nil {
			s.logger.Warn("routing ping failed", "error", err)
		}
	}
	areas, err := s.uow.Areas().FindAllActive(ctx)
	if err != nil {
		s.logger.Error("agent tick failed to list areas", "error", err)
		return
	}

	for _, area := range areas {
		if ctx.Err() != nil {
			return
		}
		cycleStart := time.Now()
		tickCtx := common.WithLogger(ctx, s.logger.With("area_id", area.ID))
		if _, err := s.mediator.Send(tickCtx, OptimizeCommand{AreaID: area.ID}); err != nil {
			s.logger.Error("optimization cycle failed", "area_id", area.ID, "error", err)
		}
		if s.Observe != nil {
			s.Observe(time.Since(cycleStart))
		}
	}

	s.logger.Info("agent tick finished", "areas", len(areas), "duration", time.Since(start).String())
}
