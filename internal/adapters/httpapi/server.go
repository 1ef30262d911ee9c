package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andrescamacho/dispatch-go/internal/adapters/barcode"
	"github.com/andrescamacho/dispatch-go/internal/adapters/identity"
	"github.com/andrescamacho/dispatch-go/internal/adapters/metrics"
	"github.com/andrescamacho/dispatch-go/internal/application/common"
	"github.com/andrescamacho/dispatch-go/internal/infrastructure/config"
)

// HealthProbes are the readiness checks behind /health. Nil probes are
// reported as ok so tests and partial wirings stay green.
type HealthProbes struct {
	// DB pings the connection pool
	DB func(ctx context.Context) error
	// Routing reports whether the routing provider answered its ping in
	// the last agent tick
	Routing func() error
}

// Server is the HTTP surface of the dispatch engine
type Server struct {
	engine    *gin.Engine
	mediator  common.Mediator
	uow       common.UnitOfWork
	validator identity.Validator
	renderer  *barcode.Renderer
	metrics   *metrics.Collectors
	probes    *HealthProbes
	logger    *slog.Logger
}

// NewServer wires the gin engine with all routes and middleware
func NewServer(
	cfg *config.ServerConfig,
	mediator common.Mediator,
	uow common.UnitOfWork,
	validator identity.Validator,
	renderer *barcode.Renderer,
	collectors *metrics.Collectors,
	probes *HealthProbes,
	logger *slog.Logger,
) *Server {
	gin.SetMode(cfg.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:    engine,
		mediator:  mediator,
		uow:       uow,
		validator: validator,
		renderer:  renderer,
		metrics:   collectors,
		probes:    probes,
		logger:    logger,
	}

	engine.Use(s.requestLogger())
	if collectors != nil {
		engine.Use(collectors.Middleware())
		engine.GET("/metrics", gin.WrapH(
			promhttp.HandlerFor(collectors.Registry, promhttp.HandlerOpts{})))
	}

	engine.GET("/health", s.health)

	engine.POST("/orders", s.createOrder)
	engine.POST("/orders/:order_id/journey", s.createJourney)
	engine.GET("/orders/:order_id/journey", s.getOrderJourney)

	barcodes := engine.Group("/barcodes")
	{
		barcodes.POST("/scan", s.withActor(s.scanAction))
		barcodes.GET("/order/:order_id/history", s.getScanHistory)
		barcodes.GET("/:code_value/image", s.barcodeImage)
		barcodes.GET("/warehouse/:warehouse_id/logs", s.warehouseLogs)
	}
	engine.POST("/journey/scan", s.withActor(s.scanUniversal))

	dispatchGroup := engine.Group("/dispatch")
	{
		dispatchGroup.POST("/assign-shipper", s.assignShipper)
		dispatchGroup.PUT("/legs/:leg_id", s.updateLeg)
		dispatchGroup.DELETE("/legs/:leg_id", s.deleteLeg)
		dispatchGroup.POST("/transfer/assign-shipper", s.assignTransfer)
		dispatchGroup.POST("/delivery/assign-shipper", s.assignDelivery)
		dispatchGroup.GET("/orders/:order_id/legs", s.orderLegs)
		dispatchGroup.GET("/summary", s.dispatchSummary)
	}

	ai := engine.Group("/ai")
	{
		ai.POST("/optimize", s.optimize)
		ai.POST("/report-incident", s.reportIncident)
	}

	couriers := engine.Group("/couriers")
	{
		couriers.POST("/:courier_id/location", s.updateCourierLocation)
		couriers.GET("/:courier_id/tasks", s.courierTasks)
	}

	return s
}

// Handler exposes the engine for net/http servers and tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// health reports 200 only when the database pool answers and the routing
// provider succeeded its last scheduled ping.
func (s *Server) health(c *gin.Context) {
	checks := gin.H{"database": "ok", "routing": "ok"}
	healthy := true

	if s.probes != nil && s.probes.DB != nil {
		if err := s.probes.DB(c.Request.Context()); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
	}
	if s.probes != nil && s.probes.Routing != nil {
		if err := s.probes.Routing(); err != nil {
			checks["routing"] = err.Error()
			healthy = false
		}
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": checks})
}

// requestLogger attaches a request-scoped logger and logs each request
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLogger := s.logger.With("method", c.Request.Method, "path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(common.WithLogger(c.Request.Context(), reqLogger))
		c.Next()
		if c.Writer.Status() >= 500 {
			reqLogger.Error("request failed", "status", c.Writer.Status())
		}
	}
}

const actorKey = "actor"

// withActor authenticates the bearer token and stashes the actor
func (s *Server) withActor(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			c.Abort()
			return
		}
		actor, err := s.validator.Validate(c.Request.Context(), token)
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(actorKey, actor)
		next(c)
	}
}

func actorFrom(c *gin.Context) *identity.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(*identity.Actor); ok {
			return actor
		}
	}
	return nil
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
