package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/andrescamacho/dispatch-go/internal/application/scan"
	"github.com/andrescamacho/dispatch-go/internal/domain/journey"
	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
)

type scanRequest struct {
	CodeValue   string   `json:"code_value" binding:"required"`
	Action      string   `json:"action"`
	WarehouseID string   `json:"warehouse_id"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lng"`
	Note        string   `json:"note"`
}

// scanAction handles explicit-action scans
func (s *Server) scanAction(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, shared.NewValidationError("body", err.Error()))
		return
	}
	if req.Action == "" {
		writeError(c, shared.NewValidationError("action", "is required"))
		return
	}
	s.runScan(c, req, journey.ScanAction(req.Action))
}

// scanUniversal resolves the action from the journey state
func (s *Server) scanUniversal(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, shared.NewValidationError("body", err.Error()))
		return
	}
	s.runScan(c, req, journey.ScanUniversal)
}

func (s *Server) runScan(c *gin.Context, req scanRequest, action journey.ScanAction) {
	actor := actorFrom(c)
	cmd := scan.Command{
		CodeValue:   req.CodeValue,
		Action:      action,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		WarehouseID: req.WarehouseID,
		Lat:         req.Lat,
		Lon:         req.Lon,
		Note:        req.Note,
	}

	resp, err := s.mediator.Send(c.Request.Context(), cmd)
	if err != nil {
		s.countScan(string(action), "rejected")
		writeError(c, err)
		return
	}

	result := resp.(scan.Result)
	outcome := "accepted"
	if result.Duplicate {
		outcome = "duplicate"
	}
	s.countScan(string(result.Action), outcome)

	body := gin.H{
		"order":     toOrderView(result.Order),
		"leg":       toLegView(result.Leg),
		"action":    string(result.Action),
		"duplicate": result.Duplicate,
	}
	if result.Warning != "" {
		body["warning"] = result.Warning
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) countScan(action, outcome string) {
	if s.metrics != nil {
		s.metrics.ScansTotal.WithLabelValues(action, outcome).Inc()
	}
}

func (s *Server) getScanHistory(c *gin.Context) {
	resp, err := s.mediator.Send(c.Request.Context(), scan.HistoryQuery{
		OrderID: c.Param("order_id"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": toScanLogViews(resp.([]*journey.ScanLog))})
}

func (s *Server) warehouseLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	resp, err := s.mediator.Send(c.Request.Context(), scan.WarehouseLogsQuery{
		WarehouseID: c.Param("warehouse_id"),
		Limit:       limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": toScanLogViews(resp.([]*journey.ScanLog))})
}

// barcodeImage renders an order label as a Code128 PNG
func (s *Server) barcodeImage(c *gin.Context) {
	codeValue := c.Param("code_value")
	if _, err := s.uow.Barcodes().FindByCodeValue(c.Request.Context(), codeValue); err != nil {
		writeError(c, err)
		return
	}

	img, err := s.renderer.RenderPNG(codeValue)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}
